package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ironsheep/detect-web/internal/detection"
)

const (
	// DefaultBaseURL is the hosted inference router. A model ID is
	// appended as the final path element.
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"

	// DefaultTimeout bounds a single inference call.
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes caps how much of a response body is read. Detection
	// lists are small; anything larger is not a payload we can use.
	maxResponseBytes = 4 << 20

	// maxErrorSnippet limits upstream body text echoed into error messages.
	maxErrorSnippet = 200
)

// Client calls the remote object-detection endpoint.
type Client struct {
	url   string
	token string
	http  *http.Client
}

// New creates a client for the given model. An empty baseURL selects
// DefaultBaseURL and an empty token omits the Authorization header.
func New(baseURL, modelID, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:   strings.TrimSuffix(baseURL, "/") + "/" + modelID,
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

// URL returns the resolved endpoint URL, for startup diagnostics.
func (c *Client) URL() string {
	return c.url
}

// Detect sends PNG-encoded image bytes to the inference endpoint and
// returns the raw detections. Every failure mode is reported as a
// *RemoteError; see the package documentation for the classification.
func (c *Client) Detect(ctx context.Context, imageBytes []byte) ([]detection.Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(imageBytes))
	if err != nil {
		return nil, &RemoteError{Kind: KindNetwork, Message: "building request", cause: err}
	}
	req.Header.Set("Content-Type", "image/png")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteError{Kind: KindNetwork, Message: "request failed", cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RemoteError{Kind: KindNetwork, Status: resp.StatusCode, Message: "reading response", cause: err}
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, &RemoteError{
			Kind:    KindModelLoading,
			Status:  resp.StatusCode,
			Message: "model is loading upstream, try again shortly",
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{
			Kind:    KindStatus,
			Status:  resp.StatusCode,
			Message: snippet(body),
		}
	}

	return decodeDetections(body)
}

// wireBox and wireDetection use pointer fields so that missing keys are
// distinguishable from zero values during decoding.
type wireBox struct {
	XMin *int `json:"xmin"`
	YMin *int `json:"ymin"`
	XMax *int `json:"xmax"`
	YMax *int `json:"ymax"`
}

type wireDetection struct {
	Label *string  `json:"label"`
	Score *float64 `json:"score"`
	Box   *wireBox `json:"box"`
}

// decodeDetections parses a successful response body into detections,
// rejecting anything that is not a well-formed detection array.
func decodeDetections(body []byte) ([]detection.Detection, error) {
	var raw []wireDetection
	if err := json.Unmarshal(body, &raw); err != nil {
		// The upstream reports some failures as a 200 with an error
		// object instead of an array.
		var apiErr struct {
			Error *string `json:"error"`
		}
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error != nil {
			return nil, &RemoteError{Kind: KindPayload, Status: http.StatusOK, Message: *apiErr.Error}
		}
		return nil, &RemoteError{
			Kind:    KindPayload,
			Status:  http.StatusOK,
			Message: fmt.Sprintf("unexpected response shape: %s", snippet(body)),
			cause:   err,
		}
	}

	dets := make([]detection.Detection, 0, len(raw))
	for i, w := range raw {
		if w.Label == nil || w.Score == nil || w.Box == nil {
			return nil, payloadErrorf("detection %d missing label, score, or box", i)
		}
		if w.Box.XMin == nil || w.Box.YMin == nil || w.Box.XMax == nil || w.Box.YMax == nil {
			return nil, payloadErrorf("detection %d has an incomplete box", i)
		}
		dets = append(dets, detection.Detection{
			Label: *w.Label,
			Score: *w.Score,
			Box: detection.Box{
				XMin: *w.Box.XMin,
				YMin: *w.Box.YMin,
				XMax: *w.Box.XMax,
				YMax: *w.Box.YMax,
			},
		})
	}
	return dets, nil
}

func payloadErrorf(format string, args ...interface{}) *RemoteError {
	return &RemoteError{Kind: KindPayload, Status: http.StatusOK, Message: fmt.Sprintf(format, args...)}
}

// snippet trims an upstream body for inclusion in an error message.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}
