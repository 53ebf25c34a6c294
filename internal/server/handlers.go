package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/detect-web/internal/detection"
	"github.com/ironsheep/detect-web/internal/inference"
	"github.com/ironsheep/detect-web/internal/pipeline"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// detectRow is one table row in the response, in display order.
type detectRow struct {
	Label string        `json:"label"`
	Score float64       `json:"score"`
	Box   detection.Box `json:"box"`
}

// detectResponse is the success payload for POST /api/detect.
type detectResponse struct {
	Summary    string               `json:"summary"`
	Count      int                  `json:"count"`
	Detections []detectRow          `json:"detections"`
	Image      *annotateResultProxy `json:"image"`
	Params     detection.Params     `json:"params"`
}

// annotateResultProxy mirrors annotate.Result to keep the wire shape
// explicit at the API boundary.
type annotateResultProxy struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// handleDetect runs one detection pass for an uploaded image.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	s.metrics.requests.Add(1)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	imgBytes, params, err := s.parseRequest(r)
	if err != nil {
		s.metrics.invalidInput.Add(1)
		s.sendError(w, "invalid_input", "could not read the request", err.Error(), http.StatusBadRequest)
		return
	}

	if len(imgBytes) == 0 {
		s.metrics.invalidInput.Add(1)
		s.sendError(w, "invalid_input", "no image supplied", "", http.StatusBadRequest)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		s.metrics.invalidInput.Add(1)
		s.sendError(w, "invalid_image", "could not decode the image", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.pipeline.Run(r.Context(), img, params)
	if err != nil {
		s.respondPipelineError(w, r, err)
		return
	}

	s.metrics.succeeded.Add(1)
	s.sendJSON(w, http.StatusOK, buildDetectResponse(result, params))
}

// respondPipelineError maps pipeline failures to HTTP statuses. Every
// failure produces a JSON body; nothing is swallowed.
func (s *Server) respondPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, pipeline.ErrInvalidInput) {
		s.metrics.invalidInput.Add(1)
		s.sendError(w, "invalid_input", err.Error(), "", http.StatusBadRequest)
		return
	}

	var re *inference.RemoteError
	if errors.As(err, &re) {
		s.metrics.remoteFailures.Add(1)
		s.logFor(r).WithFields(logrus.Fields{
			"kind":   string(re.Kind),
			"status": re.Status,
		}).Warn("inference call failed")

		if re.Kind == inference.KindModelLoading {
			s.sendError(w, "model_loading", re.Message, "", http.StatusServiceUnavailable)
			return
		}
		s.sendError(w, "remote_error", "inference service failed", re.Message, http.StatusBadGateway)
		return
	}

	s.logFor(r).WithError(err).Error("detection pass failed")
	s.sendError(w, "internal_error", "detection failed", "", http.StatusInternalServerError)
}

func buildDetectResponse(result *pipeline.RenderResult, params detection.Params) *detectResponse {
	rows := make([]detectRow, len(result.Detections))
	for i, d := range result.Detections {
		rows[i] = detectRow{
			Label: d.Label,
			Score: math.Round(d.Score*10000) / 10000,
			Box:   d.Box,
		}
	}

	return &detectResponse{
		Summary:    result.Summary,
		Count:      len(rows),
		Detections: rows,
		Image: &annotateResultProxy{
			Width:       result.Image.Width,
			Height:      result.Image.Height,
			ImageBase64: result.Image.ImageBase64,
			MimeType:    result.Image.MimeType,
		},
		Params: params,
	}
}

// parseRequest extracts the image bytes and display parameters from one of
// the three supported body formats.
func (s *Server) parseRequest(r *http.Request) ([]byte, detection.Params, error) {
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		return s.parseMultipart(r)
	case strings.HasPrefix(contentType, "application/json"):
		return s.parseJSON(r)
	default:
		return s.parseRaw(r)
	}
}

func (s *Server) parseMultipart(r *http.Request) ([]byte, detection.Params, error) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		return nil, detection.Params{}, err
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, detection.Params{}, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	imgBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, detection.Params{}, err
	}

	params, err := s.paramsFromValues(r.MultipartForm.Value)
	return imgBytes, params, err
}

func (s *Server) parseJSON(r *http.Request) ([]byte, detection.Params, error) {
	var req struct {
		Image     string   `json:"image"`
		Threshold *float64 `json:"threshold"`
		TopK      *int     `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, detection.Params{}, err
	}

	imgBytes, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return nil, detection.Params{}, fmt.Errorf("image field is not valid base64: %w", err)
	}

	params := s.defaultParams()
	if req.Threshold != nil {
		params.Threshold = *req.Threshold
	}
	if req.TopK != nil {
		params.TopK = *req.TopK
	}
	return imgBytes, params, nil
}

func (s *Server) parseRaw(r *http.Request) ([]byte, detection.Params, error) {
	imgBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, detection.Params{}, err
	}

	params, err := s.paramsFromValues(r.URL.Query())
	return imgBytes, params, err
}

// paramsFromValues reads threshold/top_k from form or query values,
// falling back to the configured defaults for absent keys. Unparseable
// values are an error rather than a silent fallback.
func (s *Server) paramsFromValues(values url.Values) (detection.Params, error) {
	params := s.defaultParams()

	if v := values.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, fmt.Errorf("threshold %q is not a number", v)
		}
		params.Threshold = f
	}
	if v := values.Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("top_k %q is not an integer", v)
		}
		params.TopK = n
	}
	return params, nil
}

func (s *Server) defaultParams() detection.Params {
	return detection.Params{
		Threshold: s.cfg.DefaultThreshold,
		TopK:      s.cfg.DefaultTopK,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.cfg.ModelID,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]int64{
		"requests":        s.metrics.requests.Load(),
		"succeeded":       s.metrics.succeeded.Load(),
		"invalid_input":   s.metrics.invalidInput.Load(),
		"remote_failures": s.metrics.remoteFailures.Load(),
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, code, message, details string, status int) {
	s.sendJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
