// Package pipeline runs one detection request end to end: encode the image,
// call the inference service, post-process the detections, and render the
// annotated output. It holds no state between runs; every request's
// parameters and results travel through explicit arguments and return
// values.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/ironsheep/detect-web/internal/annotate"
	"github.com/ironsheep/detect-web/internal/detection"
)

// ErrInvalidInput marks failures detected before the remote service is
// called: a missing image or out-of-range parameters.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoImage is returned when no image is supplied.
var ErrNoImage = fmt.Errorf("%w: no image supplied", ErrInvalidInput)

// Detector is the remote inference boundary. inference.Client implements
// it; tests substitute a stub.
type Detector interface {
	Detect(ctx context.Context, imageBytes []byte) ([]detection.Detection, error)
}

// RenderResult is the output bundle for one request: the annotated image,
// the summary line, and the displayed detection rows in display order.
type RenderResult struct {
	Summary    string                `json:"summary"`
	Detections []detection.Detection `json:"detections"`
	Image      *annotate.Result      `json:"image"`
}

// Pipeline composes the inference client with post-processing and
// rendering.
type Pipeline struct {
	detector Detector
	boxColor string // hex override for box color, "" selects the palette
}

// New creates a pipeline around the given detector. boxColorHex optionally
// forces a single box color; pass "" for per-label colors.
func New(detector Detector, boxColorHex string) *Pipeline {
	return &Pipeline{
		detector: detector,
		boxColor: boxColorHex,
	}
}

// Run executes one linear pass: validate, encode, detect, process, render.
//
// A nil image or invalid parameters return an ErrInvalidInput-wrapped error
// without touching the network. A failed remote call is returned as-is and
// the processor and renderer are never invoked. The displayed sequence is
// exactly the detections with score >= threshold, sorted by descending
// score (stable), truncated to at most top_k entries.
func (p *Pipeline) Run(ctx context.Context, img image.Image, params detection.Params) (*RenderResult, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for inference: %w", err)
	}

	raw, err := p.detector.Detect(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}

	shown := detection.Process(raw, params)

	rendered, err := annotate.Render(img, shown, annotate.DefaultBorderWidth, p.boxColor)
	if err != nil {
		return nil, err
	}

	return &RenderResult{
		Summary:    detection.Summary(len(shown), params),
		Detections: shown,
		Image:      rendered,
	}, nil
}
