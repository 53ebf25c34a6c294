package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/detect-web/internal/detection"
	"github.com/ironsheep/detect-web/internal/inference"
)

// stubDetector records whether it was called and returns canned results.
type stubDetector struct {
	dets   []detection.Detection
	err    error
	called bool
}

func (s *stubDetector) Detect(ctx context.Context, imageBytes []byte) ([]detection.Detection, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return s.dets, nil
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 32, 32))
}

func TestRun_NoImage(t *testing.T) {
	stub := &stubDetector{}
	p := New(stub, "")

	_, err := p.Run(context.Background(), nil, detection.Params{Threshold: 0.5, TopK: 10})

	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ErrNoImage should match ErrInvalidInput")
	}
	if stub.called {
		t.Error("detector must not be called without an image")
	}
}

func TestRun_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params detection.Params
	}{
		{"negative threshold", detection.Params{Threshold: -0.5, TopK: 10}},
		{"threshold above one", detection.Params{Threshold: 1.5, TopK: 10}},
		{"top_k zero", detection.Params{Threshold: 0.5, TopK: 0}},
		{"top_k negative", detection.Params{Threshold: 0.5, TopK: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubDetector{}
			p := New(stub, "")

			_, err := p.Run(context.Background(), testImage(), tt.params)

			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if stub.called {
				t.Error("detector must not be called with invalid parameters")
			}
		})
	}
}

func TestRun_RemoteFailureSkipsProcessing(t *testing.T) {
	remoteErr := &inference.RemoteError{Kind: inference.KindNetwork, Message: "connection refused"}
	stub := &stubDetector{err: remoteErr}
	p := New(stub, "")

	result, err := p.Run(context.Background(), testImage(), detection.Params{Threshold: 0.5, TopK: 10})

	if result != nil {
		t.Errorf("expected nil result on remote failure, got %+v", result)
	}
	var re *inference.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected the remote error to surface unchanged, got %v", err)
	}
}

func TestRun_HappyPath(t *testing.T) {
	stub := &stubDetector{dets: []detection.Detection{
		{Label: "cat", Score: 0.9, Box: detection.Box{XMin: 1, YMin: 1, XMax: 10, YMax: 10}},
		{Label: "dog", Score: 0.4, Box: detection.Box{XMin: 2, YMin: 2, XMax: 8, YMax: 8}},
		{Label: "cat", Score: 0.95, Box: detection.Box{XMin: 3, YMin: 3, XMax: 12, YMax: 12}},
	}}
	p := New(stub, "")

	result, err := p.Run(context.Background(), testImage(), detection.Params{Threshold: 0.5, TopK: 10})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Summary != "Found 2 objects (threshold=0.5, top_k=10)" {
		t.Errorf("Summary: got %q", result.Summary)
	}
	if len(result.Detections) != 2 {
		t.Fatalf("detections: got %d, want 2", len(result.Detections))
	}
	if result.Detections[0].Score != 0.95 || result.Detections[1].Score != 0.9 {
		t.Errorf("order: got %+v", result.Detections)
	}
	if result.Image == nil || result.Image.ImageBase64 == "" {
		t.Error("expected an annotated image in the result")
	}
	if result.Image.Width != 32 || result.Image.Height != 32 {
		t.Errorf("image dimensions: got %dx%d, want 32x32", result.Image.Width, result.Image.Height)
	}
}

func TestRun_EmptyDetections(t *testing.T) {
	stub := &stubDetector{}
	p := New(stub, "")

	result, err := p.Run(context.Background(), testImage(), detection.Params{Threshold: 0.5, TopK: 5})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Summary != "Found 0 objects (threshold=0.5, top_k=5)" {
		t.Errorf("Summary: got %q", result.Summary)
	}
	if len(result.Detections) != 0 {
		t.Errorf("expected no detections, got %v", result.Detections)
	}
	if result.Image == nil || result.Image.ImageBase64 == "" {
		t.Error("expected the unannotated image in the result")
	}
}
