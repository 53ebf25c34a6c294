package annotate

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/detect-web/internal/detection"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var gray = color.NRGBA{128, 128, 128, 255}

func TestDraw_EmptyDetections(t *testing.T) {
	img := solidImage(50, 50, gray)

	result := Draw(img, nil, DefaultBorderWidth, "")

	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if result.NRGBAAt(x, y) != gray {
				t.Fatalf("pixel (%d,%d) changed on empty detection list", x, y)
			}
		}
	}
}

func TestDraw_DoesNotModifyInput(t *testing.T) {
	img := solidImage(50, 50, gray)
	dets := []detection.Detection{
		{Label: "cat", Score: 0.9, Box: detection.Box{XMin: 10, YMin: 30, XMax: 40, YMax: 45}},
	}

	Draw(img, dets, DefaultBorderWidth, "")

	if img.NRGBAAt(10, 30) != gray {
		t.Error("input image was modified")
	}
}

func TestDraw_BoxOutline(t *testing.T) {
	img := solidImage(100, 100, gray)
	dets := []detection.Detection{
		{Label: "cat", Score: 0.9, Box: detection.Box{XMin: 20, YMin: 50, XMax: 80, YMax: 90}},
	}

	result := Draw(img, dets, DefaultBorderWidth, "#FF0000")

	red := color.NRGBA{255, 0, 0, 255}
	border := []image.Point{
		{20, 50}, {80, 50}, {20, 90}, {80, 90}, // corners
		{50, 50}, {50, 90}, {20, 70}, {80, 70}, // edge midpoints
		{50, 52}, {22, 70}, // inner border rows for width 3
	}
	for _, pt := range border {
		if got := result.NRGBAAt(pt.X, pt.Y); got != red {
			t.Errorf("border pixel (%d,%d): got %v, want %v", pt.X, pt.Y, got, red)
		}
	}

	// Box interior is untouched.
	if got := result.NRGBAAt(50, 70); got != gray {
		t.Errorf("interior pixel: got %v, want %v", got, gray)
	}
}

func TestDraw_TagAboveBox(t *testing.T) {
	img := solidImage(100, 100, gray)
	dets := []detection.Detection{
		{Label: "cat", Score: 0.9, Box: detection.Box{XMin: 10, YMin: 50, XMax: 90, YMax: 90}},
	}

	result := Draw(img, dets, DefaultBorderWidth, "#FF0000")

	// The tag background sits directly above the box's top-left corner.
	if got := result.NRGBAAt(12, 45); got == gray {
		t.Error("expected tag background above the box top-left corner")
	}
}

func TestDraw_TagClampedAtTop(t *testing.T) {
	img := solidImage(100, 100, gray)
	dets := []detection.Detection{
		{Label: "cat", Score: 0.9, Box: detection.Box{XMin: 10, YMin: 2, XMax: 90, YMax: 40}},
	}

	// Must not panic and must still draw the tag inside the image.
	result := Draw(img, dets, DefaultBorderWidth, "#FF0000")

	if got := result.NRGBAAt(12, 1); got == gray {
		t.Error("expected tag background clamped to the top edge")
	}
}

func TestDraw_OutOfBoundsBox(t *testing.T) {
	img := solidImage(50, 50, gray)
	dets := []detection.Detection{
		{Label: "cat", Score: 0.9, Box: detection.Box{XMin: 40, YMin: 40, XMax: 120, YMax: 120}},
	}

	// Pixels outside the image are dropped by the drawing primitives.
	result := Draw(img, dets, DefaultBorderWidth, "")
	if result.Bounds().Dx() != 50 || result.Bounds().Dy() != 50 {
		t.Errorf("bounds changed: %v", result.Bounds())
	}
}

func TestRender(t *testing.T) {
	img := solidImage(64, 48, gray)
	dets := []detection.Detection{
		{Label: "dog", Score: 0.8, Box: detection.Box{XMin: 5, YMin: 20, XMax: 30, YMax: 40}},
	}

	result, err := Render(img, dets, DefaultBorderWidth, "")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if result.Width != 64 || result.Height != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if _, err := base64.StdEncoding.DecodeString(result.ImageBase64); err != nil {
		t.Errorf("failed to decode base64: %v", err)
	}
}

func TestLabelColor_Deterministic(t *testing.T) {
	if labelColor("cat") != labelColor("cat") {
		t.Error("same label produced different colors")
	}
	if labelColor("cat") == labelColor("dog") {
		t.Error("expected distinct colors for cat and dog")
	}
	if labelColor("cat").A != 255 {
		t.Error("box colors must be opaque")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		want    color.NRGBA
		wantErr bool
	}{
		{"rgb", "#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"rgba", "#00FF0080", color.NRGBA{0, 255, 0, 128}, false},
		{"no hash", "0000FF", color.NRGBA{0, 0, 255, 255}, false},
		{"empty", "", color.NRGBA{}, true},
		{"bad length", "#FFF", color.NRGBA{}, true},
		{"not hex", "#GGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHexColor(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
