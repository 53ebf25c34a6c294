package annotate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/detect-web/internal/detection"
)

// DefaultBorderWidth is the box outline thickness in pixels.
const DefaultBorderWidth = 3

// Result contains the annotated image encoded for transport.
type Result struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Render draws the detections onto a copy of img and returns it as a
// base64-encoded PNG. An empty detection list yields the unannotated
// original pixels. colorHex optionally forces a single box color; an empty
// or unparseable value selects the per-label palette.
func Render(img image.Image, dets []detection.Detection, borderWidth int, colorHex string) (*Result, error) {
	annotated := Draw(img, dets, borderWidth, colorHex)

	var buf bytes.Buffer
	if err := png.Encode(&buf, annotated); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}

	bounds := annotated.Bounds()
	return &Result{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Draw returns a copy of img with one rectangle and one label tag per
// detection. The input image is never modified.
func Draw(img image.Image, dets []detection.Detection, borderWidth int, colorHex string) *image.NRGBA {
	result := imaging.Clone(img)

	if borderWidth <= 0 {
		borderWidth = DefaultBorderWidth
	}

	var forced *color.NRGBA
	if colorHex != "" {
		if c, err := parseHexColor(colorHex); err == nil {
			forced = &c
		}
	}

	for _, d := range dets {
		boxColor := labelColor(d.Label)
		if forced != nil {
			boxColor = *forced
		}

		rect := image.Rect(d.Box.XMin, d.Box.YMin, d.Box.XMax, d.Box.YMax)
		drawRectOutline(result, rect, boxColor, borderWidth)

		tag := fmt.Sprintf("%s %.2f", d.Label, d.Score)
		drawTag(result, d.Box.XMin, d.Box.YMin, tag, boxColor)
	}

	return result
}

// drawRectOutline draws a rectangle border of the given width, growing
// inward from the rectangle edge. Pixels outside the image bounds are
// silently dropped by Set.
func drawRectOutline(img *image.NRGBA, rect image.Rectangle, c color.NRGBA, width int) {
	for i := 0; i < width; i++ {
		r := rect.Inset(i)
		if r.Empty() {
			break
		}
		for x := r.Min.X; x <= r.Max.X; x++ {
			img.Set(x, r.Min.Y, c)
			img.Set(x, r.Max.Y, c)
		}
		for y := r.Min.Y; y <= r.Max.Y; y++ {
			img.Set(r.Min.X, y, c)
			img.Set(r.Max.X, y, c)
		}
	}
}

// tag rendering constants for basicfont.Face7x13
const (
	tagHeight  = 13
	tagAscent  = 11
	tagPadding = 2
)

// drawTag draws the label text on a solid background anchored above the
// point (x, y), clamped so the tag never starts above the image top.
func drawTag(img *image.NRGBA, x, y int, text string, bg color.NRGBA) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()

	bounds := img.Bounds()
	top := y - tagHeight - 2*tagPadding
	if top < bounds.Min.Y {
		top = bounds.Min.Y
	}

	tagRect := image.Rect(x, top, x+textWidth+2*tagPadding, top+tagHeight+2*tagPadding)
	for py := tagRect.Min.Y; py < tagRect.Max.Y; py++ {
		for px := tagRect.Min.X; px < tagRect.Max.X; px++ {
			img.Set(px, py, bg)
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColorFor(bg)),
		Face: face,
		Dot: fixed.P(
			tagRect.Min.X+tagPadding,
			tagRect.Min.Y+tagPadding+tagAscent,
		),
	}
	drawer.DrawString(text)
}

// textColorFor picks black or white text for contrast against the tag
// background.
func textColorFor(bg color.NRGBA) color.NRGBA {
	// Perceived luminance, ITU-R BT.601 weights.
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 160 {
		return color.NRGBA{0, 0, 0, 255}
	}
	return color.NRGBA{255, 255, 255, 255}
}
