package detection

import (
	"fmt"
	"sort"
	"strconv"
)

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

// Detection is one predicted object instance.
type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   Box     `json:"box"`
}

// Params holds the per-request display parameters. Values are supplied by
// the caller for each request and are never persisted.
type Params struct {
	// Threshold is the minimum confidence required for a detection to be
	// displayed, in [0, 1].
	Threshold float64 `json:"threshold"`

	// TopK is the maximum number of detections displayed, highest
	// confidence first. Process treats TopK <= 0 as "no limit"; the HTTP
	// boundary rejects such values before they reach the pipeline.
	TopK int `json:"top_k"`
}

// Validate checks that the parameters are inside their documented ranges.
func (p Params) Validate() error {
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("threshold %g outside [0, 1]", p.Threshold)
	}
	if p.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", p.TopK)
	}
	return nil
}

// Process filters, sorts, and truncates raw detections.
//
// Detections with Score < p.Threshold are dropped, the remainder is sorted
// by descending score (stable, so equal scores keep their input order), and
// the result is truncated to at most p.TopK entries. An empty input, or a
// threshold that excludes everything, yields an empty slice.
//
// The input slice is not modified.
func Process(dets []Detection, p Params) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Score >= p.Threshold {
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if p.TopK > 0 && len(out) > p.TopK {
		out = out[:p.TopK]
	}
	return out
}

// Summary formats the one-line result summary shown above the table.
func Summary(n int, p Params) string {
	return fmt.Sprintf("Found %d objects (threshold=%s, top_k=%d)",
		n, strconv.FormatFloat(p.Threshold, 'g', -1, 64), p.TopK)
}
