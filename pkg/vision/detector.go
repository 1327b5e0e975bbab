// Package vision finds rectangular UI elements inside screenshot regions
// using an edge map and contour bounding rectangles.
package vision

import (
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/ux-analyzer/pkg/palette"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

// ElementDetector detects interactive-looking elements in an image
type ElementDetector struct {
	config DetectionConfig
}

// DetectionConfig holds the edge and contour filter thresholds
type DetectionConfig struct {
	EdgeThreshold    float64 `json:"edge_threshold" yaml:"edge_threshold"`
	DilateIterations int     `json:"dilate_iterations" yaml:"dilate_iterations"`
	MinWidth         int     `json:"min_width" yaml:"min_width"`
	MinHeight        int     `json:"min_height" yaml:"min_height"`
	MinArea          int     `json:"min_area" yaml:"min_area"`
	MaxWidthRatio    float64 `json:"max_width_ratio" yaml:"max_width_ratio"`
	MaxHeightRatio   float64 `json:"max_height_ratio" yaml:"max_height_ratio"`
	MinAspectRatio   float64 `json:"min_aspect_ratio" yaml:"min_aspect_ratio"`
	MaxAspectRatio   float64 `json:"max_aspect_ratio" yaml:"max_aspect_ratio"`
	ButtonMinAspect  float64 `json:"button_min_aspect" yaml:"button_min_aspect"`
	ButtonMaxAspect  float64 `json:"button_max_aspect" yaml:"button_max_aspect"`
	ControlMaxAspect float64 `json:"control_max_aspect" yaml:"control_max_aspect"`
	ColorSampleSize  int     `json:"color_sample_size" yaml:"color_sample_size"`
}

// DefaultConfig returns the detection defaults
func DefaultConfig() DetectionConfig {
	return DetectionConfig{
		EdgeThreshold:    100,
		DilateIterations: 0,
		MinWidth:         20,
		MinHeight:        15,
		MinArea:          300,
		MaxWidthRatio:    0.9,
		MaxHeightRatio:   0.9,
		MinAspectRatio:   0.05,
		MaxAspectRatio:   20,
		ButtonMinAspect:  0.5,
		ButtonMaxAspect:  3,
		ControlMaxAspect: 12,
		ColorSampleSize:  50,
	}
}

// Validate checks the detection configuration
func (c DetectionConfig) Validate() error {
	if c.EdgeThreshold <= 0 {
		return types.NewConfigError("elements.edge_threshold", "must be positive, got %g", c.EdgeThreshold)
	}
	if c.DilateIterations < 0 {
		return types.NewConfigError("elements.dilate_iterations", "must not be negative, got %d", c.DilateIterations)
	}
	if c.MinWidth < 1 || c.MinHeight < 1 {
		return types.NewConfigError("elements.min_width", "min width and height must be positive, got %dx%d", c.MinWidth, c.MinHeight)
	}
	if c.MinArea < 0 {
		return types.NewConfigError("elements.min_area", "must not be negative, got %d", c.MinArea)
	}
	if c.MaxWidthRatio <= 0 || c.MaxWidthRatio > 1 {
		return types.NewConfigError("elements.max_width_ratio", "must be in (0,1], got %g", c.MaxWidthRatio)
	}
	if c.MaxHeightRatio <= 0 || c.MaxHeightRatio > 1 {
		return types.NewConfigError("elements.max_height_ratio", "must be in (0,1], got %g", c.MaxHeightRatio)
	}
	if c.MinAspectRatio <= 0 || c.MaxAspectRatio < c.MinAspectRatio {
		return types.NewConfigError("elements.min_aspect_ratio", "aspect range [%g,%g] is invalid", c.MinAspectRatio, c.MaxAspectRatio)
	}
	if c.ButtonMinAspect <= 0 || c.ButtonMaxAspect < c.ButtonMinAspect || c.ControlMaxAspect < c.ButtonMaxAspect {
		return types.NewConfigError("elements.button_min_aspect", "kind thresholds must satisfy 0 < button_min <= button_max <= control_max")
	}
	if c.ColorSampleSize < 1 {
		return types.NewConfigError("elements.color_sample_size", "must be positive, got %d", c.ColorSampleSize)
	}
	return nil
}

// New creates a new ElementDetector with default configuration
func New() *ElementDetector {
	return &ElementDetector{config: DefaultConfig()}
}

// NewWithConfig creates a new ElementDetector with custom configuration
func NewWithConfig(config DetectionConfig) *ElementDetector {
	return &ElementDetector{config: config}
}

// Detect returns a copy of regions with Elements populated. Each region is
// searched on its own so an element never straddles two bands; every
// candidate is then assigned by the vertical position of its center.
func (d *ElementDetector) Detect(img image.Image, regions []types.Region) []types.Region {
	out := make([]types.Region, len(regions))
	for i, r := range regions {
		out[i] = r
		out[i].Elements = make([]types.Element, 0)
	}

	origin := img.Bounds().Min
	for _, r := range regions {
		if r.Bounds.Empty() {
			continue
		}
		band := imaging.Crop(img, image.Rect(
			origin.X+r.Bounds.X, origin.Y+r.Bounds.Y,
			origin.X+r.Bounds.Right(), origin.Y+r.Bounds.Bottom(),
		))

		for _, rect := range d.candidates(band) {
			b := types.Bounds{
				X:      r.Bounds.X + rect.Min.X,
				Y:      r.Bounds.Y + rect.Min.Y,
				Width:  rect.Dx(),
				Height: rect.Dy(),
			}
			idx := types.RegionIndexFor(out, b)
			if idx < 0 {
				continue
			}
			out[idx].Elements = append(out[idx].Elements, d.describe(band, rect, b))
		}
	}

	for i := range out {
		sortElements(out[i].Elements)
	}
	return out
}

// candidates returns the filtered contour rectangles of band in band coordinates
func (d *ElementDetector) candidates(band *image.NRGBA) []image.Rectangle {
	width, height := band.Bounds().Dx(), band.Bounds().Dy()

	var kept []image.Rectangle
	for _, rect := range findRects(band, d.config) {
		if d.accept(rect, width, height) {
			kept = append(kept, rect)
		}
	}
	return suppressDuplicates(kept)
}

// accept applies the size and shape filters relative to the containing band
func (d *ElementDetector) accept(rect image.Rectangle, bandWidth, bandHeight int) bool {
	w, h := rect.Dx(), rect.Dy()
	if w < d.config.MinWidth || h < d.config.MinHeight {
		return false
	}
	if w*h < d.config.MinArea {
		return false
	}
	if float64(w) > float64(bandWidth)*d.config.MaxWidthRatio || float64(h) > float64(bandHeight)*d.config.MaxHeightRatio {
		return false
	}
	aspect := float64(w) / float64(h)
	return aspect >= d.config.MinAspectRatio && aspect <= d.config.MaxAspectRatio
}

func (d *ElementDetector) describe(band *image.NRGBA, rect image.Rectangle, b types.Bounds) types.Element {
	aspect := float64(b.Width) / float64(b.Height)
	return types.Element{
		Kind:            d.Classify(aspect),
		Bounds:          b,
		AspectRatio:     aspect,
		Area:            b.Area(),
		BackgroundColor: palette.ModeColor(imaging.Crop(band, rect), d.config.ColorSampleSize),
	}
}

// Classify maps an aspect ratio to a coarse element kind
func (d *ElementDetector) Classify(aspect float64) types.ElementKind {
	switch {
	case aspect >= d.config.ButtonMinAspect && aspect <= d.config.ButtonMaxAspect:
		return types.ElementButton
	case aspect > d.config.ButtonMaxAspect && aspect <= d.config.ControlMaxAspect:
		return types.ElementControl
	default:
		return types.ElementUnknown
	}
}

// suppressDuplicates drops rectangles that overlap an already kept, larger
// rectangle almost entirely. Inner and outer contours of the same stroke
// collapse to the outer one.
func suppressDuplicates(rects []image.Rectangle) []image.Rectangle {
	sort.SliceStable(rects, func(i, j int) bool {
		ai, aj := area(rects[i]), area(rects[j])
		if ai != aj {
			return ai > aj
		}
		if rects[i].Min.Y != rects[j].Min.Y {
			return rects[i].Min.Y < rects[j].Min.Y
		}
		return rects[i].Min.X < rects[j].Min.X
	})

	kept := make([]image.Rectangle, 0, len(rects))
	for _, r := range rects {
		duplicate := false
		for _, k := range kept {
			if overlapRatio(r, k) >= 0.85 {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, r)
		}
	}
	return kept
}

// overlapRatio is intersection over union
func overlapRatio(a, b image.Rectangle) float64 {
	inter := area(a.Intersect(b))
	if inter == 0 {
		return 0
	}
	return float64(inter) / float64(area(a)+area(b)-inter)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// sortElements orders elements top to bottom, then left to right
func sortElements(elements []types.Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		a, b := elements[i].Bounds, elements[j].Bounds
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Area() > b.Area()
	})
}
