// Package segment partitions a screenshot into horizontal structural bands.
package segment

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/ux-analyzer/pkg/palette"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

// Band sizing policies
const (
	PolicyPixels   = "pixels"
	PolicyPercent  = "percent"
	PolicyAdaptive = "adaptive"
)

// Config controls how toolbar and status bar bands are sized. A band whose
// height resolves to zero is left out, so a status bar height of 0 yields
// toolbar and content only.
type Config struct {
	Policy              string  `json:"policy" yaml:"policy"`
	ToolbarHeight       int     `json:"toolbar_height" yaml:"toolbar_height"`
	StatusBarHeight     int     `json:"status_bar_height" yaml:"status_bar_height"`
	ToolbarPercent      float64 `json:"toolbar_percent" yaml:"toolbar_percent"`
	StatusBarPercent    float64 `json:"status_bar_percent" yaml:"status_bar_percent"`
	MaxBandPercent      float64 `json:"max_band_percent" yaml:"max_band_percent"`
	TransitionThreshold float64 `json:"transition_threshold" yaml:"transition_threshold"`
	SampleSize          int     `json:"sample_size" yaml:"sample_size"`
}

// DefaultConfig returns the segmentation defaults
func DefaultConfig() Config {
	return Config{
		Policy:              PolicyPixels,
		ToolbarHeight:       100,
		StatusBarHeight:     60,
		ToolbarPercent:      0.15,
		StatusBarPercent:    0.15,
		MaxBandPercent:      0.25,
		TransitionThreshold: 12,
		SampleSize:          50,
	}
}

// Validate checks the segmentation configuration
func (c Config) Validate() error {
	switch c.Policy {
	case PolicyPixels, PolicyPercent, PolicyAdaptive:
	default:
		return types.NewConfigError("regions.policy", "must be one of pixels, percent, adaptive; got %q", c.Policy)
	}
	if c.ToolbarHeight < 0 {
		return types.NewConfigError("regions.toolbar_height", "must not be negative, got %d", c.ToolbarHeight)
	}
	if c.StatusBarHeight < 0 {
		return types.NewConfigError("regions.status_bar_height", "must not be negative, got %d", c.StatusBarHeight)
	}
	if c.ToolbarPercent < 0 || c.ToolbarPercent >= 1 {
		return types.NewConfigError("regions.toolbar_percent", "must be in [0,1), got %g", c.ToolbarPercent)
	}
	if c.StatusBarPercent < 0 || c.StatusBarPercent >= 1 {
		return types.NewConfigError("regions.status_bar_percent", "must be in [0,1), got %g", c.StatusBarPercent)
	}
	if c.MaxBandPercent <= 0 || c.MaxBandPercent >= 1 {
		return types.NewConfigError("regions.max_band_percent", "must be in (0,1), got %g", c.MaxBandPercent)
	}
	if c.TransitionThreshold <= 0 {
		return types.NewConfigError("regions.transition_threshold", "must be positive, got %g", c.TransitionThreshold)
	}
	if c.SampleSize < 1 {
		return types.NewConfigError("regions.sample_size", "must be positive, got %d", c.SampleSize)
	}
	return nil
}

// Segmenter splits images into toolbar, content and status bar regions
type Segmenter struct {
	config Config
}

// New creates a Segmenter with default configuration
func New() *Segmenter {
	return &Segmenter{config: DefaultConfig()}
}

// NewWithConfig creates a Segmenter with custom configuration
func NewWithConfig(config Config) *Segmenter {
	return &Segmenter{config: config}
}

// Segment returns regions ordered top to bottom whose heights sum to the
// image height. Elements are left empty. Empty bands are omitted. When the
// two bands would not leave any content, a single content region covering the
// whole image is returned.
func (s *Segmenter) Segment(img image.Image) []types.Region {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return make([]types.Region, 0)
	}

	top, bottom := s.bandHeights(img)
	top, bottom = max(top, 0), max(bottom, 0)
	if top+bottom >= height {
		top, bottom = 0, 0
	}

	regions := make([]types.Region, 0, 3)
	if top > 0 {
		regions = append(regions, types.Region{Type: types.RegionToolbar, Bounds: types.Bounds{X: 0, Y: 0, Width: width, Height: top}})
	}
	regions = append(regions, types.Region{Type: types.RegionContent, Bounds: types.Bounds{X: 0, Y: top, Width: width, Height: height - top - bottom}})
	if bottom > 0 {
		regions = append(regions, types.Region{Type: types.RegionStatusBar, Bounds: types.Bounds{X: 0, Y: height - bottom, Width: width, Height: bottom}})
	}

	for i := range regions {
		band := crop(img, regions[i].Bounds)
		regions[i].BackgroundColor = s.BackgroundColor(band)
		regions[i].AverageColor = palette.AverageColor(band)
		regions[i].Elements = make([]types.Element, 0)
	}
	return regions
}

// bandHeights returns the toolbar and status bar heights for the configured policy
func (s *Segmenter) bandHeights(img image.Image) (int, int) {
	height := img.Bounds().Dy()

	switch s.config.Policy {
	case PolicyPercent:
		return int(math.Round(float64(height) * s.config.ToolbarPercent)),
			int(math.Round(float64(height) * s.config.StatusBarPercent))
	case PolicyAdaptive:
		top, bottom := s.detectTransitions(img)
		if top <= 0 {
			top = s.config.ToolbarHeight
		}
		if bottom <= 0 {
			bottom = s.config.StatusBarHeight
		}
		return top, bottom
	default:
		return s.config.ToolbarHeight, s.config.StatusBarHeight
	}
}

// detectTransitions looks for the first strong change in row color coming from
// the top and from the bottom, limited to MaxBandPercent of the height. Zero
// means no transition was found on that side.
func (s *Segmenter) detectTransitions(img image.Image) (int, int) {
	rows := rowColors(img)
	height := len(rows)
	limit := int(float64(height) * s.config.MaxBandPercent)

	top := 0
	for y := 1; y <= limit && y < height; y++ {
		if rows[y].DistanceLab(rows[y-1])*100 > s.config.TransitionThreshold {
			top = y
			break
		}
	}

	bottom := 0
	for y := height - 1; y >= height-limit && y > 0; y-- {
		if rows[y].DistanceLab(rows[y-1])*100 > s.config.TransitionThreshold {
			bottom = height - y
			break
		}
	}
	return top, bottom
}

// rowColors averages every pixel row into a single color
func rowColors(img image.Image) []colorful.Color {
	// one column wide, full height
	column := imaging.Resize(img, 1, img.Bounds().Dy(), imaging.Box)
	rows := make([]colorful.Color, column.Bounds().Dy())
	for y := range rows {
		c := column.NRGBAAt(0, y)
		rows[y] = colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	}
	return rows
}

// BackgroundColor returns the most frequent color of a nearest-neighbour
// downsample of img as #rrggbb.
func (s *Segmenter) BackgroundColor(img image.Image) string {
	return palette.ModeColor(img, s.config.SampleSize)
}

func crop(img image.Image, b types.Bounds) *image.NRGBA {
	o := img.Bounds().Min
	return imaging.Crop(img, image.Rect(o.X+b.X, o.Y+b.Y, o.X+b.Right(), o.Y+b.Bottom()))
}
