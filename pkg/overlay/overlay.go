// Package overlay draws analysis results onto a copy of the screenshot.
package overlay

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/ux-analyzer/pkg/analyzer"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

// Config controls stroke widths, labels and output encoding
type Config struct {
	Labels        bool   `json:"labels" yaml:"labels"`
	RegionStroke  int    `json:"region_stroke" yaml:"region_stroke"`
	ElementStroke int    `json:"element_stroke" yaml:"element_stroke"`
	TextStroke    int    `json:"text_stroke" yaml:"text_stroke"`
	Format        string `json:"format" yaml:"format"`
	Quality       int    `json:"quality" yaml:"quality"`
}

// DefaultConfig returns the overlay defaults
func DefaultConfig() Config {
	return Config{
		Labels:        true,
		RegionStroke:  2,
		ElementStroke: 1,
		TextStroke:    2,
		Format:        "png",
		Quality:       92,
	}
}

// Validate checks the overlay configuration
func (c Config) Validate() error {
	if c.RegionStroke < 1 || c.ElementStroke < 1 || c.TextStroke < 1 {
		return types.NewConfigError("overlay.region_stroke", "stroke widths must be positive, got %d/%d/%d",
			c.RegionStroke, c.ElementStroke, c.TextStroke)
	}
	switch c.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return types.NewConfigError("overlay.format", "must be png, jpg, jpeg or webp; got %q", c.Format)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return types.NewConfigError("overlay.quality", "must be between 1 and 100, got %d", c.Quality)
	}
	return nil
}

// Colors
var (
	regionColors = map[types.RegionType]color.NRGBA{
		types.RegionToolbar:   {255, 0, 0, 255},
		types.RegionContent:   {220, 20, 60, 255},
		types.RegionStatusBar: {178, 34, 34, 255},
		types.RegionUnknown:   {255, 105, 180, 255},
	}
	elementColors = map[types.ElementKind]color.NRGBA{
		types.ElementButton:  {0, 0, 255, 255},
		types.ElementControl: {255, 140, 0, 255},
		types.ElementUnknown: {128, 128, 128, 255},
	}
	textColor = color.NRGBA{0, 200, 0, 255}
)

const maxLabelRunes = 20

// Visualizer renders annotated copies of screenshots
type Visualizer struct {
	config Config
	loader *analyzer.ImageLoader
}

// New creates a Visualizer with default configuration
func New() *Visualizer {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Visualizer with custom configuration
func NewWithConfig(config Config) *Visualizer {
	return &Visualizer{config: config, loader: analyzer.New()}
}

// Render returns a new image with regions, then elements, then text boxes
// drawn on top of a copy of img. img is never modified.
func (v *Visualizer) Render(img image.Image, result *types.AnalysisResult) *image.NRGBA {
	canvas := imaging.Clone(img)
	if result == nil {
		return canvas
	}

	for _, r := range result.Regions {
		c := colorFor(regionColors, r.Type, types.RegionUnknown)
		drawBox(canvas, r.Bounds, c, v.config.RegionStroke)
		if v.config.Labels {
			drawLabel(canvas, string(r.Type), r.Bounds.X+5, r.Bounds.Y+5, c)
		}
	}

	for _, r := range result.Regions {
		for _, el := range r.Elements {
			drawBox(canvas, el.Bounds, colorFor(elementColors, el.Kind, types.ElementUnknown), v.config.ElementStroke)
		}
	}

	for _, t := range result.TextElements {
		drawBox(canvas, t.Bounds, textColor, v.config.TextStroke)
		if v.config.Labels {
			drawLabel(canvas, truncate(t.Text, maxLabelRunes), t.Bounds.X, t.Bounds.Y-labelHeight()-2, textColor)
		}
	}
	return canvas
}

// Save writes an overlay to path; the format follows the file extension
func (v *Visualizer) Save(img image.Image, path string) error {
	return v.loader.SaveImage(img, path, v.config.Quality)
}

// Format returns the configured default output format
func (v *Visualizer) Format() string {
	return v.config.Format
}

func colorFor[K comparable](palette map[K]color.NRGBA, key, fallback K) color.NRGBA {
	if c, ok := palette[key]; ok {
		return c
	}
	return palette[fallback]
}

// drawBox strokes the inside edge of b
func drawBox(img *image.NRGBA, b types.Bounds, c color.NRGBA, stroke int) {
	if b.Empty() {
		return
	}
	x0, y0, x1, y1 := b.X, b.Y, b.Right(), b.Bottom()
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if y < 0 || y >= h {
		return
	}
	x0, x1 = max(x0, 0), min(x1, w)
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if x < 0 || x >= w {
		return
	}
	y0, y1 = max(y0, 0), min(y1, h)
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}

func labelHeight() int {
	return basicfont.Face7x13.Metrics().Height.Ceil()
}

// drawLabel writes text with its top-left corner at (x, y), clamped into the image
func drawLabel(img *image.NRGBA, text string, x, y int, c color.NRGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	y = max(y, 0)
	x = max(x, 0)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
