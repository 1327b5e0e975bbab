package segment

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

var (
	dark  = color.NRGBA{R: 32, G: 33, B: 36, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	light = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
)

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// screenshot builds a 1920x1080 frame with a dark toolbar and a light status bar
func screenshot() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1920, 1080))
	fill(img, img.Bounds(), white)
	fill(img, image.Rect(0, 0, 1920, 100), dark)
	fill(img, image.Rect(0, 1020, 1920, 1080), light)
	return img
}

func assertCoverage(t *testing.T, regions []types.Region, height int) {
	t.Helper()
	sum, next := 0, 0
	for _, r := range regions {
		assert.Equal(t, next, r.Bounds.Y, "gap or overlap before %s", r.Type)
		assert.Greater(t, r.Bounds.Height, 0)
		next = r.Bounds.Bottom()
		sum += r.Bounds.Height
	}
	assert.Equal(t, height, sum)
}

func TestSegmentPixelsPolicy(t *testing.T) {
	regions := New().Segment(screenshot())

	require.Len(t, regions, 3)
	assert.Equal(t, types.RegionToolbar, regions[0].Type)
	assert.Equal(t, types.Bounds{X: 0, Y: 0, Width: 1920, Height: 100}, regions[0].Bounds)
	assert.Equal(t, types.RegionContent, regions[1].Type)
	assert.Equal(t, types.Bounds{X: 0, Y: 100, Width: 1920, Height: 920}, regions[1].Bounds)
	assert.Equal(t, types.RegionStatusBar, regions[2].Type)
	assert.Equal(t, types.Bounds{X: 0, Y: 1020, Width: 1920, Height: 60}, regions[2].Bounds)

	assert.Equal(t, "#202124", regions[0].BackgroundColor)
	assert.Equal(t, "#ffffff", regions[1].BackgroundColor)
	assert.Equal(t, "#c8c8c8", regions[2].BackgroundColor)
	assert.Equal(t, "#202124", regions[0].AverageColor)

	for _, r := range regions {
		assert.NotNil(t, r.Elements)
		assert.Empty(t, r.Elements)
	}
	assertCoverage(t, regions, 1080)
}

func TestSegmentAdaptivePolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyAdaptive
	cfg.ToolbarHeight = 10
	cfg.StatusBarHeight = 10

	regions := NewWithConfig(cfg).Segment(screenshot())
	require.Len(t, regions, 3)
	assert.Equal(t, 100, regions[0].Bounds.Height)
	assert.Equal(t, 1020, regions[2].Bounds.Y)
	assertCoverage(t, regions, 1080)
}

func TestSegmentAdaptiveFallsBackToPixels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 400))
	fill(img, img.Bounds(), white)

	cfg := DefaultConfig()
	cfg.Policy = PolicyAdaptive
	regions := NewWithConfig(cfg).Segment(img)

	require.Len(t, regions, 3)
	assert.Equal(t, 100, regions[0].Bounds.Height)
	assert.Equal(t, 60, regions[2].Bounds.Height)
}

func TestSegmentPercentPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy = PolicyPercent
	cfg.ToolbarPercent = 0.1
	cfg.StatusBarPercent = 0.05

	img := image.NewNRGBA(image.Rect(0, 0, 300, 1000))
	regions := NewWithConfig(cfg).Segment(img)

	require.Len(t, regions, 3)
	assert.Equal(t, 100, regions[0].Bounds.Height)
	assert.Equal(t, 850, regions[1].Bounds.Height)
	assert.Equal(t, 50, regions[2].Bounds.Height)
	assertCoverage(t, regions, 1000)
}

func TestSegmentDegenerateCollapsesToContent(t *testing.T) {
	tests := []struct {
		name   string
		height int
		cfg    func(*Config)
	}{
		{name: "shorter than bands", height: 120, cfg: func(*Config) {}},
		{name: "exactly bands", height: 160, cfg: func(*Config) {}},
		{name: "no bands", height: 500, cfg: func(c *Config) { c.ToolbarHeight, c.StatusBarHeight = 0, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)
			img := image.NewNRGBA(image.Rect(0, 0, 80, tt.height))

			regions := NewWithConfig(cfg).Segment(img)
			require.Len(t, regions, 1)
			assert.Equal(t, types.RegionContent, regions[0].Type)
			assert.Equal(t, types.Bounds{X: 0, Y: 0, Width: 80, Height: tt.height}, regions[0].Bounds)
		})
	}
}

func TestSegmentSingleBand(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func(*Config)
		types []types.RegionType
		first int
	}{
		{
			name:  "no status bar",
			cfg:   func(c *Config) { c.StatusBarHeight = 0 },
			types: []types.RegionType{types.RegionToolbar, types.RegionContent},
			first: 100,
		},
		{
			name:  "no toolbar",
			cfg:   func(c *Config) { c.ToolbarHeight = 0 },
			types: []types.RegionType{types.RegionContent, types.RegionStatusBar},
			first: 1020,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.cfg(&cfg)

			regions := NewWithConfig(cfg).Segment(screenshot())
			require.Len(t, regions, len(tt.types))
			for i, want := range tt.types {
				assert.Equal(t, want, regions[i].Type)
			}
			assert.Equal(t, tt.first, regions[0].Bounds.Height)
			assertCoverage(t, regions, 1080)
		})
	}
}

func TestSegmentDeterministic(t *testing.T) {
	img := screenshot()
	assert.Equal(t, New().Segment(img), New().Segment(img))
}

func TestSegmentOffsetOrigin(t *testing.T) {
	img := screenshot().SubImage(image.Rect(0, 0, 1920, 1080)).(*image.NRGBA)
	shifted := &image.NRGBA{Pix: img.Pix, Stride: img.Stride, Rect: image.Rect(10, 10, 1930, 1090)}

	regions := New().Segment(shifted)
	require.Len(t, regions, 3)
	assert.Equal(t, 0, regions[0].Bounds.Y)
	assert.Equal(t, "#202124", regions[0].BackgroundColor)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Policy = "diagonal"
	var cfgErr *types.ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	assert.Equal(t, "regions.policy", cfgErr.Field)

	cfg = DefaultConfig()
	cfg.ToolbarHeight = -5
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	assert.Equal(t, "regions.toolbar_height", cfgErr.Field)
}

func BenchmarkSegment(b *testing.B) {
	img := screenshot()
	segmenter := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		segmenter.Segment(img)
	}
}
