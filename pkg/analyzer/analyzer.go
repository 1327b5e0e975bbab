package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/ux-analyzer/pkg/types"
)

// ImageLoader decodes screenshots into pixel buffers and writes images back out
type ImageLoader struct {
	config Config
}

// Config holds configuration for the image loader
type Config struct {
	DefaultQuality   int      `json:"default_quality" yaml:"default_quality"`
	SupportedFormats []string `json:"supported_formats" yaml:"supported_formats"`
	MinImageSize     int      `json:"min_image_size" yaml:"min_image_size"`
}

// DefaultConfig returns the loader defaults
func DefaultConfig() Config {
	return Config{
		DefaultQuality:   90,
		SupportedFormats: []string{"jpg", "jpeg", "png", "webp", "gif", "bmp", "tiff"},
		MinImageSize:     1,
	}
}

// Validate checks the loader configuration
func (c Config) Validate() error {
	if c.DefaultQuality < 1 || c.DefaultQuality > 100 {
		return types.NewConfigError("loader.default_quality", "must be between 1 and 100, got %d", c.DefaultQuality)
	}
	if c.MinImageSize < 1 {
		return types.NewConfigError("loader.min_image_size", "must be positive, got %d", c.MinImageSize)
	}
	if len(c.SupportedFormats) == 0 {
		return types.NewConfigError("loader.supported_formats", "cannot be empty")
	}
	return nil
}

// Image is a decoded screenshot. Pixels always start at (0,0) and are stored
// non-premultiplied in R, G, B, A order. Nothing in the pipeline writes to it.
type Image struct {
	Pixels *image.NRGBA
	Format string
	Path   string
}

// Width returns the image width in pixels
func (i *Image) Width() int {
	return i.Pixels.Bounds().Dx()
}

// Height returns the image height in pixels
func (i *Image) Height() int {
	return i.Pixels.Bounds().Dy()
}

// FromImage wraps an in-memory image, normalizing it to NRGBA at the origin
func FromImage(img image.Image, source string) *Image {
	return &Image{Pixels: imaging.Clone(img), Format: "memory", Path: source}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// New creates a new ImageLoader with default configuration
func New() *ImageLoader {
	return &ImageLoader{config: DefaultConfig()}
}

// NewWithConfig creates a new ImageLoader with custom configuration
func NewWithConfig(config Config) *ImageLoader {
	return &ImageLoader{config: config}
}

// LoadImage reads and decodes an image file. Every failure is a *types.LoadError.
func (l *ImageLoader) LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.LoadError{Path: path, Stage: "load", Err: err}
	}
	img, err := l.decode(data, path)
	if err != nil {
		return nil, &types.LoadError{Path: path, Stage: "load", Err: err}
	}
	return img, nil
}

// LoadImageFromReader decodes an image from an io.Reader; name is used for
// metadata and error context only.
func (l *ImageLoader) LoadImageFromReader(reader io.Reader, name string) (*Image, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.LoadError{Path: name, Stage: "load", Err: err}
	}
	img, err := l.decode(data, name)
	if err != nil {
		return nil, &types.LoadError{Path: name, Stage: "load", Err: err}
	}
	return img, nil
}

func (l *ImageLoader) decode(data []byte, path string) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	var decoded image.Image
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		decoded, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		// Fallback: explicit WebP decode
		wimg, werr := webp.Decode(bytes.NewReader(data))
		if werr != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		decoded, format = wimg, "webp"
	}

	if !l.isFormatSupported(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	img := &Image{Pixels: imaging.Clone(decoded), Format: format, Path: path}
	if err := l.ValidateImage(img.Pixels); err != nil {
		return nil, err
	}
	return img, nil
}

// SaveImage encodes img to path. The format comes from the path extension;
// quality applies to jpeg and lossy webp and falls back to the configured default.
func (l *ImageLoader) SaveImage(img image.Image, path string, quality int) error {
	if quality <= 0 {
		quality = l.config.DefaultQuality
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		return writeWebP(f, img, quality)
	case "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", ext)
	}
}

// writeWebP encodes img into w and closes it. A close failure is reported
// when encoding succeeded.
func writeWebP(w io.WriteCloser, img image.Image, quality int) error {
	if err := webp.Encode(w, img, &webp.Options{Quality: float32(quality)}); err != nil {
		w.Close()
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write webp: %w", err)
	}
	return nil
}

// GetImageInfo returns basic information about an image
func (l *ImageLoader) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{Width: width, Height: height, Area: width * height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

func (l *ImageLoader) isFormatSupported(format string) bool {
	for _, supported := range l.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (l *ImageLoader) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < l.config.MinImageSize || bounds.Dy() < l.config.MinImageSize {
		return fmt.Errorf("image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), l.config.MinImageSize)
	}
	return nil
}
