// Package uxanalyzer turns a UI screenshot into a structured description of
// its visual composition: dominant colors, layout regions, rectangular
// elements and recognized text.
//
// Basic usage:
//
//	a, err := uxanalyzer.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer a.Close()
//
//	result, err := a.AnalyzeFile(ctx, "screenshot.png")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !result.Metadata.OCRAvailable {
//		log.Printf("text was not extracted: %s", result.Metadata.OCRError)
//	}
//
//	if err := a.VisualizeFile(ctx, "screenshot.png", result, "screenshot-overlay.png"); err != nil {
//		log.Fatal(err)
//	}
//
// The pipeline is made of small packages that can be used on their own:
//
//  1. Loader (pkg/analyzer): decoding and encoding of raster images
//  2. Palette (pkg/palette): seeded k-means color clustering
//  3. Segmenter (pkg/segment): toolbar / content / status bar bands
//  4. Element detector (pkg/vision): edge and contour analysis per band
//  5. Text extractor (pkg/ocr): OCR engines behind a capability flag
//  6. Assembler (pkg/assembler) and Visualizer (pkg/overlay)
//
// Palette extraction, segmentation and OCR only read the image and can run
// concurrently. Element detection waits for the regions.
package uxanalyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/ux-analyzer/pkg/analyzer"
	"github.com/menta2k/ux-analyzer/pkg/assembler"
	"github.com/menta2k/ux-analyzer/pkg/ocr"
	"github.com/menta2k/ux-analyzer/pkg/overlay"
	"github.com/menta2k/ux-analyzer/pkg/palette"
	"github.com/menta2k/ux-analyzer/pkg/segment"
	"github.com/menta2k/ux-analyzer/pkg/types"
	"github.com/menta2k/ux-analyzer/pkg/vision"
)

// Version of the analyzer library
const Version = "0.3.0"

// Config aggregates the configuration of every stage
type Config struct {
	Loader   analyzer.Config        `json:"loader" yaml:"loader"`
	Palette  palette.Config         `json:"palette" yaml:"palette"`
	Regions  segment.Config         `json:"regions" yaml:"regions"`
	Elements vision.DetectionConfig `json:"elements" yaml:"elements"`
	OCR      ocr.Config             `json:"ocr" yaml:"ocr"`
	Overlay  overlay.Config         `json:"overlay" yaml:"overlay"`
	Parallel bool                   `json:"parallel" yaml:"parallel"`
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		Loader:   analyzer.DefaultConfig(),
		Palette:  palette.DefaultConfig(),
		Regions:  segment.DefaultConfig(),
		Elements: vision.DefaultConfig(),
		OCR:      ocr.DefaultConfig(),
		Overlay:  overlay.DefaultConfig(),
		Parallel: true,
	}
}

// Validate checks every stage configuration. The first problem found is
// returned as a *types.ConfigurationError.
func (c Config) Validate() error {
	checks := []func() error{
		c.Loader.Validate,
		c.Palette.Validate,
		c.Regions.Validate,
		c.Elements.Validate,
		c.OCR.Validate,
		c.Overlay.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Option customizes an Analyzer
type Option func(*options)

type options struct {
	logger *logrus.Logger
	engine ocr.Engine
}

// WithLogger sets the logger used for stage diagnostics
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOCREngine uses engine instead of building one from the OCR config.
// The configured minimum confidence still applies.
func WithOCREngine(engine ocr.Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// Analyzer runs the analysis pipeline. It holds no per-image state and can
// be reused for many images.
type Analyzer struct {
	config   Config
	logger   *logrus.Logger
	loader   *analyzer.ImageLoader
	palette  *palette.Extractor
	segments *segment.Segmenter
	detector *vision.ElementDetector
	text     *ocr.Extractor
	overlay  *overlay.Visualizer
}

// New creates an Analyzer with the default configuration
func New(opts ...Option) (*Analyzer, error) {
	return NewWithConfig(DefaultConfig(), opts...)
}

// NewWithConfig creates an Analyzer. An invalid configuration is rejected
// with a *types.ConfigurationError. OCR availability is decided here, once.
func NewWithConfig(config Config, opts ...Option) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	var text *ocr.Extractor
	if o.engine != nil {
		text = ocr.NewWithEngine(o.engine, config.OCR.MinConfidence)
	} else {
		text = ocr.New(config.OCR)
	}

	if text.Available() {
		o.logger.WithField("engine", text.EngineName()).Info("OCR enabled")
	} else if errors.Is(text.Reason(), ocr.ErrDisabled) {
		o.logger.Debug("OCR disabled by configuration")
	} else {
		o.logger.WithError(text.Reason()).Warn("OCR unavailable, text extraction will be skipped")
	}

	return &Analyzer{
		config:   config,
		logger:   o.logger,
		loader:   analyzer.NewWithConfig(config.Loader),
		palette:  palette.NewWithConfig(config.Palette),
		segments: segment.NewWithConfig(config.Regions),
		detector: vision.NewWithConfig(config.Elements),
		text:     text,
		overlay:  overlay.NewWithConfig(config.Overlay),
	}, nil
}

// Config returns the configuration the Analyzer was built with
func (a *Analyzer) Config() Config {
	return a.config
}

// OCRAvailable reports whether text extraction can run
func (a *Analyzer) OCRAvailable() bool {
	return a.text.Available()
}

// LoadImage decodes the image at path or URL
func (a *Analyzer) LoadImage(ctx context.Context, path string) (*analyzer.Image, error) {
	return a.loader.LoadSource(ctx, path)
}

// LoadReader decodes an image from r. name is recorded as the source.
func (a *Analyzer) LoadReader(r io.Reader, name string) (*analyzer.Image, error) {
	return a.loader.LoadImageFromReader(r, name)
}

// AnalyzeFile loads and analyzes the image at path, which may also be an
// http(s) URL. A missing or undecodable image fails with a *types.LoadError.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*types.AnalysisResult, error) {
	img, err := a.loader.LoadSource(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, img)
}

// Analyze runs every stage over img. OCR failures do not fail the analysis;
// they are reported through the result metadata.
func (a *Analyzer) Analyze(ctx context.Context, img *analyzer.Image) (*types.AnalysisResult, error) {
	if img == nil || img.Pixels == nil {
		return nil, &types.LoadError{Stage: "load", Err: errors.New("no image data")}
	}

	start := time.Now()
	log := a.logger.WithFields(logrus.Fields{
		"source": img.Path,
		"width":  img.Width(),
		"height": img.Height(),
	})

	var (
		colors  []types.ColorSwatch
		regions []types.Region
		texts   []types.TextElement
		ocrErr  error
	)

	stages := []func(context.Context) error{
		func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			colors = a.palette.Extract(img.Pixels)
			log.WithFields(logrus.Fields{"stage": "palette", "colors": len(colors), "took": time.Since(t)}).Debug("stage done")
			return nil
		},
		func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			regions = a.segments.Segment(img.Pixels)
			log.WithFields(logrus.Fields{"stage": "regions", "regions": len(regions), "took": time.Since(t)}).Debug("stage done")
			return nil
		},
		func(ctx context.Context) error {
			t := time.Now()
			texts, ocrErr = a.text.Extract(ctx, img.Pixels)
			log.WithFields(logrus.Fields{"stage": "ocr", "texts": len(texts), "took": time.Since(t)}).Debug("stage done")
			return nil
		},
	}

	if a.config.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, stage := range stages {
			g.Go(func() error { return stage(gctx) })
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("analysis of %s interrupted: %w", img.Path, err)
		}
	} else {
		for _, stage := range stages {
			if err := stage(ctx); err != nil {
				return nil, fmt.Errorf("analysis of %s interrupted: %w", img.Path, err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis of %s interrupted: %w", img.Path, err)
	}

	t := time.Now()
	regions = a.detector.Detect(img.Pixels, regions)
	log.WithFields(logrus.Fields{"stage": "elements", "took": time.Since(t)}).Debug("stage done")

	meta := types.Metadata{
		Source:       img.Path,
		Format:       img.Format,
		Dimensions:   types.Dimensions{Width: img.Width(), Height: img.Height()},
		OCRAvailable: a.text.Available() && ocrErr == nil,
		OCREngine:    a.text.EngineName(),
	}
	if ocrErr != nil && !errors.Is(ocrErr, ocr.ErrDisabled) {
		meta.OCRError = ocrErr.Error()
		if a.text.Available() {
			log.WithError(ocrErr).Warn("text extraction failed")
		}
	}

	result := assembler.Build(meta, colors, regions, texts)

	s := assembler.Summarize(result)
	log.WithFields(logrus.Fields{
		"colors":   s.Colors,
		"regions":  s.Regions,
		"elements": s.Elements,
		"texts":    s.Texts,
		"took":     time.Since(start),
	}).Info("analysis complete")
	return result, nil
}

// Visualize returns an annotated copy of img
func (a *Analyzer) Visualize(img image.Image, result *types.AnalysisResult) *image.NRGBA {
	return a.overlay.Render(img, result)
}

// VisualizeFile re-reads src, annotates it with result and writes the
// overlay to out. A source that can no longer be loaded fails with a
// *types.LoadError whose Stage is "visualize".
func (a *Analyzer) VisualizeFile(ctx context.Context, src string, result *types.AnalysisResult, out string) error {
	img, err := a.loader.LoadSource(ctx, src)
	if err != nil {
		var loadErr *types.LoadError
		if errors.As(err, &loadErr) {
			return &types.LoadError{Path: loadErr.Path, Stage: "visualize", Err: loadErr.Err}
		}
		return &types.LoadError{Path: src, Stage: "visualize", Err: err}
	}

	return a.SaveOverlay(img.Pixels, result, out)
}

// SaveOverlay annotates img with result and writes it to out. The format
// follows the extension of out.
func (a *Analyzer) SaveOverlay(img image.Image, result *types.AnalysisResult, out string) error {
	if err := a.overlay.Save(a.overlay.Render(img, result), out); err != nil {
		return fmt.Errorf("failed to save overlay %s: %w", out, err)
	}
	a.logger.WithField("output", out).Debug("overlay written")
	return nil
}

// OverlayFormat returns the file extension used for overlays when no
// output name is given
func (a *Analyzer) OverlayFormat() string {
	return a.overlay.Format()
}

// Close releases the OCR engine
func (a *Analyzer) Close() error {
	return a.text.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
