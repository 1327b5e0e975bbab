package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	uxanalyzer "github.com/menta2k/ux-analyzer"
	"github.com/menta2k/ux-analyzer/internal/config"
	"github.com/menta2k/ux-analyzer/internal/utils"
	"github.com/menta2k/ux-analyzer/pkg/analyzer"
	"github.com/menta2k/ux-analyzer/pkg/assembler"
	"github.com/menta2k/ux-analyzer/pkg/detection"
	"github.com/menta2k/ux-analyzer/pkg/ocr"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

var log = logrus.StandardLogger()

func main() {
	var in, out, vis, configPath, envFile string
	var backend, model, url, logLevel string
	var k int
	var seed int64
	var noOCR, probe, sequential, groupText bool

	flag.StringVar(&in, "in", "", "input screenshot, directory of screenshots, http(s) URL, or '-' for stdin")
	flag.StringVar(&out, "out", "", "output JSON path (default <stem>-analysis.json; '-' for stdout)")
	flag.StringVar(&vis, "vis", "", "write an annotated overlay image to this path (directory mode: output directory)")
	flag.StringVar(&configPath, "config", "", "config file (.json, .yaml, .yml)")
	flag.StringVar(&envFile, "env", ".env", "dotenv file with UXA_* overrides")
	flag.BoolVar(&noOCR, "no-ocr", false, "skip text extraction")
	flag.StringVar(&backend, "backend", "", "OCR backend: tesseract|ollama|llamacpp|none")
	flag.StringVar(&model, "model", "", "vision model name for the ollama/llamacpp backends")
	flag.StringVar(&url, "url", "", "vision model server URL")
	flag.IntVar(&k, "k", 0, "number of palette colors")
	flag.Int64Var(&seed, "seed", 0, "palette clustering seed")
	flag.StringVar(&logLevel, "log-level", "", "debug|info|warn|error")
	flag.BoolVar(&sequential, "sequential", false, "run the analysis stages one after another")
	flag.BoolVar(&groupText, "group-text", false, "add text spans grouped by region to the JSON output")
	flag.BoolVar(&probe, "probe", false, "ask the vision model to describe the input and exit")

	flag.Parse()
	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in screenshot.png|dir|url|- [-out result.json] [-vis overlay.png] [-no-ocr] [-config file] [-backend tesseract|ollama|llamacpp|none] [-k 5] [-group-text]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath, envFile)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.OCR.Backend = backend
		case "model":
			cfg.OCR.Model = model
		case "url":
			cfg.OCR.URL = url
		case "k":
			cfg.Palette.K = k
		case "seed":
			cfg.Palette.Seed = seed
		case "log-level":
			cfg.Logging.Level = logLevel
		case "no-ocr":
			cfg.OCR.Enabled = !noOCR
		case "sequential":
			cfg.Parallel = !sequential
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	log = cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if probe {
		if err := runProbe(ctx, cfg, in); err != nil {
			log.Fatal(err)
		}
		return
	}

	a, err := uxanalyzer.NewWithConfig(cfg.Config, uxanalyzer.WithLogger(log))
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	r := &runner{analyzer: a, cfg: cfg, groupText: groupText}

	switch {
	case in == "-":
		if out == "" {
			out = "-"
		}
		err = r.analyzeReader(ctx, os.Stdin, "stdin", out, vis)
	case utils.DirExists(in):
		err = r.analyzeDir(ctx, in, vis)
	default:
		if out == "" {
			out = utils.OutputPath(localName(in), cfg.Output.Dir, cfg.Output.Suffix, "json")
		}
		err = r.analyzeOne(ctx, in, out, vis)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path, envFile string) (*config.Config, error) {
	cfg := config.Default()
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

type runner struct {
	analyzer  *uxanalyzer.Analyzer
	cfg       *config.Config
	groupText bool
}

func (r *runner) analyzeOne(ctx context.Context, in, out, vis string) error {
	result, err := r.analyzer.AnalyzeFile(ctx, in)
	if err != nil {
		return err
	}

	if err := writeResult(document(result, r.groupText), out); err != nil {
		return err
	}
	if vis != "" {
		if err := r.analyzer.VisualizeFile(ctx, in, result, vis); err != nil {
			return err
		}
		log.Infof("wrote %s", vis)
	}
	report(in, result)
	return nil
}

// analyzeReader handles input that can only be read once, so the overlay is
// drawn from the decoded image instead of reloading the source
func (r *runner) analyzeReader(ctx context.Context, src io.Reader, name, out, vis string) error {
	img, err := r.analyzer.LoadReader(src, name)
	if err != nil {
		return err
	}
	result, err := r.analyzer.Analyze(ctx, img)
	if err != nil {
		return err
	}

	if err := writeResult(document(result, r.groupText), out); err != nil {
		return err
	}
	if vis != "" {
		if err := r.analyzer.SaveOverlay(img.Pixels, result, vis); err != nil {
			return err
		}
		log.Infof("wrote %s", vis)
	}
	report(name, result)
	return nil
}

func report(name string, result *types.AnalysisResult) {
	s := assembler.Summarize(result)
	fmt.Fprintf(os.Stderr, "%s: %d colors, %d regions, %d elements, %d text spans (ocr available: %t)\n",
		name, s.Colors, s.Regions, s.Elements, s.Texts, result.Metadata.OCRAvailable)
}

func (r *runner) analyzeDir(ctx context.Context, dir, visDir string) error {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	failed := 0
	for _, file := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out := utils.OutputPath(file, r.cfg.Output.Dir, r.cfg.Output.Suffix, "json")
		vis := ""
		if visDir != "" {
			if err := utils.EnsureDir(visDir); err != nil {
				return err
			}
			vis = utils.OutputPath(file, visDir, "-overlay", r.analyzer.OverlayFormat())
		}
		if err := r.analyzeOne(ctx, file, out, vis); err != nil {
			log.WithField("source", file).WithError(err).Error("analysis failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(files))
	}
	return nil
}

// groupedResult extends the result document with the text-by-region view
type groupedResult struct {
	*types.AnalysisResult
	TextByRegion []assembler.RegionText `json:"text_by_region"`
	UnplacedText []types.TextElement    `json:"unplaced_text"`
}

// document returns what is written as JSON for result
func document(result *types.AnalysisResult, groupText bool) any {
	if !groupText {
		return result
	}
	groups, orphans := assembler.TextByRegion(result)
	if orphans == nil {
		orphans = make([]types.TextElement, 0)
	}
	return groupedResult{AnalysisResult: result, TextByRegion: groups, UnplacedText: orphans}
}

func writeResult(doc any, out string) error {
	js, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if out == "-" {
		_, err = os.Stdout.Write(append(js, '\n'))
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
		return err
	}
	if err := os.WriteFile(out, js, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	log.Infof("wrote %s", out)
	return nil
}

func runProbe(ctx context.Context, cfg *config.Config, in string) error {
	img, err := analyzer.NewWithConfig(cfg.Loader).LoadSource(ctx, in)
	if err != nil {
		return err
	}

	vc, err := ocr.NewVisionClient(cfg.OCR)
	if err != nil {
		return err
	}
	answer, err := detection.NewDetector(vc, cfg.OCR.Model, detection.WithMaxSide(cfg.OCR.MaxSide)).TestVision(ctx, img.Pixels)
	if err != nil {
		return fmt.Errorf("vision probe failed: %w", err)
	}
	fmt.Println(answer)
	return nil
}

// localName maps a URL to a file name in the working directory
func localName(source string) string {
	if !analyzer.IsURL(source) {
		return source
	}
	name := path.Base(strings.SplitN(source, "?", 2)[0])
	if name == "" || name == "/" || name == "." {
		name = "remote"
	}
	return name
}
