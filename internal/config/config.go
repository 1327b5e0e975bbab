package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	uxanalyzer "github.com/menta2k/ux-analyzer"
	"github.com/menta2k/ux-analyzer/pkg/types"
)

// Config holds the application configuration. The pipeline settings are
// inlined at the top level of the file.
type Config struct {
	uxanalyzer.Config `yaml:",inline"`
	Output            OutputConfig  `json:"output" yaml:"output"`
	Logging           LoggingConfig `json:"logging" yaml:"logging"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir    string `json:"dir" yaml:"dir"`
	Suffix string `json:"suffix" yaml:"suffix"`
}

// LoggingConfig controls the CLI logger
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Config: uxanalyzer.DefaultConfig(),
		Output: OutputConfig{
			Dir:    "",
			Suffix: "-analysis",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile (when it exists) into the process environment and
// then applies UXA_* variables on top of the configuration. An empty
// envFile means ".env".
func (c *Config) ApplyEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	setString("UXA_OCR_BACKEND", &c.OCR.Backend)
	setString("UXA_OCR_MODEL", &c.OCR.Model)
	setString("UXA_OCR_URL", &c.OCR.URL)
	setString("UXA_REGIONS_POLICY", &c.Regions.Policy)
	setString("UXA_OUTPUT_DIR", &c.Output.Dir)
	setString("UXA_LOG_LEVEL", &c.Logging.Level)
	setString("UXA_LOG_FORMAT", &c.Logging.Format)
	if v, ok := os.LookupEnv("UXA_OCR_LANGUAGES"); ok && v != "" {
		c.OCR.Languages = strings.Split(v, "+")
	}

	if err := setBool("UXA_OCR_ENABLED", &c.OCR.Enabled); err != nil {
		return err
	}
	if err := setBool("UXA_PARALLEL", &c.Parallel); err != nil {
		return err
	}
	if err := setFloat("UXA_OCR_MIN_CONFIDENCE", &c.OCR.MinConfidence); err != nil {
		return err
	}
	if err := setInt("UXA_OCR_TIMEOUT", &c.OCR.Timeout); err != nil {
		return err
	}
	if err := setInt("UXA_PALETTE_K", &c.Palette.K); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("UXA_PALETTE_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return types.NewConfigError("UXA_PALETTE_SEED", "is not an integer: %q", v)
		}
		c.Palette.Seed = seed
	}
	return nil
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return types.NewConfigError(key, "is not a boolean: %q", v)
	}
	*dst = b
	return nil
}

func setInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return types.NewConfigError(key, "is not an integer: %q", v)
	}
	*dst = n
	return nil
}

func setFloat(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return types.NewConfigError(key, "is not a number: %q", v)
	}
	*dst = f
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return types.NewConfigError("logging.level", "unknown level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return types.NewConfigError("logging.format", "must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// NewLogger builds a logger from the logging section
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(c.Logging.Level); err == nil {
		logger.SetLevel(level)
	}
	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "ux-analyzer", "config.yaml")
}
