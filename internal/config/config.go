// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/pkg/models"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

const (
	DefaultPaper      = "A4"
	DefaultMarginMM   = 5.0
	DefaultPreviewDPI = 150.0
)

type Config struct {
	Paper             string    `yaml:"paper"`
	MarginXMM         float64   `yaml:"margin_x_mm"`
	MarginYMM         float64   `yaml:"margin_y_mm"`
	TrimCandidatesMM  []float64 `yaml:"trim_candidates_mm"`
	BleedCandidatesMM []float64 `yaml:"bleed_candidates_mm"`
	AllowRotation     bool      `yaml:"allow_rotation"`
	OutputSuffix      string    `yaml:"output_suffix"`
	PreviewDPI        float64   `yaml:"preview_dpi"`
}

func Default() *Config {
	opts := layout.DefaultOptions()
	return &Config{
		Paper:             DefaultPaper,
		MarginXMM:         DefaultMarginMM,
		MarginYMM:         DefaultMarginMM,
		TrimCandidatesMM:  opts.TrimCandidatesMM,
		BleedCandidatesMM: opts.BleedCandidatesMM,
		AllowRotation:     opts.AllowRotation,
		OutputSuffix:      utils.DefaultOutputSuffix,
		PreviewDPI:        DefaultPreviewDPI,
	}
}

// Load reads a YAML config. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Paper == "" {
		cfg.Paper = DefaultPaper
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = utils.DefaultOutputSuffix
	}
	if cfg.PreviewDPI <= 0 {
		cfg.PreviewDPI = DefaultPreviewDPI
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	if _, err := models.ParsePaperSize(c.Paper); err != nil {
		return err
	}
	if c.MarginXMM < 0 || c.MarginYMM < 0 {
		return fmt.Errorf("%w: margins must not be negative", layout.ErrInvalidMargin)
	}
	for _, v := range c.TrimCandidatesMM {
		if v < 0 {
			return fmt.Errorf("%w: trim %.2f mm", layout.ErrInvalidTrim, v)
		}
	}
	for _, v := range c.BleedCandidatesMM {
		if v < 0 {
			return fmt.Errorf("%w: bleed %.2f mm", layout.ErrInvalidTrim, v)
		}
	}
	return nil
}

func (c *Config) PaperSize() (models.PaperSize, error) {
	return models.ParsePaperSize(c.Paper)
}

func (c *Config) Margins() models.Margins {
	return models.Margins{XMM: c.MarginXMM, YMM: c.MarginYMM}
}

func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		TrimCandidatesMM:  append([]float64(nil), c.TrimCandidatesMM...),
		BleedCandidatesMM: append([]float64(nil), c.BleedCandidatesMM...),
		AllowRotation:     c.AllowRotation,
	}
}
