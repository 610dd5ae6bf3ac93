package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/focus-overlay/pkg/annotate"
	"github.com/menta2k/focus-overlay/pkg/focus"
	"github.com/menta2k/focus-overlay/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Loop     LoopConfig     `json:"loop"`
	Focus    FocusConfig    `json:"focus"`
	Render   RenderConfig   `json:"render"`
	Detector DetectorConfig `json:"detector"`
	Output   OutputConfig   `json:"output"`
}

// LoopConfig holds the detection loop timing
type LoopConfig struct {
	PollIntervalMs int  `json:"poll_interval_ms"`
	PacingMs       int  `json:"pacing_ms"`
	Throttled      bool `json:"throttled"`
	Repeat         bool `json:"repeat"`
	MaxFrames      int  `json:"max_frames"`
}

// FocusConfig holds the sharpness threshold and indicator colors
type FocusConfig struct {
	Threshold    float64 `json:"threshold"`
	FocusedColor string  `json:"focused_color"`
	NeutralColor string  `json:"neutral_color"`
}

// RenderConfig holds annotation geometry
type RenderConfig struct {
	LineWidth      float64  `json:"line_width"`
	CornerGap      float64  `json:"corner_gap"`
	CornerArm      float64  `json:"corner_arm"`
	ExcludedLabels []string `json:"excluded_labels"`
}

// DetectorConfig holds the vision backend settings
type DetectorConfig struct {
	Backend       string  `json:"backend"`
	URL           string  `json:"url"`
	Model         string  `json:"model"`
	MinConfidence float64 `json:"min_confidence"`
	SendSize      int     `json:"send_size"`
	SendQuality   int     `json:"send_quality"`
	SendFormat    string  `json:"send_format"`
	TimeoutSec    int     `json:"timeout_sec"`
}

// OutputConfig holds configuration for annotated frame output
type OutputConfig struct {
	Dir      string `json:"dir"`
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
	Report   bool   `json:"report"`
	Suffix   string `json:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			PollIntervalMs: 100,
			PacingMs:       0,
			Throttled:      false,
		},
		Focus: FocusConfig{
			Threshold:    focus.DefaultThreshold,
			FocusedColor: "green",
			NeutralColor: "white",
		},
		Render: RenderConfig{
			LineWidth:      2,
			CornerGap:      10,
			CornerArm:      20,
			ExcludedLabels: append([]string(nil), annotate.DefaultExcludedLabels...),
		},
		Detector: DetectorConfig{
			Backend:       "ollama",
			Model:         "llava",
			MinConfidence: 0.3,
			SendSize:      768,
			SendQuality:   85,
			SendFormat:    "jpg",
			TimeoutSec:    120,
		},
		Output: OutputConfig{
			Dir:     "./output",
			Format:  "jpg",
			Quality: 90,
			Suffix:  "_focus",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing keys keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Loop.PollIntervalMs <= 0 {
		return fmt.Errorf("loop.poll_interval_ms must be positive")
	}

	if c.Loop.PacingMs < 0 {
		return fmt.Errorf("loop.pacing_ms cannot be negative")
	}

	if c.Loop.MaxFrames < 0 {
		return fmt.Errorf("loop.max_frames cannot be negative")
	}

	if c.Focus.Threshold < 0 {
		return fmt.Errorf("focus.threshold cannot be negative")
	}

	if _, err := focus.ParsePalette(c.Focus.FocusedColor, c.Focus.NeutralColor); err != nil {
		return fmt.Errorf("focus colors: %w", err)
	}

	if c.Render.LineWidth <= 0 {
		return fmt.Errorf("render.line_width must be positive")
	}

	if c.Render.CornerGap < 0 || c.Render.CornerArm < 0 {
		return fmt.Errorf("render.corner_gap and render.corner_arm cannot be negative")
	}

	switch c.Detector.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("detector.backend must be ollama or llamacpp, got %q", c.Detector.Backend)
	}

	if c.Detector.Model == "" {
		return fmt.Errorf("detector.model cannot be empty")
	}

	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be between 0 and 1")
	}

	if c.Detector.SendSize < 0 {
		return fmt.Errorf("detector.send_size cannot be negative")
	}

	if c.Detector.SendQuality < 1 || c.Detector.SendQuality > 100 {
		return fmt.Errorf("detector.send_quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Detector.SendFormat) {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("detector.send_format must be jpg or png")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// PollInterval returns the readiness poll interval
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Loop.PollIntervalMs) * time.Millisecond
}

// Pacing returns the base delay between cycles
func (c *Config) Pacing() time.Duration {
	return time.Duration(c.Loop.PacingMs) * time.Millisecond
}

// DetectorTimeout returns the per-request detector timeout, 0 for none
func (c *Config) DetectorTimeout() time.Duration {
	return time.Duration(c.Detector.TimeoutSec) * time.Second
}

// Palette parses the configured indicator colors
func (c *Config) Palette() (focus.Palette, error) {
	return focus.ParsePalette(c.Focus.FocusedColor, c.Focus.NeutralColor)
}

// RenderOptions returns the renderer geometry
func (c *Config) RenderOptions() annotate.Config {
	return annotate.Config{
		LineWidth: c.Render.LineWidth,
		CornerGap: c.Render.CornerGap,
		CornerArm: c.Render.CornerArm,
		Excluded:  annotate.LabelFilter(c.Render.ExcludedLabels),
	}
}

// OutputOptions returns how annotated frames are written
func (c *Config) OutputOptions() types.OutputOptions {
	return types.OutputOptions{
		Dir:      c.Output.Dir,
		Format:   strings.ToLower(c.Output.Format),
		Quality:  c.Output.Quality,
		Lossless: c.Output.Lossless,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "focus-overlay", "config.json")
}
