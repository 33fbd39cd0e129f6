package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Audio   AudioConfig   `yaml:"audio"`
	Tools   ToolsConfig   `yaml:"tools"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig contains speech engine configuration
type EngineConfig struct {
	Model     string `yaml:"model"`      // default model identity
	Language  string `yaml:"language"`   // default language code, "auto" for detection
	Threads   int    `yaml:"threads"`    // decode threads, 0 keeps the engine default
	ModelsDir string `yaml:"models_dir"` // "" resolves to the XDG data directory
}

// AudioConfig contains default request options for audio handling.
// Pipeline constants (16kHz target rate, 60s chunks, 120s chunking
// threshold) are fixed and not configurable.
type AudioConfig struct {
	Speed      float64 `yaml:"speed"`      // default playback speedup, 1.0 disables
	Timestamps bool    `yaml:"timestamps"` // default [HH:MM:SS] segment tags
}

// ToolsConfig contains external tool path overrides
type ToolsConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"` // "" probes the well-known locations
	YtDlpPath  string `yaml:"ytdlp_path"`  // "" uses yt-dlp from PATH
}

// HistoryConfig contains transcription history configuration
type HistoryConfig struct {
	Dir string `yaml:"dir"` // "" resolves to the XDG data directory
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig contains the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // listen address, e.g. "127.0.0.1:9090"
}

// Default returns a configuration that is valid without any config file.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Model:    "base",
			Language: "auto",
			Threads:  0,
		},
		Audio: AudioConfig{
			Speed:      1.0,
			Timestamps: false,
		},
		Tools: ToolsConfig{},
		History: HistoryConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9090",
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "audioink", "config.yaml")
}

// Load reads and parses the configuration file. Absent fields keep their
// default values, so partial configs are fine.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

// Validate validates engine configuration
func (e *EngineConfig) Validate() error {
	validModels := map[string]bool{
		"tiny": true, "base": true, "small": true,
		"medium": true, "large": true, "large-v3-turbo": true,
	}
	if !validModels[e.Model] {
		return fmt.Errorf("model must be one of [tiny, base, small, medium, large, large-v3-turbo], got '%s'", e.Model)
	}

	if e.Language == "" {
		return fmt.Errorf("language cannot be empty, use 'auto' for detection")
	}

	if e.Threads < 0 {
		return fmt.Errorf("threads cannot be negative, got %d", e.Threads)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.Speed < 1.0 || a.Speed > 2.0 {
		return fmt.Errorf("speed must be between 1.0 and 2.0, got %g", a.Speed)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.Address == "" {
		return fmt.Errorf("address cannot be empty when metrics are enabled")
	}

	return nil
}
