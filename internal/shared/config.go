package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog    CatalogConfig    `toml:"catalog"`
	Audio      AudioConfig      `toml:"audio"`
	Animation  AnimationConfig  `toml:"animation"`
	Transition TransitionConfig `toml:"transition"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// CatalogConfig points at an alternate track catalog.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// AudioConfig contains manifest, backend and preload settings.
type AudioConfig struct {
	Manifest         string  `toml:"manifest"`
	Backend          string  `toml:"backend"`
	Volume           float64 `toml:"volume"`
	PreloadTimeoutMs int     `toml:"preload_timeout_ms"`
	PreloadRate      float64 `toml:"preload_rate"`
}

// AnimationConfig contains typewriter pacing, in milliseconds.
type AnimationConfig struct {
	Enabled        bool `toml:"enabled"`
	BaseSpeedMs    int  `toml:"base_speed_ms"`
	LeadMs         int  `toml:"lead_ms"`
	ParagraphGapMs int  `toml:"paragraph_gap_ms"`
	VersePauseMs   int  `toml:"verse_pause_ms"`
	VerseGapMs     int  `toml:"verse_gap_ms"`
}

// TransitionConfig contains controller timings, in milliseconds.
type TransitionConfig struct {
	SettleMs      int `toml:"settle_ms"`
	TapCooldownMs int `toml:"tap_cooldown_ms"`
	BeginDelayMs  int `toml:"begin_delay_ms"`
}

// DatabaseConfig contains session journal settings.
type DatabaseConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains local asset server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Dir  string `toml:"dir"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Missing values fall back to the embedded defaults and KIYI_* environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyDefaults()
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills in zero timing values with the embedded defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()

	if c.Audio.Backend == "" {
		c.Audio.Backend = d.Audio.Backend
	}
	if c.Audio.PreloadTimeoutMs == 0 {
		c.Audio.PreloadTimeoutMs = d.Audio.PreloadTimeoutMs
	}
	if c.Animation.BaseSpeedMs == 0 {
		c.Animation.BaseSpeedMs = d.Animation.BaseSpeedMs
	}
	if c.Transition.SettleMs == 0 {
		c.Transition.SettleMs = d.Transition.SettleMs
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, errors.New("audio: volume must be between 0 and 1"))
	}
	switch c.Audio.Backend {
	case "speaker", "none":
	default:
		errs = append(errs, fmt.Errorf("audio: invalid backend %q (must be speaker or none)", c.Audio.Backend))
	}
	if c.Audio.PreloadTimeoutMs < 0 || c.Audio.PreloadRate < 0 {
		errs = append(errs, errors.New("audio: preload settings must be non-negative"))
	}
	for name, v := range map[string]int{
		"base_speed_ms":    c.Animation.BaseSpeedMs,
		"lead_ms":          c.Animation.LeadMs,
		"paragraph_gap_ms": c.Animation.ParagraphGapMs,
		"verse_pause_ms":   c.Animation.VersePauseMs,
		"verse_gap_ms":     c.Animation.VerseGapMs,
		"settle_ms":        c.Transition.SettleMs,
		"tap_cooldown_ms":  c.Transition.TapCooldownMs,
		"begin_delay_ms":   c.Transition.BeginDelayMs,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative", name))
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log: invalid level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Millis converts a millisecond config value to a [time.Duration].
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("KIYI_CATALOG"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("KIYI_MANIFEST"); v != "" {
		c.Audio.Manifest = v
	}
	if v := os.Getenv("KIYI_AUDIO_BACKEND"); v != "" {
		c.Audio.Backend = v
	}
	if v := os.Getenv("KIYI_VOLUME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Audio.Volume = f
		}
	}
	if v := os.Getenv("KIYI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}
