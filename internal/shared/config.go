package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Player     PlayerConfig     `toml:"player"`
	Poller     PollerConfig     `toml:"poller"`
	Thumbnails ThumbnailsConfig `toml:"thumbnails"`
	Log        LogConfig        `toml:"log"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// PlayerConfig contains connection settings for the remote signage player.
type PlayerConfig struct {
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	RetryMax          int      `toml:"retry_max"`
}

// PollerConfig contains playback status polling settings.
type PollerConfig struct {
	Interval Duration `toml:"interval"`
}

// ThumbnailsConfig contains thumbnail fault and rendering settings.
type ThumbnailsConfig struct {
	FaultTTL Duration `toml:"fault_ttl"`
	Width    int      `toml:"width"`
	Height   int      `toml:"height"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Duration wraps [time.Duration] so it can be written as "1s" or "250ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads a TOML configuration file and overlays it on [DefaultConfig].
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Player.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: player.base_url %q", ErrInvalidConfig, c.Player.BaseURL)
	}
	if c.Poller.Interval.Duration <= 0 {
		return fmt.Errorf("%w: poller.interval must be positive", ErrInvalidConfig)
	}
	if c.Thumbnails.FaultTTL.Duration <= 0 {
		return fmt.Errorf("%w: thumbnails.fault_ttl must be positive", ErrInvalidConfig)
	}
	if c.Player.RequestsPerSecond < 0 || c.Player.RetryMax < 0 {
		return fmt.Errorf("%w: player limits must not be negative", ErrInvalidConfig)
	}
	return nil
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
