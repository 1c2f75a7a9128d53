// Package config loads tuner settings from a YAML file and command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xlemi/semitune/internal/audio"
	"github.com/0xlemi/semitune/internal/dispatch"
	"github.com/0xlemi/semitune/internal/note"
	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
)

const (
	// DefaultBaseDir is the configuration directory under the home directory
	DefaultBaseDir = ".semitune"
	// DefaultConfigFile is the configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config holds every runtime setting
type Config struct {
	SampleRate int `yaml:"sample_rate"`
	FrameSize  int `yaml:"frame_size"`
	Overlap    int `yaml:"overlap"`
	Channels   int `yaml:"channels"`

	// Amplification is the input gain applied to the microphone
	Amplification float64 `yaml:"amplification"`

	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
	Resolver  string `yaml:"resolver"`

	MinFrequency float64 `yaml:"min_frequency"`
	MaxFrequency float64 `yaml:"max_frequency"`

	// Demo replaces the microphone with a synthetic tone at DemoHz
	Demo   bool    `yaml:"demo"`
	DemoHz float64 `yaml:"demo_hz"`

	LogFile  string `yaml:"log_file,omitempty"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		SampleRate:    audio.DefaultFormat.SampleRate,
		FrameSize:     audio.DefaultFormat.FrameSize,
		Overlap:       audio.DefaultFormat.Overlap,
		Channels:      1,
		Amplification: 5.0,
		Workers:       dispatch.DefaultWorkers,
		QueueSize:     dispatch.DefaultQueueSize,
		Resolver:      note.MethodWalk,
		MinFrequency:  40,
		MaxFrequency:  2000,
		DemoHz:        440,
		LogLevel:      "info",
	}
}

// DefaultPath returns ~/.semitune/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// Load reads path over the defaults. A missing file is not an error; an
// empty path means DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// BindFlags registers a flag for every setting, defaulting to the current
// values, so parsed flags override what was loaded from the file
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.SampleRate, "sample-rate", c.SampleRate, "capture sample rate in Hz")
	fs.IntVar(&c.FrameSize, "frame-size", c.FrameSize, "samples per analysis frame")
	fs.IntVar(&c.Overlap, "overlap", c.Overlap, "samples shared by consecutive frames")
	fs.IntVar(&c.Channels, "channels", c.Channels, "input channels mixed down to mono")
	fs.Float64Var(&c.Amplification, "gain", c.Amplification, "microphone amplification factor")
	fs.IntVar(&c.Workers, "workers", c.Workers, "resolver worker pool size")
	fs.IntVar(&c.QueueSize, "queue", c.QueueSize, "pending frames before the oldest is dropped")
	fs.StringVar(&c.Resolver, "resolver", c.Resolver, "note resolver: walk or log")
	fs.Float64Var(&c.MinFrequency, "min-hz", c.MinFrequency, "lowest frequency to detect")
	fs.Float64Var(&c.MaxFrequency, "max-hz", c.MaxFrequency, "highest frequency to detect")
	fs.BoolVar(&c.Demo, "demo", c.Demo, "use a synthetic tone instead of the microphone")
	fs.Float64Var(&c.DemoHz, "demo-hz", c.DemoHz, "frequency of the demo tone")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to this file")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
}

// ApplyChanged copies the value of every flag set on fs that names a
// setting onto c
func (c *Config) ApplyChanged(fs *pflag.FlagSet) error {
	bound := pflag.NewFlagSet("config", pflag.ContinueOnError)
	c.BindFlags(bound)

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil || bound.Lookup(f.Name) == nil {
			return
		}
		if setErr := bound.Set(f.Name, f.Value.String()); setErr != nil {
			err = fmt.Errorf("flag --%s: %w", f.Name, setErr)
		}
	})
	return err
}

// Format returns the audio framing
func (c Config) Format() audio.Format {
	return audio.Format{
		SampleRate: c.SampleRate,
		FrameSize:  c.FrameSize,
		Overlap:    c.Overlap,
	}
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if err := c.Format().Validate(); err != nil {
		return err
	}
	if c.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", c.Channels)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be at least 1, got %d", c.QueueSize)
	}
	if _, err := note.Lookup(c.Resolver); err != nil {
		return err
	}
	if c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency {
		return fmt.Errorf("frequency range [%v, %v] is invalid", c.MinFrequency, c.MaxFrequency)
	}
	if c.Demo && c.DemoHz < 0 {
		return fmt.Errorf("demo frequency must not be negative, got %v", c.DemoHz)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}
