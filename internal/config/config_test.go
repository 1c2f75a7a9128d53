package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
	f := Default().Format()
	if f.SampleRate != 44100 || f.FrameSize != 2048 || f.Overlap != 1024 {
		t.Errorf("Format() = %+v", f)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Errorf("missing file should give defaults, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("workers: 8\nresolver: log\nframe_size: 4096\noverlap: 2048\nlog_level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 8 || cfg.Resolver != "log" || cfg.FrameSize != 4096 || cfg.Overlap != 2048 {
		t.Errorf("cfg = %+v", cfg)
	}
	// Unset keys keep their defaults
	if cfg.SampleRate != 44100 || cfg.QueueSize != Default().QueueSize {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if level, err := cfg.Level(); err != nil || level != slog.LevelDebug {
		t.Errorf("Level() = %v, %v", level, err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: [1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Workers = 2
	cfg.Demo = true
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("Load(Save(cfg)) = %+v, want %+v", got, cfg)
	}
}

func TestBindFlagsOverride(t *testing.T) {
	cfg := Default()
	cfg.Workers = 8 // as if loaded from a file

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse([]string{"--queue", "16", "--demo", "--resolver", "log"}); err != nil {
		t.Fatal(err)
	}

	if cfg.QueueSize != 16 || !cfg.Demo || cfg.Resolver != "log" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Workers != 8 {
		t.Errorf("unset flag overrode file value: workers = %d", cfg.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap", func(c *Config) { c.Overlap = c.FrameSize }},
		{"sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"channels", func(c *Config) { c.Channels = 0 }},
		{"workers", func(c *Config) { c.Workers = 0 }},
		{"queue", func(c *Config) { c.QueueSize = 0 }},
		{"resolver", func(c *Config) { c.Resolver = "table" }},
		{"range", func(c *Config) { c.MaxFrequency = c.MinFrequency }},
		{"demo hz", func(c *Config) { c.Demo = true; c.DemoHz = -1 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestApplyChanged(t *testing.T) {
	// Flags parsed against defaults, then re-applied over a loaded file
	parsed := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	parsed.BindFlags(fs)
	if err := fs.Parse([]string{"--config", "x.yaml", "--workers", "3", "--demo-hz", "261.63"}); err != nil {
		t.Fatal(err)
	}

	loaded := Default()
	loaded.Workers = 8
	loaded.QueueSize = 12
	if err := loaded.ApplyChanged(fs); err != nil {
		t.Fatal(err)
	}
	if loaded.Workers != 3 || loaded.DemoHz != 261.63 {
		t.Errorf("set flags not applied: %+v", loaded)
	}
	if loaded.QueueSize != 12 {
		t.Errorf("file value lost: queue = %d", loaded.QueueSize)
	}
}
