package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xlemi/semitune/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// settings is shared by every subcommand
type settings struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	s := &settings{cfg: config.Default()}

	root := &cobra.Command{
		Use:   "semitune",
		Short: "Instrument tuner: nearest equal-tempered note and deviation for the microphone input",
		Long: `semitune listens to the default input device, estimates the pitch of
each audio frame and shows the nearest 12-tone equal-tempered note
(anchored at C4 = 261.63 Hz) with its deviation in Hz.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuner(cmd, s)
		},
	}

	root.PersistentFlags().StringVar(&s.configPath, "config", "", "config file (default ~/.semitune/config.yaml)")
	s.cfg.BindFlags(root.PersistentFlags())

	// Flags are registered over the defaults for --help; the file named by
	// --config is only known after parsing, so load it then and re-apply
	// the flags that were set
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(s.configPath)
		if err != nil {
			return err
		}
		if err := cfg.ApplyChanged(cmd.Flags()); err != nil {
			return err
		}
		s.cfg = cfg
		return s.cfg.Validate()
	}

	root.AddCommand(newRunCmd(s), newResolveCmd(s))
	return root
}

// newLogger builds the process logger. The TUI owns the terminal, so logs
// go to a file or nowhere.
func newLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
