package main

import (
	"fmt"
	"log/slog"

	"github.com/0xlemi/semitune/internal/audio"
	"github.com/0xlemi/semitune/internal/config"
	"github.com/0xlemi/semitune/internal/note"
	"github.com/0xlemi/semitune/internal/pitch"
	"github.com/0xlemi/semitune/internal/tuner"
	"github.com/0xlemi/semitune/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// Display updates buffered between the workers and the UI
const sinkBacklog = 16

func newRunCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive tuner (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuner(cmd, s)
		},
	}
}

// newSource picks the microphone or, in demo mode, a paced synthetic tone
func newSource(cfg config.Config) (audio.Source, error) {
	if cfg.Demo {
		return audio.NewToneSource(cfg.Format(), cfg.DemoHz, true), nil
	}
	capturer, err := audio.NewPortAudioSource(cfg.Format(), cfg.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio capturer: %w", err)
	}
	capturer.SetAmplification(float32(cfg.Amplification))
	return capturer, nil
}

func runTuner(cmd *cobra.Command, s *settings) error {
	cfg := s.cfg

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	resolve, err := note.Lookup(cfg.Resolver)
	if err != nil {
		return err
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	estimator := pitch.NewFFTEstimator(pitch.FFTOptions{
		MinFrequency: cfg.MinFrequency,
		MaxFrequency: cfg.MaxFrequency,
	})

	sink := ui.NewSink(sinkBacklog)
	session := tuner.New(source, estimator, sink, tuner.Options{
		Resolve:   resolve,
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Logger:    logger,
	})

	ctx := cmd.Context()
	model := ui.NewModel(sink, ui.ControllerFunc(func() (bool, error) {
		return session.Toggle(ctx)
	}))

	logger.Info("semitune: starting", "demo", cfg.Demo, "resolver", cfg.Resolver,
		"sample_rate", cfg.SampleRate, "frame_size", cfg.FrameSize, "overlap", cfg.Overlap)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	if err := session.Stop(); err != nil {
		logger.Error("semitune: stop failed", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("error running program: %w", runErr)
	}

	stats := session.Stats()
	logger.Info("semitune: exiting", "submitted", stats.Submitted, "completed", stats.Completed,
		"dropped", stats.Dropped, "failed", stats.Failed)
	return nil
}
