package main

import (
	"fmt"
	"strconv"

	"github.com/0xlemi/semitune/internal/note"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// resolution is the printable form of a note.Result
type resolution struct {
	ObservedHz  float64 `yaml:"observed_hz"`
	Note        string  `yaml:"note"`
	Octave      int     `yaml:"octave"`
	Semitones   int     `yaml:"semitones"`
	NearestHz   float64 `yaml:"nearest_hz"`
	DeviationHz float64 `yaml:"deviation_hz"`
	GaugeRight  int     `yaml:"gauge_right"`
	GaugeLeft   int     `yaml:"gauge_left"`
}

func newResolution(r note.Result) resolution {
	return resolution{
		ObservedHz:  r.ObservedHz,
		Note:        r.Name,
		Octave:      r.Octave,
		Semitones:   r.Semitones,
		NearestHz:   r.NearestHz,
		DeviationHz: r.DeviationHz,
		GaugeRight:  r.GaugeRight,
		GaugeLeft:   r.GaugeLeft,
	}
}

func newResolveCmd(s *settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve <hz>...",
		Short: "Resolve frequencies to the nearest note",
		Example: `  semitune resolve 440
  semitune resolve 82.41 110 146.83 --output yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolve, err := note.Lookup(s.cfg.Resolver)
			if err != nil {
				return err
			}

			results := make([]resolution, 0, len(args))
			for _, arg := range args {
				hz, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid frequency %q: %w", arg, err)
				}
				r, err := resolve(hz)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", arg, err)
				}
				results = append(results, newResolution(r))
			}

			out := cmd.OutOrStdout()
			switch output {
			case "text":
				for _, r := range results {
					fmt.Fprintf(out, "%.2f Hz\t%s (%d)\t%+.2f Hz from %.2f Hz\tflat %d sharp %d\n",
						r.ObservedHz, r.Note, r.Octave, r.DeviationHz, r.NearestHz, r.GaugeLeft, r.GaugeRight)
				}
				return nil
			case "yaml":
				data, err := yaml.Marshal(results)
				if err != nil {
					return fmt.Errorf("failed to marshal results: %w", err)
				}
				_, err = out.Write(data)
				return err
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	return cmd
}
