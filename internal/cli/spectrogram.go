package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/wavedeck/wavedeck/internal/analysis"
)

type spectrogramOutput struct {
	Frequencies []float64   `json:"frequencies"`
	Times       []float64   `json:"times"`
	PowerDB     [][]float64 `json:"power_db"`
}

func newSpectrogramCommand(opts *rootOptions) *cobra.Command {
	var (
		window  int
		overlap int
		start   float64
		end     float64
		asJSON  bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "spectrogram FILE",
		Short: "Compute a power spectrogram of a file's audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := opts.extractor().Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if end <= 0 {
				end = buf.Duration()
			}
			specOpts := []analysis.SpectrogramOption{analysis.WithWindowSize(window)}
			if overlap >= 0 {
				specOpts = append(specOpts, analysis.WithOverlap(overlap))
			}
			view := analysis.Spectrogram(buf, start, end, specOpts...)

			if asJSON || output != "" {
				result := spectrogramOutput{
					Frequencies: view.Frequencies,
					Times:       view.Times,
					PowerDB:     view.PowerDB,
				}
				if result.Frequencies == nil {
					result.Frequencies = []float64{}
				}
				if result.Times == nil {
					result.Times = []float64{}
				}
				if result.PowerDB == nil {
					result.PowerDB = [][]float64{}
				}
				return writeJSONOutput(cmd, output, result)
			}

			out := cmd.OutOrStdout()
			if len(view.Times) == 0 {
				fmt.Fprintln(out, "empty spectrogram: segment shorter than one window")
				return nil
			}
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, row := range view.PowerDB {
				lo = math.Min(lo, floats.Min(row))
				hi = math.Max(hi, floats.Max(row))
			}
			fmt.Fprintf(out, "%d bins x %d frames, 0 Hz to %.0f Hz, %.1f to %.1f dB\n",
				len(view.Frequencies), len(view.Times),
				view.Frequencies[len(view.Frequencies)-1], lo, hi)
			return nil
		},
	}

	cmd.Flags().IntVar(&window, "window", analysis.DefaultWindowSize, "STFT window length in samples")
	cmd.Flags().IntVar(&overlap, "overlap", -1, "Samples shared by consecutive windows (default half the window)")
	cmd.Flags().Float64Var(&start, "start", 0, "Segment start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Segment end in seconds (default the full duration)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full spectrogram as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write JSON to a file instead of stdout")
	return cmd
}
