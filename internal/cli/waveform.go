package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/wavedeck/wavedeck/internal/analysis"
)

type waveformOutput struct {
	Points     []float64 `json:"points"`
	Times      []float64 `json:"times"`
	Duration   float64   `json:"duration"`
	SampleRate int       `json:"sample_rate"`
	BlockSize  int       `json:"block_size"`
}

func newWaveformCommand(opts *rootOptions) *cobra.Command {
	var (
		blockSize int
		asJSON    bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "waveform FILE",
		Short: "Compute the normalized RMS waveform of a file's audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := opts.extractor().Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			points := analysis.Waveform(buf, blockSize)
			if asJSON || output != "" {
				return writeJSONOutput(cmd, output, waveformOutput{
					Points:     points,
					Times:      analysis.TimeAxis(buf, blockSize),
					Duration:   buf.Duration(),
					SampleRate: buf.SampleRate,
					BlockSize:  blockSize,
				})
			}

			peak := 0.0
			if len(points) > 0 {
				peak = floats.Max(points)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d points over %.3fs (block %d at %d Hz), peak %.3f\n",
				len(points), buf.Duration(), blockSize, buf.SampleRate, peak)
			return nil
		},
	}

	cmd.Flags().IntVar(&blockSize, "block-size", 100, "Samples per RMS block")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full waveform as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write JSON to a file instead of stdout")
	return cmd
}
