package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavedeck/wavedeck/internal/audio"
)

func newProbeCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "List the media streams of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder := audio.NewFFmpegDecoder(opts.ffmpegPath, opts.ffprobePath)
			result, err := decoder.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			out := cmd.OutOrStdout()
			for _, s := range result.Streams {
				switch s.CodecType {
				case "audio":
					fmt.Fprintf(out, "audio  %-8s %d Hz  %d ch\n",
						s.CodecName, s.SampleRateHz(audio.DefaultSampleRate), s.Channels)
				case "video":
					fmt.Fprintf(out, "video  %-8s %.3f fps\n", s.CodecName, s.FrameRate())
				default:
					fmt.Fprintf(out, "%-6s %s\n", s.CodecType, s.CodecName)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw probe result as JSON")
	return cmd
}
