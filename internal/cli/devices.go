package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavedeck/wavedeck/internal/device"
)

func newDevicesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the host's audio output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := device.Initialize(); err != nil {
				return err
			}
			defer func() { _ = device.Terminate() }()

			infos, err := device.PortAudioEnumerator{}.Outputs()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "no output devices available")
				return nil
			}
			for _, d := range infos {
				marker := " "
				if d.IsDefault {
					marker = "*"
				}
				fmt.Fprintf(out, "%s [%d] %-40s %d ch  %.0f Hz\n",
					marker, d.Index, d.ID, d.MaxOutputChannels, d.DefaultSampleRate)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print devices as JSON")
	return cmd
}
