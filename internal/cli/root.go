// Package cli implements the wavedeck command line tool, a thin front end
// over the same probing, extraction, and analysis code the API server uses.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wavedeck/wavedeck/internal/audio"
)

type rootOptions struct {
	ffmpegPath  string
	ffprobePath string
	logLevel    string
	wavFastPath bool
}

// Execute runs the wavedeck CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the wavedeck command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wavedeck",
		Short: "Inspect and analyze the audio of media files",
		Long: `wavedeck probes media files with ffprobe, decodes their audio with
ffmpeg, and derives waveforms, spectrograms, and chapter files from it.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&opts.ffmpegPath, "ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	cmd.PersistentFlags().StringVar(&opts.ffprobePath, "ffprobe", "ffprobe", "Path to the ffprobe binary")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.wavFastPath, "wav-fast-path", true, "Decode .wav files natively instead of through ffmpeg")

	cmd.AddCommand(
		newProbeCommand(opts),
		newWaveformCommand(opts),
		newSpectrogramCommand(opts),
		newChaptersCommand(),
		newDevicesCommand(),
	)
	return cmd
}

// logger builds a stderr logger so stdout stays machine-readable.
func (o *rootOptions) logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(o.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) extractor() *audio.Extractor {
	decoder := audio.NewFFmpegDecoder(o.ffmpegPath, o.ffprobePath)
	return audio.NewExtractor(decoder, o.logger(),
		audio.WithWAVFastPath(o.wavFastPath),
	)
}

// writeJSONOutput encodes v as indented JSON to path, or to the command's
// stdout when path is empty or "-".
func writeJSONOutput(cmd *cobra.Command, path string, v any) error {
	out := cmd.OutOrStdout()
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
