package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// FFmpegDecoder implements Decoder using the ffmpeg and ffprobe CLIs.
type FFmpegDecoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegDecoder creates a new FFmpegDecoder. Empty paths fall back to
// "ffmpeg" and "ffprobe" found via PATH.
func NewFFmpegDecoder(ffmpegPath, ffprobePath string) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegDecoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Probe lists the file's streams via ffprobe. The entry set is a superset
// of what extraction needs so the same probe serves frame-rate lookups.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "stream=codec_type,codec_name,sample_rate,channels,duration,avg_frame_rate",
		"-of", "json",
		path,
	}

	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return nil, &DecodeError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	var probe ProbeResult
	if err := json.Unmarshal(stdout.Bytes(), &probe); err != nil {
		return nil, &DecodeError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    fmt.Errorf("parse probe output: %w", err),
		}
	}

	return &probe, nil
}

// DecodePCM decodes the file's audio to raw PCM on stdout: mono, signed
// 16-bit little-endian, at the requested sample rate.
func (d *FFmpegDecoder) DecodePCM(ctx context.Context, path string, sampleRate int) ([]byte, error) {
	args := []string{
		"-i", path, // Input file
		"-vn",      // Drop video streams
		"-ac", "1", // Downmix to mono
		"-ar", strconv.Itoa(sampleRate), // Output sample rate
		"-f", "s16le", // Raw signed 16-bit little-endian
		"-", // Write to stdout
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return nil, &DecodeError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}

// DecodeError represents a failed decoder or prober run, including the
// stderr output the tool produced.
type DecodeError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Decoder = (*FFmpegDecoder)(nil)
