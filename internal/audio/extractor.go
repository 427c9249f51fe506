package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// DefaultSampleRate is used when the probed audio stream does not report a
// sample rate.
const DefaultSampleRate = 44100

// ErrNoAudioStream is returned when a media file holds no audio stream.
var ErrNoAudioStream = errors.New("no audio stream found")

// Decoder defines the decoding capability the extractor needs. The
// production implementation shells out to ffmpeg and ffprobe; tests
// substitute in-memory fakes.
type Decoder interface {
	// Probe lists the media file's streams.
	Probe(ctx context.Context, path string) (*ProbeResult, error)

	// DecodePCM decodes the file's audio to mono s16le PCM at the given
	// sample rate.
	DecodePCM(ctx context.Context, path string, sampleRate int) ([]byte, error)
}

// Extractor decodes media files into Buffers at their native sample rate.
type Extractor struct {
	decoder Decoder
	logger  *slog.Logger

	// wavFastPath reads .wav files natively instead of spawning ffmpeg.
	wavFastPath bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithWAVFastPath toggles native decoding of .wav files. ffmpeg remains the
// fallback when the native read fails.
func WithWAVFastPath(enabled bool) ExtractorOption {
	return func(e *Extractor) {
		e.wavFastPath = enabled
	}
}

// NewExtractor creates an Extractor on top of the given decoder.
func NewExtractor(decoder Decoder, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		decoder: decoder,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decoder returns the decoder the extractor was built on, for callers that
// need probe access alongside extraction.
func (e *Extractor) Decoder() Decoder {
	return e.decoder
}

// Extract decodes the file's first audio stream into a mono Buffer at the
// stream's native sample rate (DefaultSampleRate when unreported).
//
// It returns ErrNoAudioStream when the file has no audio stream and a
// *DecodeError when the decoder fails or its probe output cannot be parsed.
// The returned buffer is always fully populated; a file with an empty audio
// stream yields a buffer with zero samples, not an error.
func (e *Extractor) Extract(ctx context.Context, path string) (*Buffer, error) {
	if e.wavFastPath && strings.EqualFold(filepath.Ext(path), ".wav") {
		buf, err := ReadWAVFile(path)
		if err == nil {
			e.logger.Debug("decoded wav natively",
				"path", path,
				"sample_rate", buf.SampleRate,
				"samples", len(buf.Samples))
			return buf, nil
		}
		e.logger.Debug("wav fast path failed, falling back to ffmpeg",
			"path", path,
			"error", err)
	}

	probe, err := e.decoder.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	stream, ok := probe.AudioStream()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAudioStream, path)
	}
	rate := stream.SampleRateHz(DefaultSampleRate)

	data, err := e.decoder.DecodePCM(ctx, path, rate)
	if err != nil {
		return nil, err
	}

	buf := &Buffer{Samples: DecodeS16LE(data), SampleRate: rate}
	e.logger.Debug("extracted audio",
		"path", path,
		"sample_rate", rate,
		"samples", len(buf.Samples),
		"duration", buf.Duration())
	return buf, nil
}
