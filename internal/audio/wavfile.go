package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ErrUnsupportedWAV is returned for WAV files the native reader does not
// handle (non-PCM encodings); callers fall back to ffmpeg.
var ErrUnsupportedWAV = errors.New("unsupported wav encoding")

// wavFormatPCM is the format tag for uncompressed integer PCM.
const wavFormatPCM = 1

// ReadWAVFile decodes a RIFF/WAV file without spawning ffmpeg. Multi-channel
// audio is mixed down to mono by averaging the channels, and samples are
// scaled by 1/2^(bits-1) into the same [-1.0, 1.0) range the ffmpeg path
// produces.
func ReadWAVFile(path string) (*Buffer, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from the track service, not raw user input
	if err != nil {
		return nil, fmt.Errorf("opening wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid wav file", ErrUnsupportedWAV)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedWAV, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading wav pcm: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels < 1 || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrUnsupportedWAV)
	}

	bits := pcm.SourceBitDepth
	if bits <= 0 {
		bits = 16
	}
	scale := float64(int64(1) << (bits - 1))

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm.Data[i*channels+c])
		}
		samples[i] = float32(sum / float64(channels) / scale)
	}

	return &Buffer{Samples: samples, SampleRate: pcm.Format.SampleRate}, nil
}
