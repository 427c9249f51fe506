// Package analysis derives rendering-ready views from decoded audio
// buffers: RMS waveform envelopes, their time axes, and STFT spectrograms.
// Every function is pure and safe on a nil buffer, returning empty views
// for degenerate input instead of errors.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wavedeck/wavedeck/internal/audio"
)

// Waveform downsamples a buffer to one value per blockSize samples: the
// root mean square of each complete block, with the trailing partial block
// dropped. A blockSize of 1 yields per-sample absolute values instead.
// The result is normalized so its maximum is exactly 1.0 unless the buffer
// is silent, which stays all-zero. A nil buffer or blockSize < 1 yields an
// empty slice.
func Waveform(buf *audio.Buffer, blockSize int) []float64 {
	if buf == nil || blockSize < 1 {
		return []float64{}
	}

	var points []float64
	if blockSize == 1 {
		points = make([]float64, len(buf.Samples))
		for i, s := range buf.Samples {
			points[i] = math.Abs(float64(s))
		}
	} else {
		blocks := len(buf.Samples) / blockSize
		points = make([]float64, blocks)
		for b := 0; b < blocks; b++ {
			var sum float64
			for _, s := range buf.Samples[b*blockSize : (b+1)*blockSize] {
				v := float64(s)
				sum += v * v
			}
			points[b] = math.Sqrt(sum / float64(blockSize))
		}
	}

	normalize(points)
	return points
}

// TimeAxis returns the time in seconds for each Waveform point at the same
// blockSize, so len(TimeAxis(b, k)) == len(Waveform(b, k)) always holds.
//
// For blockSize 1 each point is its exact sample time. For larger blocks
// the points are spread evenly from 0 through the buffer duration, which
// places early blocks slightly late; renderers depend on that spacing, so
// it is kept as is.
func TimeAxis(buf *audio.Buffer, blockSize int) []float64 {
	if buf == nil || blockSize < 1 {
		return []float64{}
	}

	if blockSize == 1 {
		axis := make([]float64, len(buf.Samples))
		if buf.SampleRate > 0 {
			rate := float64(buf.SampleRate)
			for i := range axis {
				axis[i] = float64(i) / rate
			}
		}
		return axis
	}

	blocks := len(buf.Samples) / blockSize
	switch blocks {
	case 0:
		return []float64{}
	case 1:
		return []float64{0}
	}

	axis := make([]float64, blocks)
	floats.Span(axis, 0, buf.Duration())
	return axis
}

// normalize scales points in place so the maximum becomes exactly 1.0.
// All-zero input is left untouched so silence renders flat.
func normalize(points []float64) {
	if len(points) == 0 {
		return
	}
	max := floats.Max(points)
	if max <= 0 {
		return
	}
	for i := range points {
		points[i] /= max
	}
}
