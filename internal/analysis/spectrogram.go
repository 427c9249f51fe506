package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/wavedeck/wavedeck/internal/audio"
)

// DefaultWindowSize is the STFT window length used when no option overrides
// it.
const DefaultWindowSize = 1024

// powerFloor keeps the dB conversion finite for zero-power bins; it puts
// silence at -100 dB.
const powerFloor = 1e-10

// SpectrogramView is a time-frequency power grid. PowerDB[i][j] holds the
// power in dB at Frequencies[i] and Times[j]; Times are absolute track
// positions in seconds. The zero view (all slices empty) is the defined
// result for any degenerate request.
type SpectrogramView struct {
	Frequencies []float64
	Times       []float64
	PowerDB     [][]float64
}

type spectrogramConfig struct {
	windowSize int
	overlap    int
	overlapSet bool
}

// SpectrogramOption adjusts STFT parameters.
type SpectrogramOption func(*spectrogramConfig)

// WithWindowSize sets the STFT window length in samples.
func WithWindowSize(n int) SpectrogramOption {
	return func(c *spectrogramConfig) {
		c.windowSize = n
	}
}

// WithOverlap sets how many samples consecutive windows share. Values
// outside [0, windowSize) fall back to half the window.
func WithOverlap(n int) SpectrogramOption {
	return func(c *spectrogramConfig) {
		c.overlap = n
		c.overlapSet = true
	}
}

// Spectrogram computes a power-spectral-density spectrogram of the buffer
// between startTime and endTime (seconds, clamped to the buffer). Windows
// are Hann weighted, mean-detrended per frame, and scaled to density so
// values are comparable across sample rates; power is returned in dB.
//
// A nil buffer, an empty or inverted time range, or a segment shorter than
// one window all yield the zero view, never an error.
func Spectrogram(buf *audio.Buffer, startTime, endTime float64, opts ...SpectrogramOption) SpectrogramView {
	if buf == nil || buf.SampleRate <= 0 {
		return SpectrogramView{}
	}

	cfg := spectrogramConfig{windowSize: DefaultWindowSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := cfg.windowSize
	if n < 2 {
		return SpectrogramView{}
	}
	overlap := n / 2
	if cfg.overlapSet && cfg.overlap >= 0 && cfg.overlap < n {
		overlap = cfg.overlap
	}
	step := n - overlap

	rate := float64(buf.SampleRate)
	duration := buf.Duration()
	start := clamp(startTime, 0, duration)
	end := clamp(endTime, 0, duration)

	startIdx := int(start * rate)
	endIdx := int(end * rate)
	if endIdx > len(buf.Samples) {
		endIdx = len(buf.Samples)
	}
	if startIdx < 0 || endIdx <= startIdx {
		return SpectrogramView{}
	}

	segment := buf.Samples[startIdx:endIdx]
	if len(segment) < n {
		return SpectrogramView{}
	}

	frames := (len(segment)-n)/step + 1
	bins := n/2 + 1

	// Periodic Hann window and the density scale 1/(fs * sum(w^2)).
	window := make([]float64, n)
	var windowPower float64
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
		windowPower += window[i] * window[i]
	}
	scale := 1 / (rate * windowPower)

	fft := fourier.NewFFT(n)

	freqs := make([]float64, bins)
	for i := range freqs {
		freqs[i] = fft.Freq(i) * rate
	}

	times := make([]float64, frames)
	power := make([][]float64, bins)
	for i := range power {
		power[i] = make([]float64, frames)
	}

	input := make([]float64, n)
	coeffs := make([]complex128, bins)

	for f := 0; f < frames; f++ {
		offset := f * step
		frame := segment[offset : offset+n]

		var mean float64
		for _, s := range frame {
			mean += float64(s)
		}
		mean /= float64(n)

		for i, s := range frame {
			input[i] = (float64(s) - mean) * window[i]
		}

		fft.Coefficients(coeffs, input)
		for i, c := range coeffs {
			mag := cmplx.Abs(c)
			p := mag * mag * scale
			// One-sided spectrum: double everything except DC and, for an
			// even window, the Nyquist bin.
			if i > 0 && (i < bins-1 || n%2 != 0) {
				p *= 2
			}
			power[i][f] = 10 * math.Log10(p+powerFloor)
		}

		// Frame center, shifted to the absolute track position.
		times[f] = (float64(n)/2+float64(offset))/rate + start
	}

	return SpectrogramView{Frequencies: freqs, Times: times, PowerDB: power}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
