package analysis

import (
	"math"
	"testing"

	"github.com/wavedeck/wavedeck/internal/audio"
)

func sineBuffer(sampleRate int, freq, seconds float64) *audio.Buffer {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
	}
	return &audio.Buffer{Samples: samples, SampleRate: sampleRate}
}

func TestSpectrogramDimensions(t *testing.T) {
	buf := sineBuffer(8000, 440, 1)

	view := Spectrogram(buf, 0, 1, WithWindowSize(256), WithOverlap(128))

	// (8000-256)/128 + 1 frames, 256/2 + 1 bins.
	if len(view.Times) != 61 {
		t.Errorf("time bins = %d, want 61", len(view.Times))
	}
	if len(view.Frequencies) != 129 {
		t.Errorf("frequency bins = %d, want 129", len(view.Frequencies))
	}
	if len(view.PowerDB) != 129 {
		t.Fatalf("power rows = %d, want 129", len(view.PowerDB))
	}
	for i, row := range view.PowerDB {
		if len(row) != 61 {
			t.Fatalf("power row %d has %d columns, want 61", i, len(row))
		}
	}

	if view.Frequencies[0] != 0 {
		t.Errorf("first frequency = %v, want 0 (DC)", view.Frequencies[0])
	}
	if got := view.Frequencies[len(view.Frequencies)-1]; got != 4000 {
		t.Errorf("last frequency = %v, want the 4000 Hz Nyquist", got)
	}
}

func TestSpectrogramDefaultWindow(t *testing.T) {
	buf := silentBuffer(44100, 2048)

	view := Spectrogram(buf, 0, buf.Duration())

	if len(view.Frequencies) != 513 {
		t.Errorf("frequency bins = %d, want 513 for the default window", len(view.Frequencies))
	}
	if len(view.Times) != 3 {
		t.Errorf("time bins = %d, want 3", len(view.Times))
	}
	if got := view.Frequencies[512]; got != 22050 {
		t.Errorf("Nyquist = %v, want 22050", got)
	}
}

func TestSpectrogramFindsSinePeak(t *testing.T) {
	buf := sineBuffer(8000, 1000, 1)

	view := Spectrogram(buf, 0, 1, WithWindowSize(256))

	// 1 kHz at 31.25 Hz/bin lands exactly on bin 32.
	col := len(view.Times) / 2
	peakBin := 0
	for i := range view.PowerDB {
		if view.PowerDB[i][col] > view.PowerDB[peakBin][col] {
			peakBin = i
		}
	}
	if peakBin != 32 {
		t.Errorf("peak bin = %d (%.1f Hz), want 32 (1000 Hz)", peakBin, view.Frequencies[peakBin])
	}
}

func TestSpectrogramGoldenValues(t *testing.T) {
	// An eight-sample sawtooth (1 kHz at this rate), halved in level after
	// sample 32, so frames before, across, and after the step all have
	// known spectra. Every sample is an exact binary fraction and the
	// expected powers were computed independently at double precision, so
	// they pin the whole pipeline: Hann window, mean detrend, density
	// scaling, one-sided doubling, and the dB floor.
	samples := make([]float32, 64)
	for i := range samples {
		v := (float64(i%8) - 3.5) / 4
		if i >= 32 {
			v /= 2
		}
		samples[i] = float32(v)
	}
	buf := &audio.Buffer{Samples: samples, SampleRate: 8000}

	view := Spectrogram(buf, 0, 1, WithWindowSize(16), WithOverlap(8))

	if len(view.Frequencies) != 9 || len(view.Times) != 7 || len(view.PowerDB) != 9 {
		t.Fatalf("got %d bins x %d frames (%d rows), want 9 x 7",
			len(view.Frequencies), len(view.Times), len(view.PowerDB))
	}
	for i, f := range view.Frequencies {
		if want := float64(i) * 500; f != want {
			t.Errorf("Frequencies[%d] = %v, want %v", i, f, want)
		}
	}
	for j, ts := range view.Times {
		if want := float64(j+1) / 1000; math.Abs(ts-want) > 1e-12 {
			t.Errorf("Times[%d] = %v, want %v", j, ts, want)
		}
	}

	// Expected dB per bin for a frame inside the loud half (column 0), the
	// frame straddling the step (column 3), and a frame inside the quiet
	// half (column 6). DC carries power only in the straddling frame,
	// where the level step survives mean removal.
	want := [9][3]float64{
		{-100.000000000, -48.861849972, -100.000000000},
		{-41.479499436, -42.659865406, -47.500081033},
		{-35.458904102, -38.049668868, -41.479499436},
		{-37.875664580, -40.331542885, -43.896256505},
		{-40.791807249, -43.326694725, -46.812391528},
		{-42.041192878, -44.530450762, -48.061771945},
		{-43.114410439, -45.631221368, -49.134983662},
		{-43.619703987, -46.117608021, -49.640273917},
		{-46.812391528, -49.325481200, -52.832928903},
	}
	for bin, row := range want {
		for c, frame := range [3]int{0, 3, 6} {
			if got := view.PowerDB[bin][frame]; math.Abs(got-row[c]) > 1e-6 {
				t.Errorf("PowerDB[%d][%d] = %.9f, want %.9f", bin, frame, got, row[c])
			}
		}
	}

	// The signal repeats every 8 samples within each half, so frames 0-2
	// see identical input, as do frames 4-6.
	for bin := range view.PowerDB {
		for _, frame := range []int{1, 2} {
			if got, want := view.PowerDB[bin][frame], view.PowerDB[bin][0]; math.Abs(got-want) > 1e-12 {
				t.Errorf("PowerDB[%d][%d] = %v, want %v to match frame 0", bin, frame, got, want)
			}
		}
		for _, frame := range []int{4, 5} {
			if got, want := view.PowerDB[bin][frame], view.PowerDB[bin][6]; math.Abs(got-want) > 1e-12 {
				t.Errorf("PowerDB[%d][%d] = %v, want %v to match frame 6", bin, frame, got, want)
			}
		}
	}
}

func TestSpectrogramTimesOffsetAndMonotonic(t *testing.T) {
	buf := sineBuffer(8000, 440, 2)

	view := Spectrogram(buf, 0.5, 1.5, WithWindowSize(256))

	if len(view.Times) == 0 {
		t.Fatal("expected a populated view")
	}

	// First frame center: 128 samples past the 0.5s segment start.
	wantFirst := 0.5 + 128.0/8000.0
	if math.Abs(view.Times[0]-wantFirst) > 1e-12 {
		t.Errorf("first time = %v, want %v", view.Times[0], wantFirst)
	}
	for i := 1; i < len(view.Times); i++ {
		if view.Times[i] <= view.Times[i-1] {
			t.Fatalf("times not strictly increasing at %d: %v then %v", i, view.Times[i-1], view.Times[i])
		}
	}
}

func TestSpectrogramClampsRange(t *testing.T) {
	buf := sineBuffer(8000, 440, 1)

	full := Spectrogram(buf, 0, 1, WithWindowSize(256))
	clamped := Spectrogram(buf, -5, 100, WithWindowSize(256))

	if len(clamped.Times) != len(full.Times) {
		t.Errorf("clamped view has %d time bins, full view has %d", len(clamped.Times), len(full.Times))
	}
	if len(clamped.Times) > 0 && clamped.Times[0] < 0 {
		t.Errorf("first time = %v, want >= the clamped start 0", clamped.Times[0])
	}
}

func TestSpectrogramEmptyViews(t *testing.T) {
	buf := sineBuffer(8000, 440, 1)

	tests := []struct {
		name string
		view SpectrogramView
	}{
		{name: "nil buffer", view: Spectrogram(nil, 0, 1)},
		{name: "segment shorter than window", view: Spectrogram(sineBuffer(8000, 440, 0.01), 0, 1, WithWindowSize(256))},
		{name: "shorter than default window", view: Spectrogram(sineBuffer(8000, 440, 0.1), 0, 1)},
		{name: "inverted range", view: Spectrogram(buf, 0.8, 0.2, WithWindowSize(256))},
		{name: "empty range", view: Spectrogram(buf, 0.5, 0.5, WithWindowSize(256))},
		{name: "range beyond the buffer", view: Spectrogram(buf, 5, 6, WithWindowSize(256))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.view.Frequencies) != 0 || len(tt.view.Times) != 0 || len(tt.view.PowerDB) != 0 {
				t.Errorf("view not empty: %d freqs, %d times, %d rows",
					len(tt.view.Frequencies), len(tt.view.Times), len(tt.view.PowerDB))
			}
		})
	}
}

func TestSpectrogramSilenceFloor(t *testing.T) {
	buf := silentBuffer(8000, 8000)

	view := Spectrogram(buf, 0, 1, WithWindowSize(256))

	for i, row := range view.PowerDB {
		for j, p := range row {
			if math.Abs(p-(-100)) > 1e-9 {
				t.Fatalf("PowerDB[%d][%d] = %v, want the -100 dB floor", i, j, p)
			}
		}
	}
}

func TestSpectrogramFinite(t *testing.T) {
	buf := sineBuffer(8000, 1000, 1)

	view := Spectrogram(buf, 0, 1, WithWindowSize(256))

	for i, row := range view.PowerDB {
		for j, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				t.Fatalf("PowerDB[%d][%d] = %v", i, j, p)
			}
		}
	}
}

func TestSpectrogramOverlapFallback(t *testing.T) {
	buf := sineBuffer(8000, 440, 1)

	def := Spectrogram(buf, 0, 1, WithWindowSize(256))
	negative := Spectrogram(buf, 0, 1, WithWindowSize(256), WithOverlap(-1))
	tooLarge := Spectrogram(buf, 0, 1, WithWindowSize(256), WithOverlap(256))

	if len(negative.Times) != len(def.Times) {
		t.Errorf("negative overlap produced %d frames, want the default %d", len(negative.Times), len(def.Times))
	}
	if len(tooLarge.Times) != len(def.Times) {
		t.Errorf("oversized overlap produced %d frames, want the default %d", len(tooLarge.Times), len(def.Times))
	}

	dense := Spectrogram(buf, 0, 1, WithWindowSize(256), WithOverlap(192))
	if len(dense.Times) != 122 {
		t.Errorf("overlap 192 produced %d frames, want 122", len(dense.Times))
	}
}
