// Package audio decodes media files into normalized in-memory sample
// buffers. The production decoder shells out to ffmpeg/ffprobe; a native
// reader covers plain WAV files.
package audio

// Buffer holds one channel of decoded PCM as float32 samples in [-1.0, 1.0).
// A Buffer is immutable once built: readers share the pointer and never
// write through it, so replacing a track's audio is a pointer swap.
// A nil *Buffer is the absent state and is safe to query.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer length in seconds, 0 for a nil buffer or a
// non-positive sample rate.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Len returns the number of samples, 0 for a nil buffer.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}
