package audio

import "encoding/binary"

// DecodeS16LE converts raw little-endian signed 16-bit PCM into float32
// samples scaled by 1/32768. The range is [-1.0, 1.0): -32768 maps to
// exactly -1.0 while 32767 lands just under 1.0. A trailing odd byte is
// dropped.
func DecodeS16LE(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}
