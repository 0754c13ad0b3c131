package audio

import "encoding/binary"

// DefaultChunkSize is the number of samples fed to a stream per call when
// recognizing whole files.
const DefaultChunkSize = 4096

// Chunks splits samples into consecutive slices of at most size samples.
// The slices share the input's backing array.
func Chunks(samples []float32, size int) [][]float32 {
	if size <= 0 {
		size = DefaultChunkSize
	}
	out := make([][]float32, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(samples); start += size {
		out = append(out, samples[start:min(start+size, len(samples))])
	}
	return out
}

// Clamp limits v to [-1, 1].
func Clamp(v float32) float32 {
	return max(-1, min(1, v))
}

// Float32ToInt16 converts normalized samples to 16-bit PCM, clamping first.
// Both signs scale by 32767.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = int16(Clamp(s) * 32767)
	}
	return out
}

// Int16ToFloat32 converts 16-bit PCM to samples in [-1, 1).
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// S16LEToFloat32 decodes little-endian 16-bit PCM bytes, keeping only the
// first of channels interleaved channels.
func S16LEToFloat32(data []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frame := 2 * channels
	out := make([]float32, len(data)/frame)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[i*frame:]))
		out[i] = float32(v) / 32768
	}
	return out
}
