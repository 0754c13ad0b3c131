package audio

import "math"

// Resample converts samples from one rate to another by linear
// interpolation. Equal rates return the input unchanged.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	n := int(math.Round(float64(len(samples)) / ratio))
	out := make([]float32, n)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		lo := min(int(pos), last)
		hi := min(lo+1, last)
		t := float32(pos - float64(lo))
		out[i] = samples[lo]*(1-t) + samples[hi]*t
	}
	return out
}

// Downsample reduces the rate by averaging each output window of input
// samples. It is meant for capture paths where from > to.
func Downsample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	n := int(math.Round(float64(len(samples)) / ratio))
	out := make([]float32, n)
	start := 0
	for i := range out {
		end := min(int(math.Round(float64(i+1)*ratio)), len(samples))
		var sum float32
		count := 0
		for j := start; j < end; j++ {
			sum += samples[j]
			count++
		}
		if count > 0 {
			out[i] = sum / float32(count)
		} else if start > 0 {
			out[i] = out[i-1]
		}
		start = end
	}
	return out
}
