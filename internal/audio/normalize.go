package audio

import "math"

// DownmixMono reduces interleaved multi-channel samples to mono by taking the
// arithmetic mean of each frame's channel samples. Mono input passes through
// unchanged. The output always has exactly len(samples)/channels samples, so
// downmixing never changes the audio duration.
func DownmixMono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += samples[base+c]
		}
		mono[i] = sum / float32(channels)
	}

	return mono
}

// Resample converts samples from one rate to another using linear
// interpolation. The output has floor(len(samples)/ratio) samples where
// ratio = from/to; output sample i reads source position i*ratio, blending
// the two neighboring source samples by the fractional part. A neighbor past
// the end falls back to the last valid sample, or silence when even that is
// out of range. Matching rates pass through unchanged.
//
// Linear interpolation is a deliberate tradeoff over higher-order filters:
// recognition accuracy at 16 kHz is coarse relative to the interpolation
// error, and this keeps the hot path allocation-free beyond the output.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		i0 := int(math.Floor(srcPos))
		frac := float32(srcPos - float64(i0))

		switch {
		case i0+1 < len(samples):
			out[i] = samples[i0]*(1-frac) + samples[i0+1]*frac
		case i0 < len(samples):
			out[i] = samples[i0]
		default:
			out[i] = 0
		}
	}

	return out
}

// Normalize brings decoded audio to the engine's required format: mono at
// WhisperSampleRate. The returned buffer is safe to hand to the engine
// directly.
func Normalize(pcm *PCM) []float32 {
	mono := DownmixMono(pcm.Samples, pcm.Channels)
	return Resample(mono, pcm.SampleRate, WhisperSampleRate)
}
