package audio

import "time"

const (
	// WhisperSampleRate is the sample rate the recognition engine requires
	WhisperSampleRate = 16000

	// ChunkDuration is the fixed length of each transcription chunk
	ChunkDuration = 60 * time.Second

	// LongAudioThreshold is the duration above which audio is split into
	// chunks. It is deliberately larger than ChunkDuration: chunk boundaries
	// exist to bound engine input size, not to segment naturally short
	// recordings.
	LongAudioThreshold = 120 * time.Second
)

// Chunk is a bounded slice of a normalized sample buffer. Samples is a
// subslice of the source buffer, not a copy; Offset is the summed duration
// of all prior chunks.
type Chunk struct {
	Index   int
	Samples []float32
	Offset  time.Duration
}

// BufferDuration returns the playing time of n samples at the engine rate
func BufferDuration(n int) time.Duration {
	return time.Duration(float64(n) / WhisperSampleRate * float64(time.Second))
}

// NeedsChunking reports whether a normalized buffer is long enough to be
// split before transcription. Only buffers strictly longer than
// LongAudioThreshold qualify.
func NeedsChunking(samples []float32) bool {
	return BufferDuration(len(samples)) > LongAudioThreshold
}

// Split divides a normalized buffer into consecutive non-overlapping chunks
// of ChunkDuration each; the final chunk may be shorter. Concatenating the
// chunks in order reconstructs the buffer exactly.
func Split(samples []float32) []Chunk {
	chunkSamples := int(ChunkDuration.Seconds() * WhisperSampleRate)

	var chunks []Chunk
	for start := 0; start < len(samples); start += chunkSamples {
		end := start + chunkSamples
		if end > len(samples) {
			end = len(samples)
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Samples: samples[start:end],
			Offset:  time.Duration(len(chunks)) * ChunkDuration,
		})
	}

	return chunks
}
