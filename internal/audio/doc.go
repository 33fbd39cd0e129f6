// Package audio handles media decoding, normalization, and chunking.
// It decodes MP3/WAV/FLAC/OGG containers to interleaved float32 PCM, downmixes
// multi-channel audio to mono, resamples to the 16 kHz rate the recognition
// engine requires, and splits long recordings into fixed-duration chunks.
package audio
