// Package transcribe orchestrates the full transcription pipeline: source
// validation, optional audio extraction and speedup, decoding to 16kHz
// mono, chunking, engine transcription, and transcript assembly. Progress
// is delivered over an explicit event channel.
package transcribe
