package transcribe

import (
	"time"

	"github.com/fabianhtml/AudioInk/internal/audio"
)

// SourceType records where the transcribed audio came from.
type SourceType string

// Source types, matching the identifiers stored in history.
const (
	SourceFile    SourceType = "whisper"
	SourceYouTube SourceType = "youtube_whisper"
)

// Result is the outcome of one transcription request. Language is the
// detected language, which may differ from the one requested for decoding.
// When a speedup was applied, Info reports the original duration, not the
// accelerated one.
type Result struct {
	Text           string
	Language       string
	Info           *audio.Info
	ProcessingTime time.Duration
	SourceName     string
	Source         SourceType
}
