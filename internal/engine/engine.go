package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrModelNotFound indicates the requested model artifact is absent on disk.
var ErrModelNotFound = errors.New("model file not found")

// EngineError reports a failure inside the speech engine itself, as opposed
// to a missing model or bad input.
type EngineError struct {
	Op  string // operation that failed, e.g. "load model", "process"
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Segment is one recognized span of speech. Start is the offset of the
// segment within the audio passed to Transcribe, not within the whole file.
type Segment struct {
	Text  string
	Start time.Duration
}

// Recognizer converts mono 16kHz float32 audio into text. Implementations
// are not safe for concurrent use; wrap them in a Worker.
type Recognizer interface {
	// DetectLanguage identifies the spoken language from at most the first
	// 30 seconds of samples. It returns "unknown" when the engine cannot
	// resolve a language.
	DetectLanguage(samples []float32) (string, error)

	// Transcribe runs a greedy single-pass decode over samples. A lang of
	// "auto" lets the engine pick the language during decoding. Any decode
	// failure fails the whole call; there is no partial output.
	Transcribe(samples []float32, lang string) ([]Segment, error)

	// Close releases the model and all native resources.
	Close() error
}
