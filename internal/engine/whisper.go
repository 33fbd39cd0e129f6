//go:build whisper_cpp

package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/fabianhtml/AudioInk/internal/audio"
)

// detectWindow caps language detection to the first 30 seconds of audio.
const detectWindow = 30 * audio.WhisperSampleRate

type whisperRecognizer struct {
	model   whisper.Model
	threads int
}

// NewRecognizer loads a ggml model from modelPath. The caller must Close
// the returned Recognizer. threads <= 0 keeps the engine default.
func NewRecognizer(modelPath string, threads int) (Recognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("stat model %s: %w", modelPath, err)
	}
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, &EngineError{Op: "load model", Err: err}
	}
	return &whisperRecognizer{model: model, threads: threads}, nil
}

// newContext prepares a fresh decoding context. Contexts are cheap
// relative to the model and are not reused across calls.
func (r *whisperRecognizer) newContext(lang string) (whisper.Context, error) {
	ctx, err := r.model.NewContext()
	if err != nil {
		return nil, &EngineError{Op: "create context", Err: err}
	}
	if r.threads > 0 {
		ctx.SetThreads(uint(r.threads))
	}
	if lang != "" {
		if err := ctx.SetLanguage(lang); err != nil {
			return nil, &EngineError{Op: fmt.Sprintf("set language %q", lang), Err: err}
		}
	}
	return ctx, nil
}

func (r *whisperRecognizer) Transcribe(samples []float32, lang string) ([]Segment, error) {
	ctx, err := r.newContext(lang)
	if err != nil {
		return nil, err
	}
	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return nil, &EngineError{Op: "process", Err: err}
	}

	var segments []Segment
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &EngineError{Op: "next segment", Err: err}
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{Text: text, Start: seg.Start})
	}
	return segments, nil
}

func (r *whisperRecognizer) DetectLanguage(samples []float32) (string, error) {
	if len(samples) > detectWindow {
		samples = samples[:detectWindow]
	}
	ctx, err := r.newContext("auto")
	if err != nil {
		return "", err
	}
	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", &EngineError{Op: "detect language", Err: err}
	}
	lang := ctx.DetectedLanguage()
	if lang == "" {
		return "unknown", nil
	}
	return lang, nil
}

func (r *whisperRecognizer) Close() error {
	return r.model.Close()
}
