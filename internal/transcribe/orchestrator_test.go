package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fabianhtml/AudioInk/internal/audio"
	"github.com/fabianhtml/AudioInk/internal/config"
	"github.com/fabianhtml/AudioInk/internal/engine"
)

// scriptedEngine is a Recognizer returning deterministic segments, with
// hooks for failure injection and cancellation mid-run.
type scriptedEngine struct {
	mu              sync.Mutex
	transcribeCalls int
	detectCalls     int
	failAtCall      int         // 1-based Transcribe call to fail at, 0 = never
	afterTranscribe func(n int) // invoked after each successful Transcribe
	lang            string
}

func (s *scriptedEngine) DetectLanguage(samples []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectCalls++
	return s.lang, nil
}

func (s *scriptedEngine) Transcribe(samples []float32, lang string) ([]engine.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribeCalls++
	if s.failAtCall > 0 && s.transcribeCalls == s.failAtCall {
		return nil, &engine.EngineError{Op: "process", Err: errors.New("decode failed")}
	}
	if s.afterTranscribe != nil {
		s.afterTranscribe(s.transcribeCalls)
	}
	text := fmt.Sprintf("segment %d.", s.transcribeCalls)
	return []engine.Segment{{Text: text, Start: 500 * time.Millisecond}}, nil
}

func (s *scriptedEngine) Close() error {
	return nil
}

func (s *scriptedEngine) calls() (transcribe, detect int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcribeCalls, s.detectCalls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestPipeline(t *testing.T, rec engine.Recognizer) *Pipeline {
	t.Helper()
	cache := engine.NewCache(func(model string) (engine.Recognizer, error) {
		if rec == nil {
			return nil, engine.ErrModelNotFound
		}
		return rec, nil
	}, testLogger())
	t.Cleanup(func() { cache.Close() })
	return NewPipeline(config.Default(), cache, nil, testLogger())
}

// writeWAVFixture writes a mono 16kHz sine wave of the given duration.
func writeWAVFixture(t *testing.T, seconds float64) string {
	t.Helper()
	n := int(seconds * float64(audio.WhisperSampleRate))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(audio.WhisperSampleRate)))
	}
	data, err := audio.EncodeWAV(samples, audio.WhisperSampleRate, 1)
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "fixture.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func drainEvents(ch chan Event) []Event {
	var events []Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestRunShortFile(t *testing.T) {
	rec := &scriptedEngine{lang: "en"}
	pipeline := newTestPipeline(t, rec)
	path := writeWAVFixture(t, 2)

	events := make(chan Event, 64)
	result, err := pipeline.Run(context.Background(), Request{Path: path, Model: "base"}, events)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Text != "segment 1." {
		t.Errorf("Expected text 'segment 1.', got %q", result.Text)
	}
	if result.Language != "en" {
		t.Errorf("Expected detected language en, got %s", result.Language)
	}
	if result.Source != SourceFile {
		t.Errorf("Expected source %s, got %s", SourceFile, result.Source)
	}
	if result.SourceName != "fixture" {
		t.Errorf("Expected source name fixture, got %s", result.SourceName)
	}
	if result.Info == nil {
		t.Fatal("Expected audio info on result")
	}
	if math.Abs(result.Info.Duration-2.0) > 0.01 {
		t.Errorf("Expected duration ~2s, got %f", result.Info.Duration)
	}
	if result.Info.SampleRate != audio.WhisperSampleRate {
		t.Errorf("Expected sample rate %d, got %d", audio.WhisperSampleRate, result.Info.SampleRate)
	}

	transcribes, detects := rec.calls()
	if transcribes != 1 {
		t.Errorf("Expected 1 transcribe call for short audio, got %d", transcribes)
	}
	if detects != 1 {
		t.Errorf("Expected 1 language detection, got %d", detects)
	}

	evs := drainEvents(events)
	if len(evs) == 0 {
		t.Fatal("Expected progress events")
	}
	if evs[0].Kind != EventStarted {
		t.Errorf("Expected first event started, got %s", evs[0].Kind)
	}
	if last := evs[len(evs)-1]; last.Kind != EventCompleted {
		t.Errorf("Expected last event completed, got %s", last.Kind)
	}
}

func TestRunMissingFile(t *testing.T) {
	pipeline := newTestPipeline(t, &scriptedEngine{lang: "en"})

	events := make(chan Event, 16)
	_, err := pipeline.Run(context.Background(), Request{Path: "/nonexistent/audio.wav", Model: "base"}, events)
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) {
		t.Errorf("Expected wrapped fs.PathError, got %T: %v", err, err)
	}

	evs := drainEvents(events)
	if len(evs) != 1 || evs[0].Kind != EventFailed {
		t.Errorf("Expected a single failed event, got %+v", evs)
	}
}

func TestRunChunkedFile(t *testing.T) {
	rec := &scriptedEngine{lang: "uk"}
	pipeline := newTestPipeline(t, rec)
	path := writeWAVFixture(t, 150)

	events := make(chan Event, 64)
	result, err := pipeline.Run(context.Background(), Request{Path: path, Model: "base"}, events)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 150s splits into 60+60+30.
	expected := "segment 1. segment 2. segment 3."
	if result.Text != expected {
		t.Errorf("Expected %q, got %q", expected, result.Text)
	}
	if result.Language != "uk" {
		t.Errorf("Expected detected language uk, got %s", result.Language)
	}

	transcribes, detects := rec.calls()
	if transcribes != 3 {
		t.Errorf("Expected 3 transcribe calls, got %d", transcribes)
	}
	if detects != 1 {
		t.Errorf("Expected language detected once on the first chunk, got %d", detects)
	}

	evs := drainEvents(events)
	last := -1.0
	chunkTexts := 0
	for _, ev := range evs {
		if ev.Kind == EventProgress && ev.Fraction < last {
			t.Errorf("Progress moved backwards: %g after %g", ev.Fraction, last)
		}
		if ev.Kind == EventProgress {
			last = ev.Fraction
		}
		if ev.ChunkText != "" {
			chunkTexts++
		}
	}
	if chunkTexts != 3 {
		t.Errorf("Expected 3 events carrying chunk text, got %d", chunkTexts)
	}
}

func TestRunChunkedTimestamps(t *testing.T) {
	rec := &scriptedEngine{lang: "en"}
	pipeline := newTestPipeline(t, rec)
	path := writeWAVFixture(t, 150)

	result, err := pipeline.Run(context.Background(), Request{Path: path, Model: "base", Timestamps: true}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Segments start 500ms into each chunk; chunk offsets are 0s, 60s, 120s.
	lines := strings.Split(result.Text, "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 timestamped lines, got %d: %q", len(lines), result.Text)
	}
	wantPrefixes := []string{"[00:00:00]", "[00:01:00]", "[00:02:00]"}
	for i, line := range lines {
		if !strings.HasPrefix(line, wantPrefixes[i]) {
			t.Errorf("Line %d: expected prefix %s, got %q", i, wantPrefixes[i], line)
		}
	}
}

func TestRunCancelledBetweenChunks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &scriptedEngine{lang: "en"}
	rec.afterTranscribe = func(n int) {
		if n == 1 {
			cancel()
		}
	}
	pipeline := newTestPipeline(t, rec)
	path := writeWAVFixture(t, 150)

	_, err := pipeline.Run(ctx, Request{Path: path, Model: "base"}, nil)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	transcribes, _ := rec.calls()
	if transcribes != 1 {
		t.Errorf("Expected cancellation after chunk 1, got %d transcribe calls", transcribes)
	}
}

func TestRunEngineFailureAborts(t *testing.T) {
	rec := &scriptedEngine{lang: "en", failAtCall: 2}
	pipeline := newTestPipeline(t, rec)
	path := writeWAVFixture(t, 150)

	events := make(chan Event, 64)
	result, err := pipeline.Run(context.Background(), Request{Path: path, Model: "base"}, events)
	if err == nil {
		t.Fatal("Expected engine failure to abort the run")
	}
	if result != nil {
		t.Errorf("Expected no partial result, got %+v", result)
	}
	var engineErr *engine.EngineError
	if !errors.As(err, &engineErr) {
		t.Errorf("Expected EngineError, got %T: %v", err, err)
	}

	transcribes, _ := rec.calls()
	if transcribes != 2 {
		t.Errorf("Expected run to stop at the failing chunk, got %d calls", transcribes)
	}

	evs := drainEvents(events)
	if last := evs[len(evs)-1]; last.Kind != EventFailed {
		t.Errorf("Expected failed event last, got %s", last.Kind)
	}
}

func TestRunModelNotFound(t *testing.T) {
	pipeline := newTestPipeline(t, nil)
	path := writeWAVFixture(t, 2)

	_, err := pipeline.Run(context.Background(), Request{Path: path, Model: "base"}, nil)
	if !errors.Is(err, engine.ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestSourceName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/tmp/recording.wav", "recording"},
		{"talk.mp3", "talk"},
		{"/home/user/My Interview.m4a", "My Interview"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		if got := sourceName(tt.path); got != tt.expected {
			t.Errorf("sourceName(%q): expected %s, got %s", tt.path, tt.expected, got)
		}
	}
}
