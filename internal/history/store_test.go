package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fabianhtml/AudioInk/internal/audio"
)

func testEntry(id, sourceName, text string) Entry {
	return Entry{
		ID:             id,
		Timestamp:      time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		SourceName:     sourceName,
		SourceType:     "whisper",
		Text:           text,
		Language:       "en",
		Duration:       125.0,
		DurationStr:    "2:05",
		ProcessingTime: 14.2,
		WordCount:      len(strings.Fields(text)),
		CharCount:      len(text),
		Model:          "base",
	}
}

func TestNewEntry(t *testing.T) {
	info := &audio.Info{Duration: 90.5, DurationStr: "1:30", Channels: 2, SampleRate: 44100}
	entry := NewEntry("interview", "whisper", "hello brave new world", "en", "base", info, 3500*time.Millisecond)

	if entry.ID == "" {
		t.Fatal("Expected generated ID")
	}
	if _, err := time.Parse("20060102_150405", entry.ID); err != nil {
		t.Errorf("ID %q is not a timestamp: %v", entry.ID, err)
	}
	if entry.WordCount != 4 {
		t.Errorf("Expected 4 words, got %d", entry.WordCount)
	}
	if entry.CharCount != 21 {
		t.Errorf("Expected 21 chars, got %d", entry.CharCount)
	}
	if entry.Duration != 90.5 || entry.DurationStr != "1:30" {
		t.Errorf("Expected audio info carried over, got %g %q", entry.Duration, entry.DurationStr)
	}
	if entry.ProcessingTime != 3.5 {
		t.Errorf("Expected processing time 3.5s, got %g", entry.ProcessingTime)
	}
}

func TestNewEntryNilInfo(t *testing.T) {
	entry := NewEntry("clip", "whisper", "text", "en", "tiny", nil, time.Second)
	if entry.Duration != 0 || entry.DurationStr != "" {
		t.Errorf("Expected zero duration without info, got %g %q", entry.Duration, entry.DurationStr)
	}
}

func TestSaveAndList(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Save(testEntry("20240315_103000", "first", "first text")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(testEntry("20240315_103001", "second", "second text")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "20240315_103001" {
		t.Errorf("Expected newest entry first, got %s", entries[0].ID)
	}
	if entries[1].SourceName != "first" {
		t.Errorf("Expected oldest entry last, got %s", entries[1].SourceName)
	}
}

func TestSaveWritesTranscriptionFile(t *testing.T) {
	store := NewStore(t.TempDir())
	entry := testEntry("20240315_103000", "My Interview (final)", "the transcript body")

	if err := store.Save(entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Parentheses are dropped, spaces become underscores.
	path := filepath.Join(store.TranscriptionsDir(), "20240315_103000_My_Interview_final.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected transcription file at %s: %v", path, err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# AudioInk Transcription\n") {
		t.Errorf("Expected header block, got %q", content[:40])
	}
	if !strings.Contains(content, "# Source: My Interview (final)\n") {
		t.Error("Expected source line in header")
	}
	if !strings.HasSuffix(content, "\n\nthe transcript body") {
		t.Errorf("Expected body after header, got %q", content)
	}
}

func TestSaveCapsEntries(t *testing.T) {
	store := NewStore(t.TempDir())

	for i := 0; i < maxEntries+5; i++ {
		entry := testEntry(fmt.Sprintf("20240315_%06d", i), "clip", "text")
		if err := store.Save(entry); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != maxEntries {
		t.Errorf("Expected history capped at %d, got %d", maxEntries, count)
	}

	entries, _ := store.List()
	if entries[0].ID != fmt.Sprintf("20240315_%06d", maxEntries+4) {
		t.Errorf("Expected newest entry retained, got %s", entries[0].ID)
	}
}

func TestGet(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save(testEntry("20240315_103000", "clip", "text")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entry, err := store.Get("20240315_103000")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.SourceName != "clip" {
		t.Errorf("Expected source clip, got %s", entry.SourceName)
	}

	if _, err := store.Get("20000101_000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := NewStore(t.TempDir())
	entry := testEntry("20240315_103000", "clip", "text")
	if err := store.Save(entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	txtPath := filepath.Join(store.TranscriptionsDir(), entryFilename(entry))
	if _, err := os.Stat(txtPath); err != nil {
		t.Fatalf("Expected transcription file before delete: %v", err)
	}

	if err := store.Delete("20240315_103000"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, _ := store.Count()
	if count != 0 {
		t.Errorf("Expected empty history after delete, got %d", count)
	}
	if _, err := os.Stat(txtPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected transcription file removed with entry")
	}

	if err := store.Delete("20240315_103000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}

func TestClear(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Save(testEntry("20240315_103000", "clip", "text")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Count after clear failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty history after clear, got %d", count)
	}

	// Clearing an already empty store is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("Second clear failed: %v", err)
	}
}

func TestListEmptyStore(t *testing.T) {
	store := NewStore(t.TempDir())
	entries, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(entries))
	}
}

func TestExportFile(t *testing.T) {
	entry := testEntry("20240315_103000", "talk", "exported body")
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := ExportFile(entry, path); err != nil {
		t.Fatalf("ExportFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	content := string(data)
	for _, want := range []string{"# Source: talk", "# Duration: 2:05", "# Words: 2", "# Processing Time: 14.2s", "exported body"} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected export to contain %q", want)
		}
	}
}

func TestEntryFilenameSanitization(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"plain", "20240315_103000_plain.txt"},
		{"with spaces here", "20240315_103000_with_spaces_here.txt"},
		{"slash/colon: gone", "20240315_103000_slashcolon_gone.txt"},
		{"", "20240315_103000_.txt"},
	}

	for _, tt := range tests {
		entry := testEntry("20240315_103000", tt.source, "text")
		if got := entryFilename(entry); got != tt.expected {
			t.Errorf("entryFilename(%q): expected %s, got %s", tt.source, tt.expected, got)
		}
	}
}
