package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/adrg/xdg"

	"github.com/fabianhtml/AudioInk/internal/audio"
)

// maxEntries caps the JSON history; older entries fall off the end.
const maxEntries = 50

// ErrNotFound is returned when no history entry has the requested ID.
var ErrNotFound = errors.New("history entry not found")

// Entry is one saved transcription.
type Entry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	SourceName     string    `json:"source_name"`
	SourceType     string    `json:"source_type"`
	Text           string    `json:"transcription"`
	Language       string    `json:"detected_language,omitempty"`
	Duration       float64   `json:"duration,omitempty"`
	DurationStr    string    `json:"duration_str,omitempty"`
	ProcessingTime float64   `json:"processing_time"` // seconds
	WordCount      int       `json:"word_count"`
	CharCount      int       `json:"char_count"`
	Model          string    `json:"model,omitempty"`
}

// NewEntry builds an entry with a timestamp-derived ID and computed word
// and character counts. info may be nil.
func NewEntry(sourceName, sourceType, text, language, model string, info *audio.Info, processingTime time.Duration) Entry {
	now := time.Now().UTC()
	entry := Entry{
		ID:             now.Format("20060102_150405"),
		Timestamp:      now,
		SourceName:     sourceName,
		SourceType:     sourceType,
		Text:           text,
		Language:       language,
		ProcessingTime: processingTime.Seconds(),
		WordCount:      len(strings.Fields(text)),
		CharCount:      utf8.RuneCountInString(text),
		Model:          model,
	}
	if info != nil {
		entry.Duration = info.Duration
		entry.DurationStr = info.DurationStr
	}
	return entry
}

// Store reads and writes the history under a single data directory:
// history.json for the capped list and transcriptions/ for per-entry
// text files.
type Store struct {
	dir string
}

// DefaultDir returns the conventional history location.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "audioink")
}

// NewStore creates a store rooted at dir, or at DefaultDir when dir is "".
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir}
}

func (s *Store) historyFile() string {
	return filepath.Join(s.dir, "history.json")
}

// TranscriptionsDir returns the directory holding per-entry text files.
func (s *Store) TranscriptionsDir() string {
	return filepath.Join(s.dir, "transcriptions")
}

// List returns all entries, newest first. A missing history file is an
// empty history.
func (s *Store) List() ([]Entry, error) {
	data, err := os.ReadFile(s.historyFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save prepends entry to the history, dropping entries beyond the cap,
// and writes the entry's text file alongside.
func (s *Store) Save(entry Entry) error {
	if err := os.MkdirAll(s.TranscriptionsDir(), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	entries, err := s.List()
	if err != nil {
		return err
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}

	if err := s.writeHistory(entries); err != nil {
		return err
	}

	txtPath := filepath.Join(s.TranscriptionsDir(), entryFilename(entry))
	if err := os.WriteFile(txtPath, []byte(ExportText(entry)), 0o644); err != nil {
		return fmt.Errorf("write transcription file: %w", err)
	}
	return nil
}

// Delete removes the entry with the given ID and its text file.
func (s *Store) Delete(id string) error {
	entries, err := s.List()
	if err != nil {
		return err
	}

	var removed Entry
	found := false
	kept := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == id && !found {
			removed = entry
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := s.writeHistory(kept); err != nil {
		return err
	}
	os.Remove(filepath.Join(s.TranscriptionsDir(), entryFilename(removed)))
	return nil
}

// Clear removes the whole history and all per-entry text files.
func (s *Store) Clear() error {
	if err := os.Remove(s.historyFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove history: %w", err)
	}
	if err := os.RemoveAll(s.TranscriptionsDir()); err != nil {
		return fmt.Errorf("remove transcriptions: %w", err)
	}
	return nil
}

// Count returns the number of saved entries.
func (s *Store) Count() (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// writeHistory persists entries atomically via a temp file rename.
func (s *Store) writeHistory(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp := s.historyFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.historyFile()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// ExportText renders an entry in the transcript text format: a comment
// header block followed by the transcript.
func ExportText(entry Entry) string {
	duration := entry.DurationStr
	if duration == "" {
		duration = "N/A"
	}

	var b strings.Builder
	b.WriteString("# AudioInk Transcription\n")
	fmt.Fprintf(&b, "# Source: %s\n", entry.SourceName)
	fmt.Fprintf(&b, "# Type: %s\n", entry.SourceType)
	fmt.Fprintf(&b, "# Date: %s\n", entry.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Duration: %s\n", duration)
	fmt.Fprintf(&b, "# Words: %d\n", entry.WordCount)
	fmt.Fprintf(&b, "# Processing Time: %.1fs\n", entry.ProcessingTime)
	b.WriteString("# ---\n\n")
	b.WriteString(entry.Text)
	return b.String()
}

// ExportFile writes an entry's text rendering to path.
func ExportFile(entry Entry, path string) error {
	if err := os.WriteFile(path, []byte(ExportText(entry)), 0o644); err != nil {
		return fmt.Errorf("export transcription: %w", err)
	}
	return nil
}

// entryFilename builds the per-entry text filename from the ID and a
// sanitized source name, capped at 50 name runes.
func entryFilename(entry Entry) string {
	var b strings.Builder
	count := 0
	for _, r := range entry.SourceName {
		if count >= 50 {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
			count++
		}
	}
	clean := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	return fmt.Sprintf("%s_%s.txt", entry.ID, clean)
}
