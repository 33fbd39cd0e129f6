package models

import (
	"fmt"
	"strings"
)

// Model identifies a Whisper model variant. Identity is the value itself,
// not the artifact path; two requests for the same Model are the same model.
type Model string

const (
	Tiny         Model = "tiny"
	Base         Model = "base"
	Small        Model = "small"
	Medium       Model = "medium"
	Large        Model = "large"
	LargeV3Turbo Model = "large-v3-turbo"
)

// DefaultModel balances speed and quality for most transcription work
const DefaultModel = Base

// All returns every known model, smallest first
func All() []Model {
	return []Model{Tiny, Base, Small, Medium, Large, LargeV3Turbo}
}

// Parse validates a model name, returning an error that lists the valid
// names when it does not match
func Parse(name string) (Model, error) {
	m := Model(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range All() {
		if m == known {
			return m, nil
		}
	}

	names := make([]string, 0, len(All()))
	for _, known := range All() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("unknown model %q, valid models: %s", name, strings.Join(names, ", "))
}

func (m Model) String() string {
	return string(m)
}

// Filename returns the ggml artifact filename for this model
func (m Model) Filename() string {
	return fmt.Sprintf("ggml-%s.bin", string(m))
}

// URL returns the Hugging Face download URL for this model's artifact
func (m Model) URL() string {
	return fmt.Sprintf("https://huggingface.co/ggerganov/whisper.cpp/resolve/main/%s", m.Filename())
}

// SizeBytes returns the approximate artifact size, used for download
// progress when the server does not report a content length
func (m Model) SizeBytes() int64 {
	switch m {
	case Tiny:
		return 75_000_000 // ~75 MB
	case Base:
		return 142_000_000 // ~142 MB
	case Small:
		return 466_000_000 // ~466 MB
	case Medium:
		return 1_500_000_000 // ~1.5 GB
	case Large:
		return 2_900_000_000 // ~2.9 GB
	case LargeV3Turbo:
		return 809_000_000 // ~809 MB
	default:
		return 0
	}
}

// Description returns a short human-readable quality/speed summary
func (m Model) Description() string {
	switch m {
	case Tiny:
		return "Fastest, lowest quality"
	case Base:
		return "Balanced speed and quality"
	case Small:
		return "Good quality, moderate speed"
	case Medium:
		return "High quality, slower"
	case Large:
		return "Best quality, slowest"
	case LargeV3Turbo:
		return "Excellent quality, faster than large"
	default:
		return ""
	}
}

// FormatBytes renders a byte count as a human-readable size
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
