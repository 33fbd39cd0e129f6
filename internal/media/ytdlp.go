package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// YtDlp invokes the yt-dlp binary to retrieve remote media as local audio
type YtDlp struct {
	path string // binary path, empty means "yt-dlp" from PATH
}

// NewYtDlp creates a yt-dlp wrapper. An empty path uses the binary from PATH.
func NewYtDlp(path string) *YtDlp {
	return &YtDlp{path: path}
}

// DownloadResult holds the local audio path and title of retrieved media
type DownloadResult struct {
	AudioPath string
	Title     string
}

func (y *YtDlp) binary() string {
	if y.path != "" {
		return y.path
	}
	return "yt-dlp"
}

// Available reports whether the yt-dlp binary can be executed
func (y *YtDlp) Available() bool {
	return exec.Command(y.binary(), "--version").Run() == nil
}

// Download retrieves the audio track of a remote video as a WAV file in a
// per-request temporary directory, returning its path and the video title.
// The caller owns cleanup of the returned file via Cleanup.
func (y *YtDlp) Download(ctx context.Context, url string) (*DownloadResult, error) {
	if !y.Available() {
		return nil, &ToolError{Tool: "yt-dlp", Remedy: ytdlpRemedy()}
	}

	dir := filepath.Join(os.TempDir(), fmt.Sprintf("%s_%d", youtubeTag, time.Now().UnixNano()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	// Fetch the title first; a failure falls back to a generic name rather
	// than failing the download
	title := "YouTube Video"
	if out, err := exec.CommandContext(ctx, y.binary(), "--get-title", url).Output(); err == nil {
		if s := strings.TrimSpace(string(out)); s != "" {
			title = s
		}
	}

	safeTitle := sanitizeTitle(title)
	template := filepath.Join(dir, safeTitle+".%(ext)s")

	out, err := runCommand(ctx, y.binary(),
		"-x", // Extract audio
		"--audio-format", "wav",
		"--audio-quality", "0", // Best quality
		"-o", template,
		"--no-playlist",
		"--no-warnings",
		url,
	)
	if err != nil {
		return nil, &RunError{Op: "yt-dlp download", Output: out, Err: err}
	}

	audioPath := filepath.Join(dir, safeTitle+".wav")
	if _, statErr := os.Stat(audioPath); statErr != nil {
		// yt-dlp can pick its own extension; take any audio file it left
		found, findErr := findAudioFile(dir)
		if findErr != nil {
			return nil, &RunError{Op: "yt-dlp download", Output: "downloaded audio file not found", Err: findErr}
		}
		audioPath = found
	}

	return &DownloadResult{AudioPath: audioPath, Title: title}, nil
}

// sanitizeTitle maps a video title to a safe filename stem. Alphanumerics,
// spaces, and hyphens survive; everything else becomes an underscore.
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	safe := strings.TrimSpace(b.String())
	if safe == "" {
		return "audio"
	}
	return safe
}

// findAudioFile returns the first file in dir with a known audio extension
func findAudioFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read download directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch extOf(entry.Name()) {
		case "wav", "m4a", "mp3", "webm", "opus":
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("no audio file in %s", dir)
}
