package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Naming tags for temporary files created by this package. Cleanup only ever
// deletes paths carrying one of these tags.
const (
	speedupTag   = "audioink_speedup_"
	extractedTag = "audioink_extracted_"
	youtubeTag   = "audioink_youtube"
)

// AudioFormats lists the file extensions accepted as audio input
var AudioFormats = []string{"mp3", "wav", "m4a", "flac", "ogg"}

// VideoFormats lists the file extensions treated as video containers whose
// audio track is extracted before decoding
var VideoFormats = []string{"mp4", "avi", "mov"}

// ToolError indicates a required external tool could not be located.
// Remedy carries platform-specific install instructions.
type ToolError struct {
	Tool   string
	Remedy string
}

func (e *ToolError) Error() string {
	return e.Remedy
}

// RunError indicates an external tool ran but exited non-zero.
// Output carries the tool's captured diagnostic output.
type RunError struct {
	Op     string
	Output string
	Err    error
}

func (e *RunError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsAudioFile reports whether the path has a supported audio extension
func IsAudioFile(path string) bool {
	ext := extOf(path)
	for _, f := range AudioFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// IsVideoFile reports whether the path has a supported video extension
func IsVideoFile(path string) bool {
	ext := extOf(path)
	for _, f := range VideoFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// NeedsExtraction reports whether the file's audio must be pulled out with
// ffmpeg before decoding. Video containers always qualify, and so does m4a:
// there is no native AAC decode path, so it takes the same route.
func NeedsExtraction(path string) bool {
	return IsVideoFile(path) || extOf(path) == "m4a"
}

// runCommand executes an external tool and returns its combined output
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Cleanup removes a temporary file created by this package. Paths that do
// not carry one of the package's naming tags are left untouched, so a caller
// can never delete an unrelated file by passing the wrong path. Removal
// failures are logged, not returned; cleanup is best-effort.
func Cleanup(path string) {
	if path == "" {
		return
	}

	tagged := false
	for _, tag := range []string{speedupTag, extractedTag, youtubeTag} {
		if strings.Contains(path, tag) {
			tagged = true
			break
		}
	}
	if !tagged {
		slog.Warn("refusing to remove untagged temp file", slog.String("path", path))
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove temp file", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	// Retrieval downloads live in a per-request directory; drop it once empty
	if dir := filepath.Dir(path); strings.Contains(filepath.Base(dir), youtubeTag) {
		_ = os.Remove(dir)
	}
}

// ffmpegRemedy returns install instructions for ffmpeg on this platform
func ffmpegRemedy() string {
	switch runtime.GOOS {
	case "darwin":
		return "ffmpeg is not installed. Please install it with: brew install ffmpeg"
	case "linux":
		return "ffmpeg is not installed. Please install it with your package manager:\n" +
			"  Ubuntu/Debian: sudo apt install ffmpeg\n" +
			"  Fedora: sudo dnf install ffmpeg\n" +
			"  Arch: sudo pacman -S ffmpeg"
	case "windows":
		return "ffmpeg is not installed. Please install it with: winget install ffmpeg"
	default:
		return "ffmpeg is not installed. Please install it from: https://ffmpeg.org/download.html"
	}
}

// ytdlpRemedy returns install instructions for yt-dlp on this platform
func ytdlpRemedy() string {
	switch runtime.GOOS {
	case "darwin":
		return "yt-dlp is not installed. Please install it with: brew install yt-dlp"
	case "linux":
		return "yt-dlp is not installed. Please install it with your package manager:\n" +
			"  Ubuntu/Debian: sudo apt install yt-dlp\n" +
			"  Fedora: sudo dnf install yt-dlp\n" +
			"  Arch: sudo pacman -S yt-dlp"
	case "windows":
		return "yt-dlp is not installed. Please install it with: winget install yt-dlp"
	default:
		return "yt-dlp is not installed. Please install it from: https://github.com/yt-dlp/yt-dlp"
	}
}
