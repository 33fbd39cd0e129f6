package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// Common locations where ffmpeg might be installed. Homebrew and manual
// installs often live outside PATH when the app is launched from a GUI shell.
var ffmpegPaths = []string{
	"ffmpeg",
	"/opt/homebrew/bin/ffmpeg",
	"/usr/local/bin/ffmpeg",
	"/usr/bin/ffmpeg",
}

// FFmpeg invokes the ffmpeg binary for speedup and audio extraction
type FFmpeg struct {
	override string // explicit binary path from config, empty means probe

	mu       sync.Mutex
	resolved string
}

// NewFFmpeg creates an ffmpeg wrapper. An empty path probes the common
// install locations on first use.
func NewFFmpeg(path string) *FFmpeg {
	return &FFmpeg{override: path}
}

// find locates a working ffmpeg binary, caching the result
func (f *FFmpeg) find() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resolved != "" {
		return f.resolved, nil
	}

	candidates := ffmpegPaths
	if f.override != "" {
		candidates = []string{f.override}
	}

	for _, p := range candidates {
		if exec.Command(p, "-version").Run() == nil {
			f.resolved = p
			return p, nil
		}
	}

	return "", &ToolError{Tool: "ffmpeg", Remedy: ffmpegRemedy()}
}

// Available reports whether a working ffmpeg binary can be located
func (f *FFmpeg) Available() bool {
	_, err := f.find()
	return err == nil
}

// Speedup time-compresses an audio file with ffmpeg's atempo filter and
// returns the path of the sped-up temporary WAV. Speed must be within
// [0.5, 2.0] (the filter's supported range); anything within 0.01 of 1.0 is
// a no-op that returns the input path unchanged. The caller owns cleanup of
// the returned file via Cleanup.
func (f *FFmpeg) Speedup(ctx context.Context, inputPath string, speed float64) (string, error) {
	if speed < 0.5 || speed > 2.0 {
		return "", fmt.Errorf("speed must be between 0.5 and 2.0, got: %g", speed)
	}

	if math.Abs(speed-1.0) < 0.01 {
		return inputPath, nil
	}

	ffmpeg, err := f.find()
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(os.TempDir(), fmt.Sprintf("%s%d.wav", speedupTag, time.Now().UnixNano()))

	out, err := runCommand(ctx, ffmpeg,
		"-i", inputPath,
		"-filter:a", fmt.Sprintf("atempo=%g", speed),
		"-vn", // No video
		"-y",  // Overwrite output
		outputPath,
	)
	if err != nil {
		Cleanup(outputPath)
		return "", &RunError{Op: "ffmpeg speedup", Output: out, Err: err}
	}

	return outputPath, nil
}

// ExtractAudio pulls the audio track out of a video container into a
// temporary mono 16 kHz PCM WAV, so the decoder can treat every input
// uniformly. The caller owns cleanup of the returned file via Cleanup.
func (f *FFmpeg) ExtractAudio(ctx context.Context, inputPath string) (string, error) {
	ffmpeg, err := f.find()
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(os.TempDir(), fmt.Sprintf("%s%d.wav", extractedTag, time.Now().UnixNano()))

	out, err := runCommand(ctx, ffmpeg,
		"-i", inputPath,
		"-vn", // No video
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y", // Overwrite output
		outputPath,
	)
	if err != nil {
		Cleanup(outputPath)
		return "", &RunError{Op: "ffmpeg audio extraction", Output: out, Err: err}
	}

	return outputPath, nil
}

// AdjustTimestamp converts a timestamp measured against sped-up audio back
// to original-audio time. Compressing by factor S maps original time T to
// T/S, so restoring multiplies by S.
func AdjustTimestamp(timestampMs int64, speed float64) int64 {
	return int64(math.Round(float64(timestampMs) * speed))
}
