package transcribe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fabianhtml/AudioInk/internal/engine"
	"github.com/fabianhtml/AudioInk/internal/media"
)

var timestampTag = regexp.MustCompile(`\[(\d{2}):(\d{2}):(\d{2})\]`)

// formatTimestamp renders a millisecond offset as HH:MM:SS.
func formatTimestamp(ms int64) string {
	total := ms / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// renderSegments turns engine output into transcript text. With timestamps
// each segment becomes a "[HH:MM:SS] text" line offset by the chunk start;
// without them segments join into a single run of plain text.
func renderSegments(segments []engine.Segment, withTimestamps bool, offsetMs int64) string {
	if len(segments) == 0 {
		return ""
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if withTimestamps {
			startMs := seg.Start.Milliseconds() + offsetMs
			parts = append(parts, fmt.Sprintf("[%s] %s", formatTimestamp(startMs), seg.Text))
		} else {
			parts = append(parts, seg.Text)
		}
	}

	if withTimestamps {
		return strings.Join(parts, "\n")
	}
	return strings.Join(parts, " ")
}

// RewriteTimestamps maps every [HH:MM:SS] tag in text back to original
// audio time by scaling it with the speedup factor that was applied
// before transcription.
func RewriteTimestamps(text string, speed float64) string {
	return timestampTag.ReplaceAllStringFunc(text, func(tag string) string {
		m := timestampTag.FindStringSubmatch(tag)
		hours, _ := strconv.ParseInt(m[1], 10, 64)
		minutes, _ := strconv.ParseInt(m[2], 10, 64)
		seconds, _ := strconv.ParseInt(m[3], 10, 64)

		totalMs := (hours*3600 + minutes*60 + seconds) * 1000
		adjustedMs := media.AdjustTimestamp(totalMs, speed)

		return "[" + formatTimestamp(adjustedMs) + "]"
	})
}
