// Package media wraps the external tools the pipeline shells out to.
// It invokes ffmpeg for audio speedup and video audio extraction and yt-dlp
// for remote media retrieval, probing for tool availability with
// platform-specific install guidance, and managing tagged temporary files so
// cleanup can never touch unrelated paths.
package media
