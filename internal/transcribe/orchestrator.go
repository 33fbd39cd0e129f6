package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fabianhtml/AudioInk/internal/audio"
	"github.com/fabianhtml/AudioInk/internal/config"
	"github.com/fabianhtml/AudioInk/internal/engine"
	"github.com/fabianhtml/AudioInk/internal/media"
	"github.com/fabianhtml/AudioInk/internal/metrics"
)

// speedupThreshold is the factor above which ffmpeg acceleration runs.
// Values at or below it transcribe the source as-is.
const speedupThreshold = 1.01

// Request describes one transcription job.
type Request struct {
	Path       string  // source file, audio or video
	Model      string  // model identity, e.g. "base"
	Language   string  // language code, "" or "auto" for detection
	Timestamps bool    // prefix segments with [HH:MM:SS] tags
	Speed      float64 // playback speedup in [1.0, 2.0]; 0 means 1.0
}

// stageFractions fixes the overall progress fraction reported at each
// pipeline stage. The transcription phase scales into [base, 1].
type stageFractions struct {
	prepare float64 // extraction (file) or download (URL)
	speedup float64
	decode  float64
	engine  float64
	base    float64
	span    float64
}

var (
	fileStages = stageFractions{prepare: 0.02, speedup: 0.05, decode: 0.1, engine: 0.2, base: 0.2, span: 0.8}
	urlStages  = stageFractions{prepare: 0.05, speedup: 0.15, decode: 0.2, engine: 0.3, base: 0.3, span: 0.7}
)

// tempFiles collects intermediate artifacts for cleanup when a run ends,
// success or failure.
type tempFiles struct {
	paths []string
}

func (t *tempFiles) add(path string) {
	t.paths = append(t.paths, path)
}

func (t *tempFiles) cleanup() {
	for _, path := range t.paths {
		media.Cleanup(path)
	}
}

// Pipeline runs transcription requests end to end.
type Pipeline struct {
	cache   *engine.Cache
	ffmpeg  *media.FFmpeg
	ytdlp   *media.YtDlp
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPipeline wires a pipeline from configuration. m may be nil to run
// without instrumentation.
func NewPipeline(cfg *config.Config, cache *engine.Cache, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cache:   cache,
		ffmpeg:  media.NewFFmpeg(cfg.Tools.FFmpegPath),
		ytdlp:   media.NewYtDlp(cfg.Tools.YtDlpPath),
		metrics: m,
		logger:  logger,
	}
}

// Run transcribes a local audio or video file. Progress events are sent to
// events, which may be nil; the caller is responsible for draining it.
func (p *Pipeline) Run(ctx context.Context, req Request, events chan<- Event) (*Result, error) {
	reporter := NewReporter(events)
	start := time.Now()
	logger := p.logger.With(slog.String("request_id", uuid.New().String()))

	p.metrics.RecordRequestStarted()

	if _, err := os.Stat(req.Path); err != nil {
		return nil, p.fail(reporter, logger, start, fmt.Errorf("file not found: %w", err))
	}

	logger.Info("Transcription started",
		slog.String("path", req.Path),
		slog.String("model", req.Model),
		slog.String("language", req.Language),
		slog.Float64("speed", req.Speed),
	)
	reporter.Started("Starting transcription...")

	temps := &tempFiles{}
	defer temps.cleanup()

	basePath := req.Path
	if media.NeedsExtraction(req.Path) {
		reporter.Progress(fileStages.prepare, "Extracting audio from video...")
		extracted, err := p.ffmpeg.ExtractAudio(ctx, req.Path)
		if err != nil {
			p.recordToolFailure(err, "ffmpeg")
			return nil, p.fail(reporter, logger, start, err)
		}
		temps.add(extracted)
		basePath = extracted
		logger.Debug("Audio extracted", slog.String("path", extracted))
	}

	result, err := p.process(ctx, basePath, req, reporter, fileStages, logger, temps)
	if err != nil {
		return nil, p.fail(reporter, logger, start, err)
	}

	result.ProcessingTime = time.Since(start)
	result.SourceName = sourceName(req.Path)
	result.Source = SourceFile

	p.metrics.RecordRequestSucceeded(time.Since(start).Seconds())
	reporter.Completed("Transcription completed")
	logger.Info("Transcription completed",
		slog.String("language", result.Language),
		slog.Int("chars", len(result.Text)),
		slog.Duration("processing_time", result.ProcessingTime),
	)
	return result, nil
}

// RunURL downloads the audio track of a video URL with yt-dlp and
// transcribes it. The downloaded file is removed when the run ends.
func (p *Pipeline) RunURL(ctx context.Context, url string, req Request, events chan<- Event) (*Result, error) {
	reporter := NewReporter(events)
	start := time.Now()
	logger := p.logger.With(slog.String("request_id", uuid.New().String()))

	p.metrics.RecordRequestStarted()

	logger.Info("Transcription started",
		slog.String("url", url),
		slog.String("model", req.Model),
		slog.String("language", req.Language),
		slog.Float64("speed", req.Speed),
	)
	reporter.Started("Downloading audio from YouTube...")
	reporter.Progress(urlStages.prepare, "Downloading audio from YouTube...")

	temps := &tempFiles{}
	defer temps.cleanup()

	download, err := p.ytdlp.Download(ctx, url)
	if err != nil {
		p.recordToolFailure(err, "yt-dlp")
		return nil, p.fail(reporter, logger, start, err)
	}
	temps.add(download.AudioPath)
	logger.Debug("Audio downloaded",
		slog.String("title", download.Title),
		slog.String("path", download.AudioPath),
	)

	result, err := p.process(ctx, download.AudioPath, req, reporter, urlStages, logger, temps)
	if err != nil {
		return nil, p.fail(reporter, logger, start, err)
	}

	result.ProcessingTime = time.Since(start)
	result.SourceName = download.Title
	result.Source = SourceYouTube

	p.metrics.RecordRequestSucceeded(time.Since(start).Seconds())
	reporter.Completed("Transcription completed")
	logger.Info("Transcription completed",
		slog.String("language", result.Language),
		slog.Int("chars", len(result.Text)),
		slog.Duration("processing_time", result.ProcessingTime),
	)
	return result, nil
}

// process runs the shared pipeline tail: speedup, decode, normalize,
// engine load, transcription, timestamp correction.
func (p *Pipeline) process(ctx context.Context, path string, req Request, reporter *Reporter, stages stageFractions, logger *slog.Logger, temps *tempFiles) (*Result, error) {
	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}

	audioPath := path
	if speed > speedupThreshold {
		reporter.Progress(stages.speedup, fmt.Sprintf("Accelerating audio to %gx...", speed))
		sped, err := p.ffmpeg.Speedup(ctx, path, speed)
		if err != nil {
			p.recordToolFailure(err, "ffmpeg")
			return nil, err
		}
		if sped != path {
			temps.add(sped)
			audioPath = sped
		}
		p.metrics.RecordSpeedup()
		logger.Debug("Speedup applied", slog.Float64("speed", speed))
	}

	reporter.Progress(stages.decode, "Decoding audio...")
	decodeStart := time.Now()
	pcm, err := audio.Decode(audioPath)
	if err != nil {
		return nil, err
	}
	info := pcm.Info()
	samples := audio.Normalize(pcm)
	p.metrics.RecordDecode(time.Since(decodeStart).Seconds(), info.Duration)
	logger.Debug("Audio decoded",
		slog.Float64("duration", info.Duration),
		slog.Int("channels", info.Channels),
		slog.Int("sample_rate", info.SampleRate),
	)

	// The accelerated file is shorter than the source; report duration in
	// original time.
	if speed > speedupThreshold {
		info.Duration *= speed
		info.DurationStr = audio.FormatDuration(info.Duration)
	}

	reporter.Progress(stages.engine, "Loading Whisper model...")
	worker, err := p.cache.GetOrCreate(req.Model)
	if err != nil {
		return nil, err
	}

	lang := req.Language
	if lang == "" {
		lang = "auto"
	}

	text, detected, err := p.transcribeSamples(ctx, worker, samples, lang, req.Timestamps, reporter, stages)
	if err != nil {
		return nil, err
	}

	if speed > speedupThreshold && req.Timestamps {
		text = RewriteTimestamps(text, speed)
	}

	return &Result{Text: text, Language: detected, Info: &info}, nil
}

// transcribeSamples feeds normalized samples to the engine, chunking long
// audio. The language is detected once per request, from the first chunk.
// Cancellation is honored at chunk boundaries only; a chunk that started
// decoding runs to completion.
func (p *Pipeline) transcribeSamples(ctx context.Context, worker *engine.Worker, samples []float32, lang string, withTimestamps bool, reporter *Reporter, stages stageFractions) (string, string, error) {
	scale := func(f float64) float64 {
		return stages.base + f*stages.span
	}

	if !audio.NeedsChunking(samples) {
		detected, err := worker.DetectLanguage(samples)
		if err != nil {
			return "", "", err
		}
		if err := ctx.Err(); err != nil {
			return "", "", fmt.Errorf("transcription cancelled: %w", err)
		}
		segments, err := worker.Transcribe(samples, lang)
		if err != nil {
			return "", "", err
		}
		p.metrics.RecordChunkProcessed()
		text := renderSegments(segments, withTimestamps, 0)
		reporter.ChunkDone(scale(1), "Transcription completed", text)
		return text, detected, nil
	}

	chunks := audio.Split(samples)
	total := len(chunks)

	detected, err := worker.DetectLanguage(chunks[0].Samples)
	if err != nil {
		return "", "", err
	}

	texts := make([]string, 0, total)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", "", fmt.Errorf("transcription cancelled: %w", err)
		}

		reporter.Progress(
			scale((float64(i)+0.5)/float64(total)),
			fmt.Sprintf("Transcribing chunk %d of %d", i+1, total),
		)

		segments, err := worker.Transcribe(chunk.Samples, lang)
		if err != nil {
			return "", "", err
		}
		p.metrics.RecordChunkProcessed()

		text := renderSegments(segments, withTimestamps, chunk.Offset.Milliseconds())
		texts = append(texts, text)

		reporter.ChunkDone(
			scale(float64(i+1)/float64(total)),
			fmt.Sprintf("Chunk %d of %d completed", i+1, total),
			text,
		)
	}

	separator := " "
	if withTimestamps {
		separator = "\n"
	}
	return strings.Join(texts, separator), detected, nil
}

// fail records and reports a failed run, returning err unchanged.
func (p *Pipeline) fail(reporter *Reporter, logger *slog.Logger, start time.Time, err error) error {
	p.metrics.RecordRequestFailed(time.Since(start).Seconds())
	logger.Error("Transcription failed", slog.String("error", err.Error()))
	reporter.Failed(err.Error())
	return err
}

// recordToolFailure counts err against tool when it came from running or
// locating the tool, as opposed to input validation.
func (p *Pipeline) recordToolFailure(err error, tool string) {
	var toolErr *media.ToolError
	var runErr *media.RunError
	if errors.As(err, &toolErr) || errors.As(err, &runErr) {
		p.metrics.RecordToolFailure(tool)
	}
}

// sourceName derives a display name from the file path, without extension.
func sourceName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "audio"
	}
	return name
}
