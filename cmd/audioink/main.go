package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fabianhtml/AudioInk/internal/audio"
	"github.com/fabianhtml/AudioInk/internal/config"
	"github.com/fabianhtml/AudioInk/internal/engine"
	"github.com/fabianhtml/AudioInk/internal/history"
	"github.com/fabianhtml/AudioInk/internal/metrics"
	"github.com/fabianhtml/AudioInk/internal/models"
	"github.com/fabianhtml/AudioInk/internal/transcribe"
)

const (
	appName    = "audioink"
	appVersion = "1.0.0"
)

const usageHeader = `Usage: audioink [flags] <file>
       audioink -url <youtube-url> [flags]
       audioink models [list|download <model>|delete <model>]
       audioink history [list|show <id>|export <id> <path>|delete <id>|clear]
       audioink languages

Transcribes audio and video files with a local Whisper model.

Flags:
`

func main() {
	// Subcommands are dispatched before flag parsing; everything else is
	// the default transcribe command.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "models":
			os.Exit(runModels(os.Args[2:]))
		case "history":
			os.Exit(runHistory(os.Args[2:]))
		case "languages":
			os.Exit(runLanguages(os.Stdout))
		}
	}
	os.Exit(runTranscribe(os.Args[1:]))
}

func runTranscribe(args []string) int {
	fs := flag.NewFlagSet(appName, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageHeader)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "Path to configuration file")
	url := fs.String("url", "", "Transcribe audio from a YouTube URL instead of a local file")
	modelFlag := fs.String("model", "", "Whisper model to use (tiny, base, small, medium, large, large-v3-turbo)")
	languageFlag := fs.String("language", "", "Transcription language, or \"auto\" to detect")
	timestampsFlag := fs.Bool("timestamps", false, "Prefix each segment with a [HH:MM:SS] tag")
	speedFlag := fs.Float64("speed", 0, "Accelerate playback before transcription, 1.0 to 2.0")
	outPath := fs.String("o", "", "Write the transcript to this file instead of stdout")
	noHistory := fs.Bool("no-history", false, "Do not record the result in history")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := initLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Flags set on the command line override the configuration defaults.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	model := cfg.Engine.Model
	if set["model"] {
		model = *modelFlag
	}
	language := cfg.Engine.Language
	if set["language"] {
		language = *languageFlag
	}
	timestamps := cfg.Audio.Timestamps
	if set["timestamps"] {
		timestamps = *timestampsFlag
	}
	speed := cfg.Audio.Speed
	if set["speed"] {
		speed = *speedFlag
	}
	speed = clampSpeed(speed)
	language = transcribe.ParseLanguage(language)

	path := fs.Arg(0)
	if *url == "" && path == "" {
		fs.Usage()
		return 2
	}
	if *url != "" && path != "" {
		fmt.Fprintln(os.Stderr, "Error: pass either a file or -url, not both")
		return 2
	}

	m, err := models.Parse(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	store := models.NewStore(cfg.Engine.ModelsDir)
	if !store.IsDownloaded(m) {
		fmt.Fprintf(os.Stderr, "Error: model %q is not downloaded. Run \"audioink models download %s\" first.\n", m, m)
		return 1
	}

	logger.Info("Starting transcription",
		slog.String("version", appVersion),
		slog.String("model", model),
		slog.String("language", language),
		slog.Float64("speed", speed),
	)

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.NewMetrics()
		go serveMetrics(cfg.Metrics.Address, logger)
		logger.Info("Prometheus metrics initialized", slog.String("address", cfg.Metrics.Address))
	}

	cache := engine.NewCache(func(name string) (engine.Recognizer, error) {
		wanted, err := models.Parse(name)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		rec, err := engine.NewRecognizer(store.Path(wanted), cfg.Engine.Threads)
		if err != nil {
			return nil, err
		}
		appMetrics.RecordEngineLoad(time.Since(start).Seconds())
		return rec, nil
	}, logger)
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("Engine shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := transcribe.NewPipeline(cfg, cache, appMetrics, logger)

	events := make(chan transcribe.Event, 16)
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		renderProgress(os.Stderr, events, *quiet)
	}()

	req := transcribe.Request{
		Path:       path,
		Model:      model,
		Language:   language,
		Timestamps: timestamps,
		Speed:      speed,
	}

	var res *transcribe.Result
	if *url != "" {
		res, err = pipeline.RunURL(ctx, *url, req, events)
	} else {
		res, err = pipeline.Run(ctx, req, events)
	}
	close(events)
	<-rendered

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return 130
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(res.Text+"\n"), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write transcript: %v\n", err)
			return 1
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Transcript written to %s\n", *outPath)
		}
	} else {
		fmt.Println(res.Text)
	}

	if !*quiet && res.Info != nil {
		fmt.Fprintf(os.Stderr, "Language: %s  Duration: %s  Took: %s\n",
			res.Language, audio.FormatDuration(res.Info.Duration), res.ProcessingTime.Round(100*time.Millisecond))
	}

	if !*noHistory {
		hist := history.NewStore(cfg.History.Dir)
		entry := history.NewEntry(res.SourceName, string(res.Source), res.Text, res.Language, model, res.Info, res.ProcessingTime)
		if err := hist.Save(entry); err != nil {
			logger.Warn("Failed to save history entry", slog.String("error", err.Error()))
		} else if !*quiet {
			fmt.Fprintf(os.Stderr, "Saved to history as %s\n", entry.ID)
		}
	}

	return 0
}

// renderProgress prints pipeline events as stderr lines until the events
// channel closes. Quiet mode drains without printing so the pipeline never
// blocks on an unread channel.
func renderProgress(w io.Writer, events <-chan transcribe.Event, quiet bool) {
	for ev := range events {
		if quiet {
			continue
		}
		switch ev.Kind {
		case transcribe.EventStarted:
			fmt.Fprintln(w, ev.Message)
		case transcribe.EventFailed:
			fmt.Fprintf(w, "Failed: %s\n", ev.Message)
		default:
			fmt.Fprintf(w, "[%3.0f%%] %s\n", ev.Fraction*100, ev.Message)
		}
	}
}

// serveMetrics exposes the Prometheus registry for scraping. A failure to
// bind is logged rather than fatal; transcription works without it.
func serveMetrics(address string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(address, mux); err != nil {
		logger.Error("Metrics endpoint failed", slog.String("error", err.Error()))
	}
}

// loadConfig reads the given path, or the default location when it exists,
// and falls back to built-in defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	defaultPath := config.DefaultPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return config.Load(defaultPath)
	}
	return config.Default(), nil
}

// clampSpeed forces the speedup factor into the supported range rather
// than rejecting out-of-range values.
func clampSpeed(speed float64) float64 {
	if speed < 1.0 {
		return 1.0
	}
	if speed > 2.0 {
		return 2.0
	}
	return speed
}

// initLogger creates and configures the structured logger based on configuration.
// The default output is stderr so transcripts on stdout stay clean.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
