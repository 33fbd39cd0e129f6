package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription pipeline.
// A nil *Metrics is valid; every Record method is a no-op on it, so
// instrumentation can be switched off without touching call sites.
type Metrics struct {
	// Request metrics
	RequestsTotal     prometheus.Counter
	RequestsSucceeded prometheus.Counter
	RequestsFailed    prometheus.Counter
	RequestDuration   prometheus.Histogram

	// Audio pipeline metrics
	DecodeDuration  prometheus.Histogram
	AudioSeconds    prometheus.Counter
	ChunksProcessed prometheus.Counter
	SpeedupRuns     prometheus.Counter

	// Engine metrics
	EngineLoads        prometheus.Counter
	EngineLoadDuration prometheus.Histogram

	// External tool metrics
	ToolFailures *prometheus.CounterVec

	// Model download metrics
	ModelDownloads     prometheus.Counter
	ModelDownloadBytes prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics. Call it at most
// once per process; promauto registers against the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		// Request metrics
		RequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_requests_total",
			Help: "Total number of transcription requests started",
		}),
		RequestsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_requests_succeeded_total",
			Help: "Total number of transcription requests completed successfully",
		}),
		RequestsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_requests_failed_total",
			Help: "Total number of transcription requests that failed",
		}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audioink_request_duration_seconds",
			Help:    "End-to-end duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),

		// Audio pipeline metrics
		DecodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audioink_decode_duration_seconds",
			Help:    "Time spent decoding and normalizing source audio",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		AudioSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_audio_seconds_processed_total",
			Help: "Total seconds of audio fed to the speech engine",
		}),
		ChunksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_chunks_processed_total",
			Help: "Total number of audio chunks transcribed",
		}),
		SpeedupRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_speedup_runs_total",
			Help: "Total number of ffmpeg speedup invocations",
		}),

		// Engine metrics
		EngineLoads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_engine_loads_total",
			Help: "Total number of speech engine model loads",
		}),
		EngineLoadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "audioink_engine_load_duration_seconds",
			Help:    "Time spent loading speech engine models",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// External tool metrics
		ToolFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "audioink_tool_failures_total",
			Help: "Total number of external tool failures",
		}, []string{"tool"}),

		// Model download metrics
		ModelDownloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_model_downloads_total",
			Help: "Total number of completed model downloads",
		}),
		ModelDownloadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "audioink_model_download_bytes_total",
			Help: "Total bytes downloaded for model artifacts",
		}),
	}
}

// RecordRequestStarted increments the requests counter
func (m *Metrics) RecordRequestStarted() {
	if m == nil {
		return
	}
	m.RequestsTotal.Inc()
}

// RecordRequestSucceeded records a completed request and its duration
func (m *Metrics) RecordRequestSucceeded(durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestsSucceeded.Inc()
	m.RequestDuration.Observe(durationSeconds)
}

// RecordRequestFailed records a failed request and its duration
func (m *Metrics) RecordRequestFailed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestsFailed.Inc()
	m.RequestDuration.Observe(durationSeconds)
}

// RecordDecode records one decode pass and the audio duration it produced
func (m *Metrics) RecordDecode(durationSeconds, audioSeconds float64) {
	if m == nil {
		return
	}
	m.DecodeDuration.Observe(durationSeconds)
	m.AudioSeconds.Add(audioSeconds)
}

// RecordChunkProcessed increments the chunk counter
func (m *Metrics) RecordChunkProcessed() {
	if m == nil {
		return
	}
	m.ChunksProcessed.Inc()
}

// RecordSpeedup increments the speedup invocation counter
func (m *Metrics) RecordSpeedup() {
	if m == nil {
		return
	}
	m.SpeedupRuns.Inc()
}

// RecordEngineLoad records a model load and how long it took
func (m *Metrics) RecordEngineLoad(durationSeconds float64) {
	if m == nil {
		return
	}
	m.EngineLoads.Inc()
	m.EngineLoadDuration.Observe(durationSeconds)
}

// RecordToolFailure records a failure of the named external tool
func (m *Metrics) RecordToolFailure(tool string) {
	if m == nil {
		return
	}
	m.ToolFailures.WithLabelValues(tool).Inc()
}

// RecordModelDownload records a completed model download
func (m *Metrics) RecordModelDownload(bytes int64) {
	if m == nil {
		return
	}
	m.ModelDownloads.Inc()
	m.ModelDownloadBytes.Add(float64(bytes))
}
