package transcribe

// EventKind identifies the type of a progress event.
type EventKind string

// Progress event kinds, in the order a successful run emits them.
const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventDownload  EventKind = "download"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is one progress update from a running transcription. Fraction is
// meaningful for progress events and grows monotonically from 0 to 1.
// ChunkText carries newly transcribed text when a chunk completes, for
// progressive display.
type Event struct {
	Kind      EventKind
	Fraction  float64
	Message   string
	ChunkText string
}

// Reporter delivers events to a channel in emission order, clamping
// fractions so consumers never observe progress moving backwards. A nil
// Reporter and a nil channel are both valid and drop all events.
//
// Sends block until the consumer receives, so callers should drain the
// channel from a separate goroutine or buffer it.
type Reporter struct {
	ch   chan<- Event
	last float64
}

// NewReporter wraps ch. ch may be nil.
func NewReporter(ch chan<- Event) *Reporter {
	return &Reporter{ch: ch}
}

func (r *Reporter) send(ev Event) {
	if r == nil || r.ch == nil {
		return
	}
	r.ch <- ev
}

// clamp keeps fractions inside [last, 1].
func (r *Reporter) clamp(fraction float64) float64 {
	if r == nil {
		return fraction
	}
	if fraction < r.last {
		fraction = r.last
	}
	if fraction > 1 {
		fraction = 1
	}
	r.last = fraction
	return fraction
}

// Started signals the beginning of a run.
func (r *Reporter) Started(message string) {
	r.send(Event{Kind: EventStarted, Message: message})
}

// Progress reports a stage fraction in [0,1].
func (r *Reporter) Progress(fraction float64, message string) {
	r.send(Event{Kind: EventProgress, Fraction: r.clamp(fraction), Message: message})
}

// ChunkDone reports a completed chunk together with its transcribed text.
func (r *Reporter) ChunkDone(fraction float64, message, text string) {
	r.send(Event{Kind: EventProgress, Fraction: r.clamp(fraction), Message: message, ChunkText: text})
}

// Download reports model download progress.
func (r *Reporter) Download(fraction float64, message string) {
	r.send(Event{Kind: EventDownload, Fraction: fraction, Message: message})
}

// Completed signals a successful run.
func (r *Reporter) Completed(message string) {
	r.send(Event{Kind: EventCompleted, Fraction: r.clamp(1), Message: message})
}

// Failed signals an aborted run.
func (r *Reporter) Failed(message string) {
	r.send(Event{Kind: EventFailed, Fraction: r.lastFraction(), Message: message})
}

func (r *Reporter) lastFraction() float64 {
	if r == nil {
		return 0
	}
	return r.last
}
