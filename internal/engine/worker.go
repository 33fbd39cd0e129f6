package engine

import (
	"errors"
	"sync"
)

// ErrWorkerClosed is returned for requests made after the worker shut down.
var ErrWorkerClosed = errors.New("engine worker closed")

type transcribeRequest struct {
	samples []float32
	lang    string
	reply   chan transcribeReply
}

type transcribeReply struct {
	segments []Segment
	err      error
}

type detectRequest struct {
	samples []float32
	reply   chan detectReply
}

type detectReply struct {
	lang string
	err  error
}

// Worker owns a Recognizer on a dedicated goroutine. Requests pass over
// channels and are served one at a time, so the native engine context
// never crosses goroutines. Worker methods are safe for concurrent use.
type Worker struct {
	transcribe chan transcribeRequest
	detect     chan detectRequest
	quit       chan struct{}
	done       chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWorker starts the worker goroutine and hands it ownership of r.
// After this call r must not be used directly.
func NewWorker(r Recognizer) *Worker {
	w := &Worker{
		transcribe: make(chan transcribeRequest),
		detect:     make(chan detectRequest),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go w.run(r)
	return w
}

// run serves requests until Close. The recognizer is created before the
// worker and released here, on the same goroutine that used it.
func (w *Worker) run(r Recognizer) {
	defer close(w.done)
	for {
		select {
		case req := <-w.transcribe:
			segments, err := r.Transcribe(req.samples, req.lang)
			req.reply <- transcribeReply{segments: segments, err: err}
		case req := <-w.detect:
			lang, err := r.DetectLanguage(req.samples)
			req.reply <- detectReply{lang: lang, err: err}
		case <-w.quit:
			w.closeErr = r.Close()
			return
		}
	}
}

// Transcribe forwards to the owned Recognizer and blocks until the worker
// has decoded the samples. It runs to completion once started.
func (w *Worker) Transcribe(samples []float32, lang string) ([]Segment, error) {
	req := transcribeRequest{
		samples: samples,
		lang:    lang,
		reply:   make(chan transcribeReply, 1),
	}
	select {
	case w.transcribe <- req:
	case <-w.done:
		return nil, ErrWorkerClosed
	}
	reply := <-req.reply
	return reply.segments, reply.err
}

// DetectLanguage forwards to the owned Recognizer.
func (w *Worker) DetectLanguage(samples []float32) (string, error) {
	req := detectRequest{
		samples: samples,
		reply:   make(chan detectReply, 1),
	}
	select {
	case w.detect <- req:
	case <-w.done:
		return "", ErrWorkerClosed
	}
	reply := <-req.reply
	return reply.lang, reply.err
}

// Close stops the worker goroutine and releases the recognizer. It waits
// for an in-flight request to finish and is safe to call more than once.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		close(w.quit)
		<-w.done
	})
	return w.closeErr
}
