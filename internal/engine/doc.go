// Package engine wraps the whisper.cpp speech recognizer behind a
// goroutine-confined worker and a single-slot model cache. The native
// engine context is never shared across goroutines; all requests pass
// through a Worker's request channel.
package engine
