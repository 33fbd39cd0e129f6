package engine

import (
	"log/slog"
	"sync"
)

// Factory constructs a Recognizer for a model identity, typically by
// resolving the identity to an artifact path and loading it.
type Factory func(model string) (Recognizer, error)

// Cache keeps at most one loaded engine resident. Model artifacts are
// hundreds of megabytes in memory, so switching models evicts the
// previous one. The slot is reachable only through GetOrCreate.
type Cache struct {
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	model  string
	worker *Worker
}

// NewCache creates an empty cache using factory to load models on demand.
func NewCache(factory Factory, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{factory: factory, logger: logger}
}

// GetOrCreate returns the resident worker when model matches the loaded
// identity, and otherwise loads model and swaps it in. The replacement is
// constructed before the previous worker is closed, so a load failure
// leaves the resident engine untouched and usable.
func (c *Cache) GetOrCreate(model string) (*Worker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.worker != nil && c.model == model {
		return c.worker, nil
	}

	recognizer, err := c.factory(model)
	if err != nil {
		return nil, err
	}
	next := NewWorker(recognizer)

	if c.worker != nil {
		c.logger.Info("Replacing cached engine",
			slog.String("old_model", c.model),
			slog.String("new_model", model),
		)
		if err := c.worker.Close(); err != nil {
			c.logger.Warn("Error closing replaced engine",
				slog.String("model", c.model),
				slog.String("error", err.Error()),
			)
		}
	}

	c.model = model
	c.worker = next
	return next, nil
}

// Model returns the identity of the resident engine, or "" when empty.
func (c *Cache) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Close releases the resident worker, if any.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.worker == nil {
		return nil
	}
	err := c.worker.Close()
	c.worker = nil
	c.model = ""
	return err
}
