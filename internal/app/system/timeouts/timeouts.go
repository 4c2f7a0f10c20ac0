// Package timeouts provides centralized timeout values for store-backed
// handler operations.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing  = 2 * time.Second
	DefaultStore = 5 * time.Second
	DefaultScan  = 15 * time.Second
	DefaultBatch = 60 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping  = DefaultPing
	store = DefaultStore
	scan  = DefaultScan
	batch = DefaultBatch
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Store returns the timeout for single-document operations.
func Store() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return store
}

// Scan returns the timeout for operations that walk a whole collection:
// listings, name checks and the movie-delete cascade.
func Scan() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return scan
}

// Batch returns the timeout for the integrity sweep.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Config holds timeout configuration values. Zero fields keep the current
// value.
type Config struct {
	Ping  time.Duration
	Store time.Duration
	Scan  time.Duration
	Batch time.Duration
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Store > 0 {
		store = cfg.Store
	}
	if cfg.Scan > 0 {
		scan = cfg.Scan
	}
	if cfg.Batch > 0 {
		batch = cfg.Batch
	}
}

// Reset restores all timeouts to defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	store = DefaultStore
	scan = DefaultScan
	batch = DefaultBatch
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Store: store, Scan: scan, Batch: batch}
}

// WithTimeout creates a context with timeout and logs when the deadline
// was hit by the time cancel is called.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
