// Package timeouts holds the per-operation time budgets used by handlers.
//
// Values are set once at startup from configuration and read on every
// request, so access is guarded by a RWMutex.
package timeouts

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultRead   = 5 * time.Second
	DefaultWrite  = 10 * time.Second
	DefaultUpload = 60 * time.Second
	DefaultBatch  = 30 * time.Second
)

// Config holds timeout values. Zero fields leave the current value alone.
type Config struct {
	Ping   time.Duration // health checks
	Read   time.Duration // one content kind load
	Write  time.Duration // single-document writes
	Upload time.Duration // asset uploads to storage
	Batch  time.Duration // reorder and seed batches
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Read:   DefaultRead,
		Write:  DefaultWrite,
		Upload: DefaultUpload,
		Batch:  DefaultBatch,
	}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Read() time.Duration   { return get(func(c Config) time.Duration { return c.Read }) }
func Write() time.Duration  { return get(func(c Config) time.Duration { return c.Write }) }
func Upload() time.Duration { return get(func(c Config) time.Duration { return c.Upload }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Configure overrides the positive fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&current.Ping, cfg.Ping)
	set(&current.Read, cfg.Read)
	set(&current.Write, cfg.Write)
	set(&current.Upload, cfg.Upload)
	set(&current.Batch, cfg.Batch)
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout derives a context with timeout. The returned cancel logs a
// warning when the deadline was the reason the operation ended.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
