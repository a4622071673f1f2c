// Package ratelimit bounds how often a single caller can run bot commands.
//
// Counters live in a Store. Deployments with more than one instance need a
// shared store (Redis or Postgres); the in-memory store only sees its own
// process.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("ratelimit: invalid configuration")

// Store counts requests per key within a window. Take must be atomic with
// respect to concurrent callers sharing the same key.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Config is the window policy shared by every command that reaches the gate.
type Config struct {
	Limit     int
	Window    time.Duration
	FailOpen  bool
	KeyPrefix string
}

// DefaultConfig allows five commands per caller per minute.
func DefaultConfig() Config {
	return Config{
		Limit:     5,
		Window:    time.Minute,
		FailOpen:  true,
		KeyPrefix: "tipsbot:rl:",
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// StoreErr is set when the store could not be consulted and the
	// configured fail mode decided instead.
	StoreErr error
}

// Limiter applies Config on top of a Store.
type Limiter struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
}

// New validates cfg and returns a limiter backed by store.
func New(store Store, cfg Config, logger zerolog.Logger) (*Limiter, error) {
	if store == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("store is required"))
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("limit and window must be positive"))
	}
	return &Limiter{store: store, cfg: cfg, logger: logger}, nil
}

// Allow records one request for callerID and reports whether it fits the budget.
func (l *Limiter) Allow(ctx context.Context, callerID string) Decision {
	allowed, err := l.store.Take(ctx, l.cfg.KeyPrefix+callerID, l.cfg.Limit, l.cfg.Window)
	if err != nil {
		l.logger.Warn().Err(err).
			Str("caller_id", callerID).
			Bool("fail_open", l.cfg.FailOpen).
			Msg("Rate limit store unavailable")
		return Decision{Allowed: l.cfg.FailOpen, StoreErr: err}
	}
	if !allowed {
		l.logger.Info().Str("caller_id", callerID).Msg("Rate limit reached")
	}
	return Decision{Allowed: allowed}
}
