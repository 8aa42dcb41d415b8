package transport

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// BackoffConfig defines reconnect delay growth.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// OpenWithRetry keeps calling Open until it succeeds, ctx ends, or
// maxAttempts (when > 0) is exhausted.
func OpenWithRetry(ctx context.Context, cfg Config, backoff BackoffConfig, maxAttempts int, log zerolog.Logger) (Source, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for attempt := 1; ; attempt++ {
		src, err := Open(ctx, cfg)
		if err == nil {
			return src, nil
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return nil, fmt.Errorf("transport: giving up after %d attempts: %w", attempt, err)
		}
		delay := NextBackoffDelay(backoff, attempt, rng)
		log.Warn().
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Err(err).
			Msg("transport.OpenWithRetry open failed")

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
