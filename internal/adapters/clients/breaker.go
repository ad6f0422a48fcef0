package clients

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quotebook/internal/platform/config"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// State is the position of a Breaker.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota

	// StateOpen rejects calls until the cooldown has passed.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calls to a downstream that keeps failing.
//
// MaxFailures consecutive failures open it. After Timeout it admits up to
// HalfOpenLimit probes; that many successes close it again and any failed
// probe reopens it.
type Breaker struct {
	cfg    config.CircuitBreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	inFlight int
	passed   int
	openedAt time.Time
}

// NewBreaker creates a closed breaker. Zero config fields fall back to
// five failures, a 30s cooldown, and a single probe.
func NewBreaker(cfg config.CircuitBreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = defaultBreakerFailures
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultBreakerCooldown
	}

	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Breaker{cfg: cfg, logger: logger, now: time.Now}
}

// Allow reserves a call. It returns ErrCircuitOpen when the call must not be
// made; otherwise the caller reports the outcome with Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Timeout {
			return ErrCircuitOpen
		}

		b.move(StateHalfOpen)
	}

	if b.state == StateHalfOpen {
		if b.inFlight >= b.cfg.HalfOpenLimit {
			return ErrCircuitOpen
		}

		b.inFlight++
	}

	return nil
}

// Record reports the outcome of a call admitted by Allow.
func (b *Breaker) Record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if ok {
			b.failures = 0
			return
		}

		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.move(StateOpen)
		}

	case StateHalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}

		if !ok {
			b.move(StateOpen)
			return
		}

		b.passed++
		if b.passed >= b.cfg.HalfOpenLimit {
			b.move(StateClosed)
		}

	case StateOpen:
		// A call admitted before the breaker opened. Its outcome changes nothing.
	}
}

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// move switches state and resets the counters. Callers hold mu.
func (b *Breaker) move(to State) {
	from := b.state
	b.state = to
	b.failures, b.inFlight, b.passed = 0, 0, 0

	level := slog.LevelInfo
	if to == StateOpen {
		b.openedAt = b.now()
		level = slog.LevelWarn
	}

	b.logger.Log(context.Background(), level, "circuit breaker state changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}
