package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds each check run by CheckAll.
const DefaultCheckTimeout = 2 * time.Second

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health:
// the favorites database, the quote source, the catalog, the event broker.
type HealthChecker interface {
	// Name identifies the component in readiness output. Must be unique.
	Name() string

	// Check returns nil when the component is usable.
	Check(ctx context.Context) error
}

// NonCritical is implemented by checkers whose failure degrades the service
// without taking it out of rotation. The board keeps serving favorites while
// the quote source is down, for example.
type NonCritical interface {
	NonCritical() bool
}

// HealthRegistry aggregates the checks registered at startup.
type HealthRegistry interface {
	Register(checker HealthChecker) error
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the outcome of a check or of the whole registry.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is the aggregate. Status is unhealthy if a critical check
// failed, degraded if only non-critical ones did.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Critical bool          `json:"critical"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Registry is the HealthRegistry used by the service.
type Registry struct {
	// Timeout bounds each check. Zero leaves only the caller's deadline.
	Timeout time.Duration

	mu       sync.RWMutex
	checkers []HealthChecker
}

var _ HealthRegistry = (*Registry)(nil)

// NewHealthRegistry creates an empty registry with DefaultCheckTimeout.
func NewHealthRegistry() *Registry {
	return &Registry{Timeout: DefaultCheckTimeout}
}

// Register adds checker. Names must be unique.
func (r *Registry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, c := range r.checkers {
		if c.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs every check concurrently and aggregates the results.
func (r *Registry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := append([]HealthChecker(nil), r.checkers...)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var g errgroup.Group
	for i, checker := range checkers {
		g.Go(func() error {
			results[i] = r.run(ctx, checker)
			return nil
		})
	}
	_ = g.Wait()

	out := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	for i, res := range results {
		out.Checks[checkers[i].Name()] = res

		switch {
		case res.Status == HealthStatusHealthy:
		case res.Critical:
			out.Status = HealthStatusUnhealthy
		case out.Status == HealthStatusHealthy:
			out.Status = HealthStatusDegraded
		}
	}

	return out
}

func (r *Registry) run(ctx context.Context, checker HealthChecker) *CheckResult {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	res := &CheckResult{Status: HealthStatusHealthy, Critical: critical(checker)}

	start := time.Now()
	err := checker.Check(ctx)
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = HealthStatusUnhealthy
		if !res.Critical {
			res.Status = HealthStatusDegraded
		}

		res.Message = err.Error()
	}

	return res
}

func critical(checker HealthChecker) bool {
	nc, ok := checker.(NonCritical)
	return !ok || !nc.NonCritical()
}
