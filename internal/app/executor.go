package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// Mutation pipeline: Validate → Compute → Verify → Persist → Respond
//
// Every favorites mutation runs through these steps so that in-memory state
// only changes after the new set has been checked and durably written:
//   1. VALIDATE - check the input quote before anything is computed
//   2. COMPUTE  - derive the next state from the current one
//   3. VERIFY   - confirm the derived state keeps its invariants
//   4. PERSIST  - write the verified state to storage
//   5. RESPOND  - commit and return the result to the caller

// ExecutionStep represents a step in the mutation pipeline.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepCompute  ExecutionStep = "compute"
	StepVerify   ExecutionStep = "verify"
	StepPersist  ExecutionStep = "persist"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func newStepError(step ExecutionStep, message string, cause error) error {
	return &ExecutionError{Step: step, Message: message, Cause: cause}
}

// Executor runs operations through the mutation pipeline.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation defines the functions for each step of the pipeline.
// I is the input, S the computed state, O the response. Nil steps are skipped.
type Operation[I, S, O any] struct {
	// Name identifies this operation for logging.
	Name string

	// Validate checks inputs. Return an error to abort before computing.
	Validate func(ctx context.Context, input I) error

	// Compute derives the next state.
	Compute func(ctx context.Context, input I) (S, error)

	// Verify checks invariants on the computed state.
	Verify func(ctx context.Context, input I, next S) error

	// Persist writes the verified state.
	Persist func(ctx context.Context, input I, next S) error

	// Respond commits the state and shapes the result.
	// Called only after a successful persist.
	Respond func(ctx context.Context, input I, next S) (O, error)
}

// Execute runs an operation through the full pipeline.
func Execute[I, S, O any](ctx context.Context, exec *Executor, op Operation[I, S, O], input I) (O, error) {
	var (
		zero O
		next S
	)

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	if op.Validate != nil {
		err := op.Validate(ctx, input)
		if err != nil {
			logger.WarnContext(ctx, "validation failed", slog.Any("error", err))

			return zero, newStepError(StepValidate, "input validation failed", err)
		}
	}

	if op.Compute != nil {
		var err error

		next, err = op.Compute(ctx, input)
		if err != nil {
			logger.ErrorContext(ctx, "compute failed", slog.Any("error", err))

			return zero, newStepError(StepCompute, "computing next state failed", err)
		}
	}

	if op.Verify != nil {
		err := op.Verify(ctx, input, next)
		if err != nil {
			logger.ErrorContext(ctx, "verification failed", slog.Any("error", err))

			return zero, newStepError(StepVerify, "verification failed", err)
		}
	}

	if op.Persist != nil {
		err := op.Persist(ctx, input, next)
		if err != nil {
			logger.ErrorContext(ctx, "persist failed", slog.Any("error", err))

			return zero, newStepError(StepPersist, "state persistence failed", err)
		}
	}

	var result O

	if op.Respond != nil {
		var err error

		result, err = op.Respond(ctx, input, next)
		if err != nil {
			logger.WarnContext(ctx, "respond failed", slog.Any("error", err))

			return zero, err
		}
	}

	logger.DebugContext(ctx, "operation completed",
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// GetExecutionStep reports the pipeline step err failed in. ok is false for
// errors that did not come out of a pipeline step.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
