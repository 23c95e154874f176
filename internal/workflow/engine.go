package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/common/metrics"
)

// ActivityFunc is one retryable, timeout-bounded unit of work. The payload
// and result are JSON so they can be checkpointed as-is.
type ActivityFunc func(ctx context.Context, input []byte) ([]byte, error)

// ActivityError is the terminal failure of an activity after its retry
// policy is exhausted (or short-circuited for non-retryable errors).
type ActivityError struct {
	Activity string
	Code     string
	Message  string
	Attempts int
}

func (e *ActivityError) Error() string {
	return fmt.Sprintf("activity %s failed after %d attempt(s): [%s] %s", e.Activity, e.Attempts, e.Code, e.Message)
}

// InputValidator checks an activity's input payload before invocation.
type InputValidator interface {
	ValidateInput(activity string, payload []byte) error
}

// Engine executes activities with per-activity timeout and retry policies,
// checkpointing every terminal result in the store. Workflow decision logic
// built on the engine depends only on recorded inputs and outputs, so
// replaying an execution after a crash reconstructs identical state without
// repeating already-succeeded side effects.
type Engine struct {
	store     Store
	validator InputValidator
	logger    logger.Logger
}

func NewEngine(store Store, validator InputValidator, log logger.Logger) *Engine {
	return &Engine{
		store:     store,
		validator: validator,
		logger:    log.With(map[string]interface{}{"component": "engine"}),
	}
}

// Store returns the engine's execution store.
func (e *Engine) Store() Store {
	return e.store
}

// ExecuteActivity runs one activity for the given execution. A previously
// recorded result (success or terminal failure) is returned without
// re-invoking the function. Otherwise the function runs under the activity
// timeout, retrying transient failures per the policy; the outcome is
// recorded before it is returned.
func (e *Engine) ExecuteActivity(ctx context.Context, executionID string, opts ActivityOptions, input []byte, fn ActivityFunc) ([]byte, error) {
	log := e.logger.With(map[string]interface{}{
		"executionId": executionID,
		"activity":    opts.Name,
	})

	if rec, err := e.store.GetActivityResult(ctx, executionID, opts.Name); err != nil {
		return nil, err
	} else if rec != nil {
		metrics.ActivityReplayed.WithLabelValues(opts.Name).Inc()
		log.Debug("activity resolved from recorded result", map[string]interface{}{
			"attempts": rec.Attempts,
			"failed":   rec.Failed(),
		})
		if rec.Failed() {
			return nil, &ActivityError{
				Activity: opts.Name,
				Code:     rec.ErrorCode,
				Message:  rec.ErrorMessage,
				Attempts: rec.Attempts,
			}
		}
		return rec.Output, nil
	}

	if e.validator != nil {
		if err := e.validator.ValidateInput(opts.Name, input); err != nil {
			return nil, e.recordFailure(ctx, executionID, opts.Name, 0, apperrors.NewValidationError(err.Error()))
		}
	}

	maxAttempts := opts.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		output, err := e.runAttempt(ctx, opts, input, fn)
		if err == nil {
			metrics.ActivityCompleted.WithLabelValues(opts.Name).Inc()
			metrics.ActivityDuration.WithLabelValues(opts.Name).Observe(time.Since(start).Seconds())

			rec := &ActivityRecord{
				ExecutionID: executionID,
				Activity:    opts.Name,
				Attempts:    attempt,
				Output:      output,
			}
			if err := e.store.RecordActivityResult(ctx, rec); err != nil {
				return nil, err
			}
			return output, nil
		}

		lastErr = err

		if !apperrors.IsRetryable(err) {
			log.Warn("activity failed with non-retryable error", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			return nil, e.recordFailure(ctx, executionID, opts.Name, attempt, err)
		}

		if attempt == maxAttempts {
			break
		}

		backoff := opts.Retry.BackoffFor(attempt)
		log.Warn("activity attempt failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
			"nextRetryIn": backoff.String(),
			"error":       err.Error(),
		})
		metrics.ActivityRetries.WithLabelValues(opts.Name).Inc()

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, e.recordFailure(ctx, executionID, opts.Name, attempt, apperrors.NewTimeoutError(opts.Name, ctx.Err()))
		}
	}

	log.Error("activity exhausted retries", map[string]interface{}{
		"attempts": maxAttempts,
		"error":    lastErr.Error(),
	})
	return nil, e.recordFailure(ctx, executionID, opts.Name, maxAttempts, lastErr)
}

// runAttempt executes one attempt under the start-to-close timeout. A
// timeout counts as a failed attempt subject to the retry policy.
func (e *Engine) runAttempt(ctx context.Context, opts ActivityOptions, input []byte, fn ActivityFunc) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.StartToCloseTimeout)
	defer cancel()

	output, err := fn(attemptCtx, input)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewTimeoutError(opts.Name, attemptCtx.Err())
		}
		return nil, err
	}
	return output, nil
}

// recordFailure checkpoints a terminal activity failure so replay reproduces
// it deterministically, then returns the corresponding ActivityError.
func (e *Engine) recordFailure(ctx context.Context, executionID, activity string, attempts int, cause error) error {
	actErr := &ActivityError{
		Activity: activity,
		Code:     string(apperrors.CodeOf(cause)),
		Message:  failureMessage(cause),
		Attempts: attempts,
	}

	metrics.ActivityFailed.WithLabelValues(activity, actErr.Code).Inc()

	// Recording may itself fail (store outage mid-crash); the workflow then
	// re-runs the activity on replay, which is the at-least-once side of the
	// exactly-once-effect contract.
	rec := &ActivityRecord{
		ExecutionID:  executionID,
		Activity:     activity,
		Attempts:     attempts,
		ErrorCode:    actErr.Code,
		ErrorMessage: actErr.Message,
	}
	if err := e.store.RecordActivityResult(ctx, rec); err != nil {
		e.logger.Error("failed to record activity failure", map[string]interface{}{
			"executionId": executionID,
			"activity":    activity,
			"error":       err.Error(),
		})
	}

	return actErr
}

func failureMessage(err error) string {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		if stdErr.Details != "" {
			return stdErr.Details
		}
		return stdErr.Message
	}
	return err.Error()
}
