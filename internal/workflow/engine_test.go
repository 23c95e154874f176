package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/logger"
)

func fastOptions(name string, maxAttempts int) ActivityOptions {
	return ActivityOptions{
		Name:                name,
		StartToCloseTimeout: time.Second,
		Retry: RetryPolicy{
			InitialInterval:    time.Millisecond,
			MaxInterval:        5 * time.Millisecond,
			BackoffCoefficient: 2.0,
			MaxAttempts:        maxAttempts,
		},
	}
}

func newTestEngine(store Store) *Engine {
	return NewEngine(store, nil, logger.NewNoOpLogger())
}

func TestEngine_ExecuteActivity_Success(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))

	out, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 3), []byte(`{"in":1}`),
		func(ctx context.Context, input []byte) ([]byte, error) {
			return []byte(`{"out":2}`), nil
		})
	require.NoError(t, err)
	assert.JSONEq(t, `{"out":2}`, string(out))

	rec, err := store.GetActivityResult(ctx, "exec-1", "step")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Attempts)
	assert.False(t, rec.Failed())
}

func TestEngine_ExecuteActivity_ReplayReturnsRecordedResult(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))
	require.NoError(t, store.RecordActivityResult(ctx, &ActivityRecord{
		ExecutionID: "exec-1",
		Activity:    "step",
		Attempts:    1,
		Output:      []byte(`{"cached":true}`),
	}))

	invoked := 0
	out, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 3), nil,
		func(ctx context.Context, input []byte) ([]byte, error) {
			invoked++
			return []byte(`{"cached":false}`), nil
		})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cached":true}`, string(out))
	assert.Equal(t, 0, invoked, "recorded activity must not run again")
}

func TestEngine_ExecuteActivity_ReplayReturnsRecordedFailure(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))
	require.NoError(t, store.RecordActivityResult(ctx, &ActivityRecord{
		ExecutionID:  "exec-1",
		Activity:     "step",
		Attempts:     3,
		ErrorCode:    "LLM_CALL_FAILED",
		ErrorMessage: "status 502",
	}))

	_, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 3), nil,
		func(ctx context.Context, input []byte) ([]byte, error) {
			t.Fatal("must not re-run a terminally failed activity")
			return nil, nil
		})
	require.Error(t, err)

	var actErr *ActivityError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, "LLM_CALL_FAILED", actErr.Code)
	assert.Equal(t, "status 502", actErr.Message)
	assert.Equal(t, 3, actErr.Attempts)
}

func TestEngine_ExecuteActivity_RetriesThenSucceeds(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))

	attempts := 0
	out, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 3), nil,
		func(ctx context.Context, input []byte) ([]byte, error) {
			attempts++
			if attempts < 3 {
				return nil, apperrors.NewGeocodeLookupFailedError(errors.New("connection refused"))
			}
			return []byte(`{}`), nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.JSONEq(t, `{}`, string(out))

	rec, err := store.GetActivityResult(ctx, "exec-1", "step")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Attempts)
}

func TestEngine_ExecuteActivity_ExhaustsRetries(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))

	attempts := 0
	_, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 2), nil,
		func(ctx context.Context, input []byte) ([]byte, error) {
			attempts++
			return nil, apperrors.NewLLMCallFailedError(errors.New("status 503"))
		})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)

	var actErr *ActivityError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, "LLM_CALL_FAILED", actErr.Code)
	assert.Equal(t, 2, actErr.Attempts)

	// The failure is checkpointed, so replay reproduces it.
	rec, storeErr := store.GetActivityResult(ctx, "exec-1", "step")
	require.NoError(t, storeErr)
	require.NotNil(t, rec)
	assert.True(t, rec.Failed())
}

func TestEngine_ExecuteActivity_NonRetryableShortCircuits(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))

	attempts := 0
	_, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 5), nil,
		func(ctx context.Context, input []byte) ([]byte, error) {
			attempts++
			return nil, apperrors.NewValidationError("Missing required field: student")
		})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "validation errors must not retry")

	var actErr *ActivityError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), actErr.Code)
	assert.Equal(t, "Missing required field: student", actErr.Message)
}

func TestEngine_ExecuteActivity_TimeoutCountsAsFailedAttempt(t *testing.T) {
	store := NewMemoryStore()
	engine := newTestEngine(store)
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))

	opts := fastOptions("step", 2)
	opts.StartToCloseTimeout = 10 * time.Millisecond

	attempts := 0
	_, err := engine.ExecuteActivity(ctx, "exec-1", opts, nil,
		func(ctx context.Context, input []byte) ([]byte, error) {
			attempts++
			<-ctx.Done()
			return nil, ctx.Err()
		})
	require.Error(t, err)
	assert.Equal(t, 2, attempts, "a timed-out attempt is retried like any failure")
}

type validatorFunc func(activity string, payload []byte) error

func (f validatorFunc) ValidateInput(activity string, payload []byte) error {
	return f(activity, payload)
}

func TestEngine_ExecuteActivity_InputValidatorRejects(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store, validatorFunc(func(activity string, payload []byte) error {
		if !json.Valid(payload) {
			return errors.New("payload is not valid JSON")
		}
		return nil
	}), logger.NewNoOpLogger())
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "exec-1", TypeMatching, nil))

	_, err := engine.ExecuteActivity(ctx, "exec-1", fastOptions("step", 3), []byte("not json"),
		func(ctx context.Context, input []byte) ([]byte, error) {
			t.Fatal("activity must not run on invalid input")
			return nil, nil
		})
	require.Error(t, err)

	var actErr *ActivityError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), actErr.Code)
}
