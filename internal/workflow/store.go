package workflow

import (
	"context"
	"time"
)

// Type identifies a workflow definition.
type Type string

const (
	TypeCVAnalysis Type = "cv-analysis"
	TypeMatching   Type = "matching"
)

// State is a workflow execution state.
type State string

const (
	StateStarted             State = "started"
	StateExtractingInterests State = "extracting_interests"
	StateValidating          State = "validating"
	StateGeocoding           State = "geocoding"
	StateScoring             State = "scoring"
	StateCompleted           State = "completed"
	StateFailed              State = "failed"
)

// Terminal reports whether the state ends an execution.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Execution is the durable record of one workflow run.
type Execution struct {
	ID          string
	Type        Type
	State       State
	Input       []byte
	Result      []byte
	StartedAt   time.Time
	CompletedAt *time.Time
}

// ActivityRecord is the durable checkpoint of one activity invocation within
// an execution. Either Output is set (success) or ErrorCode/ErrorMessage are
// (terminal failure after retries). Replay reads these instead of
// re-invoking the activity.
type ActivityRecord struct {
	ExecutionID  string
	Activity     string
	Attempts     int
	Output       []byte
	ErrorCode    string
	ErrorMessage string
	RecordedAt   time.Time
}

// Failed reports whether the record captures a terminal activity failure.
func (r *ActivityRecord) Failed() bool {
	return r.ErrorCode != ""
}

// Store persists workflow executions and their activity checkpoints. It is
// the engine's own persistence; nothing else in the process stores state.
type Store interface {
	CreateExecution(ctx context.Context, id string, wfType Type, input []byte) error
	UpdateState(ctx context.Context, id string, state State) error

	// GetActivityResult returns the recorded result for (execution,
	// activity), or nil when the activity has not completed yet.
	GetActivityResult(ctx context.Context, executionID, activity string) (*ActivityRecord, error)
	RecordActivityResult(ctx context.Context, rec *ActivityRecord) error

	CompleteExecution(ctx context.Context, id string, state State, result []byte) error
	GetExecution(ctx context.Context, id string) (*Execution, error)

	// ListNonTerminal returns executions that never reached a terminal
	// state, oldest first. Recovery re-runs them after a restart.
	ListNonTerminal(ctx context.Context) ([]*Execution, error)
}
