package workflow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
)

type countingActivity struct {
	calls  int
	output string
}

func (a *countingActivity) fn(_ context.Context, _ []byte) ([]byte, error) {
	a.calls++
	return []byte(a.output), nil
}

func newTestRunner(store Store, extract, validate, geocode, calculate ActivityFunc) *Runner {
	engine := newTestEngine(store)
	cv := NewCVAnalysisWorkflow(engine, extract, logger.NewNoOpLogger())
	matching := NewMatchingWorkflow(engine, validate, geocode, calculate, logger.NewNoOpLogger())
	return NewRunner(engine, cv, matching, nil, logger.NewNoOpLogger())
}

func TestRunner_Recover_ReplaysCheckpointedActivity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	extract := &countingActivity{output: `{"interests":["Technology"]}`}
	runner := newTestRunner(store, extract.fn, nil, nil, nil)

	// The previous process checkpointed the extraction result but died
	// before finalizing the execution.
	input, err := json.Marshal(extractInterestsInput{CVText: "I build software."})
	require.NoError(t, err)
	require.NoError(t, store.CreateExecution(ctx, "cv-analysis-resume", TypeCVAnalysis, input))
	require.NoError(t, store.UpdateState(ctx, "cv-analysis-resume", StateExtractingInterests))
	require.NoError(t, store.RecordActivityResult(ctx, &ActivityRecord{
		ExecutionID: "cv-analysis-resume",
		Activity:    ActivityExtractInterests,
		Attempts:    1,
		Output:      []byte(`{"interests":["Gaming"]}`),
	}))

	require.NoError(t, runner.Recover(ctx))

	assert.Equal(t, 0, extract.calls, "checkpointed activity must replay, not re-run")

	exec, err := store.GetExecution(ctx, "cv-analysis-resume")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, exec.State)
	require.NotNil(t, exec.CompletedAt)

	var result models.CVAnalysisResult
	require.NoError(t, json.Unmarshal(exec.Result, &result))
	assert.True(t, result.Success)
	assert.Equal(t, []string{"Gaming"}, result.Interests, "recovery carries the checkpointed output, not a fresh one")

	remaining, err := store.ListNonTerminal(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRunner_Recover_ResumesMatchingMidPipeline(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	validate := &countingActivity{output: `{"valid":true,"mentors":1}`}
	geocode := &countingActivity{output: `{"coordinates":{"student":{"lat":59.33,"lng":18.07},"mentor-1":{"lat":59.34,"lng":18.07}}}`}
	calculate := &countingActivity{output: `{"matches":[{"mentor_id":"mentor-1","score":92}]}`}
	runner := newTestRunner(store, nil, validate.fn, geocode.fn, calculate.fn)

	// Crash after validation: the validate checkpoint exists, the rest of
	// the pipeline never ran.
	rawReq := matchingRequestJSON(t)
	require.NoError(t, store.CreateExecution(ctx, "matching-resume", TypeMatching, rawReq))
	require.NoError(t, store.UpdateState(ctx, "matching-resume", StateValidating))
	require.NoError(t, store.RecordActivityResult(ctx, &ActivityRecord{
		ExecutionID: "matching-resume",
		Activity:    ActivityValidateRequest,
		Attempts:    1,
		Output:      []byte(`{"valid":true,"mentors":1}`),
	}))

	require.NoError(t, runner.Recover(ctx))

	assert.Equal(t, 0, validate.calls, "validation replays from its checkpoint")
	assert.Equal(t, 1, geocode.calls, "the interrupted pipeline resumes where it stopped")
	assert.Equal(t, 1, calculate.calls)

	exec, err := store.GetExecution(ctx, "matching-resume")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, exec.State)

	var result models.MatchingResult
	require.NoError(t, json.Unmarshal(exec.Result, &result))
	assert.True(t, result.Success)
	require.Len(t, result.Suggest, 1)
	assert.Equal(t, "mentor-1", result.Suggest[0].MentorID)
}

func TestRunner_Recover_SkipsTerminalExecutions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	extract := &countingActivity{output: `{"interests":["Technology"]}`}
	runner := newTestRunner(store, extract.fn, nil, nil, nil)

	require.NoError(t, store.CreateExecution(ctx, "cv-analysis-done", TypeCVAnalysis, nil))
	require.NoError(t, store.CompleteExecution(ctx, "cv-analysis-done", StateCompleted, []byte(`{"success":true}`)))

	require.NoError(t, runner.Recover(ctx))
	assert.Equal(t, 0, extract.calls)
}

func TestMemoryStore_ListNonTerminal(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateExecution(ctx, "matching-a", TypeMatching, nil))
	require.NoError(t, store.CreateExecution(ctx, "matching-b", TypeMatching, nil))
	require.NoError(t, store.CreateExecution(ctx, "matching-c", TypeMatching, nil))
	require.NoError(t, store.CompleteExecution(ctx, "matching-a", StateCompleted, nil))
	require.NoError(t, store.CompleteExecution(ctx, "matching-b", StateFailed, nil))

	execs, err := store.ListNonTerminal(ctx)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, "matching-c", execs[0].ID)
	assert.Equal(t, StateStarted, execs[0].State)
}
