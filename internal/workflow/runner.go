package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mentormatch/internal/common/logger"
	"mentormatch/internal/common/observability"
	"mentormatch/internal/models"
)

// Runner is the entry point for starting workflow executions. It creates the
// durable execution record, runs the workflow to its terminal state and
// records observability signals. HTTP handlers call the Run methods directly;
// the returned envelopes are response bodies.
type Runner struct {
	engine   *Engine
	cv       *CVAnalysisWorkflow
	matching *MatchingWorkflow
	obs      *observability.Observability
	logger   logger.Logger
}

func NewRunner(engine *Engine, cv *CVAnalysisWorkflow, matching *MatchingWorkflow, obs *observability.Observability, log logger.Logger) *Runner {
	return &Runner{
		engine:   engine,
		cv:       cv,
		matching: matching,
		obs:      obs,
		logger:   log.With(map[string]interface{}{"component": "runner"}),
	}
}

// RunCVAnalysis starts and runs a CV-analysis workflow to completion.
func (r *Runner) RunCVAnalysis(ctx context.Context, cvText string) *models.CVAnalysisResult {
	executionID := fmt.Sprintf("cv-analysis-%s", uuid.New().String())
	start := time.Now()

	input, _ := json.Marshal(extractInterestsInput{CVText: cvText})
	if err := r.engine.Store().CreateExecution(ctx, executionID, TypeCVAnalysis, input); err != nil {
		r.logger.Error("failed to create execution", map[string]interface{}{
			"executionId": executionID,
			"error":       err.Error(),
		})
		return &models.CVAnalysisResult{
			Success:    false,
			Interests:  []string{},
			Error:      err.Error(),
			WorkflowID: executionID,
		}
	}

	result := r.cv.Run(ctx, executionID, cvText)
	r.record(ctx, TypeCVAnalysis, result.Success, time.Since(start))
	return result
}

// RunMatching starts and runs a matching workflow to completion. The raw
// request body is passed through unparsed; the validate activity inspects it
// before anything else trusts its shape.
func (r *Runner) RunMatching(ctx context.Context, rawReq []byte) *models.MatchingResult {
	executionID := fmt.Sprintf("matching-%s", uuid.New().String())
	start := time.Now()

	if err := r.engine.Store().CreateExecution(ctx, executionID, TypeMatching, rawReq); err != nil {
		r.logger.Error("failed to create execution", map[string]interface{}{
			"executionId": executionID,
			"error":       err.Error(),
		})
		return &models.MatchingResult{
			Success:    false,
			Suggest:    []models.MatchResult{},
			Error:      err.Error(),
			WorkflowID: executionID,
		}
	}

	result := r.matching.Run(ctx, executionID, rawReq)
	r.record(ctx, TypeMatching, result.Success, time.Since(start))
	return result
}

// Recover re-runs every execution the store holds in a non-terminal state,
// typically left behind by a crash mid-workflow. Recorded activity results
// replay from their checkpoints, so work an execution already paid for is
// not repeated. Recovery runs each execution to its terminal state before
// moving on; call it once at startup, before serving traffic.
func (r *Runner) Recover(ctx context.Context) error {
	execs, err := r.engine.Store().ListNonTerminal(ctx)
	if err != nil {
		return fmt.Errorf("list non-terminal executions: %w", err)
	}
	if len(execs) == 0 {
		return nil
	}
	r.logger.Info("recovering interrupted executions", map[string]interface{}{"count": len(execs)})

	for _, exec := range execs {
		start := time.Now()
		switch exec.Type {
		case TypeCVAnalysis:
			var input extractInterestsInput
			if err := json.Unmarshal(exec.Input, &input); err != nil {
				r.logger.Error("cannot decode stored input, skipping execution", map[string]interface{}{
					"executionId": exec.ID,
					"error":       err.Error(),
				})
				continue
			}
			result := r.cv.Run(ctx, exec.ID, input.CVText)
			r.record(ctx, TypeCVAnalysis, result.Success, time.Since(start))
		case TypeMatching:
			result := r.matching.Run(ctx, exec.ID, exec.Input)
			r.record(ctx, TypeMatching, result.Success, time.Since(start))
		default:
			r.logger.Warn("unknown workflow type, skipping execution", map[string]interface{}{
				"executionId": exec.ID,
				"type":        exec.Type,
			})
			continue
		}
		r.logger.Info("execution recovered", map[string]interface{}{"executionId": exec.ID})
	}
	return nil
}

func (r *Runner) record(ctx context.Context, wfType Type, success bool, elapsed time.Duration) {
	if r.obs == nil {
		return
	}
	status := "completed"
	if !success {
		status = "failed"
	}
	r.obs.RecordWorkflow(ctx, string(wfType), status)
	r.obs.RecordWorkflowDuration(ctx, string(wfType), elapsed)
}
