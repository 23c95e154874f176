// internal/workers/matching/calculate-matches/handler.go
package calculatematches

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/llm"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/workflow"
)

type Handler struct {
	config    *Config
	scorer    *Scorer
	reasoning *ReasoningGenerator
	logger    logger.Logger
}

func NewHandler(config *Config, llmClient *llm.Client, log logger.Logger) *Handler {
	workerLog := log.With(map[string]interface{}{"activity": workflow.ActivityCalculateMatches})
	return &Handler{
		config:    config,
		scorer:    NewScorer(workerLog),
		reasoning: NewReasoningGenerator(config, llmClient, workerLog),
		logger:    workerLog,
	}
}

// Activity adapts the handler to the workflow engine.
func (h *Handler) Activity() workflow.ActivityFunc {
	return func(ctx context.Context, raw []byte) ([]byte, error) {
		var input Input
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		}
		output, err := h.Execute(ctx, &input)
		if err != nil {
			return nil, err
		}
		return json.Marshal(output)
	}
}

// Execute scores all mentors and annotates the ranked list with reasoning.
// Scoring never fails for validated input; reasoning degrades to local
// fallbacks, so the activity only fails on cancellation.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	matches := h.scorer.CalculateMatches(input.Student, input.Mentors, input.Coordinates)

	h.reasoning.Annotate(ctx, input.Student, input.Mentors, matches)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Output{Matches: matches}, nil
}
