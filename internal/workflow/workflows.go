package workflow

import (
	"context"
	"encoding/json"
	"errors"

	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
)

// Activity names. These are the checkpoint keys, so renaming one orphans
// recorded results of in-flight executions.
const (
	ActivityExtractInterests = "extract-interests"
	ActivityValidateRequest  = "validate-request"
	ActivityGeocodePostcodes = "geocode-postcodes"
	ActivityCalculateMatches = "calculate-matches"
)

// Wire shapes of the activity payloads. The worker packages declare the
// canonical Input/Output types; these mirror their JSON tags so the workflow
// layer stays decoupled from the handlers it orchestrates.

type extractInterestsInput struct {
	CVText string `json:"cv_text"`
}

type extractInterestsOutput struct {
	Interests []string `json:"interests"`
}

type geocodePostcodesInput struct {
	Postcodes map[string]string `json:"postcodes"`
}

type geocodePostcodesOutput struct {
	Coordinates map[string]models.Coordinate `json:"coordinates"`
}

type calculateMatchesInput struct {
	Student     models.Person                `json:"student"`
	Mentors     []models.Person              `json:"mentors"`
	Coordinates map[string]models.Coordinate `json:"coordinates"`
}

type calculateMatchesOutput struct {
	Matches []models.MatchResult `json:"matches"`
}

// CVAnalysisWorkflow extracts structured interests from free CV text. It is
// a single-activity workflow; the durable execution exists so a crash after
// the model call does not pay for a second one on replay.
type CVAnalysisWorkflow struct {
	engine  *Engine
	extract ActivityFunc
	logger  logger.Logger
}

func NewCVAnalysisWorkflow(engine *Engine, extract ActivityFunc, log logger.Logger) *CVAnalysisWorkflow {
	return &CVAnalysisWorkflow{
		engine:  engine,
		extract: extract,
		logger:  log.With(map[string]interface{}{"workflow": TypeCVAnalysis}),
	}
}

// Run executes the workflow for an already-created execution. It never
// returns an error; failures are folded into the result envelope.
func (w *CVAnalysisWorkflow) Run(ctx context.Context, executionID, cvText string) *models.CVAnalysisResult {
	log := w.logger.With(map[string]interface{}{"executionId": executionID})

	if err := w.engine.Store().UpdateState(ctx, executionID, StateExtractingInterests); err != nil {
		log.Error("failed to update execution state", map[string]interface{}{"error": err.Error()})
	}

	input, err := json.Marshal(extractInterestsInput{CVText: cvText})
	if err != nil {
		return w.fail(ctx, executionID, err)
	}

	raw, err := w.engine.ExecuteActivity(ctx, executionID, ExtractInterestsOptions, input, w.extract)
	if err != nil {
		return w.fail(ctx, executionID, err)
	}

	var out extractInterestsOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return w.fail(ctx, executionID, err)
	}

	result := &models.CVAnalysisResult{
		Success:    true,
		Interests:  out.Interests,
		WorkflowID: executionID,
	}
	w.complete(ctx, executionID, StateCompleted, result)
	log.Info("cv analysis completed", map[string]interface{}{"interests": len(out.Interests)})
	return result
}

func (w *CVAnalysisWorkflow) fail(ctx context.Context, executionID string, cause error) *models.CVAnalysisResult {
	result := &models.CVAnalysisResult{
		Success:    false,
		Interests:  []string{},
		Error:      causeMessage(cause),
		WorkflowID: executionID,
	}
	w.complete(ctx, executionID, StateFailed, result)
	w.logger.Warn("cv analysis failed", map[string]interface{}{
		"executionId": executionID,
		"error":       result.Error,
	})
	return result
}

func (w *CVAnalysisWorkflow) complete(ctx context.Context, executionID string, state State, result *models.CVAnalysisResult) {
	raw, err := json.Marshal(result)
	if err == nil {
		err = w.engine.Store().CompleteExecution(ctx, executionID, state, raw)
	}
	if err != nil {
		w.logger.Error("failed to complete execution", map[string]interface{}{
			"executionId": executionID,
			"error":       err.Error(),
		})
	}
}

// MatchingWorkflow ranks mentors for a student: validate, geocode, score.
// Each step is a checkpointed activity; validation failures stop the run
// before any external service is touched.
type MatchingWorkflow struct {
	engine    *Engine
	validate  ActivityFunc
	geocode   ActivityFunc
	calculate ActivityFunc
	logger    logger.Logger
}

func NewMatchingWorkflow(engine *Engine, validate, geocode, calculate ActivityFunc, log logger.Logger) *MatchingWorkflow {
	return &MatchingWorkflow{
		engine:    engine,
		validate:  validate,
		geocode:   geocode,
		calculate: calculate,
		logger:    log.With(map[string]interface{}{"workflow": TypeMatching}),
	}
}

// Run executes the workflow for an already-created execution, on the raw
// request body. Validation runs against the raw JSON so it can tell a
// missing field from a zero value; the typed request is only decoded after
// validation passes. Run never returns an error; failures are folded into
// the result envelope.
func (w *MatchingWorkflow) Run(ctx context.Context, executionID string, rawReq []byte) *models.MatchingResult {
	log := w.logger.With(map[string]interface{}{"executionId": executionID})

	w.updateState(ctx, executionID, StateValidating)
	if _, err := w.engine.ExecuteActivity(ctx, executionID, ValidateRequestOptions, rawReq, w.validate); err != nil {
		return w.fail(ctx, executionID, err)
	}

	var req models.MatchingRequest
	if err := json.Unmarshal(rawReq, &req); err != nil {
		return w.fail(ctx, executionID, err)
	}

	w.updateState(ctx, executionID, StateGeocoding)
	postcodes := map[string]string{models.StudentKey: req.Student.Postcode}
	for _, mentor := range req.Mentors {
		postcodes[mentor.ID] = mentor.Postcode
	}
	geoInput, err := json.Marshal(geocodePostcodesInput{Postcodes: postcodes})
	if err != nil {
		return w.fail(ctx, executionID, err)
	}
	rawCoords, err := w.engine.ExecuteActivity(ctx, executionID, GeocodePostcodesOptions, geoInput, w.geocode)
	if err != nil {
		return w.fail(ctx, executionID, err)
	}
	var geo geocodePostcodesOutput
	if err := json.Unmarshal(rawCoords, &geo); err != nil {
		return w.fail(ctx, executionID, err)
	}

	w.updateState(ctx, executionID, StateScoring)
	calcInput, err := json.Marshal(calculateMatchesInput{
		Student:     req.Student,
		Mentors:     req.Mentors,
		Coordinates: geo.Coordinates,
	})
	if err != nil {
		return w.fail(ctx, executionID, err)
	}
	rawMatches, err := w.engine.ExecuteActivity(ctx, executionID, CalculateMatchesOptions, calcInput, w.calculate)
	if err != nil {
		return w.fail(ctx, executionID, err)
	}
	var calc calculateMatchesOutput
	if err := json.Unmarshal(rawMatches, &calc); err != nil {
		return w.fail(ctx, executionID, err)
	}

	suggest := calc.Matches
	if suggest == nil {
		suggest = []models.MatchResult{}
	}
	result := &models.MatchingResult{
		Success:    true,
		Suggest:    suggest,
		WorkflowID: executionID,
	}
	w.complete(ctx, executionID, StateCompleted, result)
	log.Info("matching completed", map[string]interface{}{
		"mentors": len(req.Mentors),
		"matches": len(suggest),
	})
	return result
}

func (w *MatchingWorkflow) fail(ctx context.Context, executionID string, cause error) *models.MatchingResult {
	result := &models.MatchingResult{
		Success:    false,
		Suggest:    []models.MatchResult{},
		Error:      causeMessage(cause),
		ErrorCode:  causeCode(cause),
		WorkflowID: executionID,
	}
	w.complete(ctx, executionID, StateFailed, result)
	w.logger.Warn("matching failed", map[string]interface{}{
		"executionId": executionID,
		"error":       result.Error,
	})
	return result
}

func (w *MatchingWorkflow) updateState(ctx context.Context, executionID string, state State) {
	if err := w.engine.Store().UpdateState(ctx, executionID, state); err != nil {
		w.logger.Error("failed to update execution state", map[string]interface{}{
			"executionId": executionID,
			"state":       state,
			"error":       err.Error(),
		})
	}
}

func (w *MatchingWorkflow) complete(ctx context.Context, executionID string, state State, result *models.MatchingResult) {
	raw, err := json.Marshal(result)
	if err == nil {
		err = w.engine.Store().CompleteExecution(ctx, executionID, state, raw)
	}
	if err != nil {
		w.logger.Error("failed to complete execution", map[string]interface{}{
			"executionId": executionID,
			"error":       err.Error(),
		})
	}
}

// causeMessage extracts the caller-facing message from a workflow failure.
// Activity errors already carry the underlying detail, so the outer wrapper
// is dropped.
func causeMessage(err error) string {
	var actErr *ActivityError
	if errors.As(err, &actErr) {
		return actErr.Message
	}
	return err.Error()
}

// causeCode extracts the stable error code of a failed activity. Failures
// outside an activity carry no code.
func causeCode(err error) string {
	var actErr *ActivityError
	if errors.As(err, &actErr) {
		return actErr.Code
	}
	return ""
}
