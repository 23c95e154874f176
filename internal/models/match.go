package models

// MatchResult is one entry of the ranked match list. The reasoning field is
// populated by a later pass over the ranked list; the struct is immutable
// once returned to the caller.
type MatchResult struct {
	MentorID  string `json:"mentor_id"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning,omitempty"`
}

// MatchingRequest is the typed payload of the matching workflow.
type MatchingRequest struct {
	Student Person   `json:"student"`
	Mentors []Person `json:"mentors"`
}

// MatchingResult is the structured envelope returned to the caller. Suggest
// is sorted by score descending, ties in mentor input order. ErrorCode is
// the stable failure code when a failed activity caused the failure; callers
// branch on it rather than on the message text.
type MatchingResult struct {
	Success    bool          `json:"success"`
	Suggest    []MatchResult `json:"suggest"`
	Error      string        `json:"error,omitempty"`
	ErrorCode  string        `json:"error_code,omitempty"`
	WorkflowID string        `json:"workflow_id,omitempty"`
}

// CVAnalysisResult is the structured envelope of the CV-analysis workflow.
type CVAnalysisResult struct {
	Success    bool     `json:"success"`
	Interests  []string `json:"interests"`
	Error      string   `json:"error,omitempty"`
	WorkflowID string   `json:"workflow_id,omitempty"`
}
