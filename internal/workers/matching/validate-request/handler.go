// internal/workers/matching/validate-request/handler.go
package validaterequest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
	"mentormatch/internal/workflow"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{"activity": workflow.ActivityValidateRequest}),
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

// Execute checks the matching request against the profile contract. Every
// violation returns a non-retryable validation error carrying a message that
// names the offending field, stopping the workflow before any external call.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.Student) == 0 {
		return nil, apperrors.NewValidationError("Missing required field: student")
	}
	if len(input.Mentors) == 0 {
		return nil, apperrors.NewValidationError("Missing required field: mentors")
	}

	var mentors []json.RawMessage
	if err := json.Unmarshal(input.Mentors, &mentors); err != nil {
		return nil, apperrors.NewValidationError("mentors must be a list")
	}
	if len(mentors) == 0 {
		return nil, apperrors.NewValidationError("mentors list cannot be empty")
	}

	if err := validatePerson(input.Student); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("Student validation error: %s", err))
	}

	for i, rawMentor := range mentors {
		if err := validatePerson(rawMentor); err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Mentor %d validation error: %s", i, err))
		}
		var mentor struct {
			ID *string `json:"id"`
		}
		if err := json.Unmarshal(rawMentor, &mentor); err != nil || mentor.ID == nil || *mentor.ID == "" {
			return nil, apperrors.NewValidationError(fmt.Sprintf("Mentor %d missing required field: id", i))
		}
	}

	h.logger.Info("request validated", map[string]interface{}{"mentors": len(mentors)})
	return &Output{Valid: true, Mentors: len(mentors)}, nil
}

var requiredFields = []string{
	"education_level", "postcode", "city", "interests", "languages", "meeting_preference",
}

func validatePerson(raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("person must be an object")
	}

	for _, field := range requiredFields {
		if _, ok := fields[field]; !ok {
			return fmt.Errorf("Missing required field: %s", field)
		}
	}

	var person models.Person
	if err := json.Unmarshal(raw, &person); err != nil {
		return fmt.Errorf("malformed person data: %v", err)
	}

	if !containsFold(models.ValidEducationLevels, person.EducationLevel) {
		return fmt.Errorf("Invalid education_level. Must be one of: %s", strings.Join(models.ValidEducationLevels, ", "))
	}

	postcode := strings.TrimSpace(person.Postcode)
	if !isFiveDigits(postcode) {
		return fmt.Errorf("postcode must be a 5-digit Swedish postal code")
	}

	if err := validateStringList(fields["interests"], "interests"); err != nil {
		return err
	}
	if err := validateStringList(fields["languages"], "languages"); err != nil {
		return err
	}

	if !containsFold(models.ValidMeetingPreferences, person.MeetingPreference) {
		return fmt.Errorf("Invalid meeting_preference. Must be one of: %s", strings.Join(models.ValidMeetingPreferences, ", "))
	}

	for _, lang := range person.Languages {
		if !containsExact(models.ValidLanguages, lang) {
			return fmt.Errorf("Invalid language: %s. Must be one of: %s", lang, strings.Join(models.ValidLanguages, ", "))
		}
	}

	return nil
}

func validateStringList(raw json.RawMessage, field string) error {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("%s must be a list", field)
	}
	if len(list) == 0 {
		return fmt.Errorf("%s cannot be empty", field)
	}
	return nil
}

func containsFold(valid []string, value string) bool {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, v := range valid {
		if v == needle {
			return true
		}
	}
	return false
}

func containsExact(valid []string, value string) bool {
	for _, v := range valid {
		if v == value {
			return true
		}
	}
	return false
}

func isFiveDigits(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
