// internal/workers/cv-analysis/extract-interests/handler.go
package extractinterests

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "mentormatch/internal/common/errors"
	"mentormatch/internal/common/interests"
	"mentormatch/internal/common/llm"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/workflow"
)

const promptTemplate = `You are an expert at analyzing CVs and identifying people's interests based on their professional background, skills, and experience.

Given the following CV text, identify which interests from the predefined list below are most relevant to this person. Consider their:
- Professional experience and career path
- Skills and technologies mentioned
- Projects and achievements
- Education and certifications
- Any hobbies or personal interests mentioned

Only select interests that have clear evidence in the CV. Return between 3-8 interests that best match.

PREDEFINED INTERESTS LIST:
%s

CV TEXT:
%s

Respond with ONLY a JSON array of the matching interest names from the list above. Example format:
["Technology", "Business & Finance", "Gaming"]

Do not include any explanation, just the JSON array.`

type Handler struct {
	config *Config
	llm    *llm.Client
	vocab  *interests.Vocabulary
	logger logger.Logger
}

func NewHandler(config *Config, llmClient *llm.Client, vocab *interests.Vocabulary, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		llm:    llmClient,
		vocab:  vocab,
		logger: log.With(map[string]interface{}{"activity": workflow.ActivityExtractInterests}),
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

// Execute extracts vocabulary interests from free CV text via the language
// model. Tags outside the vocabulary are dropped. When the model response
// cannot be parsed, a substring scan over the raw response recovers any tags
// it mentions; an empty final result is an error, never a success, so a
// broken extraction cannot masquerade as "no interests".
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	h.logger.Info("starting cv analysis", map[string]interface{}{
		"textLength": len(input.CVText),
		"model":      h.llm.Model(),
	})

	prompt := fmt.Sprintf(promptTemplate, strings.Join(h.vocab.Tags(), ", "), input.CVText)

	response, err := h.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	matched, parseErr := h.parseResponse(response)
	if parseErr != nil || len(matched) == 0 {
		if parseErr != nil {
			h.logger.Warn("model response is not a JSON array, scanning raw text", map[string]interface{}{
				"error": parseErr.Error(),
			})
		}
		matched = h.scanForTags(response)
		if len(matched) == 0 {
			return nil, apperrors.NewExtractionEmptyError(fmt.Sprintf("raw response: %q", truncate(response, 200)))
		}
		h.logger.Info("fallback extraction recovered interests", map[string]interface{}{
			"count": len(matched),
		})
	}

	h.logger.Info("cv analysis extracted interests", map[string]interface{}{
		"count":     len(matched),
		"interests": matched,
	})
	return &Output{Interests: matched}, nil
}

// parseResponse decodes the model output as a JSON array and keeps only
// vocabulary tags, in their canonical form.
func (h *Handler) parseResponse(response string) ([]string, error) {
	cleaned := stripCodeFence(response)

	var tags []string
	if err := json.Unmarshal([]byte(cleaned), &tags); err != nil {
		return nil, err
	}

	var matched []string
	seen := make(map[string]struct{})
	for _, tag := range tags {
		canonical, ok := h.vocab.Canonical(tag)
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		matched = append(matched, canonical)
	}
	return matched, nil
}

// scanForTags finds vocabulary tags mentioned verbatim in the text,
// case-insensitively, in vocabulary order.
func (h *Handler) scanForTags(text string) []string {
	lowered := strings.ToLower(text)
	var matched []string
	for _, tag := range h.vocab.Tags() {
		if strings.Contains(lowered, strings.ToLower(tag)) {
			matched = append(matched, tag)
		}
	}
	return matched
}

// stripCodeFence unwraps a ```json ... ``` block if the model added one.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// truncate shortens s to at most max bytes, cutting on a rune boundary so a
// multi-byte character is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
