// internal/workers/matching/calculate-matches/reasoning.go
package calculatematches

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mentormatch/internal/common/llm"
	"mentormatch/internal/common/logger"
	"mentormatch/internal/models"
)

// Only this many top-ranked matches get a generated explanation. Everything
// below gets a templated one, which caps model call volume per request.
const reasoningTopK = 10

const reasoningPromptTemplate = `You are helping a student understand why a mentor is a good match for them.

STUDENT:
- Goals: %s
- Bio: %s
- Interests: %s
- Subjects: %s

MENTOR:
- Name: %s
- Role: %s
- Bio: %s
- Skills: %s
- Interests: %s

Their compatibility score is %d out of 100.

Write 1-2 sentences explaining why this mentor is a good match for this student. Be specific and encouraging. Do not mention the score.`

// ReasoningGenerator attaches a human-readable explanation to each ranked
// match.
type ReasoningGenerator struct {
	config *Config
	llm    *llm.Client
	logger logger.Logger
}

func NewReasoningGenerator(config *Config, llmClient *llm.Client, log logger.Logger) *ReasoningGenerator {
	return &ReasoningGenerator{
		config: config,
		llm:    llmClient,
		logger: log,
	}
}

// Annotate fills the Reasoning field of every match in place. The top ranks
// get model-generated text; any model failure degrades to a deterministic
// fallback built from local mentor data, so the result is always non-empty.
func (g *ReasoningGenerator) Annotate(ctx context.Context, student models.Person, mentors []models.Person, matches []models.MatchResult) {
	byID := make(map[string]models.Person, len(mentors))
	for _, m := range mentors {
		byID[m.ID] = m
	}

	for i := range matches {
		mentor, ok := byID[matches[i].MentorID]
		if !ok {
			continue
		}
		if i < reasoningTopK {
			matches[i].Reasoning = g.generate(ctx, student, mentor, matches[i].Score)
		} else {
			matches[i].Reasoning = templatedReasoning(mentor, matches[i].Score)
		}
	}
}

func (g *ReasoningGenerator) generate(ctx context.Context, student, mentor models.Person, score int) string {
	prompt := fmt.Sprintf(reasoningPromptTemplate,
		orNone(student.Goals),
		orNone(student.Bio),
		joinOrNone(student.Interests),
		joinOrNone(student.Subjects),
		strings.TrimSpace(mentor.FirstName+" "+mentor.LastName),
		orNone(mentor.Role),
		orNone(mentor.Bio),
		joinOrNone(mentor.Skills),
		joinOrNone(mentor.Interests),
		score,
	)

	text, err := g.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: g.config.ReasoningTemperature,
		MaxTokens:   g.config.ReasoningMaxTokens,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			g.logger.Warn("reasoning generation failed, using fallback", map[string]interface{}{
				"mentorId": mentor.ID,
				"error":    err.Error(),
			})
		}
		return fallbackReasoning(mentor)
	}
	return strings.TrimSpace(text)
}

// fallbackReasoning builds an explanation from local mentor data only, for
// when the model is unavailable.
func fallbackReasoning(mentor models.Person) string {
	if len(mentor.Skills) > 0 {
		skills := mentor.Skills
		if len(skills) > 2 {
			skills = skills[:2]
		}
		return fmt.Sprintf("This mentor brings experience in %s and can support your development in these areas.",
			strings.Join(skills, " and "))
	}

	bio := strings.TrimSpace(mentor.Bio)
	if bio != "" {
		return fmt.Sprintf("This mentor's background speaks for itself: %s", truncate(bio, 120))
	}

	return "This mentor's profile aligns well with your interests and goals."
}

func templatedReasoning(mentor models.Person, score int) string {
	name := strings.TrimSpace(mentor.FirstName)
	if name == "" {
		name = "This mentor"
	}
	return fmt.Sprintf("%s matches your profile with a compatibility score of %d out of 100.", name, score)
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

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "not specified"
	}
	return strings.Join(values, ", ")
}
