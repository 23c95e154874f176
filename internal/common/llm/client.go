// Package llm provides a client for an OpenAI-compatible chat-completion API
// (OpenRouter in production).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "mentormatch/internal/common/errors"
	httpclient "mentormatch/internal/common/http"
)

// Client issues single-prompt completion requests.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *httpclient.Client
}

// Request carries the sampling parameters for one completion call.
type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  httpclient.NewClient(timeout),
	}
}

// Model returns the configured model id.
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt and returns the generated text. Network errors,
// non-2xx statuses and malformed bodies are mapped to the standard
// retryable LLM error codes; callers decide whether to retry or fall back.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", apperrors.NewLLMCallFailedError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", apperrors.NewLLMCallFailedError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", apperrors.NewLLMTimeoutError()
		}
		return "", apperrors.NewLLMCallFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewLLMCallFailedError(fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.NewLLMCallFailedError(fmt.Errorf("decode response: %w", err))
	}

	if len(parsed.Choices) == 0 {
		return "", apperrors.NewLLMCallFailedError(fmt.Errorf("empty choices"))
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
