package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mentormatch/internal/common/errors"
)

func TestComplete_Success(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/v1/chat/completions", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		gotAuth = req.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  hello there  "}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1/", "test-key", "test-model", 5*time.Second)
	text, err := client.Complete(context.Background(), Request{
		Prompt:      "say hi",
		Temperature: 0.3,
		MaxTokens:   100,
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", text)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "say hi", gotReq.Messages[0].Content)
	assert.Equal(t, 0.3, gotReq.Temperature)
	assert.Equal(t, 100, gotReq.MaxTokens)
}

func TestComplete_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotAuth = req.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", 5*time.Second)
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "model", 5*time.Second)
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeLLMCallFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "status 502", stdErr.Details)
}

func TestComplete_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "model", 5*time.Second)
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeLLMCallFailed, apperrors.CodeOf(err))
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "model", 5*time.Second)
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeLLMCallFailed, stdErr.Code)
	assert.Equal(t, "empty choices", stdErr.Details)
}

func TestComplete_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, "key", "model", time.Second)
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeLLMCallFailed, apperrors.CodeOf(err))
}
