package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mammochat/api/models"
)

// newFakeOpenAI spins up a chat-completions endpoint that captures the last
// request and returns the given content.
func newFakeOpenAI(t *testing.T, content string, captured *openai.ChatCompletionRequest) *openai.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if captured != nil {
			*captured = req
		}

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = server.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestGenerateBuildsContextPrompt(t *testing.T) {
	var captured openai.ChatCompletionRequest
	client := newFakeOpenAI(t, "An answer. Disclaimer: ...", &captured)
	gen := NewOpenAIGenerator(client, "gpt-3.5-turbo", 5*time.Second)

	chunks := []models.RetrievedChunk{
		{Text: "first passage", Score: 0.9},
		{Text: "second passage", Score: 0.4},
	}
	answer, err := gen.Generate(context.Background(), "What is screening?", chunks)
	require.NoError(t, err)
	assert.Equal(t, "An answer. Disclaimer: ...", answer)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "ONLY the information available in the provided context")
	assert.Contains(t, captured.Messages[0].Content, "Disclaimer")

	user := captured.Messages[1].Content
	assert.Contains(t, user, "first passage")
	assert.Contains(t, user, "second passage")
	assert.Contains(t, user, "Question: What is screening?")
	// Most relevant context first.
	assert.Less(t, strings.Index(user, "first passage"), strings.Index(user, "second passage"))

	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	assert.Zero(t, captured.Temperature)
}

func TestGenerateEmptyCompletionIsError(t *testing.T) {
	client := newFakeOpenAI(t, "   ", nil)
	gen := NewOpenAIGenerator(client, "gpt-3.5-turbo", 5*time.Second)

	_, err := gen.Generate(context.Background(), "question", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestGenerateSurfacesTransportFailure(t *testing.T) {
	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = "http://127.0.0.1:1/v1" // nothing listens here
	gen := NewOpenAIGenerator(openai.NewClientWithConfig(cfg), "gpt-3.5-turbo", time.Second)

	_, err := gen.Generate(context.Background(), "question", nil)
	require.Error(t, err)
}
