package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mammochat/api/models"
)

// Generator produces a natural-language answer from a question and its
// retrieved context. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, question string, chunks []models.RetrievedChunk) (string, error)
}

// OpenAIGenerator answers questions with an OpenAI chat completion
// conditioned on the retrieved chunks. The call is made at most once per
// request; a client disconnect cancels it through the request context.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator creates a generator using the given chat model. timeout
// bounds each completion call; it is the dominant latency source of the
// whole service.
func NewOpenAIGenerator(client *openai.Client, model string, timeout time.Duration) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// Generate implements Generator. Temperature is pinned to zero so the same
// question over the same context stays as reproducible as the hosted model
// allows. An empty completion is an error, never an empty answer.
func (g *OpenAIGenerator) Generate(ctx context.Context, question string, chunks []models.RetrievedChunk) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	contextText := strings.Join(texts, "\n\n")

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: GetSystemPrompt()},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", contextText, question),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("chat completion returned an empty answer")
	}

	log.Debug().
		Str("model", g.model).
		Int("context_chunks", len(chunks)).
		Msg("generated answer")

	return answer, nil
}
