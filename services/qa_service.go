package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mammochat/api/models"
)

// QAService interface defines the retrieval-augmented question answering
// operation.
type QAService interface {
	AskQuestion(ctx context.Context, question string) (*models.AskQuestionResponse, error)
}

// qaServiceImpl holds the dependencies it needs to do its job.
type qaServiceImpl struct {
	retriever Retriever
	generator Generator
	topK      int
}

// NewQAService creates a new question-answering service instance. topK is the
// number of chunks retrieved for every question.
func NewQAService(retriever Retriever, generator Generator, topK int) QAService {
	return &qaServiceImpl{
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// AskQuestion implements QAService. The pipeline is a single linear
// transaction: validate, retrieve, re-order, generate. An empty question is
// rejected before any external call is made.
func (s *qaServiceImpl) AskQuestion(ctx context.Context, question string) (*models.AskQuestionResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}

	chunks, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	// The generator must always see the most relevant context first,
	// regardless of how the store ordered its raw results. The stable sort
	// keeps equal-score chunks in their original result order.
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	answer, err := s.generator.Generate(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	log.Info().
		Int("chunks", len(chunks)).
		Msg("question answered")

	return &models.AskQuestionResponse{
		Answer:  answer,
		Sources: chunks,
	}, nil
}
