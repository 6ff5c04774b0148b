package services

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/mammochat/api/models"
)

// Retriever returns the k chunks most similar to the query, ordered by
// descending score. Implementations must be safe for concurrent use.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error)
}

// ChromemRetriever serves similarity lookups from a pre-built chromem-go
// collection. The collection is opened once at startup and never written to
// by the server.
type ChromemRetriever struct {
	collection *chromem.Collection
}

// NewChromemRetriever opens the persisted vector store at storePath and
// resolves the named collection. Query embeddings are computed with the
// given OpenAI embedding model, which must match the one the store was built
// with. A missing or empty collection is a startup failure.
func NewChromemRetriever(storePath, collectionName, openAIKey, embeddingModel string) (*ChromemRetriever, error) {
	db, err := chromem.NewPersistentDB(storePath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store at %s: %w", storePath, err)
	}

	embed := chromem.NewEmbeddingFuncOpenAI(openAIKey, chromem.EmbeddingModelOpenAI(embeddingModel))
	collection := db.GetCollection(collectionName, embed)
	if collection == nil {
		return nil, fmt.Errorf("collection %q not found in vector store at %s; run the indexer first", collectionName, storePath)
	}
	if collection.Count() == 0 {
		return nil, fmt.Errorf("collection %q at %s is empty; run the indexer first", collectionName, storePath)
	}

	log.Info().
		Str("store", storePath).
		Str("collection", collectionName).
		Int("documents", collection.Count()).
		Msg("vector store loaded")

	return &ChromemRetriever{collection: collection}, nil
}

// NewChromemRetrieverFromCollection wraps an already open collection. Used by
// tests and by callers that manage the database themselves.
func NewChromemRetrieverFromCollection(collection *chromem.Collection) *ChromemRetriever {
	return &ChromemRetriever{collection: collection}
}

// Retrieve implements Retriever. k is clamped to the collection size since
// chromem rejects queries asking for more results than there are documents.
func (r *ChromemRetriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error) {
	if count := r.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, fmt.Errorf("vector store collection is empty")
	}

	results, err := r.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}

	chunks := make([]models.RetrievedChunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, models.RetrievedChunk{
			Text:  res.Content,
			Score: res.Similarity,
		})
	}
	return chunks, nil
}
