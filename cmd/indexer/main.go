// Command indexer builds the vector-store artifact the API server loads at
// startup. It scans a documents folder, chunks and embeds every supported
// file, and persists the collection to disk. With -watch it keeps running
// and re-indexes files as they change.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mammochat/api/config"
	"github.com/mammochat/api/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	docsDir := flag.String("docs", "./docs", "Path to the documents folder to index")
	storePath := flag.String("store", "./vectorstore", "Path of the persistent vector store to write")
	collectionName := flag.String("collection", config.DefaultCollection, "Collection name inside the store")
	rebuild := flag.Bool("rebuild", false, "Drop the collection and re-embed everything")
	watch := flag.Bool("watch", false, "Keep running and re-index files as they change")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on environment variables")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY environment variable not set")
	}
	embeddingModel := os.Getenv("EMBEDDING_MODEL")
	if embeddingModel == "" {
		embeddingModel = config.DefaultEmbeddingModel
	}

	db, err := chromem.NewPersistentDB(*storePath, false)
	if err != nil {
		log.Fatal().Err(err).Str("store", *storePath).Msg("failed to open vector store")
	}

	stateFile := filepath.Join(*storePath, "index-state.json")
	if *rebuild {
		if err := db.DeleteCollection(*collectionName); err != nil {
			log.Warn().Err(err).Msg("could not drop existing collection")
		}
		if err := os.Remove(stateFile); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("could not remove index state")
		}
	}

	embed := chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(embeddingModel))
	collection, err := db.GetOrCreateCollection(*collectionName,
		map[string]string{"description": "medical knowledge base"}, embed)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get or create collection")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexer := services.NewFileIndexingService(collection, stateFile)
	if err := indexer.ScanAndIndexDirectory(ctx, *docsDir); err != nil {
		log.Fatal().Err(err).Msg("indexing failed")
	}
	log.Info().Int("documents", collection.Count()).Msg("vector store ready")

	if *watch {
		if err := indexer.WatchDirectory(ctx, *docsDir); err != nil {
			log.Fatal().Err(err).Msg("watcher failed")
		}
	}
}
