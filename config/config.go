package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the optional settings. The retrieval depth and model names
// mirror the values the knowledge base was built and tuned with.
const (
	DefaultPort           = "8080"
	DefaultCollection     = "medical_knowledge"
	DefaultTopK           = 5
	DefaultChatModel      = "gpt-3.5-turbo"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultGenTimeout     = 60 * time.Second
)

// Config holds everything the server needs at startup. All values come from
// the environment (optionally seeded from a .env file by main).
type Config struct {
	Port            string
	OpenAIKey       string
	ModelPath       string
	VectorStorePath string
	CollectionName  string
	RetrievalTopK   int
	ChatModel       string
	EmbeddingModel  string
	GenTimeout      time.Duration

	// Optional path to the ONNX Runtime shared library, for hosts where it
	// is not on the default loader path.
	ONNXRuntimeLibrary string
}

// Load reads the configuration from the environment. The three artifact and
// credential settings are required; a missing one is a startup error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               envOrDefault("PORT", DefaultPort),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		ModelPath:          os.Getenv("MODEL_PATH"),
		VectorStorePath:    os.Getenv("VECTORSTORE_PATH"),
		CollectionName:     envOrDefault("COLLECTION_NAME", DefaultCollection),
		ChatModel:          envOrDefault("CHAT_MODEL", DefaultChatModel),
		EmbeddingModel:     envOrDefault("EMBEDDING_MODEL", DefaultEmbeddingModel),
		ONNXRuntimeLibrary: os.Getenv("ONNXRUNTIME_SHARED_LIBRARY"),
	}

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("MODEL_PATH environment variable not set")
	}
	if cfg.VectorStorePath == "" {
		return nil, fmt.Errorf("VECTORSTORE_PATH environment variable not set")
	}

	topK, err := envIntOrDefault("RETRIEVAL_TOP_K", DefaultTopK)
	if err != nil {
		return nil, err
	}
	if topK < 1 {
		return nil, fmt.Errorf("RETRIEVAL_TOP_K must be >= 1, got %d", topK)
	}
	cfg.RetrievalTopK = topK

	timeoutSecs, err := envIntOrDefault("GENERATION_TIMEOUT", int(DefaultGenTimeout/time.Second))
	if err != nil {
		return nil, err
	}
	if timeoutSecs < 1 {
		return nil, fmt.Errorf("GENERATION_TIMEOUT must be >= 1, got %d", timeoutSecs)
	}
	cfg.GenTimeout = time.Duration(timeoutSecs) * time.Second

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
