package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mammochat/api/config"
	"github.com/mammochat/api/controller"
	"github.com/mammochat/api/services"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	// Load .env file from the current directory.
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Both artifacts are loaded once here and shared read-only across all
	// requests; a missing artifact aborts startup instead of serving
	// degraded responses.
	classifier, err := services.NewONNXClassifier(cfg.ModelPath, cfg.ONNXRuntimeLibrary)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load classifier model")
	}

	retriever, err := services.NewChromemRetriever(cfg.VectorStorePath, cfg.CollectionName, cfg.OpenAIKey, cfg.EmbeddingModel)
	if err != nil {
		// Fatal exits the process, so release the inference session first.
		classifier.Close()
		log.Fatal().Err(err).Msg("failed to load vector store")
	}

	generator := services.NewOpenAIGenerator(openai.NewClient(cfg.OpenAIKey), cfg.ChatModel, cfg.GenTimeout)

	predictService := services.NewPredictService(services.NewPreprocessor(), classifier)
	qaService := services.NewQAService(retriever, generator, cfg.RetrievalTopK)
	apiController := controller.NewAPIController(predictService, qaService)

	// Setup Gin router.
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(corsMiddleware())
	router.MaxMultipartMemory = 16 << 20

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome to Breast Cancer Classification & Chatbot API",
		})
	})

	// Add health check endpoint.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "mammochat-api",
		})
	})

	router.POST("/predict-image", apiController.PredictImage) // Endpoint to classify an uploaded image
	router.POST("/ask-question", apiController.AskQuestion)   // Endpoint to ask a question

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		classifier.Close()
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// requestLogger tags every request with an id and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Header("X-Request-ID", requestID)

		c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// corsMiddleware allows the chat front end, which runs as a separate
// process, to call the API from the browser.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
