package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mammochat/api/models"
	"github.com/mammochat/api/services"
)

// maxUploadBytes caps how much of an uploaded image is read into memory.
const maxUploadBytes = 16 << 20

// APIController handles the HTTP requests for the classification and Q&A
// API. It depends on the service layer to perform the actual business logic.
type APIController struct {
	predictService services.PredictService
	qaService      services.QAService
}

// NewAPIController is a constructor function that creates a new
// APIController. This is called from main.go to inject the service
// dependencies.
func NewAPIController(predict services.PredictService, qa services.QAService) *APIController {
	return &APIController{
		predictService: predict,
		qaService:      qa,
	}
}

// PredictImage is the Gin handler for the POST /predict-image endpoint. It
// reads the multipart file, calls the service layer, and returns the HTTP
// response.
func (c *APIController) PredictImage(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file upload: " + err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "could not open uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "could not read uploaded file: " + err.Error()})
		return
	}

	declaredType := fileHeader.Header.Get("Content-Type")

	// Delegate the core logic to the service layer. We extract the standard
	// context from Gin's context so a client disconnect cancels the work.
	response, err := c.predictService.PredictImage(ctx.Request.Context(), data, declaredType)
	if err != nil {
		ctx.JSON(statusForError(err), models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// AskQuestion is the Gin handler for the POST /ask-question endpoint. It
// orchestrates the retrieval-then-generate pipeline by calling the service
// layer.
func (c *APIController) AskQuestion(ctx *gin.Context) {
	var req models.AskQuestionRequest

	// Use Gin's binding to parse the incoming JSON.
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	response, err := c.qaService.AskQuestion(ctx.Request.Context(), req.Question)
	if err != nil {
		ctx.JSON(statusForError(err), models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// statusForError maps the service error taxonomy onto HTTP statuses. Unknown
// errors default to 500 so nothing leaks as a false success.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrDecode), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrInference), errors.Is(err, services.ErrRetrieval):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
