package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mammochat/api/models"
)

// Decision threshold on the sigmoid output: probabilities at or above it map
// to Malignant, everything below to Benign.
const classificationThreshold = 0.5

// allowedImageTypes is the fixed media-type allow-list for uploads. It covers
// exactly the formats the preprocessor can decode.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
}

// PredictService interface defines the image classification operation.
type PredictService interface {
	PredictImage(ctx context.Context, data []byte, declaredType string) (*models.PredictImageResponse, error)
}

// predictServiceImpl holds the dependencies it needs to do its job.
type predictServiceImpl struct {
	preprocessor *Preprocessor
	classifier   Classifier
}

// NewPredictService creates a new prediction service instance.
func NewPredictService(preprocessor *Preprocessor, classifier Classifier) PredictService {
	return &predictServiceImpl{
		preprocessor: preprocessor,
		classifier:   classifier,
	}
}

// PredictImage implements PredictService. The media-type check runs before
// any decoding or inference; a disallowed upload never touches the model.
func (s *predictServiceImpl) PredictImage(ctx context.Context, data []byte, declaredType string) (*models.PredictImageResponse, error) {
	mediaType := normalizeMediaType(declaredType, data)
	if !allowedImageTypes[mediaType] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}

	tensor, err := s.preprocessor.Preprocess(data)
	if err != nil {
		// Already carries ErrDecode.
		return nil, err
	}

	prob, err := s.classifier.Predict(ctx, tensor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	label := models.LabelBenign
	confidence := 1 - prob
	if prob >= classificationThreshold {
		label = models.LabelMalignant
		confidence = prob
	}

	log.Info().
		Str("label", label).
		Float32("confidence", confidence).
		Str("media_type", mediaType).
		Msg("image classified")

	return &models.PredictImageResponse{
		Label:      label,
		Confidence: confidence,
	}, nil
}

// normalizeMediaType strips parameters from the declared content type and
// falls back to sniffing when the client declared none.
func normalizeMediaType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return http.DetectContentType(data)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return mediaType
}
