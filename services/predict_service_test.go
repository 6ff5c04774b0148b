package services

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mammochat/api/models"
)

// fakeClassifier records calls and returns a fixed probability.
type fakeClassifier struct {
	prob  float32
	err   error
	calls int
}

func (f *fakeClassifier) Predict(ctx context.Context, tensor *ImageTensor) (float32, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.prob, nil
}

func TestPredictImageBenign(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.08}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{R: 120, G: 120, B: 120, A: 255})

	resp, err := svc.PredictImage(context.Background(), data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, models.LabelBenign, resp.Label)
	assert.InDelta(t, 0.92, resp.Confidence, 1e-6)
	assert.GreaterOrEqual(t, resp.Confidence, float32(0.5))
}

func TestPredictImageMalignant(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.9}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{A: 255})

	resp, err := svc.PredictImage(context.Background(), data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, models.LabelMalignant, resp.Label)
	assert.InDelta(t, 0.9, resp.Confidence, 1e-6)
}

func TestPredictImageThresholdBoundary(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.5}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{A: 255})

	resp, err := svc.PredictImage(context.Background(), data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, models.LabelMalignant, resp.Label)
}

func TestPredictImageIdempotent(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.3}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{R: 50, G: 60, B: 70, A: 255})

	first, err := svc.PredictImage(context.Background(), data, "image/png")
	require.NoError(t, err)
	second, err := svc.PredictImage(context.Background(), data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestPredictImageRejectsMediaTypeBeforeInference(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.9}
	svc := NewPredictService(NewPreprocessor(), classifier)

	_, err := svc.PredictImage(context.Background(), []byte("plain text content"), "text/plain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Zero(t, classifier.calls, "no inference must be attempted for a rejected upload")
}

func TestPredictImageMediaTypeParameters(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.2}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{A: 255})

	_, err := svc.PredictImage(context.Background(), data, "image/png; charset=binary")
	assert.NoError(t, err)
}

func TestPredictImageSniffsMissingMediaType(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.2}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{A: 255})

	_, err := svc.PredictImage(context.Background(), data, "")
	assert.NoError(t, err)

	_, err = svc.PredictImage(context.Background(), []byte("not an image at all"), "")
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestPredictImageDecodeError(t *testing.T) {
	classifier := &fakeClassifier{prob: 0.9}
	svc := NewPredictService(NewPreprocessor(), classifier)

	// Allowed declared type, unreadable bytes.
	_, err := svc.PredictImage(context.Background(), []byte{0x00, 0x01, 0x02}, "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Zero(t, classifier.calls)
}

func TestPredictImageInferenceError(t *testing.T) {
	classifier := &fakeClassifier{err: assert.AnError}
	svc := NewPredictService(NewPreprocessor(), classifier)
	data := encodePNG(t, 32, 32, color.RGBA{A: 255})

	_, err := svc.PredictImage(context.Background(), data, "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInference)
}
