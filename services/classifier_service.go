package services

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// Classifier produces the malignancy probability for a preprocessed image.
// Implementations must be safe for concurrent calls.
type Classifier interface {
	Predict(ctx context.Context, tensor *ImageTensor) (float32, error)
}

// ONNXClassifier runs a pre-trained sigmoid-output CNN through ONNX Runtime.
// The session is created once at startup and only read afterwards, so
// concurrent Predict calls need no locking.
type ONNXClassifier struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

// NewONNXClassifier loads the model artifact at modelPath. sharedLibrary
// optionally points at the ONNX Runtime shared object for hosts where it is
// not on the default loader path. A missing or unreadable artifact is a
// startup failure.
func NewONNXClassifier(modelPath, sharedLibrary string) (*ONNXClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("classifier model artifact not found: %w", err)
	}

	if sharedLibrary != "" {
		ort.SetSharedLibraryPath(sharedLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize onnx runtime: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model %s: %w", modelPath, err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected a single-input single-output model, got %d inputs and %d outputs", len(inputs), len(outputs))
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference session: %w", err)
	}

	log.Info().
		Str("model", modelPath).
		Str("input", inputs[0].Name).
		Str("output", outputs[0].Name).
		Msg("classifier model loaded")

	return &ONNXClassifier{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}, nil
}

// Predict runs one inference and returns the raw sigmoid probability of the
// malignant class.
func (c *ONNXClassifier) Predict(ctx context.Context, tensor *ImageTensor) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	shape := ort.NewShape(1, int64(tensor.Height), int64(tensor.Width), int64(tensor.Channels))
	input, err := ort.NewTensor(shape, tensor.Data)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	if err := c.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("inference run failed: %w", err)
	}

	probs := output.GetData()
	if len(probs) == 0 {
		return 0, fmt.Errorf("model produced no output")
	}
	return probs[0], nil
}

// Close releases the inference session. Call once at shutdown.
func (c *ONNXClassifier) Close() error {
	return c.session.Destroy()
}
