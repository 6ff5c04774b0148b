package models

// Classification labels produced by the binary classifier.
const (
	LabelBenign    = "Benign"
	LabelMalignant = "Malignant"
)

// PredictImageResponse is the JSON returned by POST /predict-image.
// Confidence is the probability of the winning class, always in [0, 1].
type PredictImageResponse struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// AskQuestionResponse is the JSON returned by POST /ask-question.
type AskQuestionResponse struct {
	Answer  string           `json:"answer"`
	Sources []RetrievedChunk `json:"sources,omitempty"`
}

// ErrorResponse is the uniform error envelope for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
