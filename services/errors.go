package services

import "errors"

// Error kinds surfaced by the service layer. Handlers translate these into
// HTTP statuses with errors.Is; adapters attach the underlying cause so the
// original failure stays visible in logs.
var (
	// ErrUnsupportedMediaType means the uploaded file's media type is not in
	// the image allow-list. No decoding or inference is attempted.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrDecode means the bytes could not be decoded as an image.
	ErrDecode = errors.New("image decode failed")

	// ErrInference means the classifier failed on a decoded image.
	ErrInference = errors.New("inference failed")

	// ErrInvalidInput means the request was syntactically valid but
	// semantically empty, e.g. a whitespace-only question.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrieval means the vector store could not serve the query.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration means the hosted language model call failed or returned
	// an unusable completion.
	ErrGeneration = errors.New("answer generation failed")
)
