package models

// RetrievedChunk is a passage pulled from the vector store together with its
// similarity score. Slices of chunks are always ordered by descending score
// before being handed to the answer generator.
type RetrievedChunk struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}
