package models

// AskQuestionRequest is the JSON body of POST /ask-question. Emptiness is
// checked in the service layer so that whitespace-only questions are rejected
// the same way as missing ones.
type AskQuestionRequest struct {
	Question string `json:"question"`
}
