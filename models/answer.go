package models

// FallbackAnswer is the only text a caller ever sees when an answer could not
// be produced, whatever the cause.
const FallbackAnswer = "Sorry, an internal error occurred while processing your request. Could you please try again?"

// FailureKind tags why an answer could not be produced.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureLookupNotFound  FailureKind = "lookup_not_found"
	FailureLookupAmbiguous FailureKind = "lookup_ambiguous"
	FailureBackend         FailureKind = "backend_failure"
	FailureInvalidTemplate FailureKind = "invalid_template"
	FailureModel           FailureKind = "model_failure"
	FailureEmptyAnswer     FailureKind = "empty_answer"
)

// AnswerResult is the outcome of one answer generation: either the model text
// or a tagged failure with its cause.
type AnswerResult struct {
	Text    string
	Failure FailureKind
	Err     error
}

// Succeeded reports whether the result carries model text.
func (r AnswerResult) Succeeded() bool {
	return r.Failure == FailureNone
}

// Outcome is the metrics/log label for the result.
func (r AnswerResult) Outcome() string {
	if r.Succeeded() {
		return "success"
	}
	return string(r.Failure)
}

// ReplyText is the text to put in front of the caller. Failures of every
// kind collapse to FallbackAnswer here and nowhere else.
func (r AnswerResult) ReplyText() string {
	if !r.Succeeded() {
		return FallbackAnswer
	}
	return r.Text
}
