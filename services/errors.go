package services

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound      = errors.New("no document found for process number")
	ErrAmbiguousDocument     = errors.New("more than one document found for process number")
	ErrInvalidPromptTemplate = errors.New("invalid prompt template")
	ErrEmptyModelResponse    = errors.New("model returned no text")
)

// LookupError is returned by every DocumentLocator. It keeps the process
// number next to the cause, which is either one of the sentinels above or
// the backend error as the store client reported it.
type LookupError struct {
	CaseID int64
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("document lookup for process number %d: %v", e.CaseID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
