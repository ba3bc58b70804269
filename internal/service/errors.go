package service

import "errors"

// ValidationError is a request the service refuses before contacting the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrEmailExists    = errors.New("email already exists")
	ErrEmailNotFound  = errors.New("email not found")
	ErrRecordNotFound = errors.New("record not found")

	// Store failures. The wrapped cause is for logs only.
	ErrSubmissionFailed = errors.New("submission failed")
	ErrFetchFailed      = errors.New("failed to fetch submissions")
	ErrLookupFailed     = errors.New("lookup failed")
	ErrUpdateFailed     = errors.New("update failed")
)
