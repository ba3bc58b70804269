package recordstore

import (
	"context"
	"errors"
	"fmt"

	"formgateway/internal/model"
)

var (
	// ErrNotFound is returned when an update targets a record the store does not have.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned by stores that enforce email uniqueness themselves.
	ErrDuplicateEmail = errors.New("email already stored")
)

// Store is the external system of record for submissions.
type Store interface {
	CreateRecord(ctx context.Context, fields model.Fields) (model.Record, error)
	ListRecords(ctx context.Context, query Query) *Pager
	UpdateRecord(ctx context.Context, id string, fields model.Fields) error
}

// Query narrows a list operation. An empty Email lists everything.
// Email matching is case-insensitive.
type Query struct {
	Email string
}

// APIError is a non-2xx answer from an HTTP record store.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("record store responded with status %d: %s", e.Status, e.Body)
}
