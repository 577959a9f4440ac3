package repositories

import "fmt"

type storeError struct {
	op          string
	err         error
	notFound    bool
	unavailable bool
}

func (e *storeError) Error() string       { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *storeError) Unwrap() error       { return e.err }
func (e *storeError) IsNotFound() bool    { return e.notFound }
func (e *storeError) IsUnavailable() bool { return e.unavailable }

// NewNotFound builds a RepositoryError reporting a missing profile.
func NewNotFound(op string, err error) error {
	return &storeError{op: op, err: err, notFound: true}
}

// NewUnavailable builds a RepositoryError reporting a backend failure.
func NewUnavailable(op string, err error) error {
	return &storeError{op: op, err: err, unavailable: true}
}
