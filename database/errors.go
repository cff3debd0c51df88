package database

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedPlaceholder means the connection descriptor is still a ${VAR} token.
	ErrUnresolvedPlaceholder = errors.New("connection placeholder is unresolved")

	// ErrUnsupportedScheme means no driver handles the connection URI.
	ErrUnsupportedScheme = errors.New("unsupported connection scheme")
)

// DataAccessError indicates the backing store could not be reached:
// bad descriptor, connection or authentication failure, or timeout.
// The connection string is never part of the message.
type DataAccessError struct {
	App string
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	if e.App == "" {
		return fmt.Sprintf("data access failed during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("data access failed for %s during %s: %v", e.App, e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// QueryError indicates the template could not be bound or executed.
type QueryError struct {
	App string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed for %s: %v", e.App, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
