package catalog

import (
	"errors"
	"fmt"
)

// ErrCompositionNotFound reports that a category has no configured items.
var ErrCompositionNotFound = errors.New("composition not configured")

// ServiceError is a transient failure talking to the catalog.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Retryable is always true; not-found is reported through
// ErrCompositionNotFound instead.
func (e *ServiceError) Retryable() bool { return true }

// IsServiceError reports whether err is a catalog service failure.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
