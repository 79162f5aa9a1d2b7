package engine

import (
	"context"
	"errors"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/pricing"
	"github.com/Simplici0/obra.works/internal/quantity"
)

// Status classifies the outcome of a calculation for the caller.
type Status string

const (
	StatusReady                  Status = "ready"
	StatusCompositionUnavailable Status = "composition_unavailable"
	StatusCatalogUnavailable     Status = "catalog_unavailable"
	StatusInvalidParameter       Status = "invalid_parameter"
	StatusInconsistent           Status = "aggregation_inconsistency"
	StatusSuperseded             Status = "superseded"
	StatusError                  Status = "error"
)

var statusMessages = map[Status]string{
	StatusReady:                  "ready to calculate",
	StatusCompositionUnavailable: "this product line isn't set up yet",
	StatusCatalogUnavailable:     "catalog temporarily unavailable",
	StatusInvalidParameter:       "check the highlighted parameter",
	StatusInconsistent:           "the budget could not be totalled; no values were produced",
	StatusSuperseded:             "replaced by a newer calculation",
	StatusError:                  "unexpected error",
}

// Message is the human-readable text shown for a status.
func (s Status) Message() string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return statusMessages[StatusError]
}

// Recoverable reports whether retrying with the same inputs may succeed.
func (s Status) Recoverable() bool {
	return s == StatusCatalogUnavailable || s == StatusSuperseded
}

// ErrSuperseded is returned by a session run replaced by a newer one.
var ErrSuperseded = errors.New("calculation superseded by a newer request")

// Classify maps an error from any stage to a Status.
func Classify(err error) Status {
	var ipe *quantity.InvalidParameterError
	switch {
	case err == nil:
		return StatusReady
	case errors.Is(err, ErrSuperseded):
		return StatusSuperseded
	case errors.As(err, &ipe):
		return StatusInvalidParameter
	case errors.Is(err, catalog.ErrCompositionNotFound), errors.Is(err, quantity.ErrCompositionInvalid):
		return StatusCompositionUnavailable
	case errors.Is(err, pricing.ErrAggregationInconsistency):
		return StatusInconsistent
	case catalog.IsServiceError(err), errors.Is(err, context.DeadlineExceeded):
		return StatusCatalogUnavailable
	default:
		return StatusError
	}
}

// ErrNotReady is returned when re-aggregating a session without a result.
var ErrNotReady = errors.New("session has no ready result")
