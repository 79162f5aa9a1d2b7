package engine

import (
	"context"
	"fmt"

	"github.com/Simplici0/obra.works/internal/catalog"
)

// Availability is the answer of the guard for one category.
type Availability struct {
	Category     catalog.Category `json:"category"`
	Key          string           `json:"key,omitempty"`
	Status       Status           `json:"status"`
	CanCalculate bool             `json:"can_calculate"`
	Message      string           `json:"message"`
	// Err is the lookup failure behind a negative answer, if any.
	Err error `json:"-"`
}

// Guard checks the catalog before a calculation. It only reads.
type Guard struct {
	lookup catalog.Lookup
}

func NewGuard(lookup catalog.Lookup) *Guard {
	return &Guard{lookup: lookup}
}

// Check reports whether category (and key, when not empty) has a configured
// composition. Catalog failures degrade to StatusCatalogUnavailable.
func (g *Guard) Check(ctx context.Context, category catalog.Category, key string) Availability {
	a := Availability{Category: category, Key: key}

	ok, err := g.lookup.Configured(ctx, category, key)
	switch {
	case err != nil:
		a.Err = err
		a.Status = Classify(err)
		if a.Status != StatusCompositionUnavailable {
			a.Status = StatusCatalogUnavailable
		}
	case !ok:
		a.Err = fmt.Errorf("%s: %w", catalog.Request{Category: category, Key: key}, catalog.ErrCompositionNotFound)
		a.Status = StatusCompositionUnavailable
	default:
		a.Status = StatusReady
		a.CanCalculate = true
	}

	a.Message = a.Status.Message()
	return a
}

func (g *Guard) CanCalculate(ctx context.Context, category catalog.Category, key string) bool {
	return g.Check(ctx, category, key).CanCalculate
}

func (g *Guard) StatusMessage(ctx context.Context, category catalog.Category, key string) string {
	return g.Check(ctx, category, key).Message
}

// UnavailableError stops a calculation the guard refused.
type UnavailableError struct {
	Availability Availability
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Availability.Category, e.Availability.Message, e.Availability.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Availability.Err }
