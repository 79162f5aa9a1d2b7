package quantity

import (
	"errors"
	"fmt"
)

// InvalidParameterError reports a missing, non-positive or physically
// impossible input. Field uses the JSON name of the offending input.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// ErrCompositionInvalid reports catalog data the calculator cannot use, such
// as an unknown measure or a dependency on an item that comes later.
var ErrCompositionInvalid = errors.New("composition is misconfigured")

func invalid(field, format string, args ...any) error {
	return &InvalidParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func fieldIndex(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}
