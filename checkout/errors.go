package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAccessDenied is returned when the actor may not access the order or step
	ErrAccessDenied = errors.New("access denied")

	// ErrOrderNotFound is returned when the order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrConflict is returned when the order changed since it was loaded
	ErrConflict = errors.New("the order was modified concurrently, please retry")

	// ErrStepNotFound is returned for step ids that are not part of the flow
	ErrStepNotFound = errors.New("checkout step not found")

	// ErrVariationNotFound is returned when a product variation does not exist
	ErrVariationNotFound = errors.New("product variation not found")

	// ErrItemNotFound is returned when a line item is not part of the cart
	ErrItemNotFound = errors.New("order item not found")

	// ErrReceiptNotFound is returned when no receipt was archived for the order
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrInvalidCredentials is returned when a returning customer cannot be authenticated
	ErrInvalidCredentials = errors.New("unrecognized username or password")
)

// Field error reasons
const (
	ReasonRequired         = "required"
	ReasonTaken            = "taken"
	ReasonIllegalCharacter = "illegal_character"
	ReasonInvalid          = "invalid"
	ReasonMismatch         = "mismatch"
	ReasonDeclined         = "declined"
	ReasonNotAllowed       = "not_allowed"
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ValidationError aggregates field errors from every pane of a step
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records an error for field
func (e *ValidationError) Add(field, reason, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Reason: reason, Message: message})
}

// Merge appends the errors of other
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Errors = append(e.Errors, other.Errors...)
	}
}

// HasErrors reports whether any field error was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors and nil otherwise, so a
// ValidationError can be built up and returned unconditionally
func (e *ValidationError) ErrOrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return e
}

// Prefixed returns a copy with every field name prefixed by "{prefix}."
func (e *ValidationError) Prefixed(prefix string) *ValidationError {
	out := &ValidationError{Errors: make([]FieldError, len(e.Errors))}
	for i, fe := range e.Errors {
		fe.Field = prefix + "." + fe.Field
		out.Errors[i] = fe
	}
	return out
}

// Find returns the first error recorded for field
func (e *ValidationError) Find(field string) (FieldError, bool) {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe, true
		}
	}
	return FieldError{}, false
}

// Messages returns the messages in the order they were recorded
func (e *ValidationError) Messages() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Message
	}
	return out
}

func isAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
