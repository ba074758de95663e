package document

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidItems is returned when every submitted line was dropped.
	ErrNoValidItems = errors.New("no valid items")

	// ErrRenderFailed is returned when the PDF could not be produced.
	ErrRenderFailed = errors.New("document rendering failed")

	// ErrNumberUnavailable is returned when no document number could be
	// allocated.
	ErrNumberUnavailable = errors.New("document number unavailable")
)

// Error wraps a failed document request with what was being issued.
type Error struct {
	// Op is the operation that failed (e.g., "CreateChallan").
	Op string

	// Kind is "challan" or "invoice".
	Kind string

	// Number is the document number, once allocated.
	Number string

	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Number != "" {
		return fmt.Sprintf("document: %s failed (%s %s): %v", e.Op, e.Kind, e.Number, e.Err)
	}
	return fmt.Sprintf("document: %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to whoever submitted the request.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoValidItems):
		return "Add at least one valid item."
	case errors.Is(err, ErrNumberUnavailable):
		return "Could not allocate a document number, please retry."
	default:
		return "The document could not be created."
	}
}
