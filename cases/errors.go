package cases

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound signals the requested case does not exist.
	ErrNotFound = errors.New("cases: not found")
	// ErrInvalidConfirmations rejects updates that would break confirmations >= 1.
	ErrInvalidConfirmations = errors.New("cases: confirmations must be at least 1")
	// ErrMissingID rejects operations without a case id.
	ErrMissingID = errors.New("cases: missing case id")
)

// ValidationError lists the form fields that failed validation, keyed by
// field name. Nothing is written when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "cases: validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
