package queryerr

import (
	"errors"
	"fmt"
	"strings"
)

// Client-class errors. Each describes a request the engine refuses to translate;
// callers map them to 4xx-style responses.
var (
	// ErrUnknownEntity is returned when the registry has no descriptor for an entity name.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidField is returned when a filter key is not declared on the entity,
	// names an unknown relation, or uses an operator the field's type does not support.
	ErrInvalidField = errors.New("invalid field")

	// ErrDuplicateFilter is returned when the same field (or relation+field pair)
	// is filtered more than once outside the operator-map form.
	ErrDuplicateFilter = errors.New("duplicate filter")

	// ErrCastError is returned when a raw value cannot be coerced to the field's type.
	ErrCastError = errors.New("cast error")

	// ErrUnsupportedFilter is returned when a filter cannot be expressed by the
	// backend it targets (joins and negated sets on the external service).
	ErrUnsupportedFilter = errors.New("unsupported filter")
)

// ErrBackend marks failures of the document store or the external search service.
// These are server-side faults and are never retried by the engine.
var ErrBackend = errors.New("backend failure")

// ErrorCategory classifies an error for transport-level status selection.
type ErrorCategory int

const (
	// CategoryUnknown is used for errors that did not originate in this module.
	CategoryUnknown ErrorCategory = iota
	// CategoryClient covers every rejection of the request itself.
	CategoryClient
	// CategoryBackend covers store and external-service failures.
	CategoryBackend
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryClient:
		return "client"
	case CategoryBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Error carries the offending entity, field and value of a rejected filter.
// It matches its Kind with errors.Is, so callers can test for the sentinels above.
type Error struct {
	Kind     error
	Entity   string
	Field    string
	Value    any
	Expected string
	Reason   string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Entity != "" {
		fmt.Fprintf(&b, ": entity %q", e.Entity)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Value != nil {
		fmt.Fprintf(&b, ": value %v", e.Value)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, ": expected %s", e.Expected)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Is reports whether target is the sentinel this error was created from.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// UnknownEntity builds an ErrUnknownEntity error.
func UnknownEntity(entity string) error {
	return &Error{Kind: ErrUnknownEntity, Entity: entity}
}

// InvalidField builds an ErrInvalidField error.
func InvalidField(entity, field, reason string) error {
	return &Error{Kind: ErrInvalidField, Entity: entity, Field: field, Reason: reason}
}

// DuplicateFilter builds an ErrDuplicateFilter error.
func DuplicateFilter(entity, field string) error {
	return &Error{Kind: ErrDuplicateFilter, Entity: entity, Field: field}
}

// CastError builds an ErrCastError error for a value that is not of the expected type.
func CastError(field string, raw any, expected string) error {
	return &Error{Kind: ErrCastError, Field: field, Value: raw, Expected: expected}
}

// Unsupported builds an ErrUnsupportedFilter error.
func Unsupported(entity, field, reason string) error {
	return &Error{Kind: ErrUnsupportedFilter, Entity: entity, Field: field, Reason: reason}
}

// Backend wraps a store or external-service failure. A nil err stays nil.
func Backend(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrBackend, operation, err)
}

// GetErrorCategory classifies err. Client-class sentinels win over ErrBackend
// so that a client error surfaced through a backend call keeps its category.
func GetErrorCategory(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrUnknownEntity),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrDuplicateFilter),
		errors.Is(err, ErrCastError),
		errors.Is(err, ErrUnsupportedFilter):
		return CategoryClient
	case errors.Is(err, ErrBackend):
		return CategoryBackend
	default:
		return CategoryUnknown
	}
}

// IsClientError reports whether err rejects the request itself.
func IsClientError(err error) bool {
	return GetErrorCategory(err) == CategoryClient
}

// IsBackendError reports whether err is a store or external-service failure.
func IsBackendError(err error) bool {
	return GetErrorCategory(err) == CategoryBackend
}
