package form

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by decoding and validation. Every *FieldError unwraps
// to exactly one of these, so callers can branch with errors.Is.
var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidType          = errors.New("invalid type")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrInvalidFormat        = errors.New("invalid format")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// FieldError carries the context of a decode or validation failure: the
// identifier of the input field (when known) and the offending key.
type FieldError struct {
	Identifier string
	Key        string
	Kind       error
	Detail     string
}

func (e *FieldError) Error() string {
	msg := e.Kind.Error()
	if e.Identifier != "" {
		msg = fmt.Sprintf("field %q: %s", e.Identifier, msg)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key %q)", msg, e.Key)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

func fieldError(kind error, identifier, key, format string, args ...any) *FieldError {
	return &FieldError{
		Identifier: identifier,
		Key:        key,
		Kind:       kind,
		Detail:     fmt.Sprintf(format, args...),
	}
}

// withContext fills in the identifier and key of the *FieldError inside err
// when it was produced without them. Errors that already carry a kind
// sentinel become a *FieldError of that kind; anything else is
// ErrInvalidFormat.
func withContext(err error, identifier, key string) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		if fe.Identifier == "" {
			fe.Identifier = identifier
		}
		if fe.Key == "" {
			fe.Key = key
		}
		return err
	}
	kind := ErrInvalidFormat
	for _, k := range kinds {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	detail := strings.TrimPrefix(err.Error(), kind.Error()+": ")
	return &FieldError{Identifier: identifier, Key: key, Kind: kind, Detail: detail}
}

var kinds = []error{
	ErrMissingRequiredField,
	ErrInvalidType,
	ErrTypeMismatch,
	ErrInvalidFormat,
	ErrInvalidConfiguration,
}
