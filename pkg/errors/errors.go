package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kinds reported in failure payloads.
const (
	KindTransport      = "transport"
	KindValidation     = "validation"
	KindAmbiguousMatch = "ambiguous_match"
	KindParse          = "parse"
	KindExecution      = "execution"
	KindInternal       = "internal"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures a missing or invalid parameter. It is always
// raised before any network call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TransportError reports a network failure or an unexpected HTTP status.
// StatusCode is zero when no response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// NewTransportError constructs a TransportError for a request that never got a response.
func NewTransportError(method, url string, err error) error {
	return &TransportError{Method: method, URL: url, Err: err}
}

// NewStatusError constructs a TransportError for an unexpected response status.
func NewStatusError(method, url string, status int, body []byte) error {
	return &TransportError{Method: method, URL: url, StatusCode: status, Body: string(body)}
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "transport error: %s %s", e.Method, e.URL)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", body)
	}
	return b.String()
}

// Unwrap exposes the underlying network error, if any.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AmbiguousMatchError is raised when more than one remote resource carries
// the same natural key and the run refuses to pick one.
type AmbiguousMatchError struct {
	Key     string
	Matches int
}

// NewAmbiguousMatchError constructs an AmbiguousMatchError.
func NewAmbiguousMatchError(key string, matches int) error {
	return &AmbiguousMatchError{Key: key, Matches: matches}
}

func (e *AmbiguousMatchError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("ambiguous match: %d remote resources share the key %q", e.Matches, e.Key)
}

// ExecutionError ties a failure to the resource being reconciled.
type ExecutionError struct {
	Resource string
	Err      error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(resource string, err error) error {
	return &ExecutionError{Resource: resource, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Resource != "" {
		return fmt.Sprintf("reconcile %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("reconcile: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind classifies err for failure payloads. The innermost typed error wins,
// so an ExecutionError wrapping a TransportError reports "transport".
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var (
		transportErr  *TransportError
		validationErr *ValidationError
		ambiguousErr  *AmbiguousMatchError
		parseErr      *ParseError
		executionErr  *ExecutionError
	)

	switch {
	case stderrors.As(err, &transportErr):
		return KindTransport
	case stderrors.As(err, &validationErr):
		return KindValidation
	case stderrors.As(err, &ambiguousErr):
		return KindAmbiguousMatch
	case stderrors.As(err, &parseErr):
		return KindParse
	case stderrors.As(err, &executionErr):
		return KindExecution
	default:
		return KindInternal
	}
}
