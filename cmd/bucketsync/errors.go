package main

import (
	"fmt"

	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

func newCommandError(operation, context string, cause error, suggestion string) error {
	return &commandError{operation: operation, context: context, cause: cause, suggestion: suggestion}
}

type commandError struct {
	operation  string
	context    string
	cause      error
	suggestion string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("Failed to %s: %s\n\nError: %v\n\nSuggestion: %s", e.operation, e.context, e.cause, e.suggestion)
}

func (e *commandError) Unwrap() error {
	return e.cause
}

func suggestionFor(err error) string {
	switch syncerrors.Kind(err) {
	case syncerrors.KindTransport:
		return "Check the credentials, workspace and repository slug, and that the API is reachable."
	case syncerrors.KindAmbiguousMatch:
		return "Remove the duplicate remote entries or rerun with --duplicates first."
	case syncerrors.KindValidation:
		return "Fix the reported parameter and run the command again."
	case syncerrors.KindParse:
		return "Check the manifest YAML syntax near the reported line."
	default:
		return "Rerun with --verbose for request-level logs."
	}
}
