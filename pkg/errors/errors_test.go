package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("manifest.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "manifest.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "manifest.yaml:12")
}

func TestValidationErrorIncludesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("variable.name", "is required", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "variable.name", validationErr.Field)
	require.Equal(t, "validation error: variable.name: is required", err.Error())
}

func TestTransportErrorIncludesDiagnostics(t *testing.T) {
	t.Parallel()

	t.Run("status error carries endpoint, status and body", func(t *testing.T) {
		t.Parallel()
		err := NewStatusError("POST", "https://api.example.test/variables", 400, []byte(`{"error":"bad key"}`+"\n"))

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		require.Equal(t, 400, transportErr.StatusCode)
		require.Equal(t, `transport error: POST https://api.example.test/variables: status 400: {"error":"bad key"}`, err.Error())
	})

	t.Run("network error wraps cause", func(t *testing.T) {
		t.Parallel()
		cause := stdErrors.New("connection refused")
		err := NewTransportError("GET", "https://api.example.test", cause)

		require.True(t, stdErrors.Is(err, cause))
		require.Contains(t, err.Error(), "connection refused")
		require.NotContains(t, err.Error(), "status")
	})
}

func TestExecutionErrorIncludesResource(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("boom")
	err := NewExecutionError("variable API_KEY", underlying)

	var executionErr *ExecutionError
	require.ErrorAs(t, err, &executionErr)
	require.Equal(t, "variable API_KEY", executionErr.Resource)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "reconcile variable API_KEY: boom", err.Error())
}

func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"transport", NewStatusError("GET", "u", 500, nil), KindTransport},
		{"validation", NewValidationError("f", "m", nil), KindValidation},
		{"ambiguous", NewAmbiguousMatchError("KEY", 2), KindAmbiguousMatch},
		{"parse", NewParseError("p", 0, stdErrors.New("x")), KindParse},
		{"execution", NewExecutionError("r", stdErrors.New("x")), KindExecution},
		{"wrapped transport wins", NewExecutionError("r", NewTransportError("GET", "u", stdErrors.New("x"))), KindTransport},
		{"plain", stdErrors.New("x"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
