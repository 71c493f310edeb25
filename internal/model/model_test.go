package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind Kind
		want bool
	}{
		{"variable is valid", KindVariable, true},
		{"environment is valid", KindEnvironment, true},
		{"empty is invalid", Kind(""), false},
		{"unknown is invalid", Kind("deployment"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.kind.IsValid())
		})
	}
}

func TestNewSideMasksSecuredValues(t *testing.T) {
	t.Parallel()

	t.Run("secured value is replaced by the mask token", func(t *testing.T) {
		t.Parallel()
		side := NewSide("TOKEN", "s3cr3t", true)
		require.Equal(t, MaskToken, side.Value)
		require.True(t, side.Secured)
	})

	t.Run("plain value is kept", func(t *testing.T) {
		t.Parallel()
		side := NewSide("API_KEY", "abc", false)
		require.Equal(t, "abc", side.Value)
	})
}

func TestVerdictMutates(t *testing.T) {
	t.Parallel()

	require.True(t, Verdict{Action: ActionCreate, Changed: true}.Mutates())
	require.False(t, Verdict{Action: ActionNone}.Mutates())
	require.False(t, Verdict{Action: ActionNone, Changed: true}.Mutates())
}

func TestDiffViewJSON(t *testing.T) {
	t.Parallel()

	view := DiffView{
		KeyField: "variable_name",
		Before:   NewSide("API_KEY", "", false),
		After:    NewSide("API_KEY", "abc", false),
	}
	require.True(t, view.Changed())

	data, err := json.Marshal(view)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"before": {"variable_name": "API_KEY", "value": "", "secured": false},
		"after":  {"variable_name": "API_KEY", "value": "abc", "secured": false}
	}`, string(data))
}

func TestOutcomeJSON(t *testing.T) {
	t.Parallel()

	t.Run("environment always reports uuid", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(Outcome{Kind: KindEnvironment, Msg: "Check mode: Environment 'staging' would be created", Changed: true})
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		require.Equal(t, true, doc["changed"])
		require.Contains(t, doc, "uuid")
		require.Equal(t, "", doc["uuid"])
		require.NotContains(t, doc, "failed")
	})

	t.Run("variable failure carries kind and partial result", func(t *testing.T) {
		t.Parallel()
		out := Outcome{
			Kind:      KindVariable,
			Msg:       "boom",
			Result:    map[string]any{"variable_name": "TOKEN", "new_value": MaskToken},
			Failed:    true,
			ErrorKind: "transport",
		}
		data, err := json.Marshal(out)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"changed": false,
			"msg": "boom",
			"result": {"variable_name": "TOKEN", "new_value": "**********"},
			"failed": true,
			"error_kind": "transport"
		}`, string(data))
	})
}
