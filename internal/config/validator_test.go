package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	syncerrors "github.com/alexisbeaulieu97/bucketsync/pkg/errors"
)

func validConnection() Connection {
	return Connection{Workspace: "acme", RepoSlug: "api", Username: "bot", Password: "pw"}
}

func TestValidateRun(t *testing.T) {
	t.Parallel()

	variable := Resource{Kind: "variable", Variable: &Variable{Name: "API_KEY", Value: "abc"}}
	environment := Resource{Kind: "environment", Environment: &Environment{Name: "staging", Type: "Staging"}}

	tests := []struct {
		name      string
		run       Run
		wantField string
	}{
		{
			name: "valid variable",
			run:  Run{Connection: validConnection(), Resource: variable},
		},
		{
			name: "valid environment",
			run:  Run{Connection: validConnection(), Resource: environment},
		},
		{
			name:      "missing workspace",
			run:       Run{Connection: Connection{RepoSlug: "api", Username: "u", Password: "p"}, Resource: variable},
			wantField: "workspace",
		},
		{
			name:      "workspace with slash is rejected",
			run:       Run{Connection: Connection{Workspace: "acme/team", RepoSlug: "api", Username: "u", Password: "p"}, Resource: variable},
			wantField: "workspace",
		},
		{
			name:      "missing password",
			run:       Run{Connection: Connection{Workspace: "acme", RepoSlug: "api", Username: "u"}, Resource: variable},
			wantField: "password",
		},
		{
			name:      "invalid base url",
			run:       Run{Connection: Connection{Workspace: "acme", RepoSlug: "api", Username: "u", Password: "p", BaseURL: "not a url"}, Resource: variable},
			wantField: "base_url",
		},
		{
			name:      "invalid duplicate policy",
			run:       Run{Connection: validConnection(), Settings: Settings{Duplicates: "last"}, Resource: variable},
			wantField: "duplicates",
		},
		{
			name:      "missing variable value",
			run:       Run{Connection: validConnection(), Resource: Resource{Kind: "variable", Variable: &Variable{Name: "API_KEY"}}},
			wantField: "variable_value",
		},
		{
			name:      "missing environment type",
			run:       Run{Connection: validConnection(), Resource: Resource{Kind: "environment", Environment: &Environment{Name: "staging"}}},
			wantField: "environment.environment_type",
		},
		{
			name:      "kind without payload",
			run:       Run{Connection: validConnection(), Resource: Resource{Kind: "variable"}},
			wantField: "variable",
		},
		{
			name:      "unknown kind",
			run:       Run{Connection: validConnection(), Resource: Resource{Kind: "deployment"}},
			wantField: "kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateRun(tt.run)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var validationErr *syncerrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Contains(t, validationErr.Field, tt.wantField)
		})
	}
}

func TestValidateManifestAllowsSameKeyAcrossKinds(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Connection: validConnection(),
		Resources: []Resource{
			{Kind: "variable", Variable: &Variable{Name: "staging", Value: "1"}},
			{Kind: "environment", Environment: &Environment{Name: "staging", Type: "Staging"}},
		},
	}

	require.NoError(t, ValidateManifest(m))
}

func TestValidateManifestNil(t *testing.T) {
	t.Parallel()

	var validationErr *syncerrors.ValidationError
	require.ErrorAs(t, ValidateManifest(nil), &validationErr)
}
