package gitremote

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Repository
	}{
		{"git@bitbucket.org:acme/api.git", Repository{"acme", "api"}},
		{"ssh://git@bitbucket.org/acme/api.git", Repository{"acme", "api"}},
		{"https://bot@bitbucket.org/acme/api.git", Repository{"acme", "api"}},
		{"https://bitbucket.org/acme/api", Repository{"acme", "api"}},
		{"https://bitbucket.org/acme/api/", Repository{"acme", "api"}},
		{"  git@bitbucket.org:acme/my.repo.git\n", Repository{"acme", "my.repo"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.raw)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsIncompleteURLs(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "bitbucket.org", "https://bitbucket.org/acme", "git@bitbucket.org:api.git"} {
		_, err := Parse(raw)
		require.Error(t, err, raw)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@bitbucket.org:acme/api.git"},
	})
	require.NoError(t, err)

	nested := filepath.Join(dir, "deploy", "env")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := Detect(nested, "")
	require.NoError(t, err)
	require.Equal(t, Repository{Workspace: "acme", Slug: "api"}, got)

	_, err = Detect(dir, "upstream")
	require.ErrorContains(t, err, `no remote "upstream"`)
}

func TestDetectOutsideRepository(t *testing.T) {
	t.Parallel()

	_, err := Detect(t.TempDir(), "")
	require.Error(t, err)
}
