package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/bucketsync/internal/bitbucket/bitbuckettest"
)

type commandResult struct {
	stdout string
	stderr string
	err    error
}

func executeCommand(args ...string) commandResult {
	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return commandResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newServer(t *testing.T) *bitbuckettest.Server {
	t.Helper()
	server := bitbuckettest.NewServer()
	t.Cleanup(server.Close)
	return server
}

func connectionArgs(server *bitbuckettest.Server) []string {
	return []string{
		"--workspace", "acme",
		"--repo-slug", "api",
		"--username", bitbuckettest.Username,
		"--password", bitbuckettest.Password,
		"--base-url", server.BaseURL(),
	}
}

func decodeDocument(t *testing.T, out string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc), out)
	return doc
}

func TestVariableCommandCreatesVariable(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	args := append([]string{"variable", "--name", "API_URL", "--value", "https://api.example.com"}, connectionArgs(server)...)

	res := executeCommand(args...)
	require.NoError(t, res.err)

	doc := decodeDocument(t, res.stdout)
	require.Equal(t, true, doc["changed"])
	require.Equal(t, "Variable 'API_URL' created successfully: https://api.example.com", doc["msg"])
	require.Contains(t, doc, "diff")

	stored := server.Variables()
	require.Len(t, stored, 1)
	require.Equal(t, "https://api.example.com", stored[0].Value)

	res = executeCommand(args...)
	require.NoError(t, res.err)
	require.Equal(t, false, decodeDocument(t, res.stdout)["changed"])
}

func TestVariableCommandCheckModeDoesNotMutate(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	server.AddVariable("API_URL", "old", false)

	args := append([]string{"variable", "--check", "--name", "API_URL", "--value", "new"}, connectionArgs(server)...)
	res := executeCommand(args...)
	require.NoError(t, res.err)

	doc := decodeDocument(t, res.stdout)
	require.Equal(t, true, doc["changed"])
	require.Equal(t, "Check mode: Variable 'API_URL' would be updated: old -> new", doc["msg"])
	require.Zero(t, server.Mutations())
	require.Equal(t, "old", server.Variables()[0].Value)
}

func TestSecretsNeverReachOutput(t *testing.T) {
	t.Parallel()

	const secret = "hunter2-rotated"
	server := newServer(t)
	server.AddVariable("DEPLOY_TOKEN", "hunter2", true)

	args := append([]string{"variable", "--verbose", "--name", "DEPLOY_TOKEN", "--value", secret, "--secured"}, connectionArgs(server)...)
	res := executeCommand(args...)
	require.NoError(t, res.err)

	require.NotContains(t, res.stdout, secret)
	require.NotContains(t, res.stderr, secret)
	require.NotContains(t, res.stderr, bitbuckettest.Password)
	require.Contains(t, res.stderr, "computed verdict")
	require.Equal(t, secret, server.Variables()[0].Value)

	for _, format := range []string{"text", "table"} {
		res = executeCommand(append(args, "--output", format)...)
		require.NoError(t, res.err)
		require.NotContains(t, res.stdout, secret, format)
	}
}

func TestEnvironmentCommand(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	args := append([]string{"environment", "--name", "staging", "--type", "Staging"}, connectionArgs(server)...)

	res := executeCommand(args...)
	require.NoError(t, res.err)

	doc := decodeDocument(t, res.stdout)
	require.Equal(t, true, doc["changed"])
	envs := server.Environments()
	require.Len(t, envs, 1)
	require.Equal(t, envs[0].UUID, doc["uuid"])

	res = executeCommand(args...)
	require.NoError(t, res.err)
	doc = decodeDocument(t, res.stdout)
	require.Equal(t, false, doc["changed"])
	require.Equal(t, envs[0].UUID, doc["uuid"])
}

func TestValidationFailsBeforeAnyRequest(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	res := executeCommand(
		"variable", "--name", "API_URL", "--value", "x", "--state", "gone",
		"--workspace", "acme", "--repo-slug", "api",
		"--username", bitbuckettest.Username, "--password", bitbuckettest.Password,
		"--base-url", server.BaseURL(),
	)
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "Suggestion:")

	doc := decodeDocument(t, res.stdout)
	require.Equal(t, true, doc["failed"])
	require.Equal(t, false, doc["changed"])
	require.Equal(t, "validation", doc["error_kind"])
	require.Empty(t, server.Requests())
}

func TestTransportFailureReportsPartialOutcome(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	server.FailNext(http.MethodGet, http.StatusForbidden, `{"error":{"message":"Access denied"}}`)

	args := append([]string{"variable", "--name", "API_URL", "--value", "x"}, connectionArgs(server)...)
	res := executeCommand(args...)
	require.Error(t, res.err)

	doc := decodeDocument(t, res.stdout)
	require.Equal(t, true, doc["failed"])
	require.Equal(t, "transport", doc["error_kind"])
	require.Contains(t, doc["msg"], "Access denied")
}

func TestCredentialsFromEnvironment(t *testing.T) {
	server := newServer(t)
	t.Setenv(envUsername, bitbuckettest.Username)
	t.Setenv(envPassword, bitbuckettest.Password)
	t.Setenv(envBaseURL, server.BaseURL())

	res := executeCommand("variable", "--workspace", "acme", "--repo-slug", "api", "--name", "A", "--value", "b")
	require.NoError(t, res.err)
	require.Len(t, server.Variables(), 1)
}

func TestRepositoryInferredFromGitRemote(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@bitbucket.org:acme/api.git"}})
	require.NoError(t, err)

	res := executeCommand(
		"variable", "--repo-path", dir, "--name", "A", "--value", "b",
		"--username", bitbuckettest.Username, "--password", bitbuckettest.Password,
		"--base-url", server.BaseURL(),
	)
	require.NoError(t, res.err)
	require.Equal(t, "/2.0/repositories/acme/api/pipelines_config/variables", server.Requests()[0].Path)

	res = executeCommand(
		"variable", "--repo-path", t.TempDir(), "--name", "A", "--value", "b",
		"--username", bitbuckettest.Username, "--password", bitbuckettest.Password,
	)
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "infer repository")
}

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bucketsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApplyManifest(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	server.AddVariable("KEEP", "same", false)

	path := writeManifest(t, `workspace: acme
repo_slug: api
resources:
  - kind: variable
    variable_name: KEEP
    variable_value: same
  - kind: variable
    variable_name: TOKEN
    variable_value: s3cr3t
    secured: true
  - kind: environment
    name: production
    environment_type: Production
`)

	res := executeCommand("apply", "-f", path,
		"--username", bitbuckettest.Username, "--password", bitbuckettest.Password,
		"--base-url", server.BaseURL())
	require.NoError(t, res.err)
	require.NotContains(t, res.stdout, "s3cr3t")

	var doc struct {
		Changed bool             `json:"changed"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	require.True(t, doc.Changed)
	require.Len(t, doc.Results, 3)
	require.Equal(t, false, doc.Results[0]["changed"])
	require.Equal(t, true, doc.Results[1]["changed"])
	require.Equal(t, true, doc.Results[2]["changed"])

	require.Len(t, server.Variables(), 2)
	require.Len(t, server.Environments(), 1)
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	server.FailNext(http.MethodPost, http.StatusBadRequest, `{"error":{"message":"bad environment type"}}`)

	path := writeManifest(t, `workspace: acme
repo_slug: api
resources:
  - kind: environment
    name: qa
    environment_type: Nope
  - kind: variable
    variable_name: NEVER
    variable_value: reached
`)

	res := executeCommand("apply", "-f", path,
		"--username", bitbuckettest.Username, "--password", bitbuckettest.Password,
		"--base-url", server.BaseURL())
	require.Error(t, res.err)

	var doc struct {
		Failed  bool             `json:"failed"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	require.True(t, doc.Failed)
	require.Len(t, doc.Results, 1)
	require.Contains(t, doc.Results[0]["msg"], "bad environment type")
	require.Empty(t, server.Variables())
}

func TestApplyCheckFlagOverridesManifest(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	path := writeManifest(t, `workspace: acme
repo_slug: api
settings:
  check_mode: false
resources:
  - kind: variable
    variable_name: A
    variable_value: b
`)

	res := executeCommand("apply", "-f", path, "--check", "--output", "table",
		"--username", bitbuckettest.Username, "--password", bitbuckettest.Password,
		"--base-url", server.BaseURL())
	require.NoError(t, res.err)
	require.Contains(t, res.stdout, "Check mode")
	require.Zero(t, server.Mutations())
}

func TestApplyRejectsInvalidManifests(t *testing.T) {
	t.Parallel()

	res := executeCommand("apply", "-f", "/path/does/not/exist")
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "does not exist")

	path := writeManifest(t, `workspace: acme
repo_slug: api
resources:
  - kind: variable
    variable_name: A
    variable_value: b
  - kind: variable
    variable_name: A
    variable_value: c
`)
	res = executeCommand("apply", "-f", path, "--username", "u", "--password", "p")
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "duplicate")
}

func TestValidateManifestPath(t *testing.T) {
	t.Parallel()

	_, err := validateManifestPath("   ")
	require.ErrorContains(t, err, "required")

	_, err = validateManifestPath(t.TempDir())
	require.ErrorContains(t, err, "is a directory")

	path := writeManifest(t, "resources: []\n")
	abs, err := validateManifestPath(path)
	require.NoError(t, err)
	require.Equal(t, path, abs)
}

func TestUnknownOutputFormat(t *testing.T) {
	t.Parallel()

	server := newServer(t)
	args := append([]string{"variable", "--name", "A", "--value", "b", "--output", "xml"}, connectionArgs(server)...)
	res := executeCommand(args...)
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "unknown output format")
	require.Empty(t, server.Requests())
}
