package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/bucketsync/internal/config"
	"github.com/alexisbeaulieu97/bucketsync/internal/gitremote"
	"github.com/alexisbeaulieu97/bucketsync/internal/render"
)

// Environment variables consulted when the matching flag is empty.
const (
	envUsername = "BITBUCKET_USERNAME"
	envPassword = "BITBUCKET_PASSWORD"
	envBaseURL  = "BITBUCKET_API_URL"
)

type rootFlags struct {
	check   bool
	verbose bool
	output  string

	workspace string
	repoSlug  string
	repoPath  string
	remote    string
	username  string
	password  string
	baseURL   string

	duplicates string
	timeout    int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "bucketsync",
		Short:         "bucketsync reconciles Bitbucket pipeline variables and deployment environments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&flags.check, "check", false, "Report what would change without calling any mutating endpoint")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	pf.StringVarP(&flags.output, "output", "o", string(render.FormatJSON), "Output format: "+strings.Join(render.Formats(), "|"))
	pf.StringVar(&flags.workspace, "workspace", "", "Bitbucket workspace")
	pf.StringVar(&flags.repoSlug, "repo-slug", "", "Repository slug")
	pf.StringVar(&flags.repoPath, "repo-path", "", "Local clone to infer workspace and repo slug from")
	pf.StringVar(&flags.remote, "remote", gitremote.DefaultRemote, "Git remote consulted with --repo-path")
	pf.StringVar(&flags.username, "username", "", "API username (default $"+envUsername+")")
	pf.StringVar(&flags.password, "password", "", "App password (default $"+envPassword+")")
	pf.StringVar(&flags.baseURL, "base-url", "", "API root (default $"+envBaseURL+" or "+config.DefaultBaseURL+")")
	pf.StringVar(&flags.duplicates, "duplicates", config.DuplicatesFirst, "Duplicate remote key policy: first|fail")
	pf.IntVar(&flags.timeout, "timeout", config.DefaultTimeout, "HTTP request timeout in seconds")

	cmd.AddCommand(newVariableCmd(flags))
	cmd.AddCommand(newEnvironmentCmd(flags))
	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// connection resolves the repository and credentials from flags, the
// environment and, when asked, the local clone's remote.
func (f *rootFlags) connection() (config.Connection, error) {
	conn := config.Connection{
		Workspace: f.workspace,
		RepoSlug:  f.repoSlug,
		Username:  f.username,
		Password:  f.password,
		BaseURL:   f.baseURL,
	}.Merge(config.Connection{
		Username: os.Getenv(envUsername),
		Password: os.Getenv(envPassword),
		BaseURL:  os.Getenv(envBaseURL),
	})

	if f.repoPath != "" && (conn.Workspace == "" || conn.RepoSlug == "") {
		repo, err := gitremote.Detect(f.repoPath, f.remote)
		if err != nil {
			return config.Connection{}, newCommandError(
				"infer repository",
				fmt.Sprintf("reading remote %q of %s", f.remote, f.repoPath),
				err,
				"Pass --workspace and --repo-slug explicitly.",
			)
		}
		conn = conn.Merge(config.Connection{Workspace: repo.Workspace, RepoSlug: repo.Slug})
	}

	return conn, nil
}

func (f *rootFlags) settings() config.Settings {
	return config.Settings{
		CheckMode:  f.check,
		Duplicates: f.duplicates,
		Timeout:    f.timeout,
	}
}
