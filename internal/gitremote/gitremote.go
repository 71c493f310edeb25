// Package gitremote infers the Bitbucket workspace and repository slug from
// a local clone's remote URL.
package gitremote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// DefaultRemote is the remote consulted when none is named.
const DefaultRemote = "origin"

// Repository identifies a remote repository.
type Repository struct {
	Workspace string
	Slug      string
}

// Detect opens the clone containing path and parses the first URL of the
// named remote.
func Detect(path, remote string) (Repository, error) {
	if remote == "" {
		remote = DefaultRemote
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Repository{}, fmt.Errorf("open git repository %s: %w", path, err)
	}

	r, err := repo.Remote(remote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return Repository{}, fmt.Errorf("git repository %s has no remote %q", path, remote)
		}
		return Repository{}, fmt.Errorf("read remote %q: %w", remote, err)
	}

	urls := r.Config().URLs
	if len(urls) == 0 {
		return Repository{}, fmt.Errorf("remote %q has no URL", remote)
	}
	return Parse(urls[0])
}

// Parse extracts workspace and slug from an https, ssh or scp-style URL.
func Parse(raw string) (Repository, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repository{}, errors.New("empty remote URL")
	}

	var path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Repository{}, fmt.Errorf("parse remote URL %q: %w", raw, err)
		}
		path = u.Path
	} else {
		// scp-like: [user@]host:workspace/slug.git
		_, after, ok := strings.Cut(raw, ":")
		if !ok {
			return Repository{}, fmt.Errorf("unrecognised remote URL %q", raw)
		}
		path = after
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return Repository{}, fmt.Errorf("remote URL %q does not name a workspace and repository", raw)
	}

	return Repository{
		Workspace: parts[len(parts)-2],
		Slug:      parts[len(parts)-1],
	}, nil
}
