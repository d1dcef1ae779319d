package models

import (
	"fmt"
	"strings"
)

// RemoteHost is the only host repositories are fetched from
const RemoteHost = "github.com"

// RepositoryTarget is the commit a working directory must end up on
type RepositoryTarget struct {
	Repository string // owner/repo
	SHA        string
}

// RemoteURL returns the SSH clone URL, e.g. git@github.com:owner/repo.git
func (t RepositoryTarget) RemoteURL() string {
	return fmt.Sprintf("git@%s:%s.git", RemoteHost, t.Repository)
}

// ValidateRepositoryName checks the owner/repo form
func ValidateRepositoryName(repository string) error {
	owner, repo, found := strings.Cut(repository, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("repository %q must be in owner/repo form", repository)
	}
	if owner == "." || owner == ".." || repo == "." || repo == ".." {
		return fmt.Errorf("repository %q must be in owner/repo form", repository)
	}
	return nil
}
