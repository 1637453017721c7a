package report

import (
	"errors"
	"fmt"
	"net/url"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Provenance identifies the repository a scanned directory belongs to.
type Provenance struct {
	RepositoryURI string
	RevisionID    string
	Branch        string
}

// DetectProvenance looks for a git repository at dir or any parent. It
// returns nil without error when dir is not inside a work tree, or when the
// repository has no remote to name it by.
func DetectProvenance(dir string) (*Provenance, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	uri := remoteURL(repo)
	if uri == "" {
		return nil, nil
	}
	p := &Provenance{RepositoryURI: uri}
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return p, nil
	}
	if head.Type() == plumbing.SymbolicReference {
		if head.Target().IsBranch() {
			p.Branch = head.Target().Short()
		}
		if resolved, err := repo.Reference(head.Target(), true); err == nil {
			p.RevisionID = resolved.Hash().String()
		}
	} else {
		p.RevisionID = head.Hash().String()
	}
	return p, nil
}

// remoteURL prefers origin, then the first configured remote. Credentials
// embedded in URL form are dropped.
func remoteURL(repo *git.Repository) string {
	var urls []string
	if r, err := repo.Remote(git.DefaultRemoteName); err == nil {
		urls = r.Config().URLs
	} else if all, err := repo.Remotes(); err == nil && len(all) > 0 {
		urls = all[0].Config().URLs
	}
	if len(urls) == 0 {
		return ""
	}
	return stripCredentials(urls[0])
}

func stripCredentials(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil || u.Scheme == "" {
		return raw
	}
	u.User = nil
	return u.String()
}
