// Package vcs reports the source revision a site was built from.
package vcs

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Info describes the checked-out state of a repository.
type Info struct {
	Commit string // full HEAD commit hash
	Branch string // short branch name, empty for a detached HEAD
	Dirty  bool   // worktree has uncommitted changes
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.Commit) > 12 {
		return i.Commit[:12]
	}
	return i.Commit
}

// Inspect opens the repository containing dir and reads its HEAD.
func Inspect(dir string) (Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Info{}, fmt.Errorf("open repository: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return Info{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	info := Info{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		info.Branch = ref.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to be dirty.
		return info, nil
	}
	status, err := wt.Status()
	if err != nil {
		return info, fmt.Errorf("worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()
	return info, nil
}

// Revision returns the short HEAD hash of the repository containing dir,
// suffixed with "-dirty" when the worktree has changes.
func Revision(dir string) (string, error) {
	info, err := Inspect(dir)
	if err != nil {
		return "", err
	}
	if info.Dirty {
		return info.Short() + "-dirty", nil
	}
	return info.Short(), nil
}
