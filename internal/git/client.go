package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ErrNoWorktree indicates the repository is bare
var ErrNoWorktree = errors.New("repository has no worktree")

// RealClient implements Client using go-git
type RealClient struct{}

// NewClient creates a new RealClient
func NewClient() *RealClient {
	return &RealClient{}
}

// PlainOpenWithOptions calls git.PlainOpenWithOptions
func (c *RealClient) PlainOpenWithOptions(path string, o *git.PlainOpenOptions) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, o)
}

// FindRoot returns the worktree root of the repository enclosing start
func FindRoot(client Client, start string) (string, error) {
	repo, err := client.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository at %s: %w", start, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return "", ErrNoWorktree
		}
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

// RootOrDefault returns the enclosing worktree root of start, or start
// itself when it is not inside a repository
func RootOrDefault(client Client, start string) string {
	root, err := FindRoot(client, start)
	if err != nil {
		return start
	}
	return root
}
