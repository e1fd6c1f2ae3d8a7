package git

import (
	"github.com/go-git/go-git/v5"
)

// Client defines the interface for Git operations
type Client interface {
	PlainOpenWithOptions(path string, o *git.PlainOpenOptions) (*git.Repository, error)
}
