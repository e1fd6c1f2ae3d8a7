package mocks

import (
	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/mock"
)

// MockGitClient mocks the git Client interface
type MockGitClient struct {
	mock.Mock
}

// PlainOpenWithOptions mocks opening a repository
func (m *MockGitClient) PlainOpenWithOptions(path string, o *git.PlainOpenOptions) (*git.Repository, error) {
	args := m.Called(path, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*git.Repository), args.Error(1)
}
