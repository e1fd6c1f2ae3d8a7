package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/quantmind-br/bundlecheck/internal/domain"
)

// MockBundleVerifier mocks the BundleVerifier interface
type MockBundleVerifier struct {
	mock.Mock
}

// VerifyResult mocks a bundle verification
func (m *MockBundleVerifier) VerifyResult(path string, strict bool) domain.Result {
	args := m.Called(path, strict)
	return args.Get(0).(domain.Result)
}

// MockSumsVerifier mocks the SumsVerifier interface
type MockSumsVerifier struct {
	mock.Mock
}

// VerifyResult mocks a sums file verification
func (m *MockSumsVerifier) VerifyResult(path string) domain.Result {
	args := m.Called(path)
	return args.Get(0).(domain.Result)
}
