package manifest

import "errors"

// Sentinel errors for the manifest package
var (
	// ErrMissingEntries indicates neither "entries" nor "files" holds an array
	ErrMissingEntries = errors.New("manifest missing entries/files list")

	// ErrInvalidFormat indicates the manifest is not a UTF-8 JSON object
	ErrInvalidFormat = errors.New("manifest must be a JSON object")

	// ErrInvalidPath indicates an entry path failed normalization
	ErrInvalidPath = errors.New("invalid entry path")

	// ErrInvalidSHA256 indicates an entry digest is not 64 hex characters
	ErrInvalidSHA256 = errors.New("invalid sha256")
)

// ValidationError reports a malformed field inside an admissible row.
// The message embeds the raw declared value.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(err error, detail string) *ValidationError {
	return &ValidationError{Err: err, Detail: detail}
}
