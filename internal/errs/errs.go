package errs

import "errors"

// Sentinel errors shared across layers. Wrap with fmt.Errorf("...: %w", err)
// and classify with errors.Is.
var (
	// ErrNotFound marks a missing record, or one owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks input that violates a domain constraint.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable marks a transient failure of an external collaborator.
	ErrUnavailable = errors.New("unavailable")
	// ErrAlreadyExists marks a unique constraint collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized marks missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
