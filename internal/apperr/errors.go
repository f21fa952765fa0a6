package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMalformedName marks a note name that cannot be mapped onto the tree:
	// empty, or containing an empty segment ("a..b", ".a", "a.").
	ErrMalformedName = errors.New("malformed note name")

	// ErrStructuralViolation marks an attempt to attach a node that already has a parent.
	ErrStructuralViolation = errors.New("structural violation")
)
