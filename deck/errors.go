package deck

import "errors"

var (
	// ErrTemplateUnreadable marks uploads that cannot be used at all:
	// oversized files, broken zip containers, or archives that are not
	// presentations. Surfaced to the caller as a user error.
	ErrTemplateUnreadable = errors.New("template unreadable")

	// ErrAssemblyFailed marks container-write failures while producing the
	// output deck. No partial output accompanies it.
	ErrAssemblyFailed = errors.New("assembly failed")
)
