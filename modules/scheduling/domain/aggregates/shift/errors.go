package shift

import (
	"fmt"

	gerrors "github.com/go-faster/errors"
)

var (
	ErrNotFound             = gerrors.New("shift not found")
	ErrAssignmentNotFound   = gerrors.New("assignment not found")
	ErrCancelReasonRequired = gerrors.New("cancellation requires a reason")
	// ErrNoActiveAssignment guards the assigned status: a shift cannot be
	// assigned without at least one active assignment backing it.
	ErrNoActiveAssignment = gerrors.New("shift has no active assignment")
)

// InvalidTransitionError names both sides of a rejected lifecycle move so
// callers can pick a legal one.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid shift transition from %q to %q", e.From, e.To)
}
