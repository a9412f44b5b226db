package task

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStatus indicates a status outside the task lifecycle.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrInvalidTransition indicates a backward or skipping transition.
	ErrInvalidTransition = errors.New("invalid task status transition")
)

var rank = map[Status]int{
	StatusPending:    0,
	StatusAccepted:   1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := rank[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// ValidateTransition checks that moving from one status to another is a
// forward step the client is allowed to request.
//
// pending -> accepted, accepted -> in_progress, accepted -> completed and
// in_progress -> completed are the only permitted moves.
func ValidateTransition(from, to Status) error {
	if _, ok := rank[from]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, from)
	}
	if _, ok := rank[to]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	valid := false
	switch from {
	case StatusPending:
		valid = to == StatusAccepted
	case StatusAccepted:
		valid = to == StatusInProgress || to == StatusCompleted
	case StatusInProgress:
		valid = to == StatusCompleted
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CanAccept reports whether the task may be accepted.
func (t Task) CanAccept() bool {
	return ValidateTransition(t.Status, StatusAccepted) == nil
}

// CanComplete reports whether the task may be completed by its assignee.
// Completion is only offered for accepted tasks, which keeps a pending task
// from skipping acceptance.
func (t Task) CanComplete() bool {
	return t.Status == StatusAccepted
}
