// Package status defines the lifecycle states of background brain-update tasks.
package status

import "errors"

// Status represents the lifecycle status of a queued task.
type Status string

const (
	StatusQueued     Status = "queued"      // Created, waiting for a worker
	StatusInProgress Status = "in_progress" // Picked up by a worker

	// Terminal states (no further transitions allowed)
	StatusCompleted Status = "completed" // Successfully finished
	StatusFailed    Status = "failed"    // Unrecoverable error
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ValidTransitions defines allowed status transitions.
var ValidTransitions = map[Status][]Status{
	StatusQueued:     {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusFailed},
	// Terminal states have no valid transitions
	StatusCompleted: {},
	StatusFailed:    {},
}

// CanTransitionTo checks if a transition from current status to target status is valid.
func (s Status) CanTransitionTo(target Status) bool {
	validTargets, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range validTargets {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts to transition to the target status and returns error if invalid.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}
