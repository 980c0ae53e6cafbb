package workflow

import "errors"

var (
	// ErrUnknownTransition is returned when a transition kind is not in the table
	ErrUnknownTransition = errors.New("unknown transition kind")

	// ErrSourceStatusMismatch is returned when a transition is applied to a
	// report whose current status is not a legal source for it
	ErrSourceStatusMismatch = errors.New("transition not allowed from current status")
)
