// Package ingest runs the listening session: it admits gateway events for
// the target channel, attributes each attachment to a category, and persists
// the bytes under the dated partition layout until a download limit or an
// idle timeout closes the session.
package ingest

import (
	"fmt"
)

// State is the lifecycle phase of a session.
type State string

const (
	// StateStarting is the phase before the event subscription exists.
	StateStarting State = "starting"
	// StateListening means the session is waiting for qualifying events.
	StateListening State = "listening"
	// StateDownloading means an event's attachments are being persisted.
	StateDownloading State = "downloading"
	// StateClosing means a termination condition fired; no new event is
	// admitted while teardown runs.
	StateClosing State = "closing"
	// StateClosed is final.
	StateClosed State = "closed"
)

// validTransitions is the transition matrix. Every live state may close, the
// listening and downloading states alternate while events arrive, and closed
// is terminal.
var validTransitions = map[State]map[State]bool{
	StateStarting:    {StateListening: true, StateClosing: true},
	StateListening:   {StateDownloading: true, StateClosing: true},
	StateDownloading: {StateListening: true, StateClosing: true},
	StateClosing:     {StateClosed: true},
	StateClosed:      {},
}

// TransitionError reports an attempt to move the session between two states
// the matrix does not connect.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid session transition from %s to %s", e.From, e.To)
}

// transition validates a state change against the matrix.
func transition(from, to State) error {
	if !validTransitions[from][to] {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
