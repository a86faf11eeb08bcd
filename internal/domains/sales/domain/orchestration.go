package domain

import "fmt"

// State is a step in the lifecycle of a single sale orchestration.
type State string

const (
	StateStarted          State = "started"
	StateValidating       State = "validating"
	StateValidationFailed State = "validation_failed"
	StateWriting          State = "writing"
	StateWriteFailed      State = "write_failed"
	StateRolledBack       State = "rolled_back"
	StateCommitted        State = "committed"
)

var transitions = map[State][]State{
	StateStarted:          {StateValidating, StateValidationFailed},
	StateValidating:       {StateValidationFailed, StateWriting},
	StateValidationFailed: {StateRolledBack},
	StateWriting:          {StateWriteFailed, StateCommitted},
	StateWriteFailed:      {StateRolledBack},
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateRolledBack || s == StateCommitted
}

// Orchestration tracks the state machine of one sale attempt. It is not safe for
// concurrent use; each attempt owns its own instance.
type Orchestration struct {
	state   State
	history []State
}

// NewOrchestration starts a new attempt in StateStarted.
func NewOrchestration() *Orchestration {
	return &Orchestration{state: StateStarted, history: []State{StateStarted}}
}

// State returns the current state.
func (o *Orchestration) State() State {
	return o.state
}

// History returns every state visited, oldest first.
func (o *Orchestration) History() []State {
	return append([]State(nil), o.history...)
}

// Advance moves to the next state if the transition is legal.
func (o *Orchestration) Advance(next State) error {
	for _, allowed := range transitions[o.state] {
		if allowed == next {
			o.state = next
			o.history = append(o.history, next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.state, next)
}

// Fail records the failure state matching the current phase followed by the rollback.
// Failures raised before validation began are attributed to validation.
func (o *Orchestration) Fail() {
	switch o.state {
	case StateStarted, StateValidating:
		_ = o.Advance(StateValidationFailed)
	case StateWriting:
		_ = o.Advance(StateWriteFailed)
	}
	_ = o.Advance(StateRolledBack)
}
