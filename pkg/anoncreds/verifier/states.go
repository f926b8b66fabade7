/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

const (
	// StateNameRequested is the state of a session whose request was handed out.
	StateNameRequested = "requested"
	// StateNameReceived is the state of a session whose presentation is being verified.
	StateNameReceived = "received"
	// StateNameVerified is the state of a session whose presentation verified.
	StateNameVerified = "verified"
	// StateNameRejected is the state of a session whose presentation was rejected.
	StateNameRejected = "rejected"
)

// state of a presentation session.
type state interface {
	// Name of this state.
	Name() string
	// CanTransitionTo reports whether this state can move to next.
	CanTransitionTo(next state) bool
}

// requested state.
type requested struct{}

func (s *requested) Name() string {
	return StateNameRequested
}

func (s *requested) CanTransitionTo(next state) bool {
	return next.Name() == StateNameReceived
}

// received state.
type received struct{}

func (s *received) Name() string {
	return StateNameReceived
}

func (s *received) CanTransitionTo(next state) bool {
	return next.Name() == StateNameVerified || next.Name() == StateNameRejected
}

// verified state.
type verified struct{}

func (s *verified) Name() string {
	return StateNameVerified
}

func (s *verified) CanTransitionTo(state) bool {
	return false
}

// rejected state.
type rejected struct{}

func (s *rejected) Name() string {
	return StateNameRejected
}

func (s *rejected) CanTransitionTo(state) bool {
	return false
}
