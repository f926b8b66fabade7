/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"errors"
	"sync"

	"github.com/bluele/gcache"
	"github.com/google/uuid"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
)

// Session is a snapshot of one presentation request handed out by the verifier.
type Session struct {
	ID      string                         `json:"id"`
	State   string                         `json:"state"`
	Request *anoncreds.PresentationRequest `json:"request"`
	// Reason is the code a rejected presentation failed with.
	Reason anonerr.Code `json:"reason,omitempty"`
}

type session struct {
	mu      sync.Mutex
	id      string
	state   state
	request *anoncreds.PresentationRequest
	reason  anonerr.Code
}

func (s *session) snapshot() *Session {
	return &Session{ID: s.id, State: s.state.Name(), Request: s.request, Reason: s.reason}
}

func (s *session) transition(next state) error {
	if !s.state.CanTransitionTo(next) {
		return anonerr.New(anonerr.InvalidRequest, "session %s: invalid state transition %s -> %s", s.id,
			s.state.Name(), next.Name())
	}

	s.state = next

	return nil
}

// RequestPresentation builds a presentation request with a fresh nonce and opens a session for it.
func (v *Verifier) RequestPresentation(name, version string, attrs map[string]anoncreds.AttributeInfo,
	preds map[string]anoncreds.PredicateInfo, interval *anoncreds.NonRevokedInterval) (*Session, error) {
	nonce, err := anoncreds.NewNonce()
	if err != nil {
		return nil, err
	}

	req := &anoncreds.PresentationRequest{
		Name:                name,
		Version:             version,
		Nonce:               nonce,
		RequestedAttributes: attrs,
		RequestedPredicates: preds,
		NonRevoked:          interval,
	}

	if err = req.Validate(); err != nil {
		return nil, err
	}

	s := &session{id: uuid.New().String(), state: &requested{}, request: req}

	if err = v.sessions.Set(s.id, s); err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "open session")
	}

	logger.Debugf("opened presentation session %s", s.id)

	return s.snapshot(), nil
}

// Session returns the current state of session id.
func (v *Verifier) Session(id string) (*Session, error) {
	s, err := v.session(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot(), nil
}

func (v *Verifier) session(id string) (*session, error) {
	val, err := v.sessions.Get(id)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return nil, anonerr.New(anonerr.NotFound, "session %s not found", id)
	}

	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "read session %s", id)
	}

	s, ok := val.(*session)
	if !ok {
		return nil, anonerr.New(anonerr.StorageFailure, "session %s has unexpected type %T", id, val)
	}

	return s, nil
}

// VerifySession verifies pres against the request of session id. A session accepts a single presentation.
func (v *Verifier) VerifySession(id string, pres *anoncreds.Presentation) (bool, error) {
	s, err := v.session(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	err = s.transition(&received{})
	s.mu.Unlock()

	if err != nil {
		return false, err
	}

	ok, verr := v.Verify(pres, s.request)

	s.mu.Lock()
	defer s.mu.Unlock()

	if verr != nil {
		s.reason = anonerr.CodeOf(verr)

		if err = s.transition(&rejected{}); err != nil {
			return false, err
		}

		logger.Infof("session %s rejected: %s", id, verr)

		return false, verr
	}

	if err = s.transition(&verified{}); err != nil {
		return false, err
	}

	return ok, nil
}
