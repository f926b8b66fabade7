/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

type indexSet map[uint32]struct{}

func newIndexSet(indices []uint32) indexSet {
	s := make(indexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}

	return s
}

func (s indexSet) has(i uint32) bool {
	_, ok := s[i]

	return ok
}

func (s indexSet) sorted() []uint32 {
	out := maps.Keys(s)
	slices.Sort(out)

	return out
}

// State is the revocation state of one registry. A State is never modified once built; every Engine operation
// returns a new one.
type State struct {
	revRegID      identifier.RevRegID
	maxCredNum    uint32
	issued        indexSet
	revoked       indexSet
	acc           anoncrypto.Accumulator
	generation    uint64
	lastTimestamp uint64
}

func (s *State) clone() *State {
	return &State{
		revRegID:      s.revRegID,
		maxCredNum:    s.maxCredNum,
		issued:        maps.Clone(s.issued),
		revoked:       maps.Clone(s.revoked),
		acc:           slices.Clone(s.acc),
		generation:    s.generation,
		lastTimestamp: s.lastTimestamp,
	}
}

// RevRegID returns the registry the state belongs to.
func (s *State) RevRegID() identifier.RevRegID {
	return s.revRegID
}

// MaxCredNum returns the registry size.
func (s *State) MaxCredNum() uint32 {
	return s.maxCredNum
}

// Issued returns the active indices in ascending order.
func (s *State) Issued() []uint32 {
	return s.issued.sorted()
}

// Revoked returns the revoked indices in ascending order.
func (s *State) Revoked() []uint32 {
	return s.revoked.sorted()
}

// IsIssued reports whether index is active.
func (s *State) IsIssued(index uint32) bool {
	return s.issued.has(index)
}

// IsRevoked reports whether index is revoked.
func (s *State) IsRevoked(index uint32) bool {
	return s.revoked.has(index)
}

// Used reports whether index was ever issued.
func (s *State) Used(index uint32) bool {
	return s.issued.has(index) || s.revoked.has(index)
}

// Accumulator returns a copy of the current accumulator.
func (s *State) Accumulator() anoncrypto.Accumulator {
	return slices.Clone(s.acc)
}

// Generation is incremented every time the issued set changes.
func (s *State) Generation() uint64 {
	return s.generation
}

// LastTimestamp is the timestamp of the latest snapshot, 0 before the first one.
func (s *State) LastTimestamp() uint64 {
	return s.lastTimestamp
}

// Equal compares the sets and the accumulator of two states.
func (s *State) Equal(other *State) bool {
	return s.revRegID.Equal(other.revRegID.ID) &&
		s.maxCredNum == other.maxCredNum &&
		maps.Equal(s.issued, other.issued) &&
		maps.Equal(s.revoked, other.revoked) &&
		slices.Equal(s.acc, other.acc)
}

func (s *State) String() string {
	return fmt.Sprintf("State(%s, issued=%d, revoked=%d, generation=%d, timestamp=%d)",
		s.revRegID, len(s.issued), len(s.revoked), s.generation, s.lastTimestamp)
}

type stateJSON struct {
	RevRegID      identifier.RevRegID    `json:"revRegDefId"`
	MaxCredNum    uint32                 `json:"maxCredNum"`
	Issued        []uint32               `json:"issued"`
	Revoked       []uint32               `json:"revoked"`
	Accumulator   anoncrypto.Accumulator `json:"accumulator"`
	Generation    uint64                 `json:"generation"`
	LastTimestamp uint64                 `json:"lastTimestamp"`
}

// MarshalJSON encodes the state for the issuer store.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(&stateJSON{
		RevRegID:      s.revRegID,
		MaxCredNum:    s.maxCredNum,
		Issued:        s.Issued(),
		Revoked:       s.Revoked(),
		Accumulator:   s.acc,
		Generation:    s.generation,
		LastTimestamp: s.lastTimestamp,
	})
}

// UnmarshalJSON decodes and checks a stored state.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal revocation state: %w", err)
	}

	st, err := buildState(raw.RevRegID, raw.MaxCredNum, raw.Issued, raw.Revoked)
	if err != nil {
		return err
	}

	st.acc = raw.Accumulator
	st.generation = raw.Generation
	st.lastTimestamp = raw.LastTimestamp
	*s = *st

	return nil
}

func buildState(id identifier.RevRegID, maxCredNum uint32, issued, revoked []uint32) (*State, error) {
	s := &State{revRegID: id, maxCredNum: maxCredNum, issued: newIndexSet(issued), revoked: newIndexSet(revoked)}

	for _, set := range []indexSet{s.issued, s.revoked} {
		for i := range set {
			if i == 0 || i > maxCredNum {
				return nil, anonerr.New(anonerr.InvalidIndex, "index %d out of range [1, %d]", i, maxCredNum)
			}
		}
	}

	for i := range s.issued {
		if s.revoked.has(i) {
			return nil, anonerr.New(anonerr.InvalidIndex, "index %d is both issued and revoked", i)
		}
	}

	return s, nil
}

// StateFromStatusList rebuilds the read-only state a published status list describes. The accumulator is taken
// from the list as published.
func StateFromStatusList(def *anoncreds.RevocationRegistryDefinition,
	list *anoncreds.RevocationStatusList) (*State, error) {
	s, err := buildState(list.RevRegDefID, def.Value.MaxCredNum, list.Issued, list.Revoked)
	if err != nil {
		return nil, err
	}

	s.acc = slices.Clone(list.Accumulator)
	s.lastTimestamp = list.Timestamp

	return s, nil
}
