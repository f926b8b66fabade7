/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package accumulator maintains the revocation state of a registry: which indices are issued, which are
// revoked, and the accumulator over the issued ones. It also derives non revocation witnesses and the
// timestamped status lists that are published to the ledger.
package accumulator

import (
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

var logger = log.New("aries-framework/anoncreds/accumulator")

// Delta is a batch of index changes applied with a single accumulation. Issued indices are either fresh or
// restored from revoked; revoked indices must currently be issued.
type Delta struct {
	Issued  []uint32
	Revoked []uint32
}

// IsEmpty reports whether the delta changes nothing.
func (d Delta) IsEmpty() bool {
	return len(d.Issued) == 0 && len(d.Revoked) == 0
}

// Engine runs the revocation operations of one registry. It holds no state of its own.
type Engine struct {
	crypto   anoncrypto.Capability
	revRegID identifier.RevRegID
	def      *anoncreds.RevocationRegistryDefinition
	priv     anoncrypto.RevocationPrivateKey
}

// New returns the engine of registry revRegID. priv is only needed to update accumulators; an engine built
// without it can still derive witnesses.
func New(crypto anoncrypto.Capability, revRegID identifier.RevRegID, def *anoncreds.RevocationRegistryDefinition,
	priv anoncrypto.RevocationPrivateKey) *Engine {
	return &Engine{crypto: crypto, revRegID: revRegID, def: def, priv: priv}
}

// MaxCredNum returns the registry size.
func (e *Engine) MaxCredNum() uint32 {
	return e.def.Value.MaxCredNum
}

// NewState returns the state of a fresh registry: nothing issued and the empty accumulator.
func (e *Engine) NewState() (*State, error) {
	s := &State{
		revRegID:   e.revRegID,
		maxCredNum: e.def.Value.MaxCredNum,
		issued:     indexSet{},
		revoked:    indexSet{},
	}

	acc, err := e.accumulate(s)
	if err != nil {
		return nil, err
	}

	s.acc = acc

	return s, nil
}

func (e *Engine) checkRange(index uint32) error {
	if index == 0 || index > e.def.Value.MaxCredNum {
		return anonerr.New(anonerr.InvalidIndex, "index %d out of range [1, %d]", index, e.def.Value.MaxCredNum)
	}

	return nil
}

func (e *Engine) checkOwner(s *State) error {
	if !s.revRegID.Equal(e.revRegID.ID) || s.maxCredNum != e.def.Value.MaxCredNum {
		return anonerr.New(anonerr.InvalidRequest, "state of %s does not belong to registry %s", s.revRegID, e.revRegID)
	}

	return nil
}

func (e *Engine) accumulate(s *State) (anoncrypto.Accumulator, error) {
	var acc anoncrypto.Accumulator

	err := anonerr.Guard(func() error {
		var err error

		acc, err = e.crypto.Accumulate(e.def.Value.PublicKey, e.priv, s.maxCredNum, s.Issued())

		return err
	})
	if err != nil {
		return nil, anonerr.Wrap(anonerr.CryptoFailure, err, "accumulate registry %s", e.revRegID)
	}

	return acc, nil
}

// Issue marks index as issued.
func (e *Engine) Issue(s *State, index uint32) (*State, error) {
	if err := e.checkRange(index); err != nil {
		return nil, err
	}

	if s.Used(index) {
		return nil, anonerr.New(anonerr.InvalidIndex, "index %d of %s is already used", index, e.revRegID)
	}

	return e.Apply(s, Delta{Issued: []uint32{index}})
}

// IssueNext issues the lowest index that was never used and returns it with the new state.
func (e *Engine) IssueNext(s *State) (*State, uint32, error) {
	for i := uint32(1); i <= e.def.Value.MaxCredNum; i++ {
		if s.Used(i) {
			continue
		}

		next, err := e.Apply(s, Delta{Issued: []uint32{i}})
		if err != nil {
			return nil, 0, err
		}

		return next, i, nil
	}

	return nil, 0, anonerr.New(anonerr.IndexExhausted, "registry %s is full", e.revRegID)
}

// Revoke moves an issued index to revoked.
func (e *Engine) Revoke(s *State, index uint32) (*State, error) {
	if !s.IsIssued(index) {
		return nil, anonerr.New(anonerr.InvalidIndex, "index %d of %s is not issued", index, e.revRegID)
	}

	return e.Apply(s, Delta{Revoked: []uint32{index}})
}

// Restore moves a revoked index back to issued.
func (e *Engine) Restore(s *State, index uint32) (*State, error) {
	if !s.IsRevoked(index) {
		return nil, anonerr.New(anonerr.InvalidIndex, "index %d of %s is not revoked", index, e.revRegID)
	}

	return e.Apply(s, Delta{Issued: []uint32{index}})
}

// Apply applies every change of d or none of them. The result does not depend on the order of the indices.
func (e *Engine) Apply(s *State, d Delta) (*State, error) {
	if err := e.checkOwner(s); err != nil {
		return nil, err
	}

	next := s.clone()

	if d.IsEmpty() {
		return next, nil
	}

	seen := indexSet{}

	for _, batch := range [][]uint32{d.Issued, d.Revoked} {
		for _, i := range batch {
			if err := e.checkRange(i); err != nil {
				return nil, err
			}

			if seen.has(i) {
				return nil, anonerr.New(anonerr.InvalidIndex, "index %d appears more than once in the batch", i)
			}

			seen[i] = struct{}{}
		}
	}

	for _, i := range d.Issued {
		if next.issued.has(i) {
			return nil, anonerr.New(anonerr.InvalidIndex, "index %d of %s is already issued", i, e.revRegID)
		}

		delete(next.revoked, i)
		next.issued[i] = struct{}{}
	}

	for _, i := range d.Revoked {
		if !next.issued.has(i) {
			return nil, anonerr.New(anonerr.InvalidIndex, "index %d of %s is not issued", i, e.revRegID)
		}

		delete(next.issued, i)
		next.revoked[i] = struct{}{}
	}

	acc, err := e.accumulate(next)
	if err != nil {
		return nil, err
	}

	next.acc = acc
	next.generation++

	logger.Debugf("registry %s: applied %d issued, %d revoked, generation %d", e.revRegID, len(d.Issued),
		len(d.Revoked), next.generation)

	return next, nil
}

// Recompute rebuilds the accumulator of s from its issued set.
func (e *Engine) Recompute(s *State) (anoncrypto.Accumulator, error) {
	return e.accumulate(s)
}

// Snapshot captures s as a status list stamped with timestamp, which must be later than the previous snapshot.
// The returned state records the timestamp.
func (e *Engine) Snapshot(s *State, timestamp uint64) (*anoncreds.RevocationStatusList, *State, error) {
	if err := e.checkOwner(s); err != nil {
		return nil, nil, err
	}

	if timestamp <= s.lastTimestamp {
		return nil, nil, anonerr.New(anonerr.InvalidTimestamp,
			"timestamp %d is not after the last snapshot at %d", timestamp, s.lastTimestamp)
	}

	next := s.clone()
	next.lastTimestamp = timestamp

	list := &anoncreds.RevocationStatusList{
		RevRegDefID: e.revRegID,
		IssuerID:    e.def.IssuerID,
		Issued:      next.Issued(),
		Revoked:     next.Revoked(),
		Accumulator: next.Accumulator(),
		Timestamp:   timestamp,
	}

	return list, next, nil
}
