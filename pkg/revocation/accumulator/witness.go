/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator

import (
	"bytes"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

// Witness proves that Index is a member of Accumulator. It is only valid for the state it was computed against.
type Witness struct {
	RevRegID    identifier.RevRegID     `json:"rev_reg_id"`
	Index       uint32                  `json:"index"`
	Generation  uint64                  `json:"generation"`
	Timestamp   uint64                  `json:"timestamp"`
	Accumulator anoncrypto.Accumulator  `json:"accumulator"`
	Value       anoncrypto.WitnessValue `json:"value"`
}

// Fresh reports whether w still matches s: same registry, index still issued and an unchanged accumulator.
func (w *Witness) Fresh(s *State) bool {
	return w != nil && w.RevRegID.Equal(s.revRegID.ID) && s.IsIssued(w.Index) &&
		bytes.Equal(w.Accumulator, s.acc)
}

// tailsReader reports every tails read failure that is not already classified as a storage error as
// MissingTailsData.
type tailsReader struct {
	anoncrypto.TailsReader
}

func (r tailsReader) Tail(index uint32) ([]byte, error) {
	point, err := r.TailsReader.Tail(index)
	if err != nil && anonerr.KindOf(err) != anonerr.StorageError {
		return nil, anonerr.Wrap(anonerr.MissingTailsData, err, "tail %d", index)
	}

	return point, err
}

// WitnessFor computes the witness of an issued index against s.
func (e *Engine) WitnessFor(s *State, index uint32, tails anoncrypto.TailsReader) (*Witness, error) {
	if err := e.checkOwner(s); err != nil {
		return nil, err
	}

	if !s.IsIssued(index) {
		return nil, anonerr.New(anonerr.InvalidIndex, "index %d of %s is not issued", index, e.revRegID)
	}

	if tails == nil {
		return nil, anonerr.New(anonerr.MissingTailsData, "no tails for %s", e.revRegID)
	}

	var value anoncrypto.WitnessValue

	err := anonerr.Guard(func() error {
		var err error

		value, err = e.crypto.ComputeWitness(s.maxCredNum, index, s.Issued(), tailsReader{tails})

		return err
	})
	if err != nil {
		if anonerr.KindOf(err) == anonerr.StorageError {
			return nil, err
		}

		return nil, anonerr.Wrap(anonerr.CryptoFailure, err, "witness of index %d", index)
	}

	return &Witness{
		RevRegID:    e.revRegID,
		Index:       index,
		Generation:  s.generation,
		Timestamp:   s.lastTimestamp,
		Accumulator: s.Accumulator(),
		Value:       value,
	}, nil
}

// VerifyWitness checks w against the accumulator of s.
func (e *Engine) VerifyWitness(s *State, w *Witness) (bool, error) {
	if !w.Fresh(s) {
		return false, nil
	}

	var ok bool

	err := anonerr.Guard(func() error {
		var err error

		ok, err = e.crypto.VerifyWitness(e.def.Value.PublicKey, s.acc, w.Index, w.Value)

		return err
	})
	if err != nil {
		return false, anonerr.Wrap(anonerr.CryptoFailure, err, "verify witness of index %d", w.Index)
	}

	return ok, nil
}
