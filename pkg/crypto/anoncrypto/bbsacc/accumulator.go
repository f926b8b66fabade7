/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsacc

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	ml "github.com/IBM/mathlib"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
)

// nolint:gochecknoglobals
var curve = ml.Curves[ml.BLS12_381_BBS]

const (
	identityTag byte = 0
	pointTag    byte = 1

	// MaxRegistrySize bounds the number of indices of a registry.
	MaxRegistrySize = 1 << 16
)

type revocationPublicKey struct {
	MaxCredNum uint32 `json:"max_cred_num"`
	// IndexKeys[i-1] = g1^(γ^i).
	IndexKeys [][]byte `json:"index_keys"`
	// TailL = g2^(γ^L).
	TailL []byte `json:"tail_l"`
}

func parseRevocationPublicKey(pub anoncrypto.RevocationPublicKey) (*revocationPublicKey, error) {
	key := &revocationPublicKey{}
	if err := json.Unmarshal(pub, key); err != nil {
		return nil, fmt.Errorf("parse revocation public key: %w", err)
	}

	if key.MaxCredNum == 0 || len(key.IndexKeys) != int(key.MaxCredNum) {
		return nil, errors.New("parse revocation public key: inconsistent key")
	}

	return key, nil
}

func encodeG2(p *ml.G2) []byte {
	if p == nil {
		return []byte{identityTag}
	}

	return append([]byte{pointTag}, p.Bytes()...)
}

func decodeG2(b []byte) (*ml.G2, error) {
	switch {
	case len(b) == 1 && b[0] == identityTag:
		return nil, nil
	case len(b) > 1 && b[0] == pointTag:
		p, err := curve.NewG2FromBytes(b[1:])
		if err != nil {
			return nil, fmt.Errorf("parse G2 point: %w", err)
		}

		return p, nil
	default:
		return nil, errors.New("parse G2 point: unknown encoding")
	}
}

// NewRevocationKeys draws the registry secret γ and derives the tails and the public key.
func (c *Capability) NewRevocationKeys(maxCredNum uint32) (*anoncrypto.RevocationKeys, error) {
	if maxCredNum == 0 || maxCredNum > MaxRegistrySize {
		return nil, fmt.Errorf("new revocation keys: registry size %d out of range [1, %d]",
			maxCredNum, MaxRegistrySize)
	}

	gamma := curve.NewRandomZr(rand.Reader)
	pow := curve.NewZrFromInt(1)

	pub := &revocationPublicKey{MaxCredNum: maxCredNum, IndexKeys: make([][]byte, maxCredNum)}
	tails := make(map[uint32][]byte, 2*maxCredNum-1)

	for k := uint32(1); k <= 2*maxCredNum; k++ {
		pow = curve.ModMul(pow, gamma, curve.GroupOrder)

		if k == maxCredNum+1 {
			continue
		}

		tails[k] = curve.GenG2.Mul(pow).Bytes()

		if k <= maxCredNum {
			pub.IndexKeys[k-1] = curve.GenG1.Mul(pow).Bytes()
		}

		if k == maxCredNum {
			pub.TailL = tails[k]
		}
	}

	pubBytes, err := json.Marshal(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal revocation public key: %w", err)
	}

	return &anoncrypto.RevocationKeys{
		PublicKey:  pubBytes,
		PrivateKey: gamma.Bytes(),
		Tails:      tails,
	}, nil
}

func checkIndices(maxCredNum uint32, indices []uint32) error {
	for _, j := range indices {
		if j == 0 || j > maxCredNum {
			return fmt.Errorf("index %d out of range [1, %d]", j, maxCredNum)
		}
	}

	return nil
}

// Accumulate computes g2^(Σ γ^(L+1-j)) over the active indices with the registry secret.
func (c *Capability) Accumulate(pub anoncrypto.RevocationPublicKey, priv anoncrypto.RevocationPrivateKey,
	maxCredNum uint32, active []uint32) (anoncrypto.Accumulator, error) {
	key, err := parseRevocationPublicKey(pub)
	if err != nil {
		return nil, err
	}

	if key.MaxCredNum != maxCredNum {
		return nil, fmt.Errorf("accumulate: registry size %d does not match key size %d", maxCredNum, key.MaxCredNum)
	}

	if err = checkIndices(maxCredNum, active); err != nil {
		return nil, fmt.Errorf("accumulate: %w", err)
	}

	if len(active) == 0 {
		return encodeG2(nil), nil
	}

	gamma := curve.NewZrFromBytes(priv)

	powers := make([]*ml.Zr, maxCredNum+1)
	powers[0] = curve.NewZrFromInt(1)

	for k := 1; k <= int(maxCredNum); k++ {
		powers[k] = curve.ModMul(powers[k-1], gamma, curve.GroupOrder)
	}

	sum := curve.NewZrFromInt(0)
	for _, j := range active {
		sum = curve.ModAdd(sum, powers[maxCredNum+1-j], curve.GroupOrder)
	}

	return encodeG2(curve.GenG2.Mul(sum)), nil
}

// ComputeWitness computes Π T_(L+1-j+i) over the active indices j != i.
func (c *Capability) ComputeWitness(maxCredNum, index uint32, active []uint32,
	tails anoncrypto.TailsReader) (anoncrypto.WitnessValue, error) {
	if err := checkIndices(maxCredNum, append([]uint32{index}, active...)); err != nil {
		return nil, fmt.Errorf("compute witness: %w", err)
	}

	var (
		witness *ml.G2
		member  bool
	)

	for _, j := range active {
		if j == index {
			member = true

			continue
		}

		k := maxCredNum + 1 - j + index

		raw, err := tails.Tail(k)
		if err != nil {
			return nil, fmt.Errorf("compute witness: tail %d: %w", k, err)
		}

		p, err := curve.NewG2FromBytes(raw)
		if err != nil {
			return nil, anonerr.Wrap(anonerr.CorruptTailsData, err, "compute witness: tail %d", k)
		}

		if witness == nil {
			witness = p

			continue
		}

		witness.Add(p)
	}

	if !member {
		return nil, fmt.Errorf("compute witness: index %d is not active", index)
	}

	return encodeG2(witness), nil
}

// VerifyWitness checks e(g1^(γ^i), Acc) = e(g1, ω) · e(g1^γ, T_L).
func (c *Capability) VerifyWitness(pub anoncrypto.RevocationPublicKey, acc anoncrypto.Accumulator, index uint32,
	witness anoncrypto.WitnessValue) (bool, error) {
	key, err := parseRevocationPublicKey(pub)
	if err != nil {
		return false, err
	}

	if err = checkIndices(key.MaxCredNum, []uint32{index}); err != nil {
		return false, fmt.Errorf("verify witness: %w", err)
	}

	accPoint, err := decodeG2(acc)
	if err != nil {
		return false, fmt.Errorf("verify witness: accumulator: %w", err)
	}

	if accPoint == nil {
		return false, nil
	}

	omega, err := decodeG2(witness)
	if err != nil {
		return false, fmt.Errorf("verify witness: %w", err)
	}

	indexKey, err := curve.NewG1FromBytes(key.IndexKeys[index-1])
	if err != nil {
		return false, fmt.Errorf("verify witness: index key: %w", err)
	}

	firstKey, err := curve.NewG1FromBytes(key.IndexKeys[0])
	if err != nil {
		return false, fmt.Errorf("verify witness: index key: %w", err)
	}

	tailL, err := curve.NewG2FromBytes(key.TailL)
	if err != nil {
		return false, fmt.Errorf("verify witness: tail: %w", err)
	}

	accPoint.Affine()
	tailL.Affine()

	left := curve.FExp(curve.Pairing(accPoint, indexKey))

	var right *ml.Gt

	if omega == nil {
		right = curve.FExp(curve.Pairing(tailL, firstKey))
	} else {
		omega.Affine()
		right = curve.FExp(curve.Pairing2(omega, curve.GenG1, tailL, firstKey))
	}

	return left.Equals(right), nil
}
