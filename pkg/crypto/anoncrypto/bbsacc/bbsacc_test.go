/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsacc_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto/bbsacc"
)

const (
	credDefID = "did:example:issuer/creddef/1"
	revRegID  = "did:example:issuer/revreg/r1"
	otherReg  = "did:example:issuer/revreg/r2"
)

type mapTails map[uint32][]byte

func (m mapTails) Tail(index uint32) ([]byte, error) {
	b, ok := m[index]
	if !ok {
		return nil, anonerr.New(anonerr.MissingTailsData, "tail %d", index)
	}

	return b, nil
}

func linkSecret(t *testing.T) []byte {
	t.Helper()

	ls := make([]byte, 32)
	_, err := rand.Read(ls)
	require.NoError(t, err)

	return ls
}

func TestCredentialKeys(t *testing.T) {
	c := bbsacc.New()

	keys, err := c.NewCredentialKeys([]string{"name", "age"}, true)
	require.NoError(t, err)
	require.NotEmpty(t, keys.PublicKey)
	require.NotEmpty(t, keys.PrivateKey)
	require.NoError(t, c.VerifyCorrectnessProof(keys.PublicKey, keys.CorrectnessProof))

	t.Run("correctness proof from another key is rejected", func(t *testing.T) {
		other, err := c.NewCredentialKeys([]string{"name", "age"}, true)
		require.NoError(t, err)
		require.Error(t, c.VerifyCorrectnessProof(keys.PublicKey, other.CorrectnessProof))
	})

	t.Run("invalid attribute lists", func(t *testing.T) {
		_, err := c.NewCredentialKeys(nil, false)
		require.Error(t, err)

		_, err = c.NewCredentialKeys([]string{"a", "a"}, false)
		require.EqualError(t, err, `new credential keys: duplicate attribute "a"`)
	})
}

func TestSignAndProve(t *testing.T) {
	c := bbsacc.New()

	keys, err := c.NewCredentialKeys([]string{"name", "age"}, false)
	require.NoError(t, err)

	ls := linkSecret(t)
	blinded, err := c.BlindLinkSecret(keys.PublicKey, ls, credDefID, "1234")
	require.NoError(t, err)
	require.NoError(t, c.VerifyBlindedLinkSecret(keys.PublicKey, blinded, "1234"))
	require.Error(t, c.VerifyBlindedLinkSecret(keys.PublicKey, blinded, "4321"))

	values := map[string]string{"name": "1139481716457488690172217916278103335", "age": "28"}

	sig, err := c.Sign(&anoncrypto.SignRequest{
		CredDefID:  credDefID,
		PublicKey:  keys.PublicKey,
		PrivateKey: keys.PrivateKey,
		Values:     values,
		Blinded:    blinded.Secret,
		Nonce:      "5678",
	})
	require.NoError(t, err)

	check := &anoncrypto.SignatureCheck{
		CredDefID:        credDefID,
		PublicKey:        keys.PublicKey,
		Values:           values,
		LinkSecret:       ls,
		Signature:        sig.Signature,
		CorrectnessProof: sig.CorrectnessProof,
		Nonce:            "5678",
	}
	require.NoError(t, c.VerifySignature(check))

	t.Run("signature does not verify under another link secret", func(t *testing.T) {
		bad := *check
		bad.LinkSecret = linkSecret(t)
		require.Error(t, c.VerifySignature(&bad))
	})

	t.Run("revocation index needs a revocable key", func(t *testing.T) {
		_, err := c.Sign(&anoncrypto.SignRequest{
			CredDefID: credDefID, PublicKey: keys.PublicKey, PrivateKey: keys.PrivateKey,
			Values: values, Blinded: blinded.Secret, RevRegID: revRegID, RevocationIndex: 2,
		})
		require.Error(t, err)
	})

	sub := &anoncrypto.SubProofRequest{
		CredDefID:  credDefID,
		PublicKey:  keys.PublicKey,
		Signature:  sig.Signature,
		Values:     values,
		Revealed:   []string{"name"},
		Predicates: []anoncrypto.Predicate{{AttrName: "age", Type: anoncrypto.GE, Value: 18}},
	}

	proof, err := c.CreateProof(&anoncrypto.ProofRequest{Nonce: "777", LinkSecret: ls,
		SubProofs: []*anoncrypto.SubProofRequest{sub}})
	require.NoError(t, err)

	verify := func(nonce string, revealed map[string]string, p anoncrypto.Predicate) bool {
		ok, err := c.VerifyProof(proof, &anoncrypto.VerifyRequest{
			Nonce: nonce,
			SubProofs: []*anoncrypto.SubProofCheck{{
				CredDefID:  credDefID,
				PublicKey:  keys.PublicKey,
				Revealed:   revealed,
				Predicates: []anoncrypto.Predicate{p},
			}},
		})
		require.NoError(t, err)

		return ok
	}

	ge18 := anoncrypto.Predicate{AttrName: "age", Type: anoncrypto.GE, Value: 18}

	require.True(t, verify("777", map[string]string{"name": values["name"]}, ge18))
	require.False(t, verify("778", map[string]string{"name": values["name"]}, ge18))
	require.False(t, verify("777", map[string]string{"name": "42"}, ge18))
	require.False(t, verify("777", map[string]string{"name": values["name"]},
		anoncrypto.Predicate{AttrName: "age", Type: anoncrypto.GT, Value: 30}))

	t.Run("unsatisfied predicate cannot be proven", func(t *testing.T) {
		bad := *sub
		bad.Predicates = []anoncrypto.Predicate{{AttrName: "age", Type: anoncrypto.LT, Value: 18}}

		_, err := c.CreateProof(&anoncrypto.ProofRequest{Nonce: "777", LinkSecret: ls,
			SubProofs: []*anoncrypto.SubProofRequest{&bad}})
		require.Error(t, err)
	})
}

func TestAccumulator(t *testing.T) {
	c := bbsacc.New()

	const size = 10

	keys, err := c.NewRevocationKeys(size)
	require.NoError(t, err)
	require.Len(t, keys.Tails, 2*size-1)
	require.NotContains(t, keys.Tails, uint32(size+1))

	tails := mapTails(keys.Tails)

	acc := func(active ...uint32) anoncrypto.Accumulator {
		a, err := c.Accumulate(keys.PublicKey, keys.PrivateKey, size, active)
		require.NoError(t, err)

		return a
	}

	t.Run("order independent and deterministic", func(t *testing.T) {
		require.Equal(t, acc(1, 3, 7), acc(7, 1, 3))
		require.Equal(t, acc(), acc())
		require.NotEqual(t, acc(1, 3), acc(1, 3, 7))
	})

	t.Run("witness verifies only against its own accumulator", func(t *testing.T) {
		active := []uint32{1, 3, 7}
		w, err := c.ComputeWitness(size, 3, active, tails)
		require.NoError(t, err)

		ok, err := c.VerifyWitness(keys.PublicKey, acc(active...), 3, w)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = c.VerifyWitness(keys.PublicKey, acc(1, 7), 3, w)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = c.VerifyWitness(keys.PublicKey, acc(1, 3, 7, 9), 3, w)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = c.VerifyWitness(keys.PublicKey, acc(active...), 1, w)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("sole member", func(t *testing.T) {
		w, err := c.ComputeWitness(size, 10, []uint32{10}, tails)
		require.NoError(t, err)

		ok, err := c.VerifyWitness(keys.PublicKey, acc(10), 10, w)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("revoked index has no witness", func(t *testing.T) {
		_, err := c.ComputeWitness(size, 4, []uint32{1, 3}, tails)
		require.Error(t, err)
	})

	t.Run("missing tails data surfaces", func(t *testing.T) {
		partial := mapTails{}
		_, err := c.ComputeWitness(size, 3, []uint32{1, 3}, partial)
		require.ErrorIs(t, err, anonerr.ErrMissingTailsData)
	})

	t.Run("corrupt tails data surfaces", func(t *testing.T) {
		bad := mapTails{}
		for k, v := range keys.Tails {
			bad[k] = v
		}
		bad[size+1-1+3] = []byte("garbage")

		_, err := c.ComputeWitness(size, 3, []uint32{1, 3}, bad)
		require.ErrorIs(t, err, anonerr.ErrCorruptTailsData)
	})

	t.Run("bounds", func(t *testing.T) {
		_, err := c.NewRevocationKeys(0)
		require.Error(t, err)

		_, err = c.Accumulate(keys.PublicKey, keys.PrivateKey, size, []uint32{11})
		require.Error(t, err)

		_, err = c.Accumulate(keys.PublicKey, keys.PrivateKey, size+1, []uint32{1})
		require.Error(t, err)
	})
}

func TestNonRevocationProof(t *testing.T) {
	c := bbsacc.New()

	const size = 4

	credKeys, err := c.NewCredentialKeys([]string{"name"}, true)
	require.NoError(t, err)

	revKeys, err := c.NewRevocationKeys(size)
	require.NoError(t, err)

	ls := linkSecret(t)
	blinded, err := c.BlindLinkSecret(credKeys.PublicKey, ls, credDefID, "1")
	require.NoError(t, err)

	values := map[string]string{"name": "12345"}

	t.Run("revocation index needs a registry", func(t *testing.T) {
		_, err := c.Sign(&anoncrypto.SignRequest{
			CredDefID: credDefID, PublicKey: credKeys.PublicKey, PrivateKey: credKeys.PrivateKey,
			Values: values, Blinded: blinded.Secret, RevocationIndex: 2, Nonce: "2",
		})
		require.Error(t, err)
	})

	sig, err := c.Sign(&anoncrypto.SignRequest{
		CredDefID: credDefID, PublicKey: credKeys.PublicKey, PrivateKey: credKeys.PrivateKey,
		Values: values, Blinded: blinded.Secret, RevRegID: revRegID, RevocationIndex: 2, Nonce: "2",
	})
	require.NoError(t, err)

	check := &anoncrypto.SignatureCheck{
		CredDefID: credDefID, PublicKey: credKeys.PublicKey, Values: values, LinkSecret: ls,
		RevRegID: revRegID, RevocationIndex: 2, Signature: sig.Signature, CorrectnessProof: sig.CorrectnessProof,
		Nonce: "2",
	}
	require.NoError(t, c.VerifySignature(check))

	t.Run("signature is bound to its registry", func(t *testing.T) {
		moved := *check
		moved.RevRegID = otherReg
		require.Error(t, c.VerifySignature(&moved))
	})

	accBefore, err := c.Accumulate(revKeys.PublicKey, revKeys.PrivateKey, size, []uint32{1, 2})
	require.NoError(t, err)

	accAfter, err := c.Accumulate(revKeys.PublicKey, revKeys.PrivateKey, size, []uint32{1})
	require.NoError(t, err)

	w, err := c.ComputeWitness(size, 2, []uint32{1, 2}, mapTails(revKeys.Tails))
	require.NoError(t, err)

	proof, err := c.CreateProof(&anoncrypto.ProofRequest{
		Nonce: "99", LinkSecret: ls,
		SubProofs: []*anoncrypto.SubProofRequest{{
			CredDefID: credDefID, PublicKey: credKeys.PublicKey, Signature: sig.Signature,
			Values: values, Revealed: []string{"name"}, RevRegID: revRegID, RevocationIndex: 2,
			NonRevocation: &anoncrypto.NonRevocationInput{
				PublicKey: revKeys.PublicKey, MaxCredNum: size, Accumulator: accBefore, Index: 2, Witness: w,
			},
		}},
	})
	require.NoError(t, err)

	verify := func(reg string, acc anoncrypto.Accumulator) bool {
		ok, err := c.VerifyProof(proof, &anoncrypto.VerifyRequest{
			Nonce: "99",
			SubProofs: []*anoncrypto.SubProofCheck{{
				CredDefID: credDefID, PublicKey: credKeys.PublicKey, Revealed: values,
				NonRevocation: &anoncrypto.NonRevocationCheck{
					RevRegID: reg, PublicKey: revKeys.PublicKey, MaxCredNum: size, Accumulator: acc,
				},
			}},
		})
		require.NoError(t, err)

		return ok
	}

	require.True(t, verify(revRegID, accBefore))
	require.False(t, verify(revRegID, accAfter))
	require.False(t, verify(otherReg, accBefore), "proof of registry r1 does not verify as registry r2")
	require.False(t, verify("", accBefore))
}

func TestUnavailable(t *testing.T) {
	var c anoncrypto.Capability = anoncrypto.Unavailable{}

	_, err := c.NewRevocationKeys(1)
	require.ErrorIs(t, err, anoncrypto.ErrUnavailable)

	ok, err := c.VerifyProof(nil, &anoncrypto.VerifyRequest{})
	require.False(t, ok)
	require.ErrorIs(t, err, anoncrypto.ErrUnavailable)
}
