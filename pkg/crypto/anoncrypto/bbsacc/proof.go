/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package bbsacc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
)

type aggregatedProof struct {
	SubProofs []*subProof `json:"sub_proofs"`
}

type subProof struct {
	// Proof is the BBS+ selective disclosure proof.
	Proof []byte `json:"proof"`
	// PredicateValues discloses the encoded values of predicate attributes.
	PredicateValues map[string]string `json:"predicate_values,omitempty"`
	RevocationIndex uint32            `json:"rev_index,omitempty"`
	Witness         []byte            `json:"witness,omitempty"`
}

func attributePosition(attrs []string) map[string]int {
	pos := make(map[string]int, len(attrs))
	for i, a := range attrs {
		pos[a] = firstAttrMessage + i
	}

	return pos
}

func checkPredicate(p anoncrypto.Predicate, encoded string) error {
	value, err := strconv.ParseInt(encoded, 10, 32)
	if err != nil {
		return fmt.Errorf("predicate attribute %q is not an integer", p.AttrName)
	}

	if !p.Type.Holds(value, int64(p.Value)) {
		return fmt.Errorf("predicate %s %s %d is not satisfied", p.AttrName, p.Type, p.Value)
	}

	return nil
}

// disclosure returns the disclosed message indexes for a sub-proof, in ascending order.
func disclosure(pos map[string]int, revealed []string, predicates []anoncrypto.Predicate,
	nonRevoked bool) ([]int, error) {
	set := map[int]struct{}{credDefMessage: {}}

	if nonRevoked {
		set[revIndexMessage] = struct{}{}
	}

	for _, attr := range revealed {
		i, ok := pos[attr]
		if !ok {
			return nil, fmt.Errorf("unknown attribute %q", attr)
		}

		set[i] = struct{}{}
	}

	for _, p := range predicates {
		i, ok := pos[p.AttrName]
		if !ok {
			return nil, fmt.Errorf("unknown predicate attribute %q", p.AttrName)
		}

		set[i] = struct{}{}
	}

	indexes := make([]int, 0, len(set))
	for i := range set {
		indexes = append(indexes, i)
	}

	sort.Ints(indexes)

	return indexes, nil
}

// CreateProof derives one BBS+ proof per credential, bound to the request nonce, and bundles them.
func (c *Capability) CreateProof(req *anoncrypto.ProofRequest) (anoncrypto.Proof, error) {
	if len(req.SubProofs) == 0 {
		return nil, errors.New("create proof: no sub-proofs")
	}

	agg := &aggregatedProof{}

	for n, sp := range req.SubProofs {
		proof, err := c.createSubProof(req, sp)
		if err != nil {
			return nil, fmt.Errorf("create proof: sub-proof %d: %w", n, err)
		}

		agg.SubProofs = append(agg.SubProofs, proof)
	}

	raw, err := json.Marshal(agg)
	if err != nil {
		return nil, fmt.Errorf("create proof: %w", err)
	}

	return raw, nil
}

func (c *Capability) createSubProof(req *anoncrypto.ProofRequest, sp *anoncrypto.SubProofRequest) (*subProof, error) {
	key, err := parseCredentialPublicKey(sp.PublicKey)
	if err != nil {
		return nil, err
	}

	binding, err := linkSecretBinding(req.LinkSecret, sp.CredDefID)
	if err != nil {
		return nil, err
	}

	messages, err := credentialMessages(sp.CredDefID, binding, sp.RevRegID, sp.RevocationIndex, key.Attributes, sp.Values)
	if err != nil {
		return nil, err
	}

	out := &subProof{}

	if len(sp.Predicates) > 0 {
		out.PredicateValues = make(map[string]string, len(sp.Predicates))
	}

	for _, p := range sp.Predicates {
		v := sp.Values[p.AttrName]
		if err = checkPredicate(p, v); err != nil {
			return nil, err
		}

		out.PredicateValues[p.AttrName] = v
	}

	if sp.NonRevocation != nil {
		if sp.RevocationIndex == 0 || sp.NonRevocation.Index != sp.RevocationIndex {
			return nil, errors.New("non-revocation witness does not belong to the credential")
		}

		out.RevocationIndex = sp.RevocationIndex
		out.Witness = sp.NonRevocation.Witness
	}

	indexes, err := disclosure(attributePosition(key.Attributes), sp.Revealed, sp.Predicates, sp.NonRevocation != nil)
	if err != nil {
		return nil, err
	}

	out.Proof, err = c.bbs.DeriveProof(messages, sp.Signature, []byte(req.Nonce), key.Key, indexes)
	if err != nil {
		return nil, fmt.Errorf("derive proof: %w", err)
	}

	return out, nil
}

// VerifyProof checks every BBS+ proof against the disclosed values and every witness against the accumulator
// the verifier supplied.
func (c *Capability) VerifyProof(proof anoncrypto.Proof, req *anoncrypto.VerifyRequest) (bool, error) {
	agg := &aggregatedProof{}
	if err := json.Unmarshal(proof, agg); err != nil {
		return false, fmt.Errorf("verify proof: parse: %w", err)
	}

	if len(agg.SubProofs) != len(req.SubProofs) {
		return false, nil
	}

	for n, check := range req.SubProofs {
		ok, err := c.verifySubProof(req.Nonce, agg.SubProofs[n], check)
		if err != nil {
			return false, fmt.Errorf("verify proof: sub-proof %d: %w", n, err)
		}

		if !ok {
			return false, nil
		}
	}

	return true, nil
}

func (c *Capability) verifySubProof(nonce string, sp *subProof, check *anoncrypto.SubProofCheck) (bool, error) {
	key, err := parseCredentialPublicKey(check.PublicKey)
	if err != nil {
		return false, err
	}

	pos := attributePosition(key.Attributes)
	values := make(map[int][]byte)
	values[credDefMessage] = []byte(check.CredDefID)

	revealed := make([]string, 0, len(check.Revealed))

	for attr, v := range check.Revealed {
		i, ok := pos[attr]
		if !ok {
			return false, fmt.Errorf("unknown attribute %q", attr)
		}

		values[i] = []byte(v)
		revealed = append(revealed, attr)
	}

	for _, p := range check.Predicates {
		v, ok := sp.PredicateValues[p.AttrName]
		if !ok {
			return false, nil
		}

		if checkPredicate(p, v) != nil {
			return false, nil
		}

		if prev, ok := values[pos[p.AttrName]]; ok && string(prev) != v {
			return false, nil
		}

		values[pos[p.AttrName]] = []byte(v)
	}

	if check.NonRevocation != nil {
		if sp.RevocationIndex == 0 || check.NonRevocation.RevRegID == "" {
			return false, nil
		}

		member, err := c.VerifyWitness(check.NonRevocation.PublicKey, check.NonRevocation.Accumulator,
			sp.RevocationIndex, sp.Witness)
		if err != nil || !member {
			return false, nil // nolint:nilerr
		}

		values[revIndexMessage] = revocationMessage(check.NonRevocation.RevRegID, sp.RevocationIndex)
	}

	indexes, err := disclosure(pos, revealed, check.Predicates, check.NonRevocation != nil)
	if err != nil {
		return false, err
	}

	messages := make([][]byte, len(indexes))
	for n, i := range indexes {
		messages[n] = values[i]
	}

	if err = c.bbs.VerifyProof(messages, sp.Proof, []byte(nonce), key.Key); err != nil {
		return false, nil // nolint:nilerr
	}

	return true, nil
}
