/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

// Presentation answers a PresentationRequest with one aggregated proof over one or more credentials.
type Presentation struct {
	Proof          AggregatedProof `json:"proof"`
	RequestedProof RequestedProof  `json:"requested_proof"`
	Identifiers    []Identifier    `json:"identifiers"`
}

// AggregatedProof is the capability proof together with the nonce it is bound to.
type AggregatedProof struct {
	Nonce string           `json:"nonce"`
	Value anoncrypto.Proof `json:"value"`
}

// RequestedProof maps every referent of the request to the sub-proof answering it.
type RequestedProof struct {
	RevealedAttrs      map[string]RevealedAttributeInfo      `json:"revealed_attrs"`
	RevealedAttrGroups map[string]RevealedAttributeGroupInfo `json:"revealed_attr_groups,omitempty"`
	SelfAttestedAttrs  map[string]string                     `json:"self_attested_attrs"`
	UnrevealedAttrs    map[string]SubProofReferent           `json:"unrevealed_attrs"`
	Predicates         map[string]SubProofReferent           `json:"predicates"`
}

// SubProofReferent names the sub-proof answering a referent.
type SubProofReferent struct {
	SubProofIndex uint32 `json:"sub_proof_index"`
}

// RevealedAttributeInfo is a disclosed attribute.
type RevealedAttributeInfo struct {
	SubProofIndex uint32 `json:"sub_proof_index"`
	Raw           string `json:"raw"`
	Encoded       string `json:"encoded"`
}

// RevealedAttributeGroupInfo is a disclosed attribute group.
type RevealedAttributeGroupInfo struct {
	SubProofIndex uint32           `json:"sub_proof_index"`
	Values        CredentialValues `json:"values"`
}

// Identifier names the definitions a sub-proof was built against. Timestamp is the status list timestamp a
// non revocation proof was built for.
type Identifier struct {
	SchemaID  identifier.SchemaID  `json:"schema_id"`
	CredDefID identifier.CredDefID `json:"cred_def_id"`
	RevRegID  *identifier.RevRegID `json:"rev_reg_id,omitempty"`
	Timestamp *uint64              `json:"timestamp,omitempty"`
}

// NewRequestedProof returns an empty RequestedProof with every map allocated.
func NewRequestedProof() RequestedProof {
	return RequestedProof{
		RevealedAttrs:      map[string]RevealedAttributeInfo{},
		RevealedAttrGroups: map[string]RevealedAttributeGroupInfo{},
		SelfAttestedAttrs:  map[string]string{},
		UnrevealedAttrs:    map[string]SubProofReferent{},
		Predicates:         map[string]SubProofReferent{},
	}
}
