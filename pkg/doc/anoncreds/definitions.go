/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

const (
	// SignatureTypeCL is the credential definition signature type.
	SignatureTypeCL = "CL"
	// RegistryTypeCLAccum is the revocation registry type.
	RegistryTypeCLAccum = "CL_ACCUM"
)

// CredentialDefinition is the public part of an issuer's credential definition.
type CredentialDefinition struct {
	SchemaID identifier.SchemaID      `json:"schemaId"`
	IssuerID identifier.IssuerID      `json:"issuerId"`
	Type     string                   `json:"type"`
	Tag      string                   `json:"tag"`
	Value    CredentialDefinitionData `json:"value"`
}

// CredentialDefinitionData is the key material of a credential definition.
type CredentialDefinitionData struct {
	PublicKey          anoncrypto.CredentialPublicKey `json:"publicKey"`
	SupportsRevocation bool                           `json:"revocation,omitempty"`
}

// CredentialDefinitionPrivate is the issuer secret of a credential definition. It never leaves the issuer.
type CredentialDefinitionPrivate struct {
	PrivateKey anoncrypto.CredentialPrivateKey `json:"privateKey"`
}

// Zero wipes the private key.
func (p *CredentialDefinitionPrivate) Zero() {
	if p != nil {
		p.PrivateKey.Zero()
	}
}

// RevocationRegistryDefinition declares a revocation registry of MaxCredNum indices. It is never mutated;
// rotating a registry creates a new definition.
type RevocationRegistryDefinition struct {
	IssuerID  identifier.IssuerID               `json:"issuerId"`
	Type      string                            `json:"revocDefType"`
	Tag       string                            `json:"tag"`
	CredDefID identifier.CredDefID              `json:"credDefId"`
	Value     RevocationRegistryDefinitionValue `json:"value"`
}

// RevocationRegistryDefinitionValue holds the registry size, the tails reference and the public key.
type RevocationRegistryDefinitionValue struct {
	MaxCredNum    uint32                         `json:"maxCredNum"`
	TailsLocation string                         `json:"tailsLocation"`
	TailsHash     string                         `json:"tailsHash"`
	PublicKey     anoncrypto.RevocationPublicKey `json:"publicKeys"`
}

// RevocationRegistryDefinitionPrivate is the issuer secret of a registry.
type RevocationRegistryDefinitionPrivate struct {
	PrivateKey anoncrypto.RevocationPrivateKey `json:"privateKey"`
}

// Zero wipes the private key.
func (p *RevocationRegistryDefinitionPrivate) Zero() {
	if p != nil {
		p.PrivateKey.Zero()
	}
}

// RevocationStatusList is an immutable, timestamped snapshot of a registry's revocation state.
type RevocationStatusList struct {
	RevRegDefID identifier.RevRegID    `json:"revRegDefId"`
	IssuerID    identifier.IssuerID    `json:"issuerId"`
	Issued      []uint32               `json:"issued"`
	Revoked     []uint32               `json:"revoked"`
	Accumulator anoncrypto.Accumulator `json:"currentAccumulator"`
	Timestamp   uint64                 `json:"timestamp"`
}

// IsRevoked reports whether index is revoked in the list.
func (l *RevocationStatusList) IsRevoked(index uint32) bool {
	for _, i := range l.Revoked {
		if i == index {
			return true
		}
	}

	return false
}

// IsIssued reports whether index is issued and active in the list.
func (l *RevocationStatusList) IsIssued(index uint32) bool {
	for _, i := range l.Issued {
		if i == index {
			return true
		}
	}

	return false
}
