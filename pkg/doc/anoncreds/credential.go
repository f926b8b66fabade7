/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"crypto/sha256"
	"math/big"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

// CredentialOffer is sent by the issuer to start an issuance.
type CredentialOffer struct {
	SchemaID            identifier.SchemaID            `json:"schema_id"`
	CredDefID           identifier.CredDefID           `json:"cred_def_id"`
	KeyCorrectnessProof anoncrypto.KeyCorrectnessProof `json:"key_correctness_proof"`
	Nonce               string                         `json:"nonce"`
}

// CredentialRequest is the prover's answer to an offer. It carries the link secret binding, never the
// link secret.
type CredentialRequest struct {
	Entropy                   string                        `json:"entropy,omitempty"`
	CredDefID                 identifier.CredDefID          `json:"cred_def_id"`
	BlindedMS                 anoncrypto.BlindedSecret      `json:"blinded_ms"`
	BlindedMSCorrectnessProof anoncrypto.BlindedSecretProof `json:"blinded_ms_correctness_proof"`
	Nonce                     string                        `json:"nonce"`
}

// CredentialRequestMetadata is kept by the prover to process the issued credential.
type CredentialRequestMetadata struct {
	LinkSecretName string `json:"link_secret_name"`
	Nonce          string `json:"nonce"`
}

// AttributeValues is the raw and encoded form of an attribute value.
type AttributeValues struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// CredentialValues maps attribute names to their values.
type CredentialValues map[string]AttributeValues

// MakeCredentialValues encodes raw attribute values.
func MakeCredentialValues(raw map[string]string) CredentialValues {
	values := make(CredentialValues, len(raw))
	for name, v := range raw {
		values[name] = AttributeValues{Raw: v, Encoded: EncodeAttribute(v)}
	}

	return values
}

// Encoded returns the encoded values keyed by attribute name.
func (v CredentialValues) Encoded() map[string]string {
	out := make(map[string]string, len(v))
	for name, av := range v {
		out[name] = av.Encoded
	}

	return out
}

// Credential is an issued credential. RevRegID and RevRegIndex are present only for revocable credentials.
type Credential struct {
	SchemaID                  identifier.SchemaID                  `json:"schema_id"`
	CredDefID                 identifier.CredDefID                 `json:"cred_def_id"`
	RevRegID                  *identifier.RevRegID                 `json:"rev_reg_id,omitempty"`
	RevRegIndex               *uint32                              `json:"rev_reg_index,omitempty"`
	Values                    CredentialValues                     `json:"values"`
	Signature                 anoncrypto.Signature                 `json:"signature"`
	SignatureCorrectnessProof anoncrypto.SignatureCorrectnessProof `json:"signature_correctness_proof"`
}

// Revocable reports whether the credential was issued into a revocation registry.
func (c *Credential) Revocable() bool {
	return c.RevRegID != nil && c.RevRegIndex != nil
}

// RegistryID returns the revocation registry identifier, or "" for a non revocable credential.
func (c *Credential) RegistryID() string {
	if c.RevRegID == nil {
		return ""
	}

	return c.RevRegID.String()
}

// RevocationIndex returns the registry index, or 0 for a non revocable credential.
func (c *Credential) RevocationIndex() uint32 {
	if c.RevRegIndex == nil {
		return 0
	}

	return *c.RevRegIndex
}

// EncodeAttribute encodes a raw attribute value. A 32-bit integer encodes as itself; anything else encodes as
// the decimal value of its SHA-256 digest.
func EncodeAttribute(raw string) string {
	if i, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return strconv.FormatInt(i, 10)
	}

	digest := sha256.Sum256([]byte(raw))

	return new(big.Int).SetBytes(digest[:]).String()
}
