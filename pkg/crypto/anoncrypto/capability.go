/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncrypto declares the crypto capability consumed by the anoncreds services.
//
// The capability is an explicit object handed to the issuer, prover and verifier at construction time. Which
// implementation backend.Default returns is decided at build time:
//   - default build: the pure Go reference backend in package bbsacc.
//   - `noanoncrypto` build tag: Unavailable, which fails every call with ErrUnavailable.
package anoncrypto

import "errors"

// ErrUnavailable is returned by every operation of the Unavailable capability.
var ErrUnavailable = errors.New("anoncreds crypto capability is not available in this build")

// TailsReader gives a capability read access to the tails points of a registry.
type TailsReader interface {
	// Tail returns the point stored at index, or an error matching anonerr.ErrMissingTailsData.
	Tail(index uint32) ([]byte, error)
}

// CredentialKeys is the key material of a credential definition.
type CredentialKeys struct {
	PublicKey        CredentialPublicKey
	PrivateKey       CredentialPrivateKey
	CorrectnessProof KeyCorrectnessProof
}

// BlindedLinkSecret is the link secret binding carried by a credential request.
type BlindedLinkSecret struct {
	Secret BlindedSecret
	Proof  BlindedSecretProof
}

// RevocationKeys is the key material of a revocation registry, along with its tails points.
type RevocationKeys struct {
	PublicKey  RevocationPublicKey
	PrivateKey RevocationPrivateKey
	// Tails maps every tails index to its point.
	Tails map[uint32][]byte
}

// SignRequest is the input of Capability.Sign.
type SignRequest struct {
	CredDefID  string
	PublicKey  CredentialPublicKey
	PrivateKey CredentialPrivateKey
	// Values maps attribute names to their encoded values.
	Values map[string]string
	// Blinded is the prover's link secret binding.
	Blinded BlindedSecret
	// RevRegID and RevocationIndex locate the credential in its registry. Both are zero values for a
	// credential that is not revocable.
	RevRegID        string
	RevocationIndex uint32
	// Nonce is the credential request nonce.
	Nonce string
}

// CredentialSignature is the output of Capability.Sign.
type CredentialSignature struct {
	Signature        Signature
	CorrectnessProof SignatureCorrectnessProof
}

// SignatureCheck is the input of Capability.VerifySignature, run by the prover on a received credential.
type SignatureCheck struct {
	CredDefID        string
	PublicKey        CredentialPublicKey
	Values           map[string]string
	LinkSecret       []byte
	RevRegID         string
	RevocationIndex  uint32
	Signature        Signature
	CorrectnessProof SignatureCorrectnessProof
	Nonce            string
}

// PredicateType is a predicate comparison operator.
type PredicateType string

// Supported predicate operators.
const (
	GE PredicateType = ">="
	GT PredicateType = ">"
	LE PredicateType = "<="
	LT PredicateType = "<"
)

// Holds reports whether value satisfies the predicate against bound.
func (p PredicateType) Holds(value, bound int64) bool {
	switch p {
	case GE:
		return value >= bound
	case GT:
		return value > bound
	case LE:
		return value <= bound
	case LT:
		return value < bound
	default:
		return false
	}
}

// Predicate is one predicate over an attribute of a sub-proof.
type Predicate struct {
	AttrName string
	Type     PredicateType
	Value    int32
}

// NonRevocationInput is the prover side of a non-revocation sub-proof.
type NonRevocationInput struct {
	PublicKey   RevocationPublicKey
	MaxCredNum  uint32
	Accumulator Accumulator
	Index       uint32
	Witness     WitnessValue
}

// SubProofRequest is the prover side of one credential in a presentation.
type SubProofRequest struct {
	CredDefID string
	PublicKey CredentialPublicKey
	Signature Signature
	// Values maps every attribute name of the credential to its encoded value.
	Values map[string]string
	// Revealed lists the attribute names disclosed by the sub-proof.
	Revealed   []string
	Predicates []Predicate
	// RevRegID is empty and RevocationIndex is 0 for a credential that is not revocable.
	RevRegID        string
	RevocationIndex uint32
	NonRevocation   *NonRevocationInput
}

// ProofRequest is the input of Capability.CreateProof.
type ProofRequest struct {
	Nonce      string
	LinkSecret []byte
	SubProofs  []*SubProofRequest
}

// NonRevocationCheck is the verifier side of a non-revocation sub-proof. RevRegID is the registry the verifier
// looked up and Accumulator comes from its published status list, never from the presentation.
type NonRevocationCheck struct {
	RevRegID    string
	PublicKey   RevocationPublicKey
	MaxCredNum  uint32
	Accumulator Accumulator
}

// SubProofCheck is the verifier side of one credential in a presentation.
type SubProofCheck struct {
	CredDefID string
	PublicKey CredentialPublicKey
	// Revealed maps disclosed attribute names to their encoded values.
	Revealed      map[string]string
	Predicates    []Predicate
	NonRevocation *NonRevocationCheck
}

// VerifyRequest is the input of Capability.VerifyProof.
type VerifyRequest struct {
	Nonce     string
	SubProofs []*SubProofCheck
}

// Capability is the crypto capability consumed by the anoncreds services.
// Every operation is side-effect free over its inputs.
type Capability interface {
	// NewCredentialKeys generates the key material of a credential definition over attrNames.
	NewCredentialKeys(attrNames []string, supportRevocation bool) (*CredentialKeys, error)
	// CreateCorrectnessProof proves possession of the private key behind pub.
	CreateCorrectnessProof(pub CredentialPublicKey, priv CredentialPrivateKey) (KeyCorrectnessProof, error)
	// VerifyCorrectnessProof checks a key correctness proof.
	VerifyCorrectnessProof(pub CredentialPublicKey, proof KeyCorrectnessProof) error

	// BlindLinkSecret binds the link secret into a credential request for credDefID and the offer nonce.
	BlindLinkSecret(pub CredentialPublicKey, linkSecret []byte, credDefID, offerNonce string) (*BlindedLinkSecret, error)
	// VerifyBlindedLinkSecret checks the request binding against the offer nonce.
	VerifyBlindedLinkSecret(pub CredentialPublicKey, blinded *BlindedLinkSecret, offerNonce string) error

	// Sign signs a credential.
	Sign(req *SignRequest) (*CredentialSignature, error)
	// VerifySignature checks a received credential signature.
	VerifySignature(check *SignatureCheck) error

	// NewRevocationKeys generates the key material and tails points of a registry holding maxCredNum indices.
	NewRevocationKeys(maxCredNum uint32) (*RevocationKeys, error)
	// Accumulate computes the accumulator over the active indices.
	Accumulate(pub RevocationPublicKey, priv RevocationPrivateKey, maxCredNum uint32, active []uint32) (Accumulator, error)
	// ComputeWitness computes the witness of index against the accumulator of the active indices.
	ComputeWitness(maxCredNum, index uint32, active []uint32, tails TailsReader) (WitnessValue, error)
	// VerifyWitness checks a witness of index against acc.
	VerifyWitness(pub RevocationPublicKey, acc Accumulator, index uint32, witness WitnessValue) (bool, error)

	// CreateProof builds one aggregated proof for all sub-proofs.
	CreateProof(req *ProofRequest) (Proof, error)
	// VerifyProof checks an aggregated proof.
	VerifyProof(proof Proof, req *VerifyRequest) (bool, error)
}
