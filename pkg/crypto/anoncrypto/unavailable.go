/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncrypto

// Unavailable is the capability of a build without an anoncreds crypto backend. Every call fails with
// ErrUnavailable.
type Unavailable struct{}

// NewCredentialKeys is not available.
func (Unavailable) NewCredentialKeys([]string, bool) (*CredentialKeys, error) {
	return nil, ErrUnavailable
}

// CreateCorrectnessProof is not available.
func (Unavailable) CreateCorrectnessProof(CredentialPublicKey, CredentialPrivateKey) (KeyCorrectnessProof, error) {
	return nil, ErrUnavailable
}

// VerifyCorrectnessProof is not available.
func (Unavailable) VerifyCorrectnessProof(CredentialPublicKey, KeyCorrectnessProof) error {
	return ErrUnavailable
}

// BlindLinkSecret is not available.
func (Unavailable) BlindLinkSecret(CredentialPublicKey, []byte, string, string) (*BlindedLinkSecret, error) {
	return nil, ErrUnavailable
}

// VerifyBlindedLinkSecret is not available.
func (Unavailable) VerifyBlindedLinkSecret(CredentialPublicKey, *BlindedLinkSecret, string) error {
	return ErrUnavailable
}

// Sign is not available.
func (Unavailable) Sign(*SignRequest) (*CredentialSignature, error) {
	return nil, ErrUnavailable
}

// VerifySignature is not available.
func (Unavailable) VerifySignature(*SignatureCheck) error {
	return ErrUnavailable
}

// NewRevocationKeys is not available.
func (Unavailable) NewRevocationKeys(uint32) (*RevocationKeys, error) {
	return nil, ErrUnavailable
}

// Accumulate is not available.
func (Unavailable) Accumulate(RevocationPublicKey, RevocationPrivateKey, uint32, []uint32) (Accumulator, error) {
	return nil, ErrUnavailable
}

// ComputeWitness is not available.
func (Unavailable) ComputeWitness(uint32, uint32, []uint32, TailsReader) (WitnessValue, error) {
	return nil, ErrUnavailable
}

// VerifyWitness is not available.
func (Unavailable) VerifyWitness(RevocationPublicKey, Accumulator, uint32, WitnessValue) (bool, error) {
	return false, ErrUnavailable
}

// CreateProof is not available.
func (Unavailable) CreateProof(*ProofRequest) (Proof, error) {
	return nil, ErrUnavailable
}

// VerifyProof is not available.
func (Unavailable) VerifyProof(Proof, *VerifyRequest) (bool, error) {
	return false, ErrUnavailable
}
