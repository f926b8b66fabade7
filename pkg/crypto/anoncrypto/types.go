/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncrypto

import (
	"fmt"

	"github.com/multiformats/go-multibase"
)

// Opaque crypto material. The services never look inside these values; they only move them between the
// capability, storage and the wire. All of them marshal as base58btc multibase strings.
type (
	// CredentialPublicKey is the issuer public key of a credential definition.
	CredentialPublicKey []byte
	// CredentialPrivateKey is the issuer signing key of a credential definition.
	CredentialPrivateKey []byte
	// KeyCorrectnessProof proves the issuer holds the private key behind a CredentialPublicKey.
	KeyCorrectnessProof []byte
	// BlindedSecret is the link secret commitment sent in a credential request.
	BlindedSecret []byte
	// BlindedSecretProof binds a BlindedSecret to the offer nonce.
	BlindedSecretProof []byte
	// Signature is a credential signature.
	Signature []byte
	// SignatureCorrectnessProof binds a Signature to the request nonce.
	SignatureCorrectnessProof []byte
	// RevocationPublicKey is the public part of a revocation registry.
	RevocationPublicKey []byte
	// RevocationPrivateKey is the issuer secret of a revocation registry.
	RevocationPrivateKey []byte
	// Accumulator is the accumulator value of a revocation registry.
	Accumulator []byte
	// WitnessValue is the non-revocation witness for one index against one accumulator.
	WitnessValue []byte
	// Proof is an aggregated presentation proof.
	Proof []byte
)

func marshalText(b []byte) ([]byte, error) {
	s, err := multibase.Encode(multibase.Base58BTC, b)
	if err != nil {
		return nil, fmt.Errorf("multibase encode: %w", err)
	}

	return []byte(s), nil
}

func unmarshalText(text []byte) ([]byte, error) {
	if len(text) == 0 {
		return nil, nil
	}

	_, b, err := multibase.Decode(string(text))
	if err != nil {
		return nil, fmt.Errorf("multibase decode: %w", err)
	}

	return b, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v CredentialPublicKey) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *CredentialPublicKey) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v CredentialPrivateKey) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *CredentialPrivateKey) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// Zero wipes the key material in place.
func (v CredentialPrivateKey) Zero() { zero(v) }

// MarshalText implements encoding.TextMarshaler.
func (v KeyCorrectnessProof) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *KeyCorrectnessProof) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v BlindedSecret) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *BlindedSecret) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v BlindedSecretProof) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *BlindedSecretProof) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v Signature) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Signature) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v SignatureCorrectnessProof) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *SignatureCorrectnessProof) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v RevocationPublicKey) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *RevocationPublicKey) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v RevocationPrivateKey) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *RevocationPrivateKey) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// Zero wipes the key material in place.
func (v RevocationPrivateKey) Zero() { zero(v) }

// MarshalText implements encoding.TextMarshaler.
func (v Accumulator) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Accumulator) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v WitnessValue) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *WitnessValue) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (v Proof) MarshalText() ([]byte, error) { return marshalText(v) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Proof) UnmarshalText(text []byte) (err error) {
	*v, err = unmarshalText(text)
	return err
}
