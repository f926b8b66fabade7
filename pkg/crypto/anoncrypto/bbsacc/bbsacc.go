/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bbsacc is the pure Go reference implementation of the anoncreds crypto capability.
//
// Credentials are BBS+ signatures over BLS12-381 (see
// "github.com/hyperledger/aries-framework-go/component/kmscrypto/crypto/primitive/bbs12381g2pub"). A
// credential signs the message vector
//
//	m0 = credential definition ID (always disclosed)
//	m1 = link secret binding (never disclosed)
//	m2 = revocation index ("0" when not revocable)
//	m3.. = encoded attribute values, sorted by attribute name
//
// Revocation uses a bilinear accumulator over BLS12-381 (IBM/mathlib). For a registry of size L with
// secret γ the tails are T_k = g2^(γ^k) for k in [1, 2L] except L+1, the accumulator of the active set V is
// g2^(Σ γ^(L+1-j)), and the witness of i is ω = Π T_(L+1-j+i) over j in V, j != i. A witness verifies when
// e(g1^(γ^i), Acc) = e(g1, ω) · e(g1^γ, T_L).
//
// This backend discloses the revocation index and the predicate attributes to the verifier. It proves
// possession, selective disclosure and non-revocation; it does not hide predicate values.
package bbsacc

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/hyperledger/aries-framework-go/component/kmscrypto/crypto/primitive/bbs12381g2pub"
	"golang.org/x/crypto/blake2b"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
)

const (
	credDefMessage    = 0
	linkSecretMessage = 1
	revIndexMessage   = 2
	firstAttrMessage  = 3

	keyCorrectnessDomain = "anoncreds/bbsacc/key-correctness"
)

// Capability is the bbsacc crypto capability.
type Capability struct {
	bbs *bbs12381g2pub.BBSG2Pub
}

// New returns a bbsacc capability.
func New() *Capability {
	return &Capability{bbs: bbs12381g2pub.New()}
}

var _ anoncrypto.Capability = (*Capability)(nil)

type credentialPublicKey struct {
	Key        []byte   `json:"key"`
	Attributes []string `json:"attributes"`
	Revocation bool     `json:"revocation,omitempty"`
}

func parseCredentialPublicKey(pub anoncrypto.CredentialPublicKey) (*credentialPublicKey, error) {
	key := &credentialPublicKey{}
	if err := json.Unmarshal(pub, key); err != nil {
		return nil, fmt.Errorf("parse credential public key: %w", err)
	}

	if len(key.Key) == 0 || len(key.Attributes) == 0 {
		return nil, errors.New("parse credential public key: incomplete key")
	}

	return key, nil
}

// NewCredentialKeys generates a BBS+ key pair over the given attributes.
func (c *Capability) NewCredentialKeys(attrNames []string, supportRevocation bool) (*anoncrypto.CredentialKeys, error) {
	if len(attrNames) == 0 {
		return nil, errors.New("new credential keys: no attributes")
	}

	attrs := append([]string(nil), attrNames...)
	sort.Strings(attrs)

	for i := 1; i < len(attrs); i++ {
		if attrs[i] == attrs[i-1] {
			return nil, fmt.Errorf("new credential keys: duplicate attribute %q", attrs[i])
		}
	}

	pubKey, privKey, err := bbs12381g2pub.GenerateKeyPair(sha256.New, nil)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}

	pubBytes, err := pubKey.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	privBytes, err := privKey.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	pub, err := json.Marshal(&credentialPublicKey{Key: pubBytes, Attributes: attrs, Revocation: supportRevocation})
	if err != nil {
		return nil, fmt.Errorf("marshal credential public key: %w", err)
	}

	keys := &anoncrypto.CredentialKeys{PublicKey: pub, PrivateKey: privBytes}

	keys.CorrectnessProof, err = c.CreateCorrectnessProof(keys.PublicKey, keys.PrivateKey)
	if err != nil {
		return nil, err
	}

	return keys, nil
}

func keyManifest(key *credentialPublicKey) [][]byte {
	return [][]byte{
		[]byte(keyCorrectnessDomain),
		key.Key,
		[]byte(fmt.Sprintf("%q", key.Attributes)),
	}
}

// CreateCorrectnessProof signs the key manifest with the private key.
func (c *Capability) CreateCorrectnessProof(pub anoncrypto.CredentialPublicKey,
	priv anoncrypto.CredentialPrivateKey) (anoncrypto.KeyCorrectnessProof, error) {
	key, err := parseCredentialPublicKey(pub)
	if err != nil {
		return nil, err
	}

	sig, err := c.bbs.Sign(keyManifest(key), priv)
	if err != nil {
		return nil, fmt.Errorf("create correctness proof: %w", err)
	}

	return sig, nil
}

// VerifyCorrectnessProof checks the key manifest signature.
func (c *Capability) VerifyCorrectnessProof(pub anoncrypto.CredentialPublicKey,
	proof anoncrypto.KeyCorrectnessProof) error {
	key, err := parseCredentialPublicKey(pub)
	if err != nil {
		return err
	}

	if err = c.bbs.Verify(keyManifest(key), proof, key.Key); err != nil {
		return fmt.Errorf("verify correctness proof: %w", err)
	}

	return nil
}

func linkSecretBinding(linkSecret []byte, credDefID string) ([]byte, error) {
	h, err := blake2b.New256(linkSecret)
	if err != nil {
		return nil, fmt.Errorf("link secret binding: %w", err)
	}

	h.Write([]byte(credDefID)) // nolint:errcheck

	return h.Sum(nil), nil
}

func nonceDigest(value []byte, nonce string) []byte {
	d := blake2b.Sum256(append(append([]byte(nil), value...), nonce...))

	return d[:]
}

// BlindLinkSecret binds the link secret to the credential definition and the offer nonce.
func (c *Capability) BlindLinkSecret(pub anoncrypto.CredentialPublicKey, linkSecret []byte, credDefID,
	offerNonce string) (*anoncrypto.BlindedLinkSecret, error) {
	if _, err := parseCredentialPublicKey(pub); err != nil {
		return nil, err
	}

	if len(linkSecret) == 0 {
		return nil, errors.New("blind link secret: empty link secret")
	}

	binding, err := linkSecretBinding(linkSecret, credDefID)
	if err != nil {
		return nil, err
	}

	return &anoncrypto.BlindedLinkSecret{Secret: binding, Proof: nonceDigest(binding, offerNonce)}, nil
}

// VerifyBlindedLinkSecret checks that the binding was produced for offerNonce.
func (c *Capability) VerifyBlindedLinkSecret(pub anoncrypto.CredentialPublicKey,
	blinded *anoncrypto.BlindedLinkSecret, offerNonce string) error {
	if _, err := parseCredentialPublicKey(pub); err != nil {
		return err
	}

	if blinded == nil || len(blinded.Secret) != blake2b.Size256 {
		return errors.New("verify blinded link secret: malformed binding")
	}

	if !bytes.Equal(nonceDigest(blinded.Secret, offerNonce), blinded.Proof) {
		return errors.New("verify blinded link secret: binding does not match offer nonce")
	}

	return nil
}

// revocationMessage is the signed position of a credential: its registry and index, or "0" when the
// credential is not revocable.
func revocationMessage(revRegID string, revIndex uint32) []byte {
	if revIndex == 0 {
		return []byte("0")
	}

	return []byte(revRegID + "#" + strconv.FormatUint(uint64(revIndex), 10))
}

func credentialMessages(credDefID string, binding []byte, revRegID string, revIndex uint32, attrs []string,
	values map[string]string) ([][]byte, error) {
	if revIndex != 0 && revRegID == "" {
		return nil, errors.New("revocation index without registry")
	}

	messages := make([][]byte, firstAttrMessage+len(attrs))
	messages[credDefMessage] = []byte(credDefID)
	messages[linkSecretMessage] = binding
	messages[revIndexMessage] = revocationMessage(revRegID, revIndex)

	for i, attr := range attrs {
		v, ok := values[attr]
		if !ok {
			return nil, fmt.Errorf("missing value for attribute %q", attr)
		}

		messages[firstAttrMessage+i] = []byte(v)
	}

	if len(values) != len(attrs) {
		return nil, fmt.Errorf("got %d attribute values for %d attributes", len(values), len(attrs))
	}

	return messages, nil
}

// Sign signs the credential message vector.
func (c *Capability) Sign(req *anoncrypto.SignRequest) (*anoncrypto.CredentialSignature, error) {
	key, err := parseCredentialPublicKey(req.PublicKey)
	if err != nil {
		return nil, err
	}

	if req.RevocationIndex != 0 && !key.Revocation {
		return nil, errors.New("sign: credential definition does not support revocation")
	}

	messages, err := credentialMessages(req.CredDefID, req.Blinded, req.RevRegID, req.RevocationIndex,
		key.Attributes, req.Values)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	sig, err := c.bbs.Sign(messages, req.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	return &anoncrypto.CredentialSignature{Signature: sig, CorrectnessProof: nonceDigest(sig, req.Nonce)}, nil
}

// VerifySignature checks a received credential against the prover's link secret.
func (c *Capability) VerifySignature(check *anoncrypto.SignatureCheck) error {
	key, err := parseCredentialPublicKey(check.PublicKey)
	if err != nil {
		return err
	}

	if !bytes.Equal(nonceDigest(check.Signature, check.Nonce), check.CorrectnessProof) {
		return errors.New("verify signature: correctness proof does not match request nonce")
	}

	binding, err := linkSecretBinding(check.LinkSecret, check.CredDefID)
	if err != nil {
		return err
	}

	messages, err := credentialMessages(check.CredDefID, binding, check.RevRegID, check.RevocationIndex,
		key.Attributes, check.Values)
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	if err = c.bbs.Verify(messages, check.Signature, key.Key); err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	return nil
}
