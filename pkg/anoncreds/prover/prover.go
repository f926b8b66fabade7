/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package prover requests and stores credentials and builds presentations from them.
//
// The link secret is the only secret of the prover. It is passed in by the caller for every operation that
// needs it and every copy taken from it is wiped before the operation returns.
package prover

import (
	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/tails"
)

const defaultWitnessCacheSize = 128

var logger = log.New("aries-framework/anoncreds/prover")

// Provider contains dependencies for the prover service.
type Provider interface {
	StorageProvider() storage.Provider
	AnonCrypto() anoncrypto.Capability
	Ledger() ledger.Registry
	TailsProvider() tails.Provider
}

type options struct {
	witnessCacheSize int
}

// Opt configures the prover service.
type Opt func(*options)

// WithWitnessCacheSize sets how many non revocation witnesses are kept between presentations.
func WithWitnessCacheSize(size int) Opt {
	return func(o *options) {
		o.witnessCacheSize = size
	}
}

// Prover is the anoncreds prover service.
type Prover struct {
	wallet    storage.Store
	crypto    anoncrypto.Capability
	ledger    ledger.Registry
	tails     tails.Provider
	witnesses gcache.Cache
}

// New returns the prover service.
func New(p Provider, opts ...Opt) (*Prover, error) {
	o := &options{witnessCacheSize: defaultWitnessCacheSize}
	for _, opt := range opts {
		opt(o)
	}

	wallet, err := p.StorageProvider().OpenStore(StoreName)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "open prover wallet")
	}

	return &Prover{
		wallet:    wallet,
		crypto:    p.AnonCrypto(),
		ledger:    p.Ledger(),
		tails:     p.TailsProvider(),
		witnesses: gcache.New(o.witnessCacheSize).LRU().Build(),
	}, nil
}

// NewLinkSecret generates a link secret.
func (p *Prover) NewLinkSecret() (*anoncreds.LinkSecret, error) {
	return anoncreds.NewLinkSecret()
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// CreateCredentialRequest answers offer. It checks the key correctness proof of credDef and binds linkSecret
// into the request; entropy defaults to a random UUID.
func (p *Prover) CreateCredentialRequest(offer *anoncreds.CredentialOffer, credDef *anoncreds.CredentialDefinition,
	linkSecret *anoncreds.LinkSecret, entropy string) (*anoncreds.CredentialRequest,
	*anoncreds.CredentialRequestMetadata, error) {
	if linkSecret == nil || linkSecret.IsZero() {
		return nil, nil, anonerr.New(anonerr.InvalidRequest, "link secret is required")
	}

	if err := anoncreds.ValidateNonce(offer.Nonce); err != nil {
		return nil, nil, err
	}

	if !credDef.SchemaID.Equal(offer.SchemaID.ID) {
		return nil, nil, anonerr.New(anonerr.CredentialDefinitionMismatch,
			"credential definition is over %s, the offer over %s", credDef.SchemaID, offer.SchemaID)
	}

	err := anonerr.Guard(func() error {
		return p.crypto.VerifyCorrectnessProof(credDef.Value.PublicKey, offer.KeyCorrectnessProof)
	})
	if err != nil {
		return nil, nil, anonerr.Wrap(anonerr.CryptoFailure, err, "key correctness proof of %s", offer.CredDefID)
	}

	secret := linkSecret.Bytes()
	defer wipe(secret)

	var blinded *anoncrypto.BlindedLinkSecret

	err = anonerr.Guard(func() error {
		var e error

		blinded, e = p.crypto.BlindLinkSecret(credDef.Value.PublicKey, secret, offer.CredDefID.String(), offer.Nonce)

		return e
	})
	if err != nil {
		return nil, nil, anonerr.Wrap(anonerr.CryptoFailure, err, "blind link secret")
	}

	nonce, err := anoncreds.NewNonce()
	if err != nil {
		return nil, nil, err
	}

	if entropy == "" {
		entropy = uuid.New().String()
	}

	req := &anoncreds.CredentialRequest{
		Entropy:                   entropy,
		CredDefID:                 offer.CredDefID,
		BlindedMS:                 blinded.Secret,
		BlindedMSCorrectnessProof: blinded.Proof,
		Nonce:                     nonce,
	}

	return req, &anoncreds.CredentialRequestMetadata{Nonce: nonce}, nil
}

// ProcessCredential checks a received credential: the value encodings, the registry it was issued into and the
// issuer signature over linkSecret.
func (p *Prover) ProcessCredential(cred *anoncreds.Credential, metadata *anoncreds.CredentialRequestMetadata,
	linkSecret *anoncreds.LinkSecret, credDef *anoncreds.CredentialDefinition) error {
	if linkSecret == nil || linkSecret.IsZero() {
		return anonerr.New(anonerr.InvalidRequest, "link secret is required")
	}

	for name, v := range cred.Values {
		if v.Encoded != anoncreds.EncodeAttribute(v.Raw) {
			return anonerr.New(anonerr.InvalidAttribute, "attribute %q is not encoded correctly", name)
		}
	}

	if cred.Revocable() {
		revDef, err := p.ledger.RevocationRegistryDefinition(*cred.RevRegID)
		if err != nil {
			return err
		}

		if !revDef.CredDefID.Equal(cred.CredDefID.ID) {
			return anonerr.New(anonerr.CredentialDefinitionMismatch, "registry %s does not belong to %s",
				cred.RevRegID, cred.CredDefID)
		}

		if cred.RevocationIndex() == 0 || cred.RevocationIndex() > revDef.Value.MaxCredNum {
			return anonerr.New(anonerr.InvalidIndex, "index %d is outside of registry %s", cred.RevocationIndex(),
				cred.RevRegID)
		}
	}

	secret := linkSecret.Bytes()
	defer wipe(secret)

	err := anonerr.Guard(func() error {
		return p.crypto.VerifySignature(&anoncrypto.SignatureCheck{
			CredDefID:        cred.CredDefID.String(),
			PublicKey:        credDef.Value.PublicKey,
			Values:           cred.Values.Encoded(),
			LinkSecret:       secret,
			RevRegID:         cred.RegistryID(),
			RevocationIndex:  cred.RevocationIndex(),
			Signature:        cred.Signature,
			CorrectnessProof: cred.SignatureCorrectnessProof,
			Nonce:            metadata.Nonce,
		})
	})
	if err != nil {
		return anonerr.Wrap(anonerr.CryptoFailure, err, "credential signature of %s", cred.CredDefID)
	}

	return nil
}
