/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package issuer creates schemas, credential definitions and revocation registries, issues credentials and is
// the only writer of revocation state.
package issuer

import (
	"sync"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

var logger = log.New("aries-framework/anoncreds/issuer")

// Provider contains dependencies for the issuer service.
type Provider interface {
	StorageProvider() storage.Provider
	AnonCrypto() anoncrypto.Capability
	Ledger() ledger.Registry
}

// Config of a credential definition.
type Config struct {
	SupportRevocation bool
}

// RevocationConfig selects where a revocable credential is issued. A nil Index takes the lowest unused index;
// a zero RevRegID takes the latest registry created for the credential definition.
type RevocationConfig struct {
	RevRegID identifier.RevRegID
	Index    *uint32
}

// Opt configures the issuer service.
type Opt func(*Issuer)

// WithClock sets the clock that stamps status lists when the caller gives no timestamp.
func WithClock(clock func() time.Time) Opt {
	return func(i *Issuer) {
		i.clock = clock
	}
}

// WithTailsStorage stores generated tails points in p instead of the main storage provider.
func WithTailsStorage(p storage.Provider) Opt {
	return func(i *Issuer) {
		i.tailsStorage = p
	}
}

// TailsPublisher makes a tails file available at the location a registry definition points at.
type TailsPublisher interface {
	PublishTails(hash string, file []byte) error
}

// WithTailsPublisher uploads the tails file of every new registry through p before the registry is published.
func WithTailsPublisher(p TailsPublisher) Opt {
	return func(i *Issuer) {
		i.tailsPublisher = p
	}
}

// Issuer is the anoncreds issuer service.
type Issuer struct {
	store          storage.Store
	tailsStorage   storage.Provider
	tailsPublisher TailsPublisher
	crypto         anoncrypto.Capability
	ledger         ledger.Registry
	clock          func() time.Time

	mu    sync.Mutex
	locks map[string]*registryLock
}

// registryLock is dropped from Issuer.locks once nobody holds or waits for it.
type registryLock struct {
	sync.Mutex
	refs int
}

// New returns the issuer service.
func New(p Provider, opts ...Opt) (*Issuer, error) {
	store, err := p.StorageProvider().OpenStore(StoreName)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "open issuer store")
	}

	i := &Issuer{
		store:        store,
		tailsStorage: p.StorageProvider(),
		crypto:       p.AnonCrypto(),
		ledger:       p.Ledger(),
		clock:        time.Now,
		locks:        make(map[string]*registryLock),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// lock serializes writers of one registry. The returned func releases it.
func (i *Issuer) lock(id identifier.RevRegID) func() {
	key := id.String()

	i.mu.Lock()

	l, ok := i.locks[key]
	if !ok {
		l = &registryLock{}
		i.locks[key] = l
	}

	l.refs++

	i.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		i.mu.Lock()
		defer i.mu.Unlock()

		if l.refs--; l.refs == 0 {
			delete(i.locks, key)
		}
	}
}

// CreateSchema validates and publishes a schema.
func (i *Issuer) CreateSchema(issuerID identifier.IssuerID, name, version string,
	attrNames []string) (identifier.SchemaID, *anoncreds.Schema, error) {
	schema := &anoncreds.Schema{Name: name, Version: version, AttrNames: attrNames, IssuerID: issuerID}
	if err := schema.Validate(); err != nil {
		return identifier.SchemaID{}, nil, err
	}

	id, err := identifier.NewSchemaID(issuerID, name, version)
	if err != nil {
		return identifier.SchemaID{}, nil, err
	}

	if err = i.ledger.PublishSchema(id, schema); err != nil {
		return identifier.SchemaID{}, nil, err
	}

	logger.Infof("created schema %s", id)

	return id, schema, nil
}

// CreateCredentialDefinition generates the keys of a credential definition over a published schema, keeps the
// private part and publishes the public one.
func (i *Issuer) CreateCredentialDefinition(schemaID identifier.SchemaID, issuerID identifier.IssuerID, tag string,
	cfg Config) (identifier.CredDefID, *anoncreds.CredentialDefinition, error) {
	schema, err := i.ledger.Schema(schemaID)
	if err != nil {
		return identifier.CredDefID{}, nil, err
	}

	id, err := identifier.NewCredDefID(issuerID, schemaID, tag)
	if err != nil {
		return identifier.CredDefID{}, nil, err
	}

	var keys *anoncrypto.CredentialKeys

	err = anonerr.Guard(func() error {
		var e error

		keys, e = i.crypto.NewCredentialKeys(schema.AttrNames, cfg.SupportRevocation)

		return e
	})
	if err != nil {
		return identifier.CredDefID{}, nil, anonerr.Wrap(anonerr.CryptoFailure, err, "credential keys of %s", id)
	}

	defer keys.PrivateKey.Zero()

	def := &anoncreds.CredentialDefinition{
		SchemaID: schemaID,
		IssuerID: issuerID,
		Type:     anoncreds.SignatureTypeCL,
		Tag:      tag,
		Value: anoncreds.CredentialDefinitionData{
			PublicKey:          keys.PublicKey,
			SupportsRevocation: cfg.SupportRevocation,
		},
	}

	err = i.putNew(credDefKey(id), &credDefRecord{
		Private:          anoncreds.CredentialDefinitionPrivate{PrivateKey: keys.PrivateKey},
		CorrectnessProof: keys.CorrectnessProof,
	})
	if err != nil {
		return identifier.CredDefID{}, nil, err
	}

	if err = i.ledger.PublishCredentialDefinition(id, def); err != nil {
		return identifier.CredDefID{}, nil, err
	}

	logger.Infof("created credential definition %s (revocation: %t)", id, cfg.SupportRevocation)

	return id, def, nil
}

// CreateCredentialOffer starts an issuance with a fresh nonce.
func (i *Issuer) CreateCredentialOffer(credDefID identifier.CredDefID) (*anoncreds.CredentialOffer, error) {
	def, err := i.ledger.CredentialDefinition(credDefID)
	if err != nil {
		return nil, err
	}

	rec, err := i.credDef(credDefID)
	if err != nil {
		return nil, err
	}

	rec.Private.Zero()

	nonce, err := anoncreds.NewNonce()
	if err != nil {
		return nil, err
	}

	return &anoncreds.CredentialOffer{
		SchemaID:            def.SchemaID,
		CredDefID:           credDefID,
		KeyCorrectnessProof: rec.CorrectnessProof,
		Nonce:               nonce,
	}, nil
}

// IssueCredential signs values for the prover that sent request in answer to offer. A revocable credential is
// issued into a registry; rev selects which one and at which index, and may be nil.
func (i *Issuer) IssueCredential(offer *anoncreds.CredentialOffer, request *anoncreds.CredentialRequest,
	values anoncreds.CredentialValues, rev *RevocationConfig) (*anoncreds.Credential, error) {
	if !request.CredDefID.Equal(offer.CredDefID.ID) {
		return nil, anonerr.New(anonerr.CredentialDefinitionMismatch,
			"request is for %s but the offer is for %s", request.CredDefID, offer.CredDefID)
	}

	if err := anoncreds.ValidateNonce(request.Nonce); err != nil {
		return nil, err
	}

	def, err := i.ledger.CredentialDefinition(offer.CredDefID)
	if err != nil {
		return nil, err
	}

	if !def.SchemaID.Equal(offer.SchemaID.ID) {
		return nil, anonerr.New(anonerr.CredentialDefinitionMismatch,
			"offer schema %s does not match %s of %s", offer.SchemaID, def.SchemaID, offer.CredDefID)
	}

	err = anonerr.Guard(func() error {
		return i.crypto.VerifyBlindedLinkSecret(def.Value.PublicKey, &anoncrypto.BlindedLinkSecret{
			Secret: request.BlindedMS,
			Proof:  request.BlindedMSCorrectnessProof,
		}, offer.Nonce)
	})
	if err != nil {
		return nil, anonerr.Wrap(anonerr.NonceMismatch, err, "credential request does not answer the offer")
	}

	schema, err := i.ledger.Schema(def.SchemaID)
	if err != nil {
		return nil, err
	}

	vals, err := canonicalValues(schema, values)
	if err != nil {
		return nil, err
	}

	rec, err := i.credDef(offer.CredDefID)
	if err != nil {
		return nil, err
	}

	defer rec.Private.Zero()

	cred := &anoncreds.Credential{SchemaID: def.SchemaID, CredDefID: offer.CredDefID, Values: vals}

	if !def.Value.SupportsRevocation {
		if rev != nil {
			return nil, anonerr.New(anonerr.InvalidRequest, "%s does not support revocation", offer.CredDefID)
		}

		err = i.sign(cred, def, rec, request, 0)
	} else {
		err = i.issueRevocable(cred, def, rec, request, rev)
	}

	if err != nil {
		return nil, err
	}

	return cred, nil
}

func (i *Issuer) issueRevocable(cred *anoncreds.Credential, def *anoncreds.CredentialDefinition, rec *credDefRecord,
	request *anoncreds.CredentialRequest, rev *RevocationConfig) error {
	if rev == nil {
		rev = &RevocationConfig{}
	}

	revRegID := rev.RevRegID
	if revRegID.IsZero() {
		var err error

		if revRegID, err = i.activeRegistry(cred.CredDefID); err != nil {
			return err
		}
	}

	defer i.lock(revRegID)()

	reg, err := i.registry(revRegID)
	if err != nil {
		return err
	}

	defer reg.private.Zero()

	if !reg.def.CredDefID.Equal(cred.CredDefID.ID) {
		return anonerr.New(anonerr.CredentialDefinitionMismatch, "registry %s belongs to %s, not %s",
			revRegID, reg.def.CredDefID, cred.CredDefID)
	}

	var (
		next  = reg.state
		index uint32
	)

	if rev.Index != nil {
		index = *rev.Index
		next, err = reg.engine.Issue(reg.state, index)
	} else {
		next, index, err = reg.engine.IssueNext(reg.state)
	}

	if err != nil {
		return err
	}

	cred.RevRegID = &revRegID
	cred.RevRegIndex = &index

	if err = i.sign(cred, def, rec, request, index); err != nil {
		return err
	}

	if err = i.putState(revRegID, next); err != nil {
		return err
	}

	logger.Debugf("issued index %d of %s", index, revRegID)

	return nil
}

func (i *Issuer) sign(cred *anoncreds.Credential, def *anoncreds.CredentialDefinition, rec *credDefRecord,
	request *anoncreds.CredentialRequest, index uint32) error {
	var sig *anoncrypto.CredentialSignature

	err := anonerr.Guard(func() error {
		var e error

		sig, e = i.crypto.Sign(&anoncrypto.SignRequest{
			CredDefID:       cred.CredDefID.String(),
			PublicKey:       def.Value.PublicKey,
			PrivateKey:      rec.Private.PrivateKey,
			Values:          cred.Values.Encoded(),
			Blinded:         request.BlindedMS,
			RevRegID:        cred.RegistryID(),
			RevocationIndex: index,
			Nonce:           request.Nonce,
		})

		return e
	})
	if err != nil {
		return anonerr.Wrap(anonerr.CryptoFailure, err, "sign credential of %s", cred.CredDefID)
	}

	cred.Signature = sig.Signature
	cred.SignatureCorrectnessProof = sig.CorrectnessProof

	return nil
}

// canonicalValues keys values by the schema spelling of each attribute and checks that every attribute is
// present exactly once with a correct encoding.
func canonicalValues(schema *anoncreds.Schema, values anoncreds.CredentialValues) (anoncreds.CredentialValues, error) {
	names := make(map[string]string, len(schema.AttrNames))
	for _, name := range schema.AttrNames {
		names[anoncreds.AttrCommonView(name)] = name
	}

	out := make(anoncreds.CredentialValues, len(values))

	for name, v := range values {
		attr, ok := names[anoncreds.AttrCommonView(name)]
		if !ok {
			return nil, anonerr.New(anonerr.InvalidAttribute, "attribute %q is not in schema %s", name, schema.Name)
		}

		if _, ok = out[attr]; ok {
			return nil, anonerr.New(anonerr.InvalidAttribute, "attribute %q is given more than once", name)
		}

		encoded := anoncreds.EncodeAttribute(v.Raw)
		if v.Encoded != "" && v.Encoded != encoded {
			return nil, anonerr.New(anonerr.InvalidAttribute, "attribute %q is not encoded correctly", name)
		}

		out[attr] = anoncreds.AttributeValues{Raw: v.Raw, Encoded: encoded}
	}

	for _, name := range schema.AttrNames {
		if _, ok := out[name]; !ok {
			return nil, anonerr.New(anonerr.InvalidAttribute, "missing value for attribute %q", name)
		}
	}

	return out, nil
}
