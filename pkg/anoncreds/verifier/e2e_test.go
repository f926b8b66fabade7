/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier_test

import (
	"testing"
	"time"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/issuer"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/prover"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/verifier"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto/bbsacc"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/tails"
)

type services struct {
	storage storage.Provider
	crypto  anoncrypto.Capability
	ledger  ledger.Registry
	tails   tails.Provider
}

func (c *services) StorageProvider() storage.Provider { return c.storage }

func (c *services) AnonCrypto() anoncrypto.Capability { return c.crypto }

func (c *services) Ledger() ledger.Registry { return c.ledger }

func (c *services) TailsProvider() tails.Provider { return c.tails }

func TestRevocationLifecycle(t *testing.T) {
	const (
		t1 = uint64(2000)
		t2 = uint64(2100)
	)

	store := mem.NewProvider()

	l, err := ledger.New(store)
	require.NoError(t, err)

	svc := &services{storage: store, crypto: bbsacc.New(), ledger: l, tails: &tails.Local{Storage: store}}

	iss, err := issuer.New(svc, issuer.WithClock(func() time.Time { return time.Unix(int64(t1)-100, 0) }))
	require.NoError(t, err)

	holder, err := prover.New(svc)
	require.NoError(t, err)

	v := verifier.New(svc)

	issuerID := identifier.IssuerID{ID: identifier.MustParse("did:example:university")}

	schemaID, _, err := iss.CreateSchema(issuerID, "transcript", "2.1", []string{"name", "degree", "average"})
	require.NoError(t, err)

	credDefID, _, err := iss.CreateCredentialDefinition(schemaID, issuerID, "spring",
		issuer.Config{SupportRevocation: true})
	require.NoError(t, err)

	revDef, _, err := iss.CreateRevocationRegistry(credDefID, "r1", 10, "")
	require.NoError(t, err)

	revRegID, err := identifier.NewRevRegID(issuerID, credDefID, "r1")
	require.NoError(t, err)
	require.True(t, revDef.CredDefID.Equal(credDefID.ID))

	linkSecret, err := holder.NewLinkSecret()
	require.NoError(t, err)

	offer, err := iss.CreateCredentialOffer(credDefID)
	require.NoError(t, err)

	credDef, err := l.CredentialDefinition(credDefID)
	require.NoError(t, err)

	credReq, md, err := holder.CreateCredentialRequest(offer, credDef, linkSecret, "")
	require.NoError(t, err)

	index := uint32(3)

	cred, err := iss.IssueCredential(offer, credReq, anoncreds.MakeCredentialValues(map[string]string{
		"name":    "Alice",
		"degree":  "Maths",
		"average": "17",
	}), &issuer.RevocationConfig{RevRegID: revRegID, Index: &index})
	require.NoError(t, err)
	require.Equal(t, index, cred.RevocationIndex())

	require.NoError(t, holder.ProcessCredential(cred, md, linkSecret, credDef))

	credID, err := holder.StoreCredential("", cred)
	require.NoError(t, err)

	stored, err := holder.GetCredential(credID)
	require.NoError(t, err)

	_, err = iss.UpdateRevocationStatus(revRegID, nil, nil, t1)
	require.NoError(t, err)

	attrs := map[string]anoncreds.AttributeInfo{
		"degree": {Name: "degree", Restrictions: anoncreds.Eq(anoncreds.TagCredDefID, credDefID.String())},
	}
	preds := map[string]anoncreds.PredicateInfo{
		"average": {Name: "average", PType: anoncrypto.GE, PValue: 10},
	}

	session, err := v.RequestPresentation("graduate", "1.0", attrs, preds, anoncreds.NewInterval(t1-1, t1+1))
	require.NoError(t, err)

	pres, err := holder.CreatePresentation(session.Request, []*anoncreds.Credential{stored}, nil, nil, linkSecret)
	require.NoError(t, err)
	require.Equal(t, t1+1, *pres.Identifiers[0].Timestamp)

	ok, err := v.VerifySession(session.ID, pres)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = iss.Revoke(revRegID, index, t2)
	require.NoError(t, err)

	list, err := l.LatestStatusList(revRegID)
	require.NoError(t, err)
	require.True(t, list.IsRevoked(index))

	_, err = holder.CreatePresentation(&anoncreds.PresentationRequest{
		Name:                "graduate",
		Version:             "1.0",
		Nonce:               session.Request.Nonce,
		RequestedAttributes: attrs,
		RequestedPredicates: preds,
		NonRevoked:          anoncreds.NewInterval(t2, t2),
	}, []*anoncreds.Credential{stored}, nil, nil, linkSecret)
	require.ErrorIs(t, err, anonerr.ErrCredentialRevoked)

	stale := *pres
	stale.Identifiers = []anoncreds.Identifier{pres.Identifiers[0]}
	ts := t2
	stale.Identifiers[0].Timestamp = &ts

	ok, err = v.Verify(&stale, session.Request)
	require.ErrorIs(t, err, anonerr.ErrTimestampOutOfRange)
	require.False(t, ok)

	later := *session.Request
	later.NonRevoked = anoncreds.NewInterval(t2-10, t2+10)

	ok, err = v.Verify(&stale, &later)
	require.ErrorIs(t, err, anonerr.ErrInvalidProof)
	require.False(t, ok)

	ok, err = v.Verify(pres, session.Request)
	require.NoError(t, err)
	require.True(t, ok, "a presentation at t1 still verifies against the status list of t1")

	strict := *session.Request
	strict.NonRevoked = anoncreds.NewInterval(t2, t2+10)

	lax := strict
	lax.NonRevoked = nil

	unproven, err := holder.CreatePresentation(&lax, []*anoncreds.Credential{stored}, nil, nil, linkSecret)
	require.NoError(t, err)
	require.Nil(t, unproven.Identifiers[0].Timestamp)

	ok, err = v.Verify(unproven, &strict)
	require.ErrorIs(t, err, anonerr.ErrUnsatisfiedRequest)
	require.False(t, ok)

	unproven.Identifiers[0].RevRegID = nil

	ok, err = v.Verify(unproven, &strict)
	require.ErrorIs(t, err, anonerr.ErrUnsatisfiedRequest, "a revocable credential cannot drop its registry")
	require.False(t, ok)
}

func TestCredentialIsBoundToItsRegistry(t *testing.T) {
	const (
		t1 = uint64(2000)
		t2 = uint64(2100)
	)

	store := mem.NewProvider()

	l, err := ledger.New(store)
	require.NoError(t, err)

	svc := &services{storage: store, crypto: bbsacc.New(), ledger: l, tails: &tails.Local{Storage: store}}

	iss, err := issuer.New(svc, issuer.WithClock(func() time.Time { return time.Unix(int64(t1)-100, 0) }))
	require.NoError(t, err)

	holder, err := prover.New(svc)
	require.NoError(t, err)

	v := verifier.New(svc)

	issuerID := identifier.IssuerID{ID: identifier.MustParse("did:example:university")}

	schemaID, _, err := iss.CreateSchema(issuerID, "transcript", "2.1", []string{"name", "degree", "average"})
	require.NoError(t, err)

	credDefID, _, err := iss.CreateCredentialDefinition(schemaID, issuerID, "spring",
		issuer.Config{SupportRevocation: true})
	require.NoError(t, err)

	credDef, err := l.CredentialDefinition(credDefID)
	require.NoError(t, err)

	index := uint32(3)

	issue := func(revRegID identifier.RevRegID, name string,
		linkSecret *anoncreds.LinkSecret) (*anoncreds.Credential, *anoncreds.CredentialRequestMetadata) {
		offer, e := iss.CreateCredentialOffer(credDefID)
		require.NoError(t, e)

		credReq, md, e := holder.CreateCredentialRequest(offer, credDef, linkSecret, "")
		require.NoError(t, e)

		cred, e := iss.IssueCredential(offer, credReq, anoncreds.MakeCredentialValues(map[string]string{
			"name":    name,
			"degree":  "Maths",
			"average": "17",
		}), &issuer.RevocationConfig{RevRegID: revRegID, Index: &index})
		require.NoError(t, e)
		require.NoError(t, holder.ProcessCredential(cred, md, linkSecret, credDef))

		return cred, md
	}

	registries := make([]identifier.RevRegID, 0, 2)

	for _, tag := range []string{"r1", "r2"} {
		_, _, err = iss.CreateRevocationRegistry(credDefID, tag, 10, "")
		require.NoError(t, err)

		id, e := identifier.NewRevRegID(issuerID, credDefID, tag)
		require.NoError(t, e)

		registries = append(registries, id)
	}

	alice, err := holder.NewLinkSecret()
	require.NoError(t, err)

	bob, err := holder.NewLinkSecret()
	require.NoError(t, err)

	cred, md := issue(registries[0], "Alice", alice)
	issue(registries[1], "Bob", bob)

	for _, id := range registries {
		_, err = iss.UpdateRevocationStatus(id, nil, nil, t1)
		require.NoError(t, err)
	}

	_, err = iss.Revoke(registries[0], index, t2)
	require.NoError(t, err)

	session, err := v.RequestPresentation("graduate", "1.0", map[string]anoncreds.AttributeInfo{
		"degree": {Name: "degree", Restrictions: anoncreds.Eq(anoncreds.TagCredDefID, credDefID.String())},
	}, nil, anoncreds.NewInterval(t2, t2+10))
	require.NoError(t, err)

	_, err = holder.CreatePresentation(session.Request, []*anoncreds.Credential{cred}, nil, nil, alice)
	require.ErrorIs(t, err, anonerr.ErrCredentialRevoked)

	moved := *cred
	moved.RevRegID = &registries[1]

	t.Run("signature does not verify in another registry", func(t *testing.T) {
		err := holder.ProcessCredential(&moved, md, alice, credDef)
		require.ErrorIs(t, err, anonerr.ErrCryptoFailure)
	})

	t.Run("presentation from another registry is rejected", func(t *testing.T) {
		pres, err := holder.CreatePresentation(session.Request, []*anoncreds.Credential{&moved}, nil, nil, alice)
		require.NoError(t, err, "index 3 of r2 is not revoked")
		require.Equal(t, registries[1].String(), pres.Identifiers[0].RevRegID.String())

		ok, err := v.VerifySession(session.ID, pres)
		require.ErrorIs(t, err, anonerr.ErrInvalidProof)
		require.False(t, ok)
	})
}
