/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
)

// StoreName is the storage namespace of the prover wallet.
const StoreName = "anoncreds_wallet"

const credentialTag = "credential"

// StoredCredential is a credential held in the wallet.
type StoredCredential struct {
	ID         string                `json:"id"`
	Credential *anoncreds.Credential `json:"credential"`
}

// StoreCredential saves cred under id, or under a new id when id is empty, and returns the id.
func (p *Prover) StoreCredential(id string, cred *anoncreds.Credential) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}

	raw, err := json.Marshal(&StoredCredential{ID: id, Credential: cred})
	if err != nil {
		return "", fmt.Errorf("marshal credential: %w", err)
	}

	if err = p.wallet.Put(id, raw, storage.Tag{Name: credentialTag}); err != nil {
		return "", anonerr.Wrap(anonerr.StorageFailure, err, "store credential %s", id)
	}

	logger.Debugf("stored credential %s of %s", id, cred.CredDefID)

	return id, nil
}

// GetCredential returns the credential stored under id.
func (p *Prover) GetCredential(id string) (*anoncreds.Credential, error) {
	raw, err := p.wallet.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, anonerr.New(anonerr.NotFound, "credential %s not found", id)
	}

	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "read credential %s", id)
	}

	stored := &StoredCredential{}
	if err = json.Unmarshal(raw, stored); err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "decode credential %s", id)
	}

	return stored.Credential, nil
}

// DeleteCredential removes the credential stored under id.
func (p *Prover) DeleteCredential(id string) error {
	if err := p.wallet.Delete(id); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "delete credential %s", id)
	}

	return nil
}

// Credentials returns every stored credential, ordered by id.
func (p *Prover) Credentials() ([]*StoredCredential, error) {
	it, err := p.wallet.Query(credentialTag)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "query wallet")
	}

	defer storage.Close(it, logger)

	var out []*StoredCredential

	more, err := it.Next()
	for ; err == nil && more; more, err = it.Next() {
		raw, e := it.Value()
		if e != nil {
			return nil, anonerr.Wrap(anonerr.StorageFailure, e, "read wallet entry")
		}

		stored := &StoredCredential{}
		if e = json.Unmarshal(raw, stored); e != nil {
			return nil, anonerr.Wrap(anonerr.StorageFailure, e, "decode wallet entry")
		}

		out = append(out, stored)
	}

	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "iterate wallet")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// FindCredentials returns the stored credentials whose tags satisfy restriction, ordered by id.
func (p *Prover) FindCredentials(restriction *anoncreds.Query) ([]*StoredCredential, error) {
	all, err := p.Credentials()
	if err != nil {
		return nil, err
	}

	var out []*StoredCredential

	for _, c := range all {
		tags, err := p.CredentialTags(c.Credential)
		if err != nil {
			return nil, err
		}

		if restriction.Match(tags) {
			out = append(out, c)
		}
	}

	return out, nil
}

// CredentialTags returns the tags restrictions are evaluated against. Schema and issuer tags come from the
// published definitions.
func (p *Prover) CredentialTags(cred *anoncreds.Credential) (anoncreds.Tags, error) {
	schema, err := p.ledger.Schema(cred.SchemaID)
	if err != nil {
		return nil, err
	}

	def, err := p.ledger.CredentialDefinition(cred.CredDefID)
	if err != nil {
		return nil, err
	}

	tags := anoncreds.Tags{
		anoncreds.TagSchemaID:        cred.SchemaID.String(),
		anoncreds.TagSchemaIssuerDID: schema.IssuerID.String(),
		anoncreds.TagSchemaIssuerID:  schema.IssuerID.String(),
		anoncreds.TagSchemaName:      schema.Name,
		anoncreds.TagSchemaVersion:   schema.Version,
		anoncreds.TagIssuerDID:       def.IssuerID.String(),
		anoncreds.TagIssuerID:        def.IssuerID.String(),
		anoncreds.TagCredDefID:       cred.CredDefID.String(),
	}

	if cred.RevRegID != nil {
		tags[anoncreds.TagRevRegID] = cred.RevRegID.String()
	}

	for name, v := range cred.Values {
		tags[anoncreds.AttrMarkerTag(name)] = "1"
		tags[anoncreds.AttrValueTag(name)] = v.Raw
	}

	return tags, nil
}
