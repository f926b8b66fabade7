/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/accumulator"
)

// StoreName is the storage namespace holding the issuer secrets and revocation states.
const StoreName = "anoncreds_issuer"

const (
	credDefKeyPrefix  = "creddef/"
	registryKeyPrefix = "revreg/"
	stateKeyPrefix    = "revstate/"
	activeKeyPrefix   = "active/"
)

type credDefRecord struct {
	Private          anoncreds.CredentialDefinitionPrivate `json:"private"`
	CorrectnessProof anoncrypto.KeyCorrectnessProof         `json:"keyCorrectnessProof"`
}

type registryRecord struct {
	Private anoncreds.RevocationRegistryDefinitionPrivate `json:"private"`
}

func credDefKey(id identifier.CredDefID) string {
	return credDefKeyPrefix + id.String()
}

func registryKey(id identifier.RevRegID) string {
	return registryKeyPrefix + id.String()
}

func stateKey(id identifier.RevRegID) string {
	return stateKeyPrefix + id.String()
}

func activeKey(id identifier.CredDefID) string {
	return activeKeyPrefix + id.String()
}

func (i *Issuer) get(key string, v interface{}) error {
	raw, err := i.store.Get(key)
	if errors.Is(err, storage.ErrDataNotFound) {
		return anonerr.New(anonerr.NotFound, "%s not found", key)
	}

	if err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "read %s", key)
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "decode %s", key)
	}

	return nil
}

func (i *Issuer) putNew(key string, v interface{}) error {
	if _, err := i.store.Get(key); err == nil {
		return anonerr.New(anonerr.InvalidRequest, "%s already exists", key)
	} else if !errors.Is(err, storage.ErrDataNotFound) {
		return anonerr.Wrap(anonerr.StorageFailure, err, "read %s", key)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err = i.store.Put(key, raw); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "write %s", key)
	}

	return nil
}

func (i *Issuer) credDef(id identifier.CredDefID) (*credDefRecord, error) {
	rec := &credDefRecord{}
	if err := i.get(credDefKey(id), rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (i *Issuer) state(id identifier.RevRegID) (*accumulator.State, error) {
	s := &accumulator.State{}
	if err := i.get(stateKey(id), s); err != nil {
		return nil, err
	}

	return s, nil
}

func (i *Issuer) putState(id identifier.RevRegID, s *accumulator.State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal revocation state: %w", err)
	}

	if err = i.store.Put(stateKey(id), raw); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "write revocation state of %s", id)
	}

	return nil
}

func (i *Issuer) activeRegistry(id identifier.CredDefID) (identifier.RevRegID, error) {
	raw, err := i.store.Get(activeKey(id))
	if errors.Is(err, storage.ErrDataNotFound) {
		return identifier.RevRegID{}, anonerr.New(anonerr.InvalidRequest, "%s has no revocation registry", id)
	}

	if err != nil {
		return identifier.RevRegID{}, anonerr.Wrap(anonerr.StorageFailure, err, "read registry of %s", id)
	}

	return identifier.ParseRevRegID(string(raw))
}

// registryHandle is a registry loaded for one write. private must be zeroed once the write is done.
type registryHandle struct {
	def     *anoncreds.RevocationRegistryDefinition
	private *anoncreds.RevocationRegistryDefinitionPrivate
	state   *accumulator.State
	engine  *accumulator.Engine
}

func (i *Issuer) registry(id identifier.RevRegID) (*registryHandle, error) {
	def, err := i.ledger.RevocationRegistryDefinition(id)
	if err != nil {
		return nil, err
	}

	rec := &registryRecord{}
	if err = i.get(registryKey(id), rec); err != nil {
		return nil, err
	}

	s, err := i.state(id)
	if err != nil {
		rec.Private.Zero()

		return nil, err
	}

	return &registryHandle{
		def:     def,
		private: &rec.Private,
		state:   s,
		engine:  accumulator.New(i.crypto, id, def, rec.Private.PrivateKey),
	}, nil
}
