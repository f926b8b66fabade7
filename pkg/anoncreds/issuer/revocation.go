/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/accumulator"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/tails"
)

// CreateRevocationRegistry creates a registry of maxCredNum indices for a revocable credential definition. The
// tails points are stored locally and the registry definition points at tailsBaseURL/<tails hash>; an empty
// tailsBaseURL leaves only the hash. The definition and an initial, empty status list are published.
func (i *Issuer) CreateRevocationRegistry(credDefID identifier.CredDefID, tag string, maxCredNum uint32,
	tailsBaseURL string) (*anoncreds.RevocationRegistryDefinition, *accumulator.State, error) {
	if maxCredNum == 0 {
		return nil, nil, anonerr.New(anonerr.InvalidRequest, "registry size must be positive")
	}

	credDef, err := i.ledger.CredentialDefinition(credDefID)
	if err != nil {
		return nil, nil, err
	}

	if !credDef.Value.SupportsRevocation {
		return nil, nil, anonerr.New(anonerr.InvalidRequest, "%s does not support revocation", credDefID)
	}

	id, err := identifier.NewRevRegID(credDef.IssuerID, credDefID, tag)
	if err != nil {
		return nil, nil, err
	}

	var keys *anoncrypto.RevocationKeys

	err = anonerr.Guard(func() error {
		var e error

		keys, e = i.crypto.NewRevocationKeys(maxCredNum)

		return e
	})
	if err != nil {
		return nil, nil, anonerr.Wrap(anonerr.CryptoFailure, err, "revocation keys of %s", id)
	}

	defer keys.PrivateKey.Zero()

	tailsStore, err := tails.Write(i.tailsStorage, keys.Tails)
	if err != nil {
		return nil, nil, err
	}

	if err = i.publishTails(tailsStore); err != nil {
		return nil, nil, err
	}

	location := tailsStore.Hash()
	if tailsBaseURL != "" {
		location = strings.TrimSuffix(tailsBaseURL, "/") + "/" + tailsStore.Hash()
	}

	def := &anoncreds.RevocationRegistryDefinition{
		IssuerID:  credDef.IssuerID,
		Type:      anoncreds.RegistryTypeCLAccum,
		Tag:       tag,
		CredDefID: credDefID,
		Value: anoncreds.RevocationRegistryDefinitionValue{
			MaxCredNum:    maxCredNum,
			TailsLocation: location,
			TailsHash:     tailsStore.Hash(),
			PublicKey:     keys.PublicKey,
		},
	}

	engine := accumulator.New(i.crypto, id, def, keys.PrivateKey)

	s, err := engine.NewState()
	if err != nil {
		return nil, nil, err
	}

	list, s, err := engine.Snapshot(s, i.timestamp(0, s))
	if err != nil {
		return nil, nil, err
	}

	if err = i.storeRegistry(id, credDefID, keys.PrivateKey, s); err != nil {
		return nil, nil, err
	}

	if err = i.ledger.PublishRevocationRegistryDefinition(id, def); err != nil {
		return nil, nil, err
	}

	if err = i.ledger.PublishStatusList(list); err != nil {
		return nil, nil, err
	}

	logger.Infof("created revocation registry %s of size %d, tails %s", id, maxCredNum, tailsStore.Hash())

	return def, s, nil
}

func (i *Issuer) publishTails(s *tails.Store) error {
	if i.tailsPublisher == nil {
		return nil
	}

	file, err := s.Export()
	if err != nil {
		return err
	}

	if err = i.tailsPublisher.PublishTails(s.Hash(), file); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "publish tails %s", s.Hash())
	}

	return nil
}

func (i *Issuer) storeRegistry(id identifier.RevRegID, credDefID identifier.CredDefID,
	priv anoncrypto.RevocationPrivateKey, s *accumulator.State) error {
	if _, err := i.store.Get(registryKey(id)); err == nil {
		return anonerr.New(anonerr.InvalidRequest, "registry %s already exists", id)
	}

	rawRecord, err := json.Marshal(&registryRecord{
		Private: anoncreds.RevocationRegistryDefinitionPrivate{PrivateKey: priv},
	})
	if err != nil {
		return fmt.Errorf("marshal registry record: %w", err)
	}

	rawState, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal revocation state: %w", err)
	}

	err = i.store.Batch([]storage.Operation{
		{Key: registryKey(id), Value: rawRecord},
		{Key: stateKey(id), Value: rawState},
		{Key: activeKey(credDefID), Value: []byte(id.String())},
	})
	if err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "store registry %s", id)
	}

	return nil
}

// timestamp returns requested, or the clock time pushed past the last snapshot of s when requested is 0.
func (i *Issuer) timestamp(requested uint64, s *accumulator.State) uint64 {
	if requested != 0 {
		return requested
	}

	ts := uint64(i.clock().Unix())
	if ts <= s.LastTimestamp() {
		ts = s.LastTimestamp() + 1
	}

	return ts
}

// UpdateRevocationStatus revokes and restores or issues indices as one batch, then publishes the resulting
// status list at timestamp, or at the current time when timestamp is 0. An empty batch only publishes a new
// timestamp. On failure nothing is published and the error matches ErrBatchApplication. The stored state is
// rolled back too, unless that write also fails, in which case the error carries both causes.
func (i *Issuer) UpdateRevocationStatus(revRegID identifier.RevRegID, revoked, issued []uint32,
	timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	return i.update(revRegID, accumulator.Delta{Issued: issued, Revoked: revoked}, timestamp, nil)
}

// update applies d under the registry lock. precheck, when set, sees the current state first.
func (i *Issuer) update(revRegID identifier.RevRegID, d accumulator.Delta, timestamp uint64,
	precheck func(*accumulator.State) error) (*anoncreds.RevocationStatusList, error) {
	defer i.lock(revRegID)()

	reg, err := i.registry(revRegID)
	if err != nil {
		return nil, err
	}

	defer reg.private.Zero()

	if precheck != nil {
		if err = precheck(reg.state); err != nil {
			return nil, anonerr.Wrap(anonerr.BatchApplicationError, err, "update registry %s", revRegID)
		}
	}

	list, err := i.apply(reg, d, timestamp)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.BatchApplicationError, err, "update registry %s", revRegID)
	}

	logger.Infof("registry %s: published status list at %d (%d issued, %d revoked)", revRegID, list.Timestamp,
		len(list.Issued), len(list.Revoked))

	return list, nil
}

func (i *Issuer) apply(reg *registryHandle, d accumulator.Delta,
	timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	next, err := reg.engine.Apply(reg.state, d)
	if err != nil {
		return nil, err
	}

	list, next, err := reg.engine.Snapshot(next, i.timestamp(timestamp, next))
	if err != nil {
		return nil, err
	}

	id := reg.state.RevRegID()

	if err = i.putState(id, next); err != nil {
		return nil, err
	}

	if err = i.ledger.PublishStatusList(list); err != nil {
		if restoreErr := i.putState(id, reg.state); restoreErr != nil {
			logger.Errorf("registry %s: stored state is ahead of the ledger: %v", id, restoreErr)

			return nil, fmt.Errorf("%w; restore previous state: %w", err, restoreErr)
		}

		return nil, err
	}

	return list, nil
}

// Revoke revokes one index and publishes the new status list.
func (i *Issuer) Revoke(revRegID identifier.RevRegID, index uint32,
	timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	return i.UpdateRevocationStatus(revRegID, []uint32{index}, nil, timestamp)
}

// Restore reinstates one revoked index and publishes the new status list.
func (i *Issuer) Restore(revRegID identifier.RevRegID, index uint32,
	timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	return i.update(revRegID, accumulator.Delta{Issued: []uint32{index}}, timestamp, func(s *accumulator.State) error {
		if !s.IsRevoked(index) {
			return anonerr.New(anonerr.InvalidIndex, "index %d is not revoked", index)
		}

		return nil
	})
}

// RevocationState returns the current revocation state of a registry.
func (i *Issuer) RevocationState(revRegID identifier.RevRegID) (*accumulator.State, error) {
	return i.state(revRegID)
}
