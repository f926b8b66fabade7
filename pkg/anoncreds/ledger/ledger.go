/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger is the append-only publication point of anoncreds objects: schemas, credential definitions,
// revocation registry definitions and the timestamped history of revocation status lists.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

// StoreName is the storage namespace of the ledger.
const StoreName = "anoncreds_ledger"

const (
	schemaPrefix  = "schema/"
	credDefPrefix = "creddef/"
	revRegPrefix  = "revregdef/"
	listPrefix    = "list/"
	indexPrefix   = "listindex/"

	defaultCacheSize = 256
)

var logger = log.New("aries-framework/anoncreds/ledger")

// Registry is what the issuer, prover and verifier services need from a ledger.
type Registry interface {
	PublishSchema(id identifier.SchemaID, schema *anoncreds.Schema) error
	Schema(id identifier.SchemaID) (*anoncreds.Schema, error)
	PublishCredentialDefinition(id identifier.CredDefID, def *anoncreds.CredentialDefinition) error
	CredentialDefinition(id identifier.CredDefID) (*anoncreds.CredentialDefinition, error)
	PublishRevocationRegistryDefinition(id identifier.RevRegID, def *anoncreds.RevocationRegistryDefinition) error
	RevocationRegistryDefinition(id identifier.RevRegID) (*anoncreds.RevocationRegistryDefinition, error)
	PublishStatusList(list *anoncreds.RevocationStatusList) error
	StatusListAt(id identifier.RevRegID, timestamp uint64) (*anoncreds.RevocationStatusList, error)
	LatestStatusList(id identifier.RevRegID) (*anoncreds.RevocationStatusList, error)
	StatusListTimestamps(id identifier.RevRegID) ([]uint64, error)
}

type options struct {
	cacheSize int
}

// Opt configures a Ledger.
type Opt func(*options)

// WithCacheSize sets the number of status lists kept in memory.
func WithCacheSize(size int) Opt {
	return func(o *options) {
		o.cacheSize = size
	}
}

// Ledger implements Registry on a storage provider. Published objects are never modified.
type Ledger struct {
	store storage.Store
	lists gcache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New opens the ledger store of provider.
func New(provider storage.Provider, opts ...Opt) (*Ledger, error) {
	o := &options{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(o)
	}

	store, err := provider.OpenStore(StoreName)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "open ledger store")
	}

	return &Ledger{
		store: store,
		lists: gcache.New(o.cacheSize).LRU().Build(),
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (l *Ledger) lock(key string) func() {
	l.mu.Lock()

	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}

	l.mu.Unlock()

	m.Lock()

	return m.Unlock
}

func (l *Ledger) publish(prefix string, id identifier.ID, v interface{}) error {
	if id.IsZero() {
		return anonerr.New(anonerr.InvalidIdentifier, "cannot publish under an empty id")
	}

	key := prefix + id.String()

	defer l.lock(key)()

	if _, err := l.store.Get(key); err == nil {
		return anonerr.New(anonerr.InvalidRequest, "%s is already published", key)
	} else if !errors.Is(err, storage.ErrDataNotFound) {
		return anonerr.Wrap(anonerr.StorageFailure, err, "read %s", key)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err = l.store.Put(key, raw); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "write %s", key)
	}

	logger.Debugf("published %s", key)

	return nil
}

func (l *Ledger) read(key string, v interface{}) error {
	raw, err := l.store.Get(key)
	if errors.Is(err, storage.ErrDataNotFound) {
		return anonerr.New(anonerr.NotFound, "%s is not published", key)
	}

	if err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "read %s", key)
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "decode %s", key)
	}

	return nil
}

// PublishSchema publishes a schema under id.
func (l *Ledger) PublishSchema(id identifier.SchemaID, schema *anoncreds.Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	return l.publish(schemaPrefix, id.ID, schema)
}

// Schema returns the schema published under id.
func (l *Ledger) Schema(id identifier.SchemaID) (*anoncreds.Schema, error) {
	s := &anoncreds.Schema{}
	if err := l.read(schemaPrefix+id.String(), s); err != nil {
		return nil, err
	}

	return s, nil
}

// PublishCredentialDefinition publishes a credential definition under id.
func (l *Ledger) PublishCredentialDefinition(id identifier.CredDefID, def *anoncreds.CredentialDefinition) error {
	return l.publish(credDefPrefix, id.ID, def)
}

// CredentialDefinition returns the credential definition published under id.
func (l *Ledger) CredentialDefinition(id identifier.CredDefID) (*anoncreds.CredentialDefinition, error) {
	def := &anoncreds.CredentialDefinition{}
	if err := l.read(credDefPrefix+id.String(), def); err != nil {
		return nil, err
	}

	return def, nil
}

// PublishRevocationRegistryDefinition publishes a revocation registry definition under id.
func (l *Ledger) PublishRevocationRegistryDefinition(id identifier.RevRegID,
	def *anoncreds.RevocationRegistryDefinition) error {
	return l.publish(revRegPrefix, id.ID, def)
}

// RevocationRegistryDefinition returns the revocation registry definition published under id.
func (l *Ledger) RevocationRegistryDefinition(id identifier.RevRegID) (*anoncreds.RevocationRegistryDefinition,
	error) {
	def := &anoncreds.RevocationRegistryDefinition{}
	if err := l.read(revRegPrefix+id.String(), def); err != nil {
		return nil, err
	}

	return def, nil
}

func listKey(id identifier.RevRegID, timestamp uint64) string {
	return fmt.Sprintf("%s%s/%020d", listPrefix, id, timestamp)
}

func (l *Ledger) timestamps(id identifier.RevRegID) ([]uint64, error) {
	raw, err := l.store.Get(indexPrefix + id.String())
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "read status list index of %s", id)
	}

	var ts []uint64
	if err = json.Unmarshal(raw, &ts); err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "decode status list index of %s", id)
	}

	return ts, nil
}

// PublishStatusList appends list to the history of its registry. Its timestamp must be later than every
// published one. The list and the history index are written in one batch.
func (l *Ledger) PublishStatusList(list *anoncreds.RevocationStatusList) error {
	if list.RevRegDefID.IsZero() {
		return anonerr.New(anonerr.InvalidIdentifier, "status list has no registry id")
	}

	defer l.lock(listPrefix + list.RevRegDefID.String())()

	ts, err := l.timestamps(list.RevRegDefID)
	if err != nil {
		return err
	}

	if n := len(ts); n > 0 && list.Timestamp <= ts[n-1] {
		return anonerr.New(anonerr.InvalidTimestamp, "status list of %s at %d is not after %d",
			list.RevRegDefID, list.Timestamp, ts[n-1])
	}

	rawList, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal status list: %w", err)
	}

	rawIndex, err := json.Marshal(append(ts, list.Timestamp))
	if err != nil {
		return fmt.Errorf("marshal status list index: %w", err)
	}

	err = l.store.Batch([]storage.Operation{
		{Key: listKey(list.RevRegDefID, list.Timestamp), Value: rawList, PutOptions: &storage.PutOptions{IsNewKey: true}},
		{Key: indexPrefix + list.RevRegDefID.String(), Value: rawIndex},
	})
	if err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "publish status list of %s", list.RevRegDefID)
	}

	logger.Debugf("published status list of %s at %d", list.RevRegDefID, list.Timestamp)

	return nil
}

func (l *Ledger) statusList(id identifier.RevRegID, timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	key := listKey(id, timestamp)

	if v, err := l.lists.Get(key); err == nil {
		return v.(*anoncreds.RevocationStatusList), nil //nolint:forcetypeassert
	}

	list := &anoncreds.RevocationStatusList{}
	if err := l.read(key, list); err != nil {
		return nil, err
	}

	if err := l.lists.Set(key, list); err != nil {
		logger.Warnf("cache status list %s: %v", key, err)
	}

	return list, nil
}

// StatusListAt returns the latest status list published at or before timestamp.
func (l *Ledger) StatusListAt(id identifier.RevRegID, timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	ts, err := l.timestamps(id)
	if err != nil {
		return nil, err
	}

	i := sort.Search(len(ts), func(i int) bool { return ts[i] > timestamp })
	if i == 0 {
		return nil, anonerr.New(anonerr.TimestampOutOfRange, "no status list of %s at or before %d", id, timestamp)
	}

	return l.statusList(id, ts[i-1])
}

// LatestStatusList returns the most recent status list of a registry.
func (l *Ledger) LatestStatusList(id identifier.RevRegID) (*anoncreds.RevocationStatusList, error) {
	ts, err := l.timestamps(id)
	if err != nil {
		return nil, err
	}

	if len(ts) == 0 {
		return nil, anonerr.New(anonerr.NotFound, "no status list of %s", id)
	}

	return l.statusList(id, ts[len(ts)-1])
}

// StatusListTimestamps returns the timestamps of every published status list of a registry, in order.
func (l *Ledger) StatusListTimestamps(id identifier.RevRegID) ([]uint64, error) {
	return l.timestamps(id)
}
