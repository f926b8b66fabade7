/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package tails stores the tails points of revocation registries.
//
// A tails file is published next to its registry definition and identified by its content hash. The prover keeps
// a local copy in a storage provider and reads individual points from it to compute witnesses.
package tails

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

// StoreName is the storage namespace used for tails points.
const StoreName = "anoncreds_tails"

const (
	tagName          = "tails"
	defaultCacheSize = 1024
)

var logger = log.New("aries-framework/anoncreds/tails")

type options struct {
	cacheSize int
}

// Opt configures a Store.
type Opt func(*options)

// WithCacheSize sets the number of decoded points kept in memory.
func WithCacheSize(size int) Opt {
	return func(o *options) {
		o.cacheSize = size
	}
}

// Store gives indexed access to the tails points of one registry.
type Store struct {
	store storage.Store
	hash  string
	cache gcache.Cache
}

// Open opens the tails points recorded under hash. It does not check that any point is present.
func Open(provider storage.Provider, hash string, opts ...Opt) (*Store, error) {
	if hash == "" || strings.ContainsAny(hash, ":/") {
		return nil, anonerr.New(anonerr.InvalidRequest, "invalid tails hash %q", hash)
	}

	o := &options{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(o)
	}

	store, err := provider.OpenStore(StoreName)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "open tails store")
	}

	s := &Store{store: store, hash: hash}
	s.cache = gcache.New(o.cacheSize).LRU().LoaderFunc(func(key interface{}) (interface{}, error) {
		return s.load(key.(uint32)) //nolint:forcetypeassert
	}).Build()

	return s, nil
}

// Write stores the points generated for a new registry and returns the store, addressed by the resulting
// tails hash.
func Write(provider storage.Provider, points map[uint32][]byte, opts ...Opt) (*Store, error) {
	if len(points) == 0 {
		return nil, anonerr.New(anonerr.InvalidRequest, "no tails points")
	}

	file := Encode(points)

	s, err := Open(provider, Hash(file), opts...)
	if err != nil {
		return nil, err
	}

	if err = s.putAll(points); err != nil {
		return nil, err
	}

	logger.Debugf("wrote %d tails points under %s", len(points), s.hash)

	return s, nil
}

// Import checks file against expectedHash before anything is stored, then stores its points.
func Import(provider storage.Provider, file []byte, expectedHash string, opts ...Opt) (*Store, error) {
	if got := Hash(file); got != expectedHash {
		return nil, anonerr.New(anonerr.CorruptTailsData, "tails hash mismatch: expected %s, got %s",
			expectedHash, got)
	}

	points, err := Decode(file)
	if err != nil {
		return nil, err
	}

	s, err := Open(provider, expectedHash, opts...)
	if err != nil {
		return nil, err
	}

	if err = s.putAll(points); err != nil {
		return nil, err
	}

	return s, nil
}

// Hash returns the tails hash the store is addressed by.
func (s *Store) Hash() string {
	return s.hash
}

func (s *Store) key(index uint32) string {
	return s.hash + "/" + strconv.FormatUint(uint64(index), 10)
}

func (s *Store) tags() []storage.Tag {
	return []storage.Tag{{Name: tagName, Value: s.hash}}
}

func (s *Store) putAll(points map[uint32][]byte) error {
	ops := make([]storage.Operation, 0, len(points))

	for index, point := range points {
		ops = append(ops, storage.Operation{Key: s.key(index), Value: point, Tags: s.tags()})
	}

	if err := s.store.Batch(ops); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "store tails points")
	}

	s.cache.Purge()

	return nil
}

func (s *Store) load(index uint32) ([]byte, error) {
	point, err := s.store.Get(s.key(index))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, anonerr.New(anonerr.MissingTailsData, "tails point %d not found under %s", index, s.hash)
	}

	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "read tails point %d", index)
	}

	return point, nil
}

// Get returns the point stored at index. A missing point is MissingTailsData.
func (s *Store) Get(index uint32) ([]byte, error) {
	v, err := s.cache.Get(index)
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil //nolint:forcetypeassert
}

// Tail implements anoncrypto.TailsReader.
func (s *Store) Tail(index uint32) ([]byte, error) {
	return s.Get(index)
}

// Put stores a single point.
func (s *Store) Put(index uint32, point []byte) error {
	if err := s.store.Put(s.key(index), point, s.tags()...); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "store tails point %d", index)
	}

	s.cache.Remove(index)

	return nil
}

// Points returns every stored point.
func (s *Store) Points() (map[uint32][]byte, error) {
	it, err := s.store.Query(tagName + ":" + s.hash)
	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, "query tails points")
	}

	defer storage.Close(it, logger)

	points := make(map[uint32][]byte)

	for {
		more, err := it.Next()
		if err != nil {
			return nil, anonerr.Wrap(anonerr.StorageFailure, err, "iterate tails points")
		}

		if !more {
			break
		}

		key, err := it.Key()
		if err != nil {
			return nil, anonerr.Wrap(anonerr.StorageFailure, err, "read tails key")
		}

		index, err := strconv.ParseUint(strings.TrimPrefix(key, s.hash+"/"), 10, 32)
		if err != nil {
			return nil, anonerr.Wrap(anonerr.CorruptTailsData, err, "tails key %s", key)
		}

		value, err := it.Value()
		if err != nil {
			return nil, anonerr.Wrap(anonerr.StorageFailure, err, "read tails point %s", key)
		}

		points[uint32(index)] = value
	}

	if len(points) == 0 {
		return nil, anonerr.New(anonerr.MissingTailsData, "no tails points stored under %s", s.hash)
	}

	return points, nil
}

// Export reproduces the tails file.
func (s *Store) Export() ([]byte, error) {
	points, err := s.Points()
	if err != nil {
		return nil, err
	}

	return Encode(points), nil
}

// Verify recomputes the content hash over the stored points. A mismatch is CorruptTailsData.
func (s *Store) Verify() error {
	file, err := s.Export()
	if err != nil {
		return err
	}

	if got := Hash(file); got != s.hash {
		return anonerr.New(anonerr.CorruptTailsData, "tails content hash %s does not match %s", got, s.hash)
	}

	return nil
}

// String identifies the store in logs.
func (s *Store) String() string {
	return fmt.Sprintf("tails(%s)", s.hash)
}
