/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tails

import (
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

// Provider resolves the tails of a registry from its published location and hash.
type Provider interface {
	Tails(location, hash string) (*Store, error)
}

// Local resolves tails that are already present in a storage provider. It never downloads.
type Local struct {
	Storage storage.Provider
	Opts    []Opt
}

// Tails opens the points stored under hash and checks them against it.
func (l *Local) Tails(_, hash string) (*Store, error) {
	s, err := Open(l.Storage, hash, l.Opts...)
	if err != nil {
		return nil, err
	}

	if err = s.Verify(); err != nil {
		return nil, err
	}

	return s, nil
}
