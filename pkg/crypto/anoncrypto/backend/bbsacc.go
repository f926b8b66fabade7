//go:build !noanoncrypto
// +build !noanoncrypto

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package backend selects the anoncreds crypto capability at build time.
package backend

import (
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto/bbsacc"
)

// Name of the backend compiled into this build.
const Name = "bbsacc"

// Default returns the capability compiled into this build.
func Default() anoncrypto.Capability {
	return bbsacc.New()
}
