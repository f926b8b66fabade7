//go:build noanoncrypto
// +build noanoncrypto

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package backend

import "github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"

// Name of the backend compiled into this build.
const Name = "unavailable"

// Default returns the capability compiled into this build.
func Default() anoncrypto.Capability {
	return anoncrypto.Unavailable{}
}
