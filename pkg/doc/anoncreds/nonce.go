/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

const nonceBits = 80

// NewNonce returns a fresh 80-bit nonce in decimal form.
func NewNonce() (string, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), nonceBits))
	if err != nil {
		return "", fmt.Errorf("new nonce: %w", err)
	}

	return n.String(), nil
}

// ValidateNonce checks that nonce is a non empty decimal string.
func ValidateNonce(nonce string) error {
	if nonce == "" {
		return anonerr.New(anonerr.InvalidRequest, "nonce is empty")
	}

	for _, c := range nonce {
		if c < '0' || c > '9' {
			return anonerr.New(anonerr.InvalidRequest, "nonce %q is not a decimal number", nonce)
		}
	}

	return nil
}
