/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"crypto/rand"
	"errors"
	"fmt"
)

const linkSecretSize = 32

const redacted = "LinkSecret(<hidden>)"

var errLinkSecretMarshal = errors.New("link secret cannot be serialized")

// LinkSecret is the prover secret every credential is bound to. It never prints its value and refuses JSON
// serialization; callers Zero it when done.
type LinkSecret struct {
	value []byte
}

// NewLinkSecret generates a random link secret.
func NewLinkSecret() (*LinkSecret, error) {
	value := make([]byte, linkSecretSize)

	if _, err := rand.Read(value); err != nil {
		return nil, fmt.Errorf("new link secret: %w", err)
	}

	return &LinkSecret{value: value}, nil
}

// LinkSecretFromBytes copies b into a link secret.
func LinkSecretFromBytes(b []byte) (*LinkSecret, error) {
	if len(b) != linkSecretSize {
		return nil, fmt.Errorf("link secret must be %d bytes, got %d", linkSecretSize, len(b))
	}

	return &LinkSecret{value: append([]byte(nil), b...)}, nil
}

// Bytes returns a copy of the secret.
func (s *LinkSecret) Bytes() []byte {
	if s == nil {
		return nil
	}

	return append([]byte(nil), s.value...)
}

// IsZero reports whether the secret was wiped or never set.
func (s *LinkSecret) IsZero() bool {
	if s == nil {
		return true
	}

	for _, b := range s.value {
		if b != 0 {
			return false
		}
	}

	return true
}

// Zero wipes the secret.
func (s *LinkSecret) Zero() {
	if s == nil {
		return
	}

	for i := range s.value {
		s.value[i] = 0
	}
}

func (s *LinkSecret) String() string {
	return redacted
}

// GoString keeps %#v redacted.
func (s *LinkSecret) GoString() string {
	return redacted
}

// Format keeps every fmt verb redacted.
func (s *LinkSecret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// MarshalJSON always fails.
func (s *LinkSecret) MarshalJSON() ([]byte, error) {
	return nil, errLinkSecretMarshal
}
