/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identifier

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcutil/base58"
)

const digestSize = 10

// SchemaID identifies a schema.
type SchemaID struct{ ID }

// CredDefID identifies a credential definition.
type CredDefID struct{ ID }

// RevRegID identifies a revocation registry definition.
type RevRegID struct{ ID }

// IssuerID identifies an issuer.
type IssuerID struct{ ID }

// ParseSchemaID parses a schema identifier.
func ParseSchemaID(s string) (SchemaID, error) {
	id, err := Parse(s)

	return SchemaID{id}, err
}

// ParseCredDefID parses a credential definition identifier.
func ParseCredDefID(s string) (CredDefID, error) {
	id, err := Parse(s)

	return CredDefID{id}, err
}

// ParseRevRegID parses a revocation registry identifier.
func ParseRevRegID(s string) (RevRegID, error) {
	id, err := Parse(s)

	return RevRegID{id}, err
}

// ParseIssuerID parses an issuer identifier.
func ParseIssuerID(s string) (IssuerID, error) {
	id, err := Parse(s)

	return IssuerID{id}, err
}

// NewSchemaID derives the identifier of a schema published by issuer. A legacy issuer gets the
// <issuer>:2:<name>:<version> layout, a qualified one <issuer>/anoncreds/v0/SCHEMA/<name>/<version>.
func NewSchemaID(issuer IssuerID, name, version string) (SchemaID, error) {
	if issuer.IsLegacy() {
		return ParseSchemaID(strings.Join([]string{issuer.String(), "2", name, version}, ":"))
	}

	return ParseSchemaID(issuer.String() + "/anoncreds/v0/SCHEMA/" + name + "/" + version)
}

// NewCredDefID derives the identifier of a credential definition over schema.
func NewCredDefID(issuer IssuerID, schema SchemaID, tag string) (CredDefID, error) {
	if issuer.IsLegacy() {
		return ParseCredDefID(strings.Join([]string{issuer.String(), "3", "CL", schema.String(), tag}, ":"))
	}

	return ParseCredDefID(issuer.String() + "/anoncreds/v0/CLAIM_DEF/" + digest(schema.ID) + "/" + tag)
}

// NewRevRegID derives the identifier of a revocation registry of credDef.
func NewRevRegID(issuer IssuerID, credDef CredDefID, tag string) (RevRegID, error) {
	if issuer.IsLegacy() {
		return ParseRevRegID(strings.Join([]string{issuer.String(), "4", credDef.String(), "CL_ACCUM", tag}, ":"))
	}

	return ParseRevRegID(issuer.String() + "/anoncreds/v0/REV_REG_DEF/" + digest(credDef.ID) + "/" + tag)
}

func digest(id ID) string {
	sum := sha256.Sum256([]byte(id.String()))

	return base58.Encode(sum[:digestSize])
}
