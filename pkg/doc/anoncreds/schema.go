/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncreds holds the anoncreds data model: schemas, credential and revocation registry definitions,
// revocation status lists, the issuance messages, presentation requests and presentations.
package anoncreds

import (
	"strings"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

// Schema lists the attribute names of a credential type.
type Schema struct {
	Name      string              `json:"name"`
	Version   string              `json:"version"`
	AttrNames []string            `json:"attrNames"`
	IssuerID  identifier.IssuerID `json:"issuerId"`
}

// AttrCommonView is the normalized form of an attribute name: spaces removed, lower case.
func AttrCommonView(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// Validate checks the schema fields and the uniqueness of the normalized attribute names.
func (s *Schema) Validate() error {
	if s.Name == "" || s.Version == "" {
		return anonerr.New(anonerr.InvalidRequest, "schema name and version are required")
	}

	if s.IssuerID.IsZero() {
		return anonerr.New(anonerr.InvalidIdentifier, "schema issuer id is required")
	}

	if len(s.AttrNames) == 0 {
		return anonerr.New(anonerr.InvalidAttribute, "schema has no attributes")
	}

	seen := make(map[string]struct{}, len(s.AttrNames))

	for _, name := range s.AttrNames {
		if strings.TrimSpace(name) == "" {
			return anonerr.New(anonerr.InvalidAttribute, "empty attribute name")
		}

		view := AttrCommonView(name)
		if _, ok := seen[view]; ok {
			return anonerr.New(anonerr.InvalidAttribute, "duplicate attribute %q", name)
		}

		seen[view] = struct{}{}
	}

	return nil
}
