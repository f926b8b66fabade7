/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package identifier implements the anoncreds object identifiers.
//
// An identifier is either a legacy base58 token or a qualified URI of the form scheme:rest. The form is fixed
// at construction and comparisons are exact-string.
package identifier

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcutil/base58"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

const (
	legacyMinLen = 21
	legacyMaxLen = 22

	didScheme = "did"
)

// nolint:gochecknoglobals
var uriIdentifier = regexp.MustCompile(`^[a-zA-Z0-9\+\-\.]+:.+$`)

// Form tells which variant an ID holds.
type Form int

const (
	// Unset is the zero ID.
	Unset Form = iota
	// LegacyForm is a bare base58 token.
	LegacyForm
	// QualifiedForm is a scheme:rest URI.
	QualifiedForm
)

func (f Form) String() string {
	switch f {
	case LegacyForm:
		return "legacy"
	case QualifiedForm:
		return "qualified"
	default:
		return "unset"
	}
}

// ID is the tagged identifier variant shared by all anoncreds object identifiers.
type ID struct {
	form   Form
	scheme string
	rest   string
}

// Parse parses s as a qualified URI identifier first and as a legacy token second.
func Parse(s string) (ID, error) {
	if uriIdentifier.MatchString(s) {
		i := strings.Index(s, ":")

		return ID{form: QualifiedForm, scheme: s[:i], rest: s[i+1:]}, nil
	}

	if IsLegacyToken(s) {
		return ID{form: LegacyForm, rest: s}, nil
	}

	return ID{}, anonerr.New(anonerr.InvalidIdentifier,
		"identifier %q is invalid: it must be a URI or a legacy identifier", s)
}

// Legacy builds a legacy identifier from a base58 token.
func Legacy(token string) (ID, error) {
	if !IsLegacyToken(token) {
		return ID{}, anonerr.New(anonerr.InvalidIdentifier, "%q is not a legacy identifier", token)
	}

	return ID{form: LegacyForm, rest: token}, nil
}

// Qualified builds a qualified identifier from its scheme and the part after the first colon.
func Qualified(scheme, rest string) (ID, error) {
	id := scheme + ":" + rest
	if strings.Contains(scheme, ":") || !uriIdentifier.MatchString(id) {
		return ID{}, anonerr.New(anonerr.InvalidIdentifier, "%q is not a qualified identifier", id)
	}

	return ID{form: QualifiedForm, scheme: scheme, rest: rest}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants and tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return id
}

// IsLegacyToken reports whether s is a 21 to 22 character base58 token.
func IsLegacyToken(s string) bool {
	if len(s) < legacyMinLen || len(s) > legacyMaxLen {
		return false
	}

	// base58.Decode returns an empty slice on any character outside the alphabet.
	return len(base58.Decode(s)) > 0
}

// Form returns the variant.
func (id ID) Form() Form {
	return id.form
}

// IsLegacy reports whether id is a legacy token.
func (id ID) IsLegacy() bool {
	return id.form == LegacyForm
}

// IsQualified reports whether id is a URI.
func (id ID) IsQualified() bool {
	return id.form == QualifiedForm
}

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id.form == Unset
}

// Scheme returns the URI scheme of a qualified identifier, or "" for a legacy one.
func (id ID) Scheme() string {
	return id.scheme
}

// Rest returns the part after the scheme, or the token itself for a legacy identifier.
func (id ID) Rest() string {
	return id.rest
}

func (id ID) String() string {
	if id.form == QualifiedForm {
		return id.scheme + ":" + id.rest
	}

	return id.rest
}

// Equal is exact-string equality. A legacy and a qualified identifier are never equal.
func (id ID) Equal(other ID) bool {
	return id.form == other.form && id.String() == other.String()
}

// MarshalJSON encodes the identifier as a plain string.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes either form from a plain string.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal identifier: %w", err)
	}

	if s == "" {
		*id = ID{}

		return nil
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}

// Qualify converts a legacy identifier into did:<method>:<token>. Qualified identifiers are returned unchanged.
func Qualify(id ID, method string) (ID, error) {
	if id.form != LegacyForm {
		return id, nil
	}

	return Qualified(didScheme, method+":"+id.rest)
}

// Unqualify extracts the legacy token from the last segment of a qualified identifier.
// Legacy identifiers are returned unchanged.
func Unqualify(id ID) (ID, error) {
	if id.form != QualifiedForm {
		return id, nil
	}

	token := id.rest[strings.LastIndex(id.rest, ":")+1:]

	return Legacy(token)
}
