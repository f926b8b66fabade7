/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"encoding/json"
	"regexp"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

// Restriction tag names.
const (
	TagSchemaID        = "schema_id"
	TagSchemaIssuerDID = "schema_issuer_did"
	TagSchemaIssuerID  = "schema_issuer_id"
	TagSchemaName      = "schema_name"
	TagSchemaVersion   = "schema_version"
	TagIssuerDID       = "issuer_did"
	TagIssuerID        = "issuer_id"
	TagCredDefID       = "cred_def_id"
	TagRevRegID        = "rev_reg_id"
)

var attrTag = regexp.MustCompile(`^attr::(.+)::(value|marker)$`)

// AttrMarkerTag is the tag present for every attribute of a credential.
func AttrMarkerTag(name string) string {
	return "attr::" + AttrCommonView(name) + "::marker"
}

// AttrValueTag is the tag holding the raw value of an attribute.
func AttrValueTag(name string) string {
	return "attr::" + AttrCommonView(name) + "::value"
}

// Operator is a WQL operator.
type Operator int

// Supported operators.
const (
	OpEq Operator = iota
	OpNeq
	OpIn
	OpAnd
	OpOr
	OpNot
)

// Query is a parsed WQL restriction. The zero value is an empty $and and matches everything.
type Query struct {
	op     Operator
	key    string
	values []string
	subs   []*Query
}

// Eq matches when tag key equals value.
func Eq(key, value string) *Query {
	return &Query{op: OpEq, key: normalizeTag(key), values: []string{value}}
}

// Neq matches when tag key is absent or differs from value.
func Neq(key, value string) *Query {
	return &Query{op: OpNeq, key: normalizeTag(key), values: []string{value}}
}

// In matches when tag key equals one of values.
func In(key string, values ...string) *Query {
	return &Query{op: OpIn, key: normalizeTag(key), values: values}
}

// And matches when every sub-query matches.
func And(subs ...*Query) *Query {
	return &Query{op: OpAnd, subs: subs}
}

// Or matches when one sub-query matches.
func Or(subs ...*Query) *Query {
	return &Query{op: OpOr, subs: subs}
}

// Not negates q.
func Not(q *Query) *Query {
	return &Query{op: OpNot, subs: []*Query{q}}
}

func normalizeTag(key string) string {
	m := attrTag.FindStringSubmatch(key)
	if m == nil {
		return key
	}

	return "attr::" + AttrCommonView(m[1]) + "::" + m[2]
}

// Tags is the flat tag set of a credential a restriction is evaluated against.
type Tags map[string]string

// Match evaluates q against tags. A missing tag never equals anything.
func (q *Query) Match(tags Tags) bool {
	return q.Eval(func(key, value string) bool {
		got, ok := tags[key]

		return ok && got == value
	})
}

// Eval evaluates q with eq deciding every equality test. Keys handed to eq are normalized.
func (q *Query) Eval(eq func(key, value string) bool) bool {
	if q == nil {
		return true
	}

	switch q.op {
	case OpEq:
		return eq(q.key, q.values[0])
	case OpNeq:
		return !eq(q.key, q.values[0])
	case OpIn:
		for _, v := range q.values {
			if eq(q.key, v) {
				return true
			}
		}

		return false
	case OpAnd:
		for _, s := range q.subs {
			if !s.Eval(eq) {
				return false
			}
		}

		return true
	case OpOr:
		for _, s := range q.subs {
			if s.Eval(eq) {
				return true
			}
		}

		return false
	case OpNot:
		return !q.subs[0].Eval(eq)
	default:
		return false
	}
}

// Keys returns the distinct tag keys q refers to, sorted.
func (q *Query) Keys() []string {
	set := map[string]struct{}{}
	q.collectKeys(set)

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func (q *Query) collectKeys(set map[string]struct{}) {
	if q == nil {
		return
	}

	if q.key != "" {
		set[q.key] = struct{}{}
	}

	for _, s := range q.subs {
		s.collectKeys(set)
	}
}

// MarshalJSON encodes q as WQL.
func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.wql())
}

func (q *Query) wql() interface{} {
	switch q.op {
	case OpEq:
		return map[string]interface{}{q.key: q.values[0]}
	case OpNeq:
		return map[string]interface{}{q.key: map[string]string{"$neq": q.values[0]}}
	case OpIn:
		return map[string]interface{}{q.key: map[string][]string{"$in": q.values}}
	case OpNot:
		return map[string]interface{}{"$not": q.subs[0].wql()}
	}

	subs := make([]interface{}, len(q.subs))
	for i, s := range q.subs {
		subs[i] = s.wql()
	}

	if q.op == OpOr {
		return map[string]interface{}{"$or": subs}
	}

	return map[string]interface{}{"$and": subs}
}

// UnmarshalJSON parses WQL. A top-level array is an $or of its elements.
func (q *Query) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return anonerr.Wrap(anonerr.InvalidRestriction, err, "parse restriction")
	}

	parsed, err := ParseQuery(raw)
	if err != nil {
		return err
	}

	*q = *parsed

	return nil
}

// ParseQuery parses a decoded JSON value as WQL.
func ParseQuery(raw interface{}) (*Query, error) {
	switch v := raw.(type) {
	case []interface{}:
		subs, err := parseList(v)
		if err != nil {
			return nil, err
		}

		return Or(subs...), nil
	case map[string]interface{}:
		return parseObject(v)
	default:
		return nil, anonerr.New(anonerr.InvalidRestriction, "restriction must be an object or an array, got %T", raw)
	}
}

func parseList(items []interface{}) ([]*Query, error) {
	subs := make([]*Query, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, anonerr.New(anonerr.InvalidRestriction, "restriction list element must be an object")
		}

		sub, err := parseObject(obj)
		if err != nil {
			return nil, err
		}

		subs = append(subs, sub)
	}

	return subs, nil
}

func parseObject(obj map[string]interface{}) (*Query, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	subs := make([]*Query, 0, len(keys))

	for _, key := range keys {
		sub, err := parseEntry(key, obj[key])
		if err != nil {
			return nil, err
		}

		subs = append(subs, sub)
	}

	if len(subs) == 1 {
		return subs[0], nil
	}

	return And(subs...), nil
}

func parseEntry(key string, value interface{}) (*Query, error) {
	switch key {
	case "$and", "$or":
		items, ok := value.([]interface{})
		if !ok {
			return nil, anonerr.New(anonerr.InvalidRestriction, "%s expects an array", key)
		}

		subs, err := parseList(items)
		if err != nil {
			return nil, err
		}

		if key == "$or" {
			return Or(subs...), nil
		}

		return And(subs...), nil
	case "$not":
		obj, ok := value.(map[string]interface{})
		if !ok {
			return nil, anonerr.New(anonerr.InvalidRestriction, "$not expects an object")
		}

		sub, err := parseObject(obj)
		if err != nil {
			return nil, err
		}

		return Not(sub), nil
	}

	switch v := value.(type) {
	case string:
		return Eq(key, v), nil
	case map[string]interface{}:
		return parseFieldOperator(key, v)
	default:
		return nil, anonerr.New(anonerr.InvalidRestriction, "tag %s: unsupported value %v", key, value)
	}
}

type fieldOperator struct {
	Neq string   `mapstructure:"$neq"`
	In  []string `mapstructure:"$in"`
}

func parseFieldOperator(key string, raw map[string]interface{}) (*Query, error) {
	var (
		op fieldOperator
		md mapstructure.Metadata
	)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Metadata:    &md,
		Result:      &op,
	})
	if err != nil {
		return nil, anonerr.Wrap(anonerr.InvalidRestriction, err, "tag %s", key)
	}

	if err = decoder.Decode(raw); err != nil {
		return nil, anonerr.Wrap(anonerr.InvalidRestriction, err, "tag %s", key)
	}

	if len(md.Keys) != 1 {
		return nil, anonerr.New(anonerr.InvalidRestriction, "tag %s: expected exactly one operator", key)
	}

	if md.Keys[0] == "$neq" {
		return Neq(key, op.Neq), nil
	}

	return In(key, op.In...), nil
}
