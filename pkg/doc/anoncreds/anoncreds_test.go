/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

func TestSchemaValidate(t *testing.T) {
	issuer, err := identifier.ParseIssuerID("did:example:issuer")
	require.NoError(t, err)

	s := &Schema{Name: "gvt", Version: "1.0", AttrNames: []string{"name", "age"}, IssuerID: issuer}
	require.NoError(t, s.Validate())

	t.Run("duplicate after normalization", func(t *testing.T) {
		bad := *s
		bad.AttrNames = []string{"First Name", "firstname"}
		require.ErrorIs(t, bad.Validate(), anonerr.ErrInvalidAttribute)
	})

	t.Run("no attributes", func(t *testing.T) {
		bad := *s
		bad.AttrNames = nil
		require.ErrorIs(t, bad.Validate(), anonerr.ErrInvalidAttribute)
	})

	t.Run("missing issuer", func(t *testing.T) {
		bad := *s
		bad.IssuerID = identifier.IssuerID{}
		require.ErrorIs(t, bad.Validate(), anonerr.ErrInvalidIdentifier)
	})
}

func TestEncodeAttribute(t *testing.T) {
	tests := map[string]string{
		"28":         "28",
		"-5":         "-5",
		"+7":         "7",
		"2147483647": "2147483647",
		"":           "102987336249554097029535212322581322789799900648198034993379397001115665086549",
	}

	for raw, want := range tests {
		require.Equal(t, want, EncodeAttribute(raw), raw)
	}

	require.NotEqual(t, "2147483648", EncodeAttribute("2147483648"))
	require.NotEqual(t, EncodeAttribute("Alex"), EncodeAttribute("alex"))

	values := MakeCredentialValues(map[string]string{"age": "28", "name": "Alex"})
	require.Equal(t, map[string]string{"age": "28", "name": EncodeAttribute("Alex")}, values.Encoded())
}

func TestCredentialJSON(t *testing.T) {
	cred := &Credential{Values: MakeCredentialValues(map[string]string{"age": "28"})}
	require.False(t, cred.Revocable())
	require.Zero(t, cred.RevocationIndex())

	raw, err := json.Marshal(cred)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "rev_reg_id")
	require.NotContains(t, string(raw), "rev_reg_index")
	require.NotContains(t, string(raw), "null")

	revRegID, err := identifier.ParseRevRegID("did:example:issuer/anoncreds/v0/REV_REG_DEF/x/1")
	require.NoError(t, err)

	index := uint32(3)
	cred.RevRegID = &revRegID
	cred.RevRegIndex = &index

	raw, err = json.Marshal(cred)
	require.NoError(t, err)

	var decoded Credential
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.True(t, decoded.Revocable())
	require.Equal(t, uint32(3), decoded.RevocationIndex())
	require.True(t, decoded.RevRegID.Equal(revRegID.ID))
}

func TestQuery(t *testing.T) {
	tags := Tags{
		TagSchemaName:         "gvt",
		TagIssuerID:           "did:example:issuer",
		AttrMarkerTag("Name"): "1",
		AttrValueTag("Name"):  "Alex",
		AttrMarkerTag("age"):  "1",
		AttrValueTag("age"):   "28",
		TagCredDefID:          "did:example:issuer/anoncreds/v0/CLAIM_DEF/x/tag",
		TagSchemaVersion:      "1.0",
		TagSchemaIssuerID:     "did:example:issuer",
		TagSchemaID:           "did:example:issuer/anoncreds/v0/SCHEMA/gvt/1.0",
	}

	tests := []struct {
		name  string
		wql   string
		match bool
	}{
		{"empty object", `{}`, true},
		{"equality", `{"schema_name": "gvt"}`, true},
		{"implicit and", `{"schema_name": "gvt", "schema_version": "2.0"}`, false},
		{"top level array is or", `[{"schema_name": "x"}, {"schema_version": "1.0"}]`, true},
		{"neq", `{"schema_name": {"$neq": "gvt"}}`, false},
		{"in", `{"schema_version": {"$in": ["0.9", "1.0"]}}`, true},
		{"not", `{"$not": {"issuer_id": "did:example:other"}}`, true},
		{"or", `{"$or": [{"issuer_id": "a"}, {"issuer_id": "b"}]}`, false},
		{"and", `{"$and": [{"schema_name": "gvt"}, {"attr::age::value": "28"}]}`, true},
		{"attr marker is normalized", `{"attr::NAME::marker": "1"}`, true},
		{"attr value", `{"attr::name::value": "Bob"}`, false},
		{"missing tag", `{"rev_reg_id": "x"}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var q Query
			require.NoError(t, json.Unmarshal([]byte(tc.wql), &q))
			require.Equal(t, tc.match, q.Match(tags))

			raw, err := json.Marshal(&q)
			require.NoError(t, err)

			var again Query
			require.NoError(t, json.Unmarshal(raw, &again))
			require.Equal(t, tc.match, again.Match(tags))
		})
	}

	t.Run("invalid restrictions", func(t *testing.T) {
		for _, wql := range []string{
			`"gvt"`,
			`{"schema_name": 1}`,
			`{"schema_name": {"$like": "g%"}}`,
			`{"schema_name": {"$in": ["a"], "$neq": "b"}}`,
			`{"$and": {"schema_name": "gvt"}}`,
			`{"$not": []}`,
			`[1]`,
		} {
			var q Query
			err := json.Unmarshal([]byte(wql), &q)
			require.ErrorIs(t, err, anonerr.ErrInvalidRestriction, wql)
		}
	})

	t.Run("keys", func(t *testing.T) {
		q := And(Eq("schema_name", "gvt"), Or(Eq("issuer_id", "a"), Not(Eq("attr::First Name::value", "x"))))
		require.Equal(t, []string{"attr::firstname::value", "issuer_id", "schema_name"}, q.Keys())
	})

	t.Run("custom equality", func(t *testing.T) {
		q := Neq("attr::age::value", "30")
		require.False(t, q.Eval(func(string, string) bool { return true }))
		require.True(t, q.Eval(func(string, string) bool { return false }))
	})
}

func TestNonRevokedInterval(t *testing.T) {
	t.Run("check", func(t *testing.T) {
		i := NewInterval(10, 20)
		require.NoError(t, i.Check(10))
		require.NoError(t, i.Check(20))
		require.ErrorIs(t, i.Check(9), anonerr.ErrTimestampOutOfRange)
		require.ErrorIs(t, i.Check(21), anonerr.ErrTimestampOutOfRange)

		to := uint64(5)
		require.NoError(t, (&NonRevokedInterval{To: &to}).Check(0))
	})

	t.Run("validate", func(t *testing.T) {
		require.ErrorIs(t, NewInterval(5, 4).Validate(), anonerr.ErrInvalidRequest)
		require.NoError(t, (*NonRevokedInterval)(nil).Validate())
	})

	t.Run("narrow keeps the most stringent bounds", func(t *testing.T) {
		i := NewInterval(10, 50)
		i.Narrow(NewInterval(20, 60))
		require.Equal(t, uint64(20), *i.From)
		require.Equal(t, uint64(50), *i.To)
	})

	t.Run("effective interval", func(t *testing.T) {
		req := &PresentationRequest{NonRevoked: NewInterval(1, 100)}

		require.Nil(t, (&PresentationRequest{}).EffectiveInterval(nil, nil))

		global := req.EffectiveInterval([]*NonRevokedInterval{nil, {}}, nil)
		require.Equal(t, NewInterval(1, 100), global)

		local := req.EffectiveInterval([]*NonRevokedInterval{NewInterval(30, 90), NewInterval(40, 95)}, nil)
		require.Equal(t, NewInterval(40, 90), local)

		overridden := req.EffectiveInterval([]*NonRevokedInterval{NewInterval(30, 90)}, map[uint64]uint64{30: 10})
		require.Equal(t, NewInterval(10, 90), overridden)

		require.Equal(t, NewInterval(1, 100), req.NonRevoked, "request interval is not mutated")
	})
}

func TestPresentationRequestValidate(t *testing.T) {
	valid := func() *PresentationRequest {
		return &PresentationRequest{
			Name:    "proof",
			Version: "1.0",
			Nonce:   "123456",
			RequestedAttributes: map[string]AttributeInfo{
				"attr1_referent": {Name: "name"},
				"attr2_referent": {Names: []string{"name", "sex"}},
			},
			RequestedPredicates: map[string]PredicateInfo{
				"predicate1_referent": {Name: "age", PType: anoncrypto.GE, PValue: 18},
			},
		}
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(r *PresentationRequest){
		"bad nonce":      func(r *PresentationRequest) { r.Nonce = "12a" },
		"empty nonce":    func(r *PresentationRequest) { r.Nonce = "" },
		"nothing asked":  func(r *PresentationRequest) { r.RequestedAttributes, r.RequestedPredicates = nil, nil },
		"name and names": func(r *PresentationRequest) { r.RequestedAttributes["x"] = AttributeInfo{Name: "a", Names: []string{"b"}} },
		"no name":        func(r *PresentationRequest) { r.RequestedAttributes["x"] = AttributeInfo{} },
		"bad p_type":     func(r *PresentationRequest) { r.RequestedPredicates["p"] = PredicateInfo{Name: "age", PType: "=="} },
		"empty pred":     func(r *PresentationRequest) { r.RequestedPredicates["p"] = PredicateInfo{PType: anoncrypto.GE} },
		"bad interval":   func(r *PresentationRequest) { r.NonRevoked = NewInterval(2, 1) },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := valid()
			mutate(r)
			require.ErrorIs(t, r.Validate(), anonerr.ErrInvalidRequest)
		})
	}

	t.Run("wire format", func(t *testing.T) {
		raw := `{"name":"proof","version":"1.0","nonce":"1",
			"requested_attributes":{"a":{"name":"name","restrictions":[{"schema_name":"gvt"}],
			"non_revoked":{"to":10}}},"requested_predicates":{}}`

		var r PresentationRequest
		require.NoError(t, json.Unmarshal([]byte(raw), &r))
		require.NoError(t, r.Validate())
		require.True(t, r.RequestedAttributes["a"].Restrictions.Match(Tags{TagSchemaName: "gvt"}))
		require.Nil(t, r.RequestedAttributes["a"].NonRevoked.From)
		require.Equal(t, uint64(10), *r.RequestedAttributes["a"].NonRevoked.To)
	})
}

func TestNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	require.NoError(t, ValidateNonce(a))

	b, err := NewNonce()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestLinkSecret(t *testing.T) {
	ls, err := NewLinkSecret()
	require.NoError(t, err)
	require.False(t, ls.IsZero())

	for _, s := range []string{
		fmt.Sprint(ls), fmt.Sprintf("%v", ls), fmt.Sprintf("%+v", ls), fmt.Sprintf("%#v", ls),
		fmt.Sprintf("%x", ls), fmt.Sprintf("%s", ls), ls.String(),
	} {
		require.Equal(t, "LinkSecret(<hidden>)", s)
	}

	_, err = json.Marshal(ls)
	require.Error(t, err)

	_, err = json.Marshal(struct{ Secret *LinkSecret }{ls})
	require.Error(t, err)

	copied := ls.Bytes()
	ls.Zero()
	require.True(t, ls.IsZero())
	require.NotEqual(t, make([]byte, len(copied)), copied)

	_, err = LinkSecretFromBytes([]byte{1})
	require.Error(t, err)
}
