/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifier issues presentation requests and verifies the presentations that answer them.
package verifier

import (
	"sort"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"golang.org/x/exp/maps"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

const (
	defaultSessionCacheSize = 1024
	defaultSessionTTL       = time.Hour
)

var logger = log.New("aries-framework/anoncreds/verifier")

// Provider contains dependencies for the verifier service.
type Provider interface {
	AnonCrypto() anoncrypto.Capability
	Ledger() ledger.Registry
}

// Opt configures the verifier service.
type Opt func(*Verifier)

// WithIntervalOverride accepts non revocation proofs of registry revRegID from overrideFrom onwards when a
// request asks for requestedFrom.
func WithIntervalOverride(revRegID identifier.RevRegID, requestedFrom, overrideFrom uint64) Opt {
	return func(v *Verifier) {
		m, ok := v.overrides[revRegID.String()]
		if !ok {
			m = map[uint64]uint64{}
			v.overrides[revRegID.String()] = m
		}

		m[requestedFrom] = overrideFrom
	}
}

// WithSessionCacheSize sets how many open presentation requests are remembered.
func WithSessionCacheSize(size int) Opt {
	return func(v *Verifier) {
		v.sessionCacheSize = size
	}
}

// WithSessionTTL sets how long a presentation request stays open.
func WithSessionTTL(ttl time.Duration) Opt {
	return func(v *Verifier) {
		v.sessionTTL = ttl
	}
}

// Verifier is the anoncreds verifier service. It never changes published state.
type Verifier struct {
	crypto    anoncrypto.Capability
	ledger    ledger.Registry
	overrides map[string]map[uint64]uint64

	sessionCacheSize int
	sessionTTL       time.Duration
	sessions         gcache.Cache
}

// New returns the verifier service.
func New(p Provider, opts ...Opt) *Verifier {
	v := &Verifier{
		crypto:           p.AnonCrypto(),
		ledger:           p.Ledger(),
		overrides:        map[string]map[uint64]uint64{},
		sessionCacheSize: defaultSessionCacheSize,
		sessionTTL:       defaultSessionTTL,
	}

	for _, opt := range opts {
		opt(v)
	}

	v.sessions = gcache.New(v.sessionCacheSize).LRU().Expiration(v.sessionTTL).Build()

	return v
}

// subProof is what the request expects from one sub-proof of a presentation.
type subProof struct {
	id        anoncreds.Identifier
	schema    *anoncreds.Schema
	credDef   *anoncreds.CredentialDefinition
	revealed  map[string]string // schema attribute name -> encoded value
	preds     []anoncrypto.Predicate
	intervals []*anoncreds.NonRevokedInterval
}

// schemaAttr returns the schema spelling of a requested attribute name.
func (sp *subProof) schemaAttr(requested string) (string, bool) {
	view := anoncreds.AttrCommonView(requested)

	for _, name := range sp.schema.AttrNames {
		if anoncreds.AttrCommonView(name) == view {
			return name, true
		}
	}

	return "", false
}

// Verify checks pres against request. The structure and restrictions are checked first, then the nonce, then
// the non revocation timestamps and only then the proof itself. true is only returned with a nil error.
func (v *Verifier) Verify(pres *anoncreds.Presentation, request *anoncreds.PresentationRequest) (bool, error) {
	if err := request.Validate(); err != nil {
		return false, err
	}

	proofs, err := v.checkStructure(pres, request)
	if err != nil {
		return false, err
	}

	if pres.Proof.Nonce != request.Nonce {
		return false, anonerr.New(anonerr.NonceMismatch, "presentation is bound to another nonce")
	}

	checks := make([]*anoncrypto.SubProofCheck, len(proofs))

	for i, sp := range proofs {
		check, err := v.subProofCheck(request, sp)
		if err != nil {
			return false, err
		}

		checks[i] = check
	}

	if len(checks) == 0 {
		return true, nil
	}

	var valid bool

	err = anonerr.Guard(func() error {
		var e error

		valid, e = v.crypto.VerifyProof(pres.Proof.Value, &anoncrypto.VerifyRequest{Nonce: request.Nonce, SubProofs: checks})

		return e
	})
	if err != nil {
		return false, anonerr.Wrap(anonerr.InvalidProof, err, "presentation proof")
	}

	if !valid {
		return false, anonerr.New(anonerr.InvalidProof, "presentation proof does not verify")
	}

	logger.Debugf("verified presentation %q over %d credentials", request.Name, len(proofs))

	return true, nil
}

func unsatisfied(format string, args ...interface{}) error {
	return anonerr.New(anonerr.UnsatisfiedRequest, format, args...)
}

func (v *Verifier) loadSubProofs(pres *anoncreds.Presentation) ([]*subProof, error) {
	proofs := make([]*subProof, len(pres.Identifiers))

	for i, id := range pres.Identifiers {
		schema, err := v.ledger.Schema(id.SchemaID)
		if err != nil {
			return nil, err
		}

		credDef, err := v.ledger.CredentialDefinition(id.CredDefID)
		if err != nil {
			return nil, err
		}

		if !credDef.SchemaID.Equal(id.SchemaID.ID) {
			return nil, unsatisfied("sub-proof %d: %s is not over %s", i, id.CredDefID, id.SchemaID)
		}

		proofs[i] = &subProof{id: id, schema: schema, credDef: credDef, revealed: map[string]string{}}
	}

	return proofs, nil
}

func (v *Verifier) checkStructure(pres *anoncreds.Presentation,
	request *anoncreds.PresentationRequest) ([]*subProof, error) {
	proofs, err := v.loadSubProofs(pres)
	if err != nil {
		return nil, err
	}

	resolve := func(referent string, index uint32) (*subProof, error) {
		if int(index) >= len(proofs) {
			return nil, unsatisfied("referent %s points at missing sub-proof %d", referent, index)
		}

		return proofs[index], nil
	}

	rp := pres.RequestedProof

	referents := maps.Keys(request.RequestedAttributes)
	sort.Strings(referents)

	for _, referent := range referents {
		if err = checkAttribute(referent, request.RequestedAttributes[referent], &rp, resolve); err != nil {
			return nil, err
		}
	}

	referents = maps.Keys(request.RequestedPredicates)
	sort.Strings(referents)

	for _, referent := range referents {
		info := request.RequestedPredicates[referent]

		ref, ok := rp.Predicates[referent]
		if !ok {
			return nil, unsatisfied("predicate referent %s is not answered", referent)
		}

		sp, err := resolve(referent, ref.SubProofIndex)
		if err != nil {
			return nil, err
		}

		pred := info.Predicate()

		name, ok := sp.schemaAttr(info.Name)
		if !ok {
			return nil, unsatisfied("predicate referent %s: %s has no attribute %q", referent, sp.id.SchemaID, info.Name)
		}

		pred.AttrName = name
		sp.preds = append(sp.preds, pred)
		sp.intervals = append(sp.intervals, info.NonRevoked)

		if !info.Restrictions.Eval(sp.filter(map[string]*string{anoncreds.AttrCommonView(info.Name): nil})) {
			return nil, unsatisfied("predicate referent %s does not satisfy its restrictions", referent)
		}
	}

	return proofs, nil
}

func checkAttribute(referent string, info anoncreds.AttributeInfo, rp *anoncreds.RequestedProof,
	resolve func(string, uint32) (*subProof, error)) error {
	revealed, isRevealed := rp.RevealedAttrs[referent]
	group, isGroup := rp.RevealedAttrGroups[referent]
	unrevealed, isUnrevealed := rp.UnrevealedAttrs[referent]
	_, isSelfAttested := rp.SelfAttestedAttrs[referent]

	answers := 0

	for _, ok := range []bool{isRevealed, isGroup, isUnrevealed, isSelfAttested} {
		if ok {
			answers++
		}
	}

	if answers != 1 {
		return unsatisfied("attribute referent %s is answered %d times", referent, answers)
	}

	if isSelfAttested {
		if info.Restrictions != nil || info.Name == "" {
			return unsatisfied("attribute referent %s cannot be self attested", referent)
		}

		return nil
	}

	if isGroup == (info.Name != "") {
		return unsatisfied("attribute referent %s is answered with the wrong shape", referent)
	}

	values := map[string]*string{}

	var index uint32

	switch {
	case isRevealed:
		index = revealed.SubProofIndex
		values[anoncreds.AttrCommonView(info.Name)] = &revealed.Raw
	case isUnrevealed:
		index = unrevealed.SubProofIndex
		values[anoncreds.AttrCommonView(info.Name)] = nil
	default:
		index = group.SubProofIndex
	}

	sp, err := resolve(referent, index)
	if err != nil {
		return err
	}

	sp.intervals = append(sp.intervals, info.NonRevoked)

	disclosed := map[string]anoncreds.AttributeValues{}
	if isRevealed {
		disclosed[info.Name] = anoncreds.AttributeValues{Raw: revealed.Raw, Encoded: revealed.Encoded}
	}

	for _, name := range info.Names {
		av, ok := group.Values[name]
		if !ok {
			return unsatisfied("attribute referent %s misses %q", referent, name)
		}

		raw := av.Raw
		values[anoncreds.AttrCommonView(name)] = &raw
		disclosed[name] = av
	}

	for name, av := range disclosed {
		attr, ok := sp.schemaAttr(name)
		if !ok {
			return unsatisfied("attribute referent %s: %s has no attribute %q", referent, sp.id.SchemaID, name)
		}

		if anoncreds.EncodeAttribute(av.Raw) != av.Encoded {
			return anonerr.New(anonerr.InvalidAttribute, "attribute referent %s: %q is not encoded correctly",
				referent, name)
		}

		sp.revealed[attr] = av.Encoded
	}

	if isUnrevealed {
		if _, ok := sp.schemaAttr(info.Name); !ok {
			return unsatisfied("attribute referent %s: %s has no attribute %q", referent, sp.id.SchemaID, info.Name)
		}
	}

	if !info.Restrictions.Eval(sp.filter(values)) {
		return unsatisfied("attribute referent %s does not satisfy its restrictions", referent)
	}

	return nil
}

// filter evaluates restriction tags against what the verifier knows of a sub-proof. values holds the attributes
// of the referent, keyed by common view, with their raw value when revealed. Value tags of those attributes only
// constrain revealed values and every marker tag passes. Unknown tags never match.
func (sp *subProof) filter(values map[string]*string) func(key, value string) bool {
	return func(key, value string) bool {
		switch key {
		case anoncreds.TagSchemaID:
			return sp.id.SchemaID.String() == value
		case anoncreds.TagSchemaIssuerDID:
			return sp.schema.IssuerID.IsLegacy() && sp.schema.IssuerID.String() == value
		case anoncreds.TagSchemaIssuerID:
			return sp.schema.IssuerID.String() == value
		case anoncreds.TagSchemaName:
			return sp.schema.Name == value
		case anoncreds.TagSchemaVersion:
			return sp.schema.Version == value
		case anoncreds.TagIssuerDID:
			return sp.credDef.IssuerID.IsLegacy() && sp.credDef.IssuerID.String() == value
		case anoncreds.TagIssuerID:
			return sp.credDef.IssuerID.String() == value
		case anoncreds.TagCredDefID:
			return sp.id.CredDefID.String() == value
		case anoncreds.TagRevRegID:
			return sp.id.RevRegID != nil && sp.id.RevRegID.String() == value
		}

		if strings.HasPrefix(key, "attr::") && strings.HasSuffix(key, "::marker") {
			return true
		}

		if strings.HasPrefix(key, "attr::") && strings.HasSuffix(key, "::value") {
			raw, ok := values[strings.TrimSuffix(strings.TrimPrefix(key, "attr::"), "::value")]
			if !ok {
				return false
			}

			return raw == nil || *raw == value
		}

		return false
	}
}

// subProofCheck resolves the non revocation part of a sub-proof. Whether it is needed depends on the published
// credential definition and the request only: the declared timestamp must fall in the effective interval and
// the accumulator is the one published at that time.
func (v *Verifier) subProofCheck(request *anoncreds.PresentationRequest,
	sp *subProof) (*anoncrypto.SubProofCheck, error) {
	check := &anoncrypto.SubProofCheck{
		CredDefID:  sp.id.CredDefID.String(),
		PublicKey:  sp.credDef.Value.PublicKey,
		Revealed:   sp.revealed,
		Predicates: sp.preds,
	}

	if !sp.credDef.Value.SupportsRevocation {
		return check, nil
	}

	var overrides map[uint64]uint64
	if sp.id.RevRegID != nil {
		overrides = v.overrides[sp.id.RevRegID.String()]
	}

	interval := request.EffectiveInterval(sp.intervals, overrides)
	if interval == nil {
		return check, nil
	}

	if sp.id.RevRegID == nil {
		return nil, unsatisfied("sub-proof of %s has no revocation registry", sp.id.CredDefID)
	}

	if sp.id.Timestamp == nil {
		return nil, unsatisfied("sub-proof of %s has no non revocation timestamp", sp.id.RevRegID)
	}

	if err := interval.Check(*sp.id.Timestamp); err != nil {
		return nil, err
	}

	revDef, err := v.ledger.RevocationRegistryDefinition(*sp.id.RevRegID)
	if err != nil {
		return nil, err
	}

	if !revDef.CredDefID.Equal(sp.id.CredDefID.ID) {
		return nil, unsatisfied("registry %s does not belong to %s", sp.id.RevRegID, sp.id.CredDefID)
	}

	list, err := v.ledger.StatusListAt(*sp.id.RevRegID, *sp.id.Timestamp)
	if err != nil {
		return nil, err
	}

	check.NonRevocation = &anoncrypto.NonRevocationCheck{
		RevRegID:    sp.id.RevRegID.String(),
		PublicKey:   revDef.Value.PublicKey,
		MaxCredNum:  revDef.Value.MaxCredNum,
		Accumulator: list.Accumulator,
	}

	return check, nil
}
