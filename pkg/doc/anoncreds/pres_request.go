/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"math"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
)

// NonRevokedInterval bounds the time at which a credential must be proven unrevoked. A nil bound is open.
type NonRevokedInterval struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

// NewInterval returns the interval [from, to].
func NewInterval(from, to uint64) *NonRevokedInterval {
	return &NonRevokedInterval{From: &from, To: &to}
}

// IsSet reports whether at least one bound is present.
func (i *NonRevokedInterval) IsSet() bool {
	return i != nil && (i.From != nil || i.To != nil)
}

// Validate rejects an interval whose lower bound is after its upper bound.
func (i *NonRevokedInterval) Validate() error {
	if i != nil && i.From != nil && i.To != nil && *i.From > *i.To {
		return anonerr.New(anonerr.InvalidRequest, "non revoked interval from %d is after to %d", *i.From, *i.To)
	}

	return nil
}

// Clone returns a deep copy.
func (i *NonRevokedInterval) Clone() *NonRevokedInterval {
	if i == nil {
		return nil
	}

	out := &NonRevokedInterval{}

	if i.From != nil {
		from := *i.From
		out.From = &from
	}

	if i.To != nil {
		to := *i.To
		out.To = &to
	}

	return out
}

// Narrow collapses i and other into the most stringent interval: the latest lower bound and the earliest
// upper bound.
func (i *NonRevokedInterval) Narrow(other *NonRevokedInterval) {
	if other == nil {
		return
	}

	if other.From != nil && (i.From == nil || *other.From > *i.From) {
		from := *other.From
		i.From = &from
	}

	if other.To != nil && (i.To == nil || *other.To < *i.To) {
		to := *other.To
		i.To = &to
	}
}

// Override replaces the lower bound with the earlier bound the verifier accepts for it, if any.
func (i *NonRevokedInterval) Override(overrides map[uint64]uint64) {
	if i == nil || i.From == nil {
		return
	}

	if from, ok := overrides[*i.From]; ok {
		i.From = &from
	}
}

// Check reports a TimestampOutOfRange error when ts lies outside the interval.
func (i *NonRevokedInterval) Check(ts uint64) error {
	if i == nil {
		return nil
	}

	from, to := uint64(0), uint64(math.MaxUint64)

	if i.From != nil {
		from = *i.From
	}

	if i.To != nil {
		to = *i.To
	}

	if ts < from || ts > to {
		return anonerr.New(anonerr.TimestampOutOfRange, "timestamp %d is outside of [%d, %d]", ts, from, to)
	}

	return nil
}

// AttributeInfo requests one attribute, or a group of attributes from the same credential.
type AttributeInfo struct {
	Name         string              `json:"name,omitempty"`
	Names        []string            `json:"names,omitempty"`
	Restrictions *Query              `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval `json:"non_revoked,omitempty"`
}

// AttrNames returns the requested attribute names.
func (a *AttributeInfo) AttrNames() []string {
	if a.Name != "" {
		return []string{a.Name}
	}

	return a.Names
}

// PredicateInfo requests a predicate over one attribute.
type PredicateInfo struct {
	Name         string                   `json:"name"`
	PType        anoncrypto.PredicateType `json:"p_type"`
	PValue       int32                    `json:"p_value"`
	Restrictions *Query                   `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval      `json:"non_revoked,omitempty"`
}

// Predicate returns the capability form of the predicate.
func (p *PredicateInfo) Predicate() anoncrypto.Predicate {
	return anoncrypto.Predicate{AttrName: p.Name, Type: p.PType, Value: p.PValue}
}

// PresentationRequest is sent by a verifier. Referents key the requested attributes and predicates.
type PresentationRequest struct {
	Name                string                   `json:"name"`
	Version             string                   `json:"version"`
	Nonce               string                   `json:"nonce"`
	RequestedAttributes map[string]AttributeInfo `json:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates"`
	NonRevoked          *NonRevokedInterval      `json:"non_revoked,omitempty"`
}

// Validate checks the request structure.
func (r *PresentationRequest) Validate() error {
	if err := ValidateNonce(r.Nonce); err != nil {
		return err
	}

	if len(r.RequestedAttributes) == 0 && len(r.RequestedPredicates) == 0 {
		return anonerr.New(anonerr.InvalidRequest, "presentation request has no attributes and no predicates")
	}

	for referent, attr := range r.RequestedAttributes {
		switch {
		case attr.Name != "" && len(attr.Names) > 0:
			return anonerr.New(anonerr.InvalidRequest, "attribute %s has both name and names", referent)
		case attr.Name == "" && len(attr.Names) == 0:
			return anonerr.New(anonerr.InvalidRequest, "attribute %s has neither name nor names", referent)
		}

		if err := attr.NonRevoked.Validate(); err != nil {
			return err
		}
	}

	for referent, pred := range r.RequestedPredicates {
		if pred.Name == "" {
			return anonerr.New(anonerr.InvalidRequest, "predicate %s has no attribute name", referent)
		}

		switch pred.PType {
		case anoncrypto.GE, anoncrypto.GT, anoncrypto.LE, anoncrypto.LT:
		default:
			return anonerr.New(anonerr.InvalidRequest, "predicate %s has unsupported type %q", referent, pred.PType)
		}

		if err := pred.NonRevoked.Validate(); err != nil {
			return err
		}
	}

	return r.NonRevoked.Validate()
}

// EffectiveInterval returns the non revoked interval a credential must satisfy given the local intervals of the
// referents it answers. Local intervals collapse to the most stringent one and take precedence over the global
// interval. overrides, keyed by requested lower bound, is applied last. A nil result means no non revocation
// proof is required.
func (r *PresentationRequest) EffectiveInterval(local []*NonRevokedInterval,
	overrides map[uint64]uint64) *NonRevokedInterval {
	var interval *NonRevokedInterval

	for _, l := range local {
		if !l.IsSet() {
			continue
		}

		if interval == nil {
			interval = l.Clone()

			continue
		}

		interval.Narrow(l)
	}

	if interval == nil && r.NonRevoked.IsSet() {
		interval = r.NonRevoked.Clone()
	}

	if interval != nil {
		interval.Override(overrides)
	}

	return interval
}
