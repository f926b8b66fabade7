/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/exp/maps"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/accumulator"
)

// subProof collects what one credential contributes to a presentation.
type subProof struct {
	cred       *anoncreds.Credential
	names      map[string]string // common view -> credential attribute name
	revealed   map[string]struct{}
	predicates []anoncrypto.Predicate
	intervals  []*anoncreds.NonRevokedInterval
}

func newSubProof(cred *anoncreds.Credential) *subProof {
	names := make(map[string]string, len(cred.Values))
	for name := range cred.Values {
		names[anoncreds.AttrCommonView(name)] = name
	}

	return &subProof{cred: cred, names: names, revealed: map[string]struct{}{}}
}

// attr returns the credential spelling of a requested attribute name.
func (s *subProof) attr(requested string) (string, bool) {
	name, ok := s.names[anoncreds.AttrCommonView(requested)]

	return name, ok
}

// selection assigns referents to sub-proofs in the order credentials are first used.
type selection struct {
	proofs []*subProof
	index  map[*anoncreds.Credential]int
}

func (s *selection) use(cred *anoncreds.Credential) (int, *subProof) {
	if i, ok := s.index[cred]; ok {
		return i, s.proofs[i]
	}

	sp := newSubProof(cred)
	s.index[cred] = len(s.proofs)
	s.proofs = append(s.proofs, sp)

	return len(s.proofs) - 1, sp
}

func predicateHolds(sp *subProof, pred *anoncreds.PredicateInfo) bool {
	name, ok := sp.attr(pred.Name)
	if !ok {
		return false
	}

	v, err := strconv.ParseInt(sp.cred.Values[name].Encoded, 10, 64)
	if err != nil {
		return false
	}

	return pred.PType.Holds(v, int64(pred.PValue))
}

// CreatePresentation answers request with credentials. Every referent is answered by the first credential, in
// the order given, that holds the requested attributes and satisfies the restriction; a referent without
// restriction may instead be answered from selfAttested. timestamps, keyed by revocation registry id, fixes the
// status list a non revocation proof is built against.
func (p *Prover) CreatePresentation(request *anoncreds.PresentationRequest, credentials []*anoncreds.Credential,
	selfAttested map[string]string, timestamps map[string]uint64,
	linkSecret *anoncreds.LinkSecret) (*anoncreds.Presentation, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	if len(credentials) == 0 && len(selfAttested) == 0 {
		return nil, anonerr.New(anonerr.InvalidRequest, "no credentials and no self attested attributes")
	}

	if linkSecret == nil || linkSecret.IsZero() {
		return nil, anonerr.New(anonerr.InvalidRequest, "link secret is required")
	}

	tags := make([]anoncreds.Tags, len(credentials))

	for i, cred := range credentials {
		t, err := p.CredentialTags(cred)
		if err != nil {
			return nil, err
		}

		tags[i] = t
	}

	sel := &selection{index: map[*anoncreds.Credential]int{}}
	requested := anoncreds.NewRequestedProof()

	if err := p.selectAttributes(request, credentials, tags, selfAttested, sel, &requested); err != nil {
		return nil, err
	}

	if err := p.selectPredicates(request, credentials, tags, sel, &requested); err != nil {
		return nil, err
	}

	pres := &anoncreds.Presentation{
		Proof:          anoncreds.AggregatedProof{Nonce: request.Nonce},
		RequestedProof: requested,
		Identifiers:    make([]anoncreds.Identifier, len(sel.proofs)),
	}

	if len(sel.proofs) == 0 {
		return pres, nil
	}

	subProofs := make([]*anoncrypto.SubProofRequest, len(sel.proofs))

	for i, sp := range sel.proofs {
		req, id, err := p.subProofRequest(request, sp, timestamps)
		if err != nil {
			return nil, err
		}

		subProofs[i] = req
		pres.Identifiers[i] = *id
	}

	secret := linkSecret.Bytes()
	defer wipe(secret)

	err := anonerr.Guard(func() error {
		var e error

		pres.Proof.Value, e = p.crypto.CreateProof(&anoncrypto.ProofRequest{
			Nonce:      request.Nonce,
			LinkSecret: secret,
			SubProofs:  subProofs,
		})

		return e
	})
	if err != nil {
		return nil, anonerr.Wrap(anonerr.CryptoFailure, err, "create presentation proof")
	}

	logger.Debugf("created presentation over %d credentials", len(sel.proofs))

	return pres, nil
}

func (p *Prover) selectAttributes(request *anoncreds.PresentationRequest, credentials []*anoncreds.Credential,
	tags []anoncreds.Tags, selfAttested map[string]string, sel *selection, out *anoncreds.RequestedProof) error {
	referents := maps.Keys(request.RequestedAttributes)
	sort.Strings(referents)

	for _, referent := range referents {
		info := request.RequestedAttributes[referent]

		if v, ok := selfAttested[referent]; ok && info.Restrictions == nil {
			out.SelfAttestedAttrs[referent] = v

			continue
		}

		found := false

		for i, cred := range credentials {
			candidate := newSubProof(cred)

			if !hasAll(candidate, info.AttrNames()) || !info.Restrictions.Match(tags[i]) {
				continue
			}

			idx, sp := sel.use(cred)
			sp.intervals = append(sp.intervals, info.NonRevoked)

			if info.Name != "" {
				name, _ := sp.attr(info.Name)
				sp.revealed[name] = struct{}{}
				out.RevealedAttrs[referent] = anoncreds.RevealedAttributeInfo{
					SubProofIndex: uint32(idx),
					Raw:           cred.Values[name].Raw,
					Encoded:       cred.Values[name].Encoded,
				}
			} else {
				group := anoncreds.CredentialValues{}

				for _, requested := range info.Names {
					name, _ := sp.attr(requested)
					sp.revealed[name] = struct{}{}
					group[requested] = cred.Values[name]
				}

				out.RevealedAttrGroups[referent] = anoncreds.RevealedAttributeGroupInfo{
					SubProofIndex: uint32(idx),
					Values:        group,
				}
			}

			found = true

			break
		}

		if !found {
			return anonerr.New(anonerr.NoMatchingCredential, "no credential answers attribute referent %s", referent)
		}
	}

	return nil
}

func hasAll(sp *subProof, names []string) bool {
	for _, n := range names {
		if _, ok := sp.attr(n); !ok {
			return false
		}
	}

	return true
}

func (p *Prover) selectPredicates(request *anoncreds.PresentationRequest, credentials []*anoncreds.Credential,
	tags []anoncreds.Tags, sel *selection, out *anoncreds.RequestedProof) error {
	referents := maps.Keys(request.RequestedPredicates)
	sort.Strings(referents)

	for _, referent := range referents {
		info := request.RequestedPredicates[referent]
		found := false

		for i, cred := range credentials {
			if !predicateHolds(newSubProof(cred), &info) || !info.Restrictions.Match(tags[i]) {
				continue
			}

			idx, sp := sel.use(cred)
			sp.intervals = append(sp.intervals, info.NonRevoked)

			pred := info.Predicate()
			pred.AttrName, _ = sp.attr(info.Name)
			sp.predicates = append(sp.predicates, pred)

			out.Predicates[referent] = anoncreds.SubProofReferent{SubProofIndex: uint32(idx)}
			found = true

			break
		}

		if !found {
			return anonerr.New(anonerr.NoMatchingCredential, "no credential satisfies predicate referent %s", referent)
		}
	}

	return nil
}

func (p *Prover) subProofRequest(request *anoncreds.PresentationRequest, sp *subProof,
	timestamps map[string]uint64) (*anoncrypto.SubProofRequest, *anoncreds.Identifier, error) {
	def, err := p.ledger.CredentialDefinition(sp.cred.CredDefID)
	if err != nil {
		return nil, nil, err
	}

	revealed := maps.Keys(sp.revealed)
	sort.Strings(revealed)

	req := &anoncrypto.SubProofRequest{
		CredDefID:       sp.cred.CredDefID.String(),
		PublicKey:       def.Value.PublicKey,
		Signature:       sp.cred.Signature,
		Values:          sp.cred.Values.Encoded(),
		Revealed:        revealed,
		Predicates:      sp.predicates,
		RevRegID:        sp.cred.RegistryID(),
		RevocationIndex: sp.cred.RevocationIndex(),
	}

	id := &anoncreds.Identifier{SchemaID: sp.cred.SchemaID, CredDefID: sp.cred.CredDefID, RevRegID: sp.cred.RevRegID}

	interval := request.EffectiveInterval(sp.intervals, nil)
	if interval == nil || !sp.cred.Revocable() {
		return req, id, nil
	}

	ts, nonRev, err := p.nonRevocation(sp.cred, interval, timestamps)
	if err != nil {
		return nil, nil, err
	}

	req.NonRevocation = nonRev
	id.Timestamp = &ts

	return req, id, nil
}

// nonRevocation builds the non revocation input of cred at the chosen timestamp: the caller's, else the end
// of the interval, else the latest published status list.
func (p *Prover) nonRevocation(cred *anoncreds.Credential, interval *anoncreds.NonRevokedInterval,
	timestamps map[string]uint64) (uint64, *anoncrypto.NonRevocationInput, error) {
	revRegID := *cred.RevRegID

	revDef, err := p.ledger.RevocationRegistryDefinition(revRegID)
	if err != nil {
		return 0, nil, err
	}

	var list *anoncreds.RevocationStatusList

	ts, ok := timestamps[revRegID.String()]
	if !ok && interval.To != nil {
		ts, ok = *interval.To, true
	}

	if ok {
		list, err = p.ledger.StatusListAt(revRegID, ts)
	} else {
		list, err = p.ledger.LatestStatusList(revRegID)
		if err == nil {
			ts = list.Timestamp
		}
	}

	if err != nil {
		return 0, nil, err
	}

	index := cred.RevocationIndex()
	if list.IsRevoked(index) {
		return 0, nil, anonerr.New(anonerr.CredentialRevoked, "index %d of %s is revoked at %d", index, revRegID, ts)
	}

	state, err := accumulator.StateFromStatusList(revDef, list)
	if err != nil {
		return 0, nil, err
	}

	w, err := p.witness(accumulator.New(p.crypto, revRegID, revDef, nil), state, index, revDef)
	if err != nil {
		return 0, nil, err
	}

	return ts, &anoncrypto.NonRevocationInput{
		PublicKey:   revDef.Value.PublicKey,
		MaxCredNum:  revDef.Value.MaxCredNum,
		Accumulator: state.Accumulator(),
		Index:       index,
		Witness:     w.Value,
	}, nil
}

// witness returns a witness of index that verifies against state. A cached witness is reused while it is
// fresh; a witness that does not verify is dropped and computed once more.
func (p *Prover) witness(engine *accumulator.Engine, state *accumulator.State, index uint32,
	revDef *anoncreds.RevocationRegistryDefinition) (*accumulator.Witness, error) {
	key := fmt.Sprintf("%s#%d", state.RevRegID(), index)

	var w *accumulator.Witness

	op := func() error {
		w = nil

		if v, err := p.witnesses.Get(key); err == nil {
			if cached, ok := v.(*accumulator.Witness); ok && cached.Fresh(state) {
				w = cached
			}
		}

		if w == nil {
			store, err := p.tails.Tails(revDef.Value.TailsLocation, revDef.Value.TailsHash)
			if err != nil {
				return backoff.Permanent(err)
			}

			if w, err = engine.WitnessFor(state, index, store); err != nil {
				return backoff.Permanent(err)
			}
		}

		valid, err := engine.VerifyWitness(state, w)
		if err != nil {
			return backoff.Permanent(err)
		}

		if !valid {
			p.witnesses.Remove(key)

			return anonerr.New(anonerr.CorruptTailsData, "witness of index %d of %s does not verify", index,
				state.RevRegID())
		}

		return nil
	}

	if err := backoff.Retry(op, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1)); err != nil {
		return nil, err
	}

	if err := p.witnesses.Set(key, w); err != nil {
		logger.Warnf("cache witness %s: %v", key, err)
	}

	return w, nil
}
