/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/crypto/anoncrypto/bbsacc"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
	mockcrypto "github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/mock/anoncrypto"
)

const registrySize = 10

type mapTails map[uint32][]byte

func (m mapTails) Tail(index uint32) ([]byte, error) {
	b, ok := m[index]
	if !ok {
		return nil, errors.New("no such tail")
	}

	return b, nil
}

type fixture struct {
	engine *Engine
	tails  mapTails
	crypto anoncrypto.Capability
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	crypto := bbsacc.New()

	keys, err := crypto.NewRevocationKeys(registrySize)
	require.NoError(t, err)

	id, err := identifier.ParseRevRegID("did:example:issuer/anoncreds/v0/REV_REG_DEF/abc/1")
	require.NoError(t, err)

	issuer, err := identifier.ParseIssuerID("did:example:issuer")
	require.NoError(t, err)

	def := &anoncreds.RevocationRegistryDefinition{
		IssuerID: issuer,
		Type:     anoncreds.RegistryTypeCLAccum,
		Value: anoncreds.RevocationRegistryDefinitionValue{
			MaxCredNum: registrySize,
			PublicKey:  keys.PublicKey,
		},
	}

	return &fixture{engine: New(crypto, id, def, keys.PrivateKey), tails: keys.Tails, crypto: crypto}
}

func (f *fixture) state(t *testing.T, issued ...uint32) *State {
	t.Helper()

	s, err := f.engine.NewState()
	require.NoError(t, err)

	for _, i := range issued {
		s, err = f.engine.Issue(s, i)
		require.NoError(t, err)
	}

	return s
}

func TestIssueRevokeRestore(t *testing.T) {
	f := newFixture(t)

	empty := f.state(t)
	require.Empty(t, empty.Issued())
	require.Zero(t, empty.Generation())

	s := f.state(t, 1, 3, 7)
	require.Equal(t, []uint32{1, 3, 7}, s.Issued())
	require.Equal(t, uint64(3), s.Generation())

	t.Run("copy on write", func(t *testing.T) {
		next, err := f.engine.Revoke(s, 3)
		require.NoError(t, err)
		require.True(t, s.IsIssued(3))
		require.True(t, next.IsRevoked(3))
		require.NotEqual(t, s.Accumulator(), next.Accumulator())
	})

	t.Run("restore undoes revoke", func(t *testing.T) {
		revoked, err := f.engine.Revoke(s, 3)
		require.NoError(t, err)

		restored, err := f.engine.Restore(revoked, 3)
		require.NoError(t, err)
		require.True(t, restored.Equal(s))
		require.Equal(t, s.Accumulator(), restored.Accumulator())
	})

	t.Run("order independence", func(t *testing.T) {
		a, err := f.engine.Apply(f.state(t), Delta{Issued: []uint32{7, 1, 3, 5}})
		require.NoError(t, err)
		a, err = f.engine.Revoke(a, 5)
		require.NoError(t, err)

		b := f.state(t, 5, 3)
		b, err = f.engine.Revoke(b, 5)
		require.NoError(t, err)
		b, err = f.engine.Apply(b, Delta{Issued: []uint32{1, 7}})
		require.NoError(t, err)

		require.True(t, a.Equal(b))

		rebuilt, err := f.engine.Recompute(a)
		require.NoError(t, err)
		require.Equal(t, a.Accumulator(), rebuilt)
	})

	t.Run("invalid index", func(t *testing.T) {
		_, err := f.engine.Issue(s, 3)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)

		_, err = f.engine.Issue(s, 0)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)

		_, err = f.engine.Issue(s, registrySize+1)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)

		_, err = f.engine.Revoke(s, 2)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)

		_, err = f.engine.Restore(s, 1)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)
	})

	t.Run("revoked index is not reissued", func(t *testing.T) {
		revoked, err := f.engine.Revoke(s, 1)
		require.NoError(t, err)

		_, err = f.engine.Issue(revoked, 1)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)
	})
}

func TestIssueNext(t *testing.T) {
	f := newFixture(t)

	s := f.state(t, 2)
	s, err := f.engine.Revoke(s, 2)
	require.NoError(t, err)

	var index uint32

	s, index, err = f.engine.IssueNext(s)
	require.NoError(t, err)
	require.Equal(t, uint32(1), index)

	for want := uint32(3); want <= registrySize; want++ {
		s, index, err = f.engine.IssueNext(s)
		require.NoError(t, err)
		require.Equal(t, want, index)
	}

	_, _, err = f.engine.IssueNext(s)
	require.ErrorIs(t, err, anonerr.ErrIndexExhausted)
	require.Equal(t, anonerr.ConsistencyError, anonerr.KindOf(err))
}

func TestApplyIsAtomic(t *testing.T) {
	f := newFixture(t)
	s := f.state(t, 1, 2)

	for name, d := range map[string]Delta{
		"revoke unissued":  {Issued: []uint32{3}, Revoked: []uint32{4}},
		"issue twice":      {Issued: []uint32{3, 3}},
		"issue and revoke": {Issued: []uint32{3}, Revoked: []uint32{3}},
		"already issued":   {Issued: []uint32{4, 1}},
		"out of range":     {Revoked: []uint32{1}, Issued: []uint32{registrySize + 1}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.engine.Apply(s, d)
			require.ErrorIs(t, err, anonerr.ErrInvalidIndex)
			require.Equal(t, []uint32{1, 2}, s.Issued())
			require.Empty(t, s.Revoked())
		})
	}

	t.Run("empty delta keeps the accumulator", func(t *testing.T) {
		next, err := f.engine.Apply(s, Delta{})
		require.NoError(t, err)
		require.True(t, next.Equal(s))
		require.Equal(t, s.Generation(), next.Generation())
	})

	t.Run("foreign state", func(t *testing.T) {
		other := newFixture(t)
		other.engine.def.Value.MaxCredNum = registrySize + 1

		_, err := other.engine.Apply(s, Delta{Issued: []uint32{3}})
		require.ErrorIs(t, err, anonerr.ErrInvalidRequest)
	})
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	s := f.state(t, 1, 2, 3)
	s, err := f.engine.Revoke(s, 2)
	require.NoError(t, err)

	list, s1, err := f.engine.Snapshot(s, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), list.Timestamp)
	require.Equal(t, []uint32{1, 3}, list.Issued)
	require.Equal(t, []uint32{2}, list.Revoked)
	require.Equal(t, s.Accumulator(), list.Accumulator)
	require.Equal(t, "did:example:issuer", list.IssuerID.String())
	require.Equal(t, uint64(100), s1.LastTimestamp())
	require.Zero(t, s.LastTimestamp())

	_, _, err = f.engine.Snapshot(s1, 100)
	require.ErrorIs(t, err, anonerr.ErrInvalidTimestamp)

	_, _, err = f.engine.Snapshot(s1, 99)
	require.ErrorIs(t, err, anonerr.ErrInvalidTimestamp)

	t.Run("state from status list", func(t *testing.T) {
		derived, err := StateFromStatusList(f.engine.def, list)
		require.NoError(t, err)
		require.True(t, derived.Equal(s1))
		require.Equal(t, uint64(100), derived.LastTimestamp())

		bad := *list
		bad.Revoked = []uint32{1}
		_, err = StateFromStatusList(f.engine.def, &bad)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)
	})

	t.Run("json", func(t *testing.T) {
		raw, err := json.Marshal(s1)
		require.NoError(t, err)

		var decoded State
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.True(t, decoded.Equal(s1))
		require.Equal(t, s1.Generation(), decoded.Generation())
		require.Equal(t, s1.LastTimestamp(), decoded.LastTimestamp())
	})
}

func TestWitness(t *testing.T) {
	f := newFixture(t)
	s := f.state(t, 1, 3, 7)

	w, err := f.engine.WitnessFor(s, 3, f.tails)
	require.NoError(t, err)
	require.Equal(t, uint32(3), w.Index)
	require.Equal(t, s.Generation(), w.Generation)
	require.True(t, w.Fresh(s))

	ok, err := f.engine.VerifyWitness(s, w)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("stale after another index changes", func(t *testing.T) {
		next, err := f.engine.Revoke(s, 7)
		require.NoError(t, err)
		require.False(t, w.Fresh(next))

		ok, err := f.engine.VerifyWitness(next, w)
		require.NoError(t, err)
		require.False(t, ok)

		refreshed, err := f.engine.WitnessFor(next, 3, f.tails)
		require.NoError(t, err)

		ok, err = f.engine.VerifyWitness(next, refreshed)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("revoked index has no witness", func(t *testing.T) {
		next, err := f.engine.Revoke(s, 3)
		require.NoError(t, err)

		_, err = f.engine.WitnessFor(next, 3, f.tails)
		require.ErrorIs(t, err, anonerr.ErrInvalidIndex)
	})

	t.Run("missing tails", func(t *testing.T) {
		_, err := f.engine.WitnessFor(s, 3, mapTails{})
		require.ErrorIs(t, err, anonerr.ErrMissingTailsData)

		_, err = f.engine.WitnessFor(s, 3, nil)
		require.ErrorIs(t, err, anonerr.ErrMissingTailsData)
	})

	t.Run("corrupt tails", func(t *testing.T) {
		bad := mapTails{}
		for k := range f.tails {
			bad[k] = []byte("garbage")
		}

		_, err := f.engine.WitnessFor(s, 3, bad)
		require.ErrorIs(t, err, anonerr.ErrCorruptTailsData)
	})
}

func TestCryptoFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	crypto := mockcrypto.NewMockCapability(ctrl)

	id, err := identifier.ParseRevRegID("did:example:issuer/anoncreds/v0/REV_REG_DEF/abc/1")
	require.NoError(t, err)

	def := &anoncreds.RevocationRegistryDefinition{Value: anoncreds.RevocationRegistryDefinitionValue{MaxCredNum: 4}}
	engine := New(crypto, id, def, nil)

	t.Run("error", func(t *testing.T) {
		crypto.EXPECT().Accumulate(gomock.Any(), gomock.Any(), uint32(4), gomock.Any()).
			Return(nil, errors.New("boom"))

		_, err := engine.NewState()
		require.ErrorIs(t, err, anonerr.ErrCryptoFailure)
	})

	t.Run("panic", func(t *testing.T) {
		crypto.EXPECT().Accumulate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(anoncrypto.RevocationPublicKey, anoncrypto.RevocationPrivateKey, uint32,
				[]uint32) (anoncrypto.Accumulator, error) {
				panic("bad point")
			})

		_, err := engine.NewState()
		require.ErrorIs(t, err, anonerr.ErrCryptoFailure)
	})

	t.Run("witness errors keep storage codes", func(t *testing.T) {
		crypto.EXPECT().Accumulate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(anoncrypto.Accumulator{1}, nil).Times(2)

		s, err := engine.NewState()
		require.NoError(t, err)

		s, err = engine.Issue(s, 1)
		require.NoError(t, err)

		crypto.EXPECT().ComputeWitness(uint32(4), uint32(1), []uint32{1}, gomock.Any()).
			Return(nil, anonerr.New(anonerr.CorruptTailsData, "bad"))

		_, err = engine.WitnessFor(s, 1, mapTails{})
		require.ErrorIs(t, err, anonerr.ErrCorruptTailsData)

		crypto.EXPECT().ComputeWitness(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("math"))

		_, err = engine.WitnessFor(s, 1, mapTails{})
		require.ErrorIs(t, err, anonerr.ErrCryptoFailure)
	})
}
