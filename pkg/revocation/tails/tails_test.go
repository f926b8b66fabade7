/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tails

import (
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
)

func samplePoints() map[uint32][]byte {
	return map[uint32][]byte{
		1: []byte("point-1"),
		2: []byte("point-2"),
		4: []byte("point-4"),
		5: {},
	}
}

func TestFileFormat(t *testing.T) {
	file := Encode(samplePoints())
	require.Equal(t, []byte{0x00, 0x02}, file[:2])
	require.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 7}, file[2:10])
	require.Equal(t, "point-1", string(file[10:17]))

	decoded, err := Decode(file)
	require.NoError(t, err)
	require.Equal(t, samplePoints()[4], decoded[4])
	require.Len(t, decoded, 4)
	require.Equal(t, file, Encode(decoded))
	require.Equal(t, Hash(file), Hash(Encode(decoded)))

	t.Run("corrupt files", func(t *testing.T) {
		for name, bad := range map[string][]byte{
			"empty":            nil,
			"wrong version":    append([]byte{0x00, 0x01}, file[2:]...),
			"truncated header": file[:5],
			"truncated point":  file[:len(file)-10],
			"out of order":     append(append([]byte{0x00, 0x02}, file[2+8+7:]...), file[2:2+8+7]...),
		} {
			_, err := Decode(bad)
			require.ErrorIs(t, err, anonerr.ErrCorruptTailsData, name)
		}
	})
}

func TestStore(t *testing.T) {
	provider := mem.NewProvider()

	s, err := Write(provider, samplePoints(), WithCacheSize(2))
	require.NoError(t, err)
	require.Equal(t, Hash(Encode(samplePoints())), s.Hash())
	require.NoError(t, s.Verify())

	point, err := s.Tail(2)
	require.NoError(t, err)
	require.Equal(t, []byte("point-2"), point)

	_, err = s.Get(3)
	require.ErrorIs(t, err, anonerr.ErrMissingTailsData)

	exported, err := s.Export()
	require.NoError(t, err)
	require.Equal(t, Encode(samplePoints()), exported)

	t.Run("reopen by hash", func(t *testing.T) {
		again, err := (&Local{Storage: provider}).Tails("ignored", s.Hash())
		require.NoError(t, err)

		point, err := again.Get(4)
		require.NoError(t, err)
		require.Equal(t, []byte("point-4"), point)
	})

	t.Run("tampering is detected and served fresh", func(t *testing.T) {
		_, err := s.Get(1)
		require.NoError(t, err)

		require.NoError(t, s.Put(1, []byte("tampered")))

		point, err := s.Get(1)
		require.NoError(t, err)
		require.Equal(t, []byte("tampered"), point)

		require.ErrorIs(t, s.Verify(), anonerr.ErrCorruptTailsData)

		_, err = (&Local{Storage: provider}).Tails("", s.Hash())
		require.ErrorIs(t, err, anonerr.ErrCorruptTailsData)
	})

	t.Run("unknown hash has no points", func(t *testing.T) {
		empty, err := Open(provider, "unknown")
		require.NoError(t, err)
		require.ErrorIs(t, empty.Verify(), anonerr.ErrMissingTailsData)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := Open(provider, "")
		require.ErrorIs(t, err, anonerr.ErrInvalidRequest)

		_, err = Write(provider, nil)
		require.ErrorIs(t, err, anonerr.ErrInvalidRequest)
	})
}

func TestImport(t *testing.T) {
	file := Encode(samplePoints())

	t.Run("hash is checked before anything is stored", func(t *testing.T) {
		provider := mem.NewProvider()

		_, err := Import(provider, file, "wrong")
		require.ErrorIs(t, err, anonerr.ErrCorruptTailsData)

		s, err := Open(provider, Hash(file))
		require.NoError(t, err)
		require.ErrorIs(t, s.Verify(), anonerr.ErrMissingTailsData)
	})

	t.Run("import then export is byte identical", func(t *testing.T) {
		s, err := Import(mem.NewProvider(), file, Hash(file))
		require.NoError(t, err)

		exported, err := s.Export()
		require.NoError(t, err)
		require.Equal(t, file, exported)
	})

	t.Run("storage failure", func(t *testing.T) {
		_, err := Import(&failingProvider{}, file, Hash(file))
		require.ErrorIs(t, err, anonerr.ErrStorageFailure)
	})
}

type failingProvider struct {
	mem.Provider
}

func (p *failingProvider) OpenStore(string) (storage.Store, error) {
	return nil, errors.New("unavailable")
}
