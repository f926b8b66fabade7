/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anonerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("kind follows code group", func(t *testing.T) {
		require.Equal(t, ValidationError, InvalidIdentifier.Kind())
		require.Equal(t, ConsistencyError, IndexExhausted.Kind())
		require.Equal(t, ConsistencyError, BatchApplicationError.Kind())
		require.Equal(t, CryptoError, InvalidProof.Kind())
		require.Equal(t, StorageError, CorruptTailsData.Kind())
		require.Equal(t, ProtocolError, TimestampOutOfRange.Kind())
		require.Equal(t, UnknownKind, UnknownStatus.Kind())
	})

	t.Run("errors.Is matches by code through wrapping", func(t *testing.T) {
		err := fmt.Errorf("issue: %w", New(IndexExhausted, "registry %s is full", "reg1"))

		require.ErrorIs(t, err, ErrIndexExhausted)
		require.False(t, errors.Is(err, ErrInvalidIndex))
		require.Equal(t, IndexExhausted, CodeOf(err))
		require.Equal(t, ConsistencyError, KindOf(err))
		require.EqualError(t, err, "issue: ConsistencyError(IndexExhausted): registry reg1 is full")
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := New(MissingTailsData, "index 4")
		err := Wrap(BatchApplicationError, cause, "apply batch")

		require.ErrorIs(t, err, ErrBatchApplication)
		require.ErrorIs(t, err, ErrMissingTailsData)
		require.Equal(t, BatchApplicationError, CodeOf(err))
		require.Same(t, cause, Wrap(MissingTailsData, cause, ""))
	})

	t.Run("foreign errors", func(t *testing.T) {
		require.Equal(t, UnknownStatus, CodeOf(errors.New("boom")))
		require.Equal(t, UnknownKind, KindOf(nil))
		require.Equal(t, "Code(42)", Code(42).String())
	})
}

func TestGuard(t *testing.T) {
	t.Run("passes errors through", func(t *testing.T) {
		err := Guard(func() error { return ErrInvalidProof })
		require.ErrorIs(t, err, ErrInvalidProof)
		require.NoError(t, Guard(func() error { return nil }))
	})

	t.Run("converts panics", func(t *testing.T) {
		err := Guard(func() error { panic("bad point") })
		require.ErrorIs(t, err, ErrCryptoFailure)
		require.Equal(t, CryptoError, KindOf(err))
		require.Contains(t, err.Error(), "bad point")
	})
}
