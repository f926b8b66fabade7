/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logutil

import (
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/stretchr/testify/require"
)

func TestCommandLog(t *testing.T) {
	c := ForCommand(log.New("test/logutil"), "registry")

	t.Run("line", func(t *testing.T) {
		require.Equal(t, "command=[registry] method=[GetSchema]", c.line("GetSchema", nil, "", ""))
		require.Equal(t, "command=[registry] method=[PublishSchema] id=[did:example:1] error=[exists]",
			c.line("PublishSchema", []Field{ID("did:example:1")}, "error", "exists"))
	})

	t.Run("outcomes", func(t *testing.T) {
		require.NotPanics(t, func() {
			c.Rejected("GetSchema", "id is mandatory")
			c.Failed("GetSchema", errors.New("not found"), ID("did:example:1"))
			c.Done("GetSchema", ID("did:example:1"))
		})
	})
}
