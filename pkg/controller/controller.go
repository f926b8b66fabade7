/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
	registrycmd "github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command/registry"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/rest"
	registryrest "github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/rest/registry"
)

// Provider supplies the services behind the controller operations.
type Provider interface {
	Ledger() ledger.Registry
	StorageProvider() storage.Provider
}

type allOpts struct {
	readOnly bool
}

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithReadOnly limits the controller to lookups, for registry mirrors that must not accept publications.
func WithReadOnly() Opt {
	return func(opts *allOpts) {
		opts.readOnly = true
	}
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(ctx Provider, opts ...Opt) ([]rest.Handler, error) {
	restAPIOpts := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(restAPIOpts)
	}

	// registry REST operation
	registryOp := registryrest.New(ctx)

	var allHandlers []rest.Handler

	for _, h := range registryOp.GetRESTHandlers() {
		if restAPIOpts.readOnly && h.Publishes() {
			continue
		}

		allHandlers = append(allHandlers, h)
	}

	return allHandlers, nil
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(ctx Provider, opts ...Opt) ([]command.Handler, error) {
	cmdOpts := &allOpts{}
	// Apply options
	for _, opt := range opts {
		opt(cmdOpts)
	}

	// registry command operation
	registry := registrycmd.New(ctx)

	var allHandlers []command.Handler

	for _, h := range registry.GetHandlers() {
		if cmdOpts.readOnly && h.Publishes() {
			continue
		}

		allHandlers = append(allHandlers, h)
	}

	return allHandlers, nil
}
