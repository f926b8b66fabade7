/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry provides the controller commands of an anoncreds registry: publication and lookup of
// ledger objects.
package registry

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/internal/logutil"
)

var (
	logger     = log.New("aries-framework/command/registry")
	commandLog = logutil.ForCommand(logger, CommandName)
)

// Error codes. Failures reported by the ledger use command.Registry plus their anoncreds code.
const (
	// InvalidRequestErrorCode is typically a code for undecodable requests.
	InvalidRequestErrorCode = command.Code(iota + command.Registry)
)

// constants for the registry controller's methods.
const (
	// command name.
	CommandName = "registry"

	// command methods.
	PublishSchemaCommandMethod                       = "PublishSchema"
	GetSchemaCommandMethod                           = "GetSchema"
	PublishCredentialDefinitionCommandMethod         = "PublishCredentialDefinition"
	GetCredentialDefinitionCommandMethod             = "GetCredentialDefinition"
	PublishRevocationRegistryDefinitionCommandMethod = "PublishRevocationRegistryDefinition"
	GetRevocationRegistryDefinitionCommandMethod     = "GetRevocationRegistryDefinition"
	PublishStatusListCommandMethod                   = "PublishStatusList"
	GetStatusListCommandMethod                       = "GetStatusList"
	GetStatusListTimestampsCommandMethod             = "GetStatusListTimestamps"

	// error messages.
	errEmptyID      = "id is mandatory"
	errEmptyPayload = "published object is mandatory"
)

// provider contains dependencies for the registry controller command operations.
type provider interface {
	Ledger() ledger.Registry
}

// Command contains command operations provided by registry controller.
type Command struct {
	ledger ledger.Registry
}

// New returns new registry controller command instance.
func New(ctx provider) *Command {
	return &Command{ledger: ctx.Ledger()}
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.PublicationCommand(CommandName, PublishSchemaCommandMethod, o.PublishSchema),
		cmdutil.LookupCommand(CommandName, GetSchemaCommandMethod, o.GetSchema),
		cmdutil.PublicationCommand(CommandName, PublishCredentialDefinitionCommandMethod, o.PublishCredentialDefinition),
		cmdutil.LookupCommand(CommandName, GetCredentialDefinitionCommandMethod, o.GetCredentialDefinition),
		cmdutil.PublicationCommand(CommandName, PublishRevocationRegistryDefinitionCommandMethod,
			o.PublishRevocationRegistryDefinition),
		cmdutil.LookupCommand(CommandName, GetRevocationRegistryDefinitionCommandMethod,
			o.GetRevocationRegistryDefinition),
		cmdutil.PublicationCommand(CommandName, PublishStatusListCommandMethod, o.PublishStatusList),
		cmdutil.LookupCommand(CommandName, GetStatusListCommandMethod, o.GetStatusList),
		cmdutil.LookupCommand(CommandName, GetStatusListTimestampsCommandMethod, o.GetStatusListTimestamps),
	}
}

func decode(req io.Reader, v interface{}, method string) command.Error {
	if err := json.NewDecoder(req).Decode(v); err != nil {
		commandLog.Rejected(method, err.Error())

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	return nil
}

func failed(method, id string, err error) command.Error {
	commandLog.Failed(method, err, logutil.ID(id))

	return command.FromAnoncreds(command.Registry, err)
}

func readID(req io.Reader, method string) (string, command.Error) {
	var request IDArgs

	if cerr := decode(req, &request, method); cerr != nil {
		return "", cerr
	}

	if request.ID == "" {
		commandLog.Rejected(method, errEmptyID)

		return "", command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyID))
	}

	return request.ID, nil
}

// PublishSchema publishes a schema.
func (o *Command) PublishSchema(rw io.Writer, req io.Reader) command.Error {
	var request SchemaArgs

	if cerr := decode(req, &request, PublishSchemaCommandMethod); cerr != nil {
		return cerr
	}

	if request.Schema == nil {
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyPayload))
	}

	if err := o.ledger.PublishSchema(request.ID, request.Schema); err != nil {
		return failed(PublishSchemaCommandMethod, request.ID.String(), err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	commandLog.Done(PublishSchemaCommandMethod, logutil.ID(request.ID.String()))

	return nil
}

// GetSchema returns a published schema.
func (o *Command) GetSchema(rw io.Writer, req io.Reader) command.Error {
	raw, cerr := readID(req, GetSchemaCommandMethod)
	if cerr != nil {
		return cerr
	}

	id, err := identifier.ParseSchemaID(raw)
	if err != nil {
		return failed(GetSchemaCommandMethod, raw, err)
	}

	schema, err := o.ledger.Schema(id)
	if err != nil {
		return failed(GetSchemaCommandMethod, raw, err)
	}

	command.WriteNillableResponse(rw, &SchemaArgs{ID: id, Schema: schema}, logger)

	return nil
}

// PublishCredentialDefinition publishes a credential definition.
func (o *Command) PublishCredentialDefinition(rw io.Writer, req io.Reader) command.Error {
	var request CredentialDefinitionArgs

	if cerr := decode(req, &request, PublishCredentialDefinitionCommandMethod); cerr != nil {
		return cerr
	}

	if request.CredentialDefinition == nil {
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyPayload))
	}

	if err := o.ledger.PublishCredentialDefinition(request.ID, request.CredentialDefinition); err != nil {
		return failed(PublishCredentialDefinitionCommandMethod, request.ID.String(), err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	commandLog.Done(PublishCredentialDefinitionCommandMethod, logutil.ID(request.ID.String()))

	return nil
}

// GetCredentialDefinition returns a published credential definition.
func (o *Command) GetCredentialDefinition(rw io.Writer, req io.Reader) command.Error {
	raw, cerr := readID(req, GetCredentialDefinitionCommandMethod)
	if cerr != nil {
		return cerr
	}

	id, err := identifier.ParseCredDefID(raw)
	if err != nil {
		return failed(GetCredentialDefinitionCommandMethod, raw, err)
	}

	def, err := o.ledger.CredentialDefinition(id)
	if err != nil {
		return failed(GetCredentialDefinitionCommandMethod, raw, err)
	}

	command.WriteNillableResponse(rw, &CredentialDefinitionArgs{ID: id, CredentialDefinition: def}, logger)

	return nil
}

// PublishRevocationRegistryDefinition publishes a revocation registry definition.
func (o *Command) PublishRevocationRegistryDefinition(rw io.Writer, req io.Reader) command.Error {
	var request RevocationRegistryDefinitionArgs

	if cerr := decode(req, &request, PublishRevocationRegistryDefinitionCommandMethod); cerr != nil {
		return cerr
	}

	if request.RevocationRegistryDefinition == nil {
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyPayload))
	}

	err := o.ledger.PublishRevocationRegistryDefinition(request.ID, request.RevocationRegistryDefinition)
	if err != nil {
		return failed(PublishRevocationRegistryDefinitionCommandMethod, request.ID.String(), err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	commandLog.Done(PublishRevocationRegistryDefinitionCommandMethod, logutil.ID(request.ID.String()))

	return nil
}

// GetRevocationRegistryDefinition returns a published revocation registry definition.
func (o *Command) GetRevocationRegistryDefinition(rw io.Writer, req io.Reader) command.Error {
	raw, cerr := readID(req, GetRevocationRegistryDefinitionCommandMethod)
	if cerr != nil {
		return cerr
	}

	id, err := identifier.ParseRevRegID(raw)
	if err != nil {
		return failed(GetRevocationRegistryDefinitionCommandMethod, raw, err)
	}

	def, err := o.ledger.RevocationRegistryDefinition(id)
	if err != nil {
		return failed(GetRevocationRegistryDefinitionCommandMethod, raw, err)
	}

	command.WriteNillableResponse(rw, &RevocationRegistryDefinitionArgs{ID: id, RevocationRegistryDefinition: def},
		logger)

	return nil
}

// PublishStatusList appends a status list to the history of its registry.
func (o *Command) PublishStatusList(rw io.Writer, req io.Reader) command.Error {
	var request PublishStatusListArgs

	if cerr := decode(req, &request, PublishStatusListCommandMethod); cerr != nil {
		return cerr
	}

	if request.StatusList == nil {
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyPayload))
	}

	if err := o.ledger.PublishStatusList(request.StatusList); err != nil {
		return failed(PublishStatusListCommandMethod, request.StatusList.RevRegDefID.String(), err)
	}

	command.WriteNillableResponse(rw, nil, logger)

	commandLog.Done(PublishStatusListCommandMethod, logutil.ID(request.StatusList.RevRegDefID.String()))

	return nil
}

// GetStatusList returns the status list of a registry in force at the requested timestamp, or the latest one.
func (o *Command) GetStatusList(rw io.Writer, req io.Reader) command.Error {
	var request StatusListArgs

	if cerr := decode(req, &request, GetStatusListCommandMethod); cerr != nil {
		return cerr
	}

	if request.ID == "" {
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyID))
	}

	id, err := identifier.ParseRevRegID(request.ID)
	if err != nil {
		return failed(GetStatusListCommandMethod, request.ID, err)
	}

	result := &StatusListResult{}

	if request.Timestamp != nil {
		result.StatusList, err = o.ledger.StatusListAt(id, *request.Timestamp)
	} else {
		result.StatusList, err = o.ledger.LatestStatusList(id)
	}

	if err != nil {
		return failed(GetStatusListCommandMethod, request.ID, err)
	}

	command.WriteNillableResponse(rw, result, logger)

	return nil
}

// GetStatusListTimestamps returns the publication history of a registry.
func (o *Command) GetStatusListTimestamps(rw io.Writer, req io.Reader) command.Error {
	raw, cerr := readID(req, GetStatusListTimestampsCommandMethod)
	if cerr != nil {
		return cerr
	}

	id, err := identifier.ParseRevRegID(raw)
	if err != nil {
		return failed(GetStatusListTimestampsCommandMethod, raw, err)
	}

	ts, err := o.ledger.StatusListTimestamps(id)
	if err != nil {
		return failed(GetStatusListTimestampsCommandMethod, raw, err)
	}

	if ts == nil {
		ts = []uint64{}
	}

	command.WriteNillableResponse(rw, &TimestampsResult{ID: raw, Timestamps: ts}, logger)

	return nil
}
