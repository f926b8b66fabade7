/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry exposes an anoncreds registry over REST: ledger objects and the tails files referenced by
// revocation registry definitions.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/anoncreds/ledger"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
	cmdregistry "github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command/registry"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/rest"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/tails"
)

// constants for registry operations.
const (
	OperationID                      = "/anoncreds"
	SchemaPath                       = OperationID + "/schema"
	CredentialDefinitionPath         = OperationID + "/credential-definition"
	RevocationRegistryDefinitionPath = OperationID + "/revocation-registry-definition"
	StatusListPath                   = OperationID + "/status-list"
	StatusListTimestampsPath         = StatusListPath + "/timestamps"
	TailsPath                        = OperationID + "/tails"
	TailsFilePath                    = TailsPath + "/{hash}"

	idQueryParam        = "id"
	timestampQueryParam = "timestamp"

	maxTailsFileSize = 64 << 20
)

var logger = log.New("aries-framework/rest/registry")

// provider contains dependencies for the registry REST operations.
type provider interface {
	Ledger() ledger.Registry
	StorageProvider() storage.Provider
}

type registryCommand interface {
	PublishSchema(rw io.Writer, req io.Reader) command.Error
	GetSchema(rw io.Writer, req io.Reader) command.Error
	PublishCredentialDefinition(rw io.Writer, req io.Reader) command.Error
	GetCredentialDefinition(rw io.Writer, req io.Reader) command.Error
	PublishRevocationRegistryDefinition(rw io.Writer, req io.Reader) command.Error
	GetRevocationRegistryDefinition(rw io.Writer, req io.Reader) command.Error
	PublishStatusList(rw io.Writer, req io.Reader) command.Error
	GetStatusList(rw io.Writer, req io.Reader) command.Error
	GetStatusListTimestamps(rw io.Writer, req io.Reader) command.Error
}

// Operation contains the REST operations of the anoncreds registry.
type Operation struct {
	handlers []rest.Handler
	command  registryCommand
	storage  storage.Provider
}

// New returns new registry operations rest client instance.
func New(p provider) *Operation {
	o := &Operation{command: cmdregistry.New(p), storage: p.StorageProvider()}
	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.Publication(SchemaPath, http.MethodPost, o.PublishSchema),
		cmdutil.Lookup(SchemaPath, o.GetSchema),
		cmdutil.Publication(CredentialDefinitionPath, http.MethodPost, o.PublishCredentialDefinition),
		cmdutil.Lookup(CredentialDefinitionPath, o.GetCredentialDefinition),
		cmdutil.Publication(RevocationRegistryDefinitionPath, http.MethodPost, o.PublishRevocationRegistryDefinition),
		cmdutil.Lookup(RevocationRegistryDefinitionPath, o.GetRevocationRegistryDefinition),
		cmdutil.Lookup(StatusListTimestampsPath, o.GetStatusListTimestamps),
		cmdutil.Publication(StatusListPath, http.MethodPost, o.PublishStatusList),
		cmdutil.Lookup(StatusListPath, o.GetStatusList),
		cmdutil.Publication(TailsFilePath, http.MethodPut, o.PutTails),
		cmdutil.Lookup(TailsFilePath, o.GetTails),
	}
}

// idRequest turns the id query parameter into a command request body.
func idRequest(req *http.Request) io.Reader {
	raw, err := json.Marshal(&cmdregistry.IDArgs{ID: req.URL.Query().Get(idQueryParam)})
	if err != nil {
		logger.Errorf("encode id request: %s", err)
	}

	return bytes.NewReader(raw)
}

// PublishSchema swagger:route POST /anoncreds/schema registry publishSchema
//
// Publishes a schema.
//
// Responses:
//    default: genericError
func (o *Operation) PublishSchema(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PublishSchema, rw, req.Body)
}

// GetSchema swagger:route GET /anoncreds/schema registry getSchema
//
// Reads the schema published under the id query parameter.
//
// Responses:
//    default: genericError
//        200: schemaRes
func (o *Operation) GetSchema(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetSchema, rw, idRequest(req))
}

// PublishCredentialDefinition swagger:route POST /anoncreds/credential-definition registry publishCredDef
//
// Publishes a credential definition.
//
// Responses:
//    default: genericError
func (o *Operation) PublishCredentialDefinition(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PublishCredentialDefinition, rw, req.Body)
}

// GetCredentialDefinition swagger:route GET /anoncreds/credential-definition registry getCredDef
//
// Reads the credential definition published under the id query parameter.
//
// Responses:
//    default: genericError
//        200: credDefRes
func (o *Operation) GetCredentialDefinition(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetCredentialDefinition, rw, idRequest(req))
}

// PublishRevocationRegistryDefinition swagger:route POST /anoncreds/revocation-registry-definition registry publishRevRegDef
//
// Publishes a revocation registry definition.
//
// Responses:
//    default: genericError
func (o *Operation) PublishRevocationRegistryDefinition(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PublishRevocationRegistryDefinition, rw, req.Body)
}

// GetRevocationRegistryDefinition swagger:route GET /anoncreds/revocation-registry-definition registry getRevRegDef
//
// Reads the revocation registry definition published under the id query parameter.
//
// Responses:
//    default: genericError
//        200: revRegDefRes
func (o *Operation) GetRevocationRegistryDefinition(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetRevocationRegistryDefinition, rw, idRequest(req))
}

// PublishStatusList swagger:route POST /anoncreds/status-list registry publishStatusList
//
// Appends a status list to the history of its registry.
//
// Responses:
//    default: genericError
func (o *Operation) PublishStatusList(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.PublishStatusList, rw, req.Body)
}

// GetStatusList swagger:route GET /anoncreds/status-list registry getStatusList
//
// Reads the status list of the registry in the id query parameter that was in force at the timestamp query
// parameter, or the latest one.
//
// Responses:
//    default: genericError
//        200: statusListRes
func (o *Operation) GetStatusList(rw http.ResponseWriter, req *http.Request) {
	args := &cmdregistry.StatusListArgs{ID: req.URL.Query().Get(idQueryParam)}

	if v := req.URL.Query().Get(timestampQueryParam); v != "" {
		ts, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdregistry.InvalidRequestErrorCode,
				fmt.Errorf("invalid timestamp %q: %w", v, err))

			return
		}

		args.Timestamp = &ts
	}

	raw, err := json.Marshal(args)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusInternalServerError, cmdregistry.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(o.command.GetStatusList, rw, bytes.NewReader(raw))
}

// GetStatusListTimestamps swagger:route GET /anoncreds/status-list/timestamps registry getStatusListTimestamps
//
// Lists the publication timestamps of the registry in the id query parameter.
//
// Responses:
//    default: genericError
//        200: timestampsRes
func (o *Operation) GetStatusListTimestamps(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetStatusListTimestamps, rw, idRequest(req))
}

// PutTails swagger:route PUT /anoncreds/tails/{hash} registry putTails
//
// Stores a tails file. The file must hash to the path parameter.
//
// Responses:
//    default: genericError
func (o *Operation) PutTails(rw http.ResponseWriter, req *http.Request) {
	hash := mux.Vars(req)["hash"]

	file, err := io.ReadAll(io.LimitReader(req.Body, maxTailsFileSize))
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdregistry.InvalidRequestErrorCode,
			fmt.Errorf("read tails file: %w", err))

		return
	}

	if _, err = tails.Import(o.storage, file, hash); err != nil {
		rest.SendError(rw, command.FromAnoncreds(command.Registry, err))

		return
	}

	logger.Debugf("stored tails file %s", hash)

	rw.WriteHeader(http.StatusCreated)
}

// GetTails swagger:route GET /anoncreds/tails/{hash} registry getTails
//
// Downloads the tails file with the hash path parameter.
//
// Responses:
//    default: genericError
//        200: tailsFile
func (o *Operation) GetTails(rw http.ResponseWriter, req *http.Request) {
	hash := mux.Vars(req)["hash"]

	s, err := tails.Open(o.storage, hash)
	if err != nil {
		rest.SendError(rw, command.FromAnoncreds(command.Registry, err))

		return
	}

	file, err := s.Export()
	if err == nil && tails.Hash(file) != hash {
		err = anonerr.New(anonerr.CorruptTailsData, "stored tails file does not match %s", hash)
	}

	if err != nil {
		rest.SendError(rw, command.FromAnoncreds(command.Registry, err))

		return
	}

	rw.Header().Set("Content-Type", "application/octet-stream")

	if _, err = rw.Write(file); err != nil {
		logger.Errorf("Unable to send tails file, %s", err)
	}
}
