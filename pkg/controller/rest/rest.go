/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
)

var logger = log.New("aries-framework/rest")

// Handler http handler for each controller API endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
	// Publishes reports whether the endpoint writes to the registry.
	Publishes() bool
}

// genericErrorBody is aries rest api error response.
type genericErrorBody struct {
	Code    command.Code `json:"code"`
	Message string       `json:"message"`
}

// SendHTTPStatusError sends given http status code to response with error body.
func SendHTTPStatusError(rw http.ResponseWriter, httpStatus int, code command.Code, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(httpStatus)

	e := json.NewEncoder(rw).Encode(genericErrorBody{
		Code:    code,
		Message: err.Error(),
	})
	if e != nil {
		logger.Errorf("Unable to send error response, %s", e)
	}
}

// SendError sends a command error to response writer with the http status matching its type.
func SendError(rw http.ResponseWriter, err command.Error) {
	var status int

	switch err.Type() {
	case command.ValidationError:
		status = http.StatusBadRequest
	case command.NotFoundError:
		status = http.StatusNotFound
	case command.ConflictError:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	SendHTTPStatusError(rw, status, err.Code(), err)
}

// Execute executes given command with args provided and writes its response.
func Execute(exec command.Exec, rw http.ResponseWriter, req io.Reader) {
	buf := new(bytes.Buffer)

	if err := exec(buf, req); err != nil {
		SendError(rw, err)

		return
	}

	rw.Header().Set("Content-Type", "application/json")

	if _, err := rw.Write(buf.Bytes()); err != nil {
		logger.Errorf("Unable to send response, %s", err)
	}
}
