/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
)

const (
	sampleErr1 = iota + command.UnknownStatus
	sampleErr2
	sampleErr3
)

func TestSendError(t *testing.T) {
	t.Run("Test sending HTTP status codes", func(t *testing.T) {
		const errMsg = "here is the sample which I want to write to response"
		errors := []struct {
			err        error
			errCode    command.Code
			statusCode int
			response   genericErrorBody
		}{
			{
				fmt.Errorf(errMsg), sampleErr1, http.StatusOK,
				genericErrorBody{Code: sampleErr1, Message: errMsg},
			},
			{
				fmt.Errorf(errMsg), sampleErr2, http.StatusForbidden,
				genericErrorBody{Code: sampleErr2, Message: errMsg},
			},
			{
				fmt.Errorf(errMsg), sampleErr3, http.StatusNotAcceptable,
				genericErrorBody{Code: sampleErr3, Message: errMsg},
			},
		}

		for _, data := range errors {
			rr := httptest.NewRecorder()

			SendHTTPStatusError(rr, data.statusCode, data.errCode, data.err)
			require.NotEmpty(t, rr.Body.Bytes())
			require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			response := genericErrorBody{}
			err := json.Unmarshal(rr.Body.Bytes(), &response)
			require.NoError(t, err)

			require.Equal(t, data.statusCode, rr.Code)
			require.Equal(t, data.response, response)
		}
	})

	t.Run("Test sending command errors", func(t *testing.T) {
		const errMsg = "here is the sample which I want to write to response"

		notFound := anonerr.New(anonerr.NotFound, "schema is not published")
		stale := anonerr.New(anonerr.InvalidTimestamp, "status list is not after the last one")
		badID := anonerr.New(anonerr.InvalidIdentifier, "malformed")
		broken := anonerr.New(anonerr.StorageFailure, "disk")

		errors := []struct {
			err        command.Error
			statusCode int
			response   genericErrorBody
		}{
			{
				command.NewValidationError(sampleErr1, fmt.Errorf(errMsg)), http.StatusBadRequest,
				genericErrorBody{Code: sampleErr1, Message: errMsg},
			},
			{
				command.NewExecuteError(sampleErr2, fmt.Errorf(errMsg)), http.StatusInternalServerError,
				genericErrorBody{Code: sampleErr2, Message: errMsg},
			},
			{
				command.FromAnoncreds(command.Registry, notFound), http.StatusNotFound,
				genericErrorBody{
					Code:    command.Code(command.Registry) + command.Code(anonerr.NotFound),
					Message: notFound.Error(),
				},
			},
			{
				command.FromAnoncreds(command.Registry, stale), http.StatusConflict,
				genericErrorBody{
					Code:    command.Code(command.Registry) + command.Code(anonerr.InvalidTimestamp),
					Message: stale.Error(),
				},
			},
			{
				command.FromAnoncreds(command.Registry, badID), http.StatusBadRequest,
				genericErrorBody{
					Code:    command.Code(command.Registry) + command.Code(anonerr.InvalidIdentifier),
					Message: badID.Error(),
				},
			},
			{
				command.FromAnoncreds(command.Registry, broken), http.StatusInternalServerError,
				genericErrorBody{
					Code:    command.Code(command.Registry) + command.Code(anonerr.StorageFailure),
					Message: broken.Error(),
				},
			},
		}

		for _, data := range errors {
			rr := httptest.NewRecorder()

			SendError(rr, data.err)
			require.NotEmpty(t, rr.Body.Bytes())

			response := genericErrorBody{}
			err := json.Unmarshal(rr.Body.Bytes(), &response)
			require.NoError(t, err)

			require.Equal(t, data.statusCode, rr.Code)
			require.Equal(t, data.response, response)
		}
	})

	t.Run("anoncreds errors stay inspectable", func(t *testing.T) {
		err := command.FromAnoncreds(command.Registry, anonerr.New(anonerr.NotFound, "missing"))
		require.ErrorIs(t, err, anonerr.ErrNotFound)
	})
}

func TestSendErrorFailures(t *testing.T) {
	rw := &mockRWriter{}
	SendHTTPStatusError(rw, http.StatusBadRequest, command.UnknownStatus, fmt.Errorf("sample error"))
}

func TestExecute(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		cmd := func(rw io.Writer, req io.Reader) command.Error {
			return command.NewValidationError(1, fmt.Errorf("sample"))
		}

		rw := httptest.NewRecorder()
		Execute(cmd, rw, nil)
		require.Equal(t, http.StatusBadRequest, rw.Code)
		require.Contains(t, rw.Body.String(), `{"code":1,"message":"sample"}`)
	})

	t.Run("success", func(t *testing.T) {
		cmd := func(rw io.Writer, req io.Reader) command.Error {
			_, err := rw.Write([]byte(`{"ok":true}`))
			require.NoError(t, err)

			return nil
		}

		rw := httptest.NewRecorder()
		Execute(cmd, rw, nil)
		require.Equal(t, http.StatusOK, rw.Code)
		require.Equal(t, `{"ok":true}`, rw.Body.String())
	})
}

// mockRWriter to recreate response writer error scenario.
type mockRWriter struct{}

func (m *mockRWriter) Header() http.Header {
	return make(map[string][]string)
}

func (m *mockRWriter) Write([]byte) (int, error) {
	return 0, fmt.Errorf("failed to write body")
}

func (m *mockRWriter) WriteHeader(statusCode int) {}
