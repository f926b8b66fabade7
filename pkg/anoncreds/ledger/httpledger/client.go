/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpledger is a client of the anoncreds registry REST API. It implements ledger.Registry, so issuers,
// provers and verifiers can share one remote registry, and uploads tails files for issuers.
package httpledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
	cmdregistry "github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command/registry"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/rest/registry"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/doc/anoncreds/identifier"
)

const (
	contentTypeApplicationJSON = "application/json"
	contentTypeOctetStream     = "application/octet-stream"

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3

	failSendRequest = "failed to send %s request to %s"
)

var logger = log.New("aries-framework/anoncreds/httpledger")

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type clientOpts struct {
	httpClient httpClient
	timeout    time.Duration
	maxRetries uint64
	backOff    func() backoff.BackOff
}

// Opt configures a Client.
type Opt func(*clientOpts)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c httpClient) Opt {
	return func(o *clientOpts) {
		o.httpClient = c
	}
}

// WithTimeout bounds every call, retries included.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *clientOpts) {
		o.timeout = timeout
	}
}

// WithMaxRetries sets how many times a request failing with a server error is retried.
func WithMaxRetries(n uint64) Opt {
	return func(o *clientOpts) {
		o.maxRetries = n
	}
}

// WithBackOff sets the back-off policy between attempts.
func WithBackOff(b func() backoff.BackOff) Opt {
	return func(o *clientOpts) {
		o.backOff = b
	}
}

// Client talks to a registry server at a base URL such as http://localhost:8080.
type Client struct {
	baseURL string
	opts    *clientOpts
}

// New returns a Client for the registry served at baseURL.
func New(baseURL string, opts ...Opt) *Client {
	o := &clientOpts{
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		backOff:    func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), opts: o}
}

// TailsLocation is the URL a tails file uploaded with PublishTails is served from, without the hash.
func (c *Client) TailsLocation() string {
	return c.baseURL + registry.TailsPath
}

// PublishSchema implements ledger.Registry.
func (c *Client) PublishSchema(id identifier.SchemaID, schema *anoncreds.Schema) error {
	return c.post(registry.SchemaPath, &cmdregistry.SchemaArgs{ID: id, Schema: schema})
}

// Schema implements ledger.Registry.
func (c *Client) Schema(id identifier.SchemaID) (*anoncreds.Schema, error) {
	res := &cmdregistry.SchemaArgs{}
	if err := c.get(registry.SchemaPath, query(id.String(), nil), res); err != nil {
		return nil, err
	}

	return res.Schema, nil
}

// PublishCredentialDefinition implements ledger.Registry.
func (c *Client) PublishCredentialDefinition(id identifier.CredDefID, def *anoncreds.CredentialDefinition) error {
	return c.post(registry.CredentialDefinitionPath,
		&cmdregistry.CredentialDefinitionArgs{ID: id, CredentialDefinition: def})
}

// CredentialDefinition implements ledger.Registry.
func (c *Client) CredentialDefinition(id identifier.CredDefID) (*anoncreds.CredentialDefinition, error) {
	res := &cmdregistry.CredentialDefinitionArgs{}
	if err := c.get(registry.CredentialDefinitionPath, query(id.String(), nil), res); err != nil {
		return nil, err
	}

	return res.CredentialDefinition, nil
}

// PublishRevocationRegistryDefinition implements ledger.Registry.
func (c *Client) PublishRevocationRegistryDefinition(id identifier.RevRegID,
	def *anoncreds.RevocationRegistryDefinition) error {
	return c.post(registry.RevocationRegistryDefinitionPath,
		&cmdregistry.RevocationRegistryDefinitionArgs{ID: id, RevocationRegistryDefinition: def})
}

// RevocationRegistryDefinition implements ledger.Registry.
func (c *Client) RevocationRegistryDefinition(id identifier.RevRegID) (*anoncreds.RevocationRegistryDefinition,
	error) {
	res := &cmdregistry.RevocationRegistryDefinitionArgs{}
	if err := c.get(registry.RevocationRegistryDefinitionPath, query(id.String(), nil), res); err != nil {
		return nil, err
	}

	return res.RevocationRegistryDefinition, nil
}

// PublishStatusList implements ledger.Registry.
func (c *Client) PublishStatusList(list *anoncreds.RevocationStatusList) error {
	return c.post(registry.StatusListPath, &cmdregistry.PublishStatusListArgs{StatusList: list})
}

// StatusListAt implements ledger.Registry.
func (c *Client) StatusListAt(id identifier.RevRegID, timestamp uint64) (*anoncreds.RevocationStatusList, error) {
	res := &cmdregistry.StatusListResult{}
	if err := c.get(registry.StatusListPath, query(id.String(), &timestamp), res); err != nil {
		return nil, err
	}

	return res.StatusList, nil
}

// LatestStatusList implements ledger.Registry.
func (c *Client) LatestStatusList(id identifier.RevRegID) (*anoncreds.RevocationStatusList, error) {
	res := &cmdregistry.StatusListResult{}
	if err := c.get(registry.StatusListPath, query(id.String(), nil), res); err != nil {
		return nil, err
	}

	return res.StatusList, nil
}

// StatusListTimestamps implements ledger.Registry.
func (c *Client) StatusListTimestamps(id identifier.RevRegID) ([]uint64, error) {
	res := &cmdregistry.TimestampsResult{}
	if err := c.get(registry.StatusListTimestampsPath, query(id.String(), nil), res); err != nil {
		return nil, err
	}

	return res.Timestamps, nil
}

// PublishTails uploads a tails file under its hash.
func (c *Client) PublishTails(hash string, file []byte) error {
	endpoint := c.baseURL + registry.TailsPath + "/" + url.PathEscape(hash)

	_, err := c.send(http.MethodPut, endpoint, contentTypeOctetStream, file)

	return err
}

func query(id string, timestamp *uint64) string {
	v := url.Values{}
	v.Set("id", id)

	if timestamp != nil {
		v.Set("timestamp", strconv.FormatUint(*timestamp, 10))
	}

	return "?" + v.Encode()
}

func (c *Client) post(path string, req interface{}) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = c.send(http.MethodPost, c.baseURL+path, contentTypeApplicationJSON, raw)

	return err
}

func (c *Client) get(path, params string, res interface{}) error {
	raw, err := c.send(http.MethodGet, c.baseURL+path+params, "", nil)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(raw, res); err != nil {
		return anonerr.Wrap(anonerr.StorageFailure, err, "decode response of %s", path)
	}

	return nil
}

// send performs a request, retrying server errors. A registry error response is turned back into the anoncreds
// error it was produced from.
func (c *Client) send(method, endpoint, contentType string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.timeout)
	defer cancel()

	var respBytes []byte

	err := backoff.RetryNotify(func() error {
		var sendErr error

		respBytes, sendErr = c.do(ctx, method, endpoint, contentType, body)

		return sendErr
	}, backoff.WithContext(backoff.WithMaxRetries(c.opts.backOff(), c.opts.maxRetries), ctx),
		func(err error, wait time.Duration) {
			logger.Warnf("%s %s failed, retrying in %s: %v", method, endpoint, wait, err)
		})

	var remote *anonerr.Error
	if errors.As(err, &remote) {
		return nil, err
	}

	if err != nil {
		return nil, anonerr.Wrap(anonerr.StorageFailure, err, failSendRequest, method, endpoint)
	}

	return respBytes, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}

		return nil, err
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("close response body: %v", e)
		}
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode < http.StatusBadRequest:
		return respBytes, nil
	case resp.StatusCode >= http.StatusInternalServerError && !isRegistryError(respBytes):
		return nil, fmt.Errorf("status code %d was returned along with the following message: %s",
			resp.StatusCode, respBytes)
	default:
		return nil, backoff.Permanent(remoteError(resp.StatusCode, respBytes))
	}
}

type errorBody struct {
	Code    command.Code `json:"code"`
	Message string       `json:"message"`
}

func isRegistryError(body []byte) bool {
	var e errorBody

	return json.Unmarshal(body, &e) == nil && e.Code > command.Code(command.Registry)
}

func remoteError(status int, body []byte) error {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil || e.Code <= command.Code(command.Registry) {
		return anonerr.New(anonerr.InvalidRequest, "registry returned status %d: %s", status, body)
	}

	code := anonerr.Code(e.Code - command.Code(command.Registry))
	if code.Kind() == anonerr.UnknownKind {
		return anonerr.New(anonerr.InvalidRequest, "registry returned status %d: %s", status, e.Message)
	}

	return anonerr.New(code, "registry: %s", e.Message)
}
