/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httptails downloads published tails files over HTTP into a local tails store.
package httptails

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bluele/gcache"
	"github.com/cenkalti/backoff/v4"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/common/anonerr"
	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/revocation/tails"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	verifiedCacheSize = 64
)

var logger = log.New("aries-framework/anoncreds/httptails")

type fetcherOpts struct {
	client     *http.Client
	maxRetries uint64
	backOff    func() backoff.BackOff
	timeout    time.Duration
	storeOpts  []tails.Opt
}

// Opt configures a Fetcher.
type Opt func(*fetcherOpts)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Opt {
	return func(o *fetcherOpts) {
		o.client = client
	}
}

// WithMaxRetries sets how many times a failed download is retried.
func WithMaxRetries(n uint64) Opt {
	return func(o *fetcherOpts) {
		o.maxRetries = n
	}
}

// WithBackOff sets the back-off policy between download attempts.
func WithBackOff(b func() backoff.BackOff) Opt {
	return func(o *fetcherOpts) {
		o.backOff = b
	}
}

// WithTimeout bounds a whole fetch, retries included.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *fetcherOpts) {
		o.timeout = timeout
	}
}

// WithStoreOpts passes options to the tails stores the fetcher opens.
func WithStoreOpts(opts ...tails.Opt) Opt {
	return func(o *fetcherOpts) {
		o.storeOpts = opts
	}
}

// Fetcher resolves tails by hash from local storage and downloads them when they are absent or corrupt.
type Fetcher struct {
	storage  storage.Provider
	opts     *fetcherOpts
	verified gcache.Cache
}

// New returns a Fetcher importing into provider.
func New(provider storage.Provider, opts ...Opt) *Fetcher {
	o := &fetcherOpts{
		client:     &http.Client{},
		maxRetries: defaultMaxRetries,
		backOff:    func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		timeout:    defaultTimeout,
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Fetcher{
		storage:  provider,
		opts:     o,
		verified: gcache.New(verifiedCacheSize).LRU().Build(),
	}
}

// Tails implements tails.Provider.
func (f *Fetcher) Tails(location, hash string) (*tails.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.opts.timeout)
	defer cancel()

	return f.Fetch(ctx, location, hash)
}

// Fetch returns the local tails store for hash, downloading the file from location first when the local copy
// is missing or does not match hash.
func (f *Fetcher) Fetch(ctx context.Context, location, hash string) (*tails.Store, error) {
	if s, err := f.verified.Get(hash); err == nil {
		return s.(*tails.Store), nil //nolint:forcetypeassert
	}

	local, err := tails.Open(f.storage, hash, f.opts.storeOpts...)
	if err != nil {
		return nil, err
	}

	if err = local.Verify(); err == nil {
		f.remember(local)

		return local, nil
	}

	logger.Debugf("tails %s not available locally (%v), downloading from %s", hash, err, location)

	var file []byte

	err = backoff.RetryNotify(func() error {
		var dlErr error

		file, dlErr = f.download(ctx, location)

		return dlErr
	}, backoff.WithContext(backoff.WithMaxRetries(f.opts.backOff(), f.opts.maxRetries), ctx),
		func(err error, wait time.Duration) {
			logger.Warnf("tails download from %s failed, retrying in %s: %v", location, wait, err)
		})
	if err != nil {
		return nil, anonerr.Wrap(anonerr.MissingTailsData, err, "download tails %s", hash)
	}

	s, err := tails.Import(f.storage, file, hash, f.opts.storeOpts...)
	if err != nil {
		return nil, err
	}

	f.remember(s)

	return s, nil
}

func (f *Fetcher) remember(s *tails.Store) {
	if err := f.verified.Set(s.Hash(), s); err != nil {
		logger.Warnf("cache tails store %s: %v", s.Hash(), err)
	}
}

func (f *Fetcher) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build tails request: %w", err))
	}

	resp, err := f.opts.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}

		return nil, fmt.Errorf("get %s: %w", location, err)
	}

	defer func() {
		if e := resp.Body.Close(); e != nil {
			logger.Errorf("close tails response body: %v", e)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("get %s: %s", location, resp.Status)
	default:
		return nil, backoff.Permanent(fmt.Errorf("get %s: %s", location, resp.Status))
	}

	buf := new(bytes.Buffer)
	if _, err = buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read tails body: %w", err)
	}

	return buf.Bytes(), nil
}
