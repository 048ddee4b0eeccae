package viewmodel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/constants"
)

const defaultFetchRetries = 3

// HTTPFetcher reads results from the REST API. Network errors and 5xx
// responses are retried, anything else fails at once.
type HTTPFetcher struct {
	client    *http.Client
	endpoint  string
	baseURL   string
	authToken string
	retries   uint64
	interval  time.Duration
}

type HTTPFetcherOption func(*HTTPFetcher)

func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.client = client }
}

func WithAuthToken(token string) HTTPFetcherOption {
	return func(f *HTTPFetcher) { f.authToken = token }
}

func WithRetry(retries uint64, interval time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.retries = retries
		f.interval = interval
	}
}

// NewHTTPFetcher builds a fetcher for baseURL (for example
// "http://localhost:8080/api/v1") listing results from endpoint, which is
// "/results/shared" or "/results/mine".
func NewHTTPFetcher(baseURL, endpoint string, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		endpoint: endpoint,
		retries:  defaultFetchRetries,
		interval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) FetchResults(ctx context.Context, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error) {
	params := filter.Values()
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		params.Set("cursor", strconv.FormatInt(*cursor, 10))
	}

	page := &domain.ResultsPage{}
	if err := f.do(ctx, http.MethodGet, f.endpoint, params, nil, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (f *HTTPFetcher) SetShared(ctx context.Context, id int64, share bool) (*domain.Result, error) {
	body, err := sonic.Marshal(map[string]bool{"share": share})
	if err != nil {
		return nil, fmt.Errorf("sonic.Marshal: %w", err)
	}

	result := &domain.Result{}
	path := "/results/" + strconv.FormatInt(id, 10) + "/share"
	if err := f.do(ctx, http.MethodPatch, path, nil, body, result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchFacets lists the facet of every building type.
func (f *HTTPFetcher) FetchFacets(ctx context.Context) ([]*domain.ResultFacet, error) {
	var facets []*domain.ResultFacet
	if err := f.do(ctx, http.MethodGet, "/facets", nil, nil, &facets); err != nil {
		return nil, err
	}
	return facets, nil
}

func (f *HTTPFetcher) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	target := f.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var raw []byte
	err := backoff.Retry(
		func() error {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, target, reader)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("http.NewRequestWithContext: %w", err))
			}
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if f.authToken != "" {
				req.Header.Set("Authorization", "Bearer "+f.authToken)
			}

			resp, err := f.client.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return fmt.Errorf("%s %s: %w", method, path, err)
			}
			defer resp.Body.Close()

			raw, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read %s %s: %w", method, path, err)
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return backoff.Permanent(responseError(resp.StatusCode, raw))
			}
			return nil
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(f.interval), f.retries),
			ctx,
		),
	)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// responseError maps an API error body back to the coded error it came from.
func responseError(status int, raw []byte) error {
	var body domain.ErrorResponse
	_ = sonic.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", constants.ErrBadRequest, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", constants.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", constants.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", constants.ErrDBNotFound, msg)
	}
	return constants.NewCodedError(msg, status)
}
