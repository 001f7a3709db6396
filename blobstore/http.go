package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

// HTTPStore fetches blobs from an HTTP endpoint, the way a hosted
// viewer pulls node data from its backing server. Blob names are
// resolved relative to the base URL. A 404 maps to ErrNotFound.
type HTTPStore struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
}

var (
	_ Store        = (*HTTPStore)(nil)
	_ RangeFetcher = (*HTTPStore)(nil)
)

// HTTPOption configures an HTTPStore.
type HTTPOption func(*HTTPStore)

// WithHTTPClient sets the http.Client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) { s.client = c }
}

// WithRateLimit caps outgoing requests at rps per second with the
// given burst. Zero or negative rps disables limiting.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(s *HTTPStore) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewHTTPStore creates a store rooted at baseURL.
func NewHTTPStore(baseURL string, opts ...HTTPOption) (*HTTPStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	s := &HTTPStore{base: u, client: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch returns the full contents of the named blob.
func (s *HTTPStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.get(ctx, name, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// FetchRange returns length bytes of the named blob starting at
// offset, using an HTTP range request. A server that ignores the Range
// header and replies 200 still works: the full body is sliced locally.
func (s *HTTPStore) FetchRange(ctx context.Context, name string, offset, length int64) ([]byte, error) {
	resp, err := s.get(ctx, name, fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		return io.ReadAll(resp.Body)
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if offset+length > int64(len(body)) {
			return nil, fmt.Errorf("fetch %s: range [%d,%d) outside %d-byte blob", name, offset, offset+length, len(body))
		}
		return body[offset : offset+length], nil
	default:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
}

func (s *HTTPStore) get(ctx context.Context, name, rangeHeader string) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ref, err := url.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("parse blob name %q: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	return resp, nil
}
