package s3lite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// BucketRequest is a fully signed request ready for the wire. Path and
// RawQuery are the exact bytes that were signed; the transport must not
// re-encode them.
type BucketRequest struct {
	Method string

	// Scheme is "https" or "http".
	Scheme string

	// Endpoint is the network address to dial (host or host:port).
	Endpoint string

	// Path is the percent-encoded request path including the leading
	// slash.
	Path string

	// RawQuery is the canonical query string, possibly empty.
	RawQuery string

	// Headers holds lowercase header names as produced by signing. The
	// "host" entry becomes the HTTP Host header, which may differ from
	// Endpoint.
	Headers map[string]string

	// Body is the request payload; nil for GET.
	Body []byte

	// PoolKey selects the connection pool opened for this bucket.
	PoolKey string
}

// BucketResponse is a fully read response. Bodies in this library are
// bounded object payloads, so they are buffered rather than streamed.
type BucketResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// PoolConfig sizes a bucket's connection pool.
type PoolConfig struct {
	MaxConnections int
	Timeout        time.Duration
}

// Transport carries signed requests to the network. The default
// implementation pools HTTP connections per bucket; tests substitute
// their own.
type Transport interface {
	RoundTrip(ctx context.Context, req *BucketRequest) (*BucketResponse, error)
	OpenPool(key string, cfg PoolConfig)
	ReleasePool(key string)
}

// httpTransport keeps one tuned http.Client per open bucket so each
// bucket's connection reuse and limits are independent.
type httpTransport struct {
	mu    sync.Mutex
	pools map[string]*http.Client
}

func newHTTPTransport() *httpTransport {
	return &httpTransport{pools: make(map[string]*http.Client)}
}

func (t *httpTransport) OpenPool(key string, cfg PoolConfig) {
	dialer := &net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second}
	inner := http.DefaultTransport.(*http.Transport).Clone()
	inner.DialContext = dialer.DialContext
	inner.MaxConnsPerHost = cfg.MaxConnections
	inner.MaxIdleConns = cfg.MaxConnections
	inner.MaxIdleConnsPerHost = cfg.MaxConnections
	inner.IdleConnTimeout = 90 * time.Second
	inner.TLSHandshakeTimeout = cfg.Timeout
	inner.ResponseHeaderTimeout = cfg.Timeout

	t.mu.Lock()
	t.pools[key] = &http.Client{Transport: inner, Timeout: cfg.Timeout}
	t.mu.Unlock()
}

func (t *httpTransport) ReleasePool(key string) {
	t.mu.Lock()
	client, ok := t.pools[key]
	delete(t.pools, key)
	t.mu.Unlock()
	if ok {
		client.CloseIdleConnections()
	}
}

func (t *httpTransport) RoundTrip(ctx context.Context, req *BucketRequest) (*BucketResponse, error) {
	t.mu.Lock()
	client, ok := t.pools[req.PoolKey]
	t.mu.Unlock()
	if !ok {
		return nil, &TransportError{Err: fmt.Errorf("no connection pool for %q", req.PoolKey)}
	}

	// The signed path bytes must hit the wire unchanged. Setting RawPath
	// alongside the decoded Path makes net/url emit them verbatim.
	decoded, err := url.PathUnescape(req.Path)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("request path %q: %w", req.Path, err)}
	}
	u := &url.URL{
		Scheme:   req.Scheme,
		Host:     req.Endpoint,
		Path:     decoded,
		RawPath:  req.Path,
		RawQuery: req.RawQuery,
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	for name, value := range req.Headers {
		if name == "host" {
			httpReq.Host = value
			continue
		}
		httpReq.Header.Set(name, value)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response body: %w", err)}
	}
	return &BucketResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       payload,
	}, nil
}
