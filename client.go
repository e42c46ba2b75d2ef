package s3lite

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"pkt.systems/pslog"

	"pkt.systems/s3lite/internal/endpoint"
	"pkt.systems/s3lite/internal/registry"
	"pkt.systems/s3lite/internal/sigv4"
)

// Client issues signed GET/PUT requests against buckets registered with
// Open. A Client is safe for concurrent use; each bucket is configured
// once and looked up per request.
type Client struct {
	buckets   registry.Registry[*bucketConfig]
	transport Transport
	log       pslog.Logger
	now       func() time.Time
	service   string
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithLogger attaches a structured logger. Without it the client is
// silent.
func WithLogger(logger pslog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithTransport substitutes the network layer. Tests use it to fake
// responses without a listener.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// New returns a ready Client.
func New(opts ...Option) *Client {
	c := &Client{
		transport: newHTTPTransport(),
		log:       pslog.NoopLogger(),
		now:       time.Now,
		service:   "s3",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// bucketConfig is the immutable per-bucket state created by Open.
// In-flight requests keep working on the snapshot they looked up even if
// the bucket is closed underneath them.
type bucketConfig struct {
	bucket   string
	creds    sigv4.Credentials
	region   string
	endpoint string
	host     string
	basePath []string
	scheme   string
	poolKey  string
}

// Open registers bucket with the given options and probes it with a
// zero-result listing to verify the credentials, region, and existence
// before any Get/Put is allowed. A failed probe rolls the registration
// back completely.
func (c *Client) Open(ctx context.Context, bucket string, opts Options) error {
	start := c.now()
	c.log.Debug("s3lite.open.begin", "bucket", bucket, "endpoint", opts.Endpoint, "region", opts.Region)

	creds, err := resolveCredentials(opts)
	if err != nil {
		return err
	}

	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}
	style := endpoint.StyleVirtualHosted
	if opts.PathStyle {
		style = endpoint.StylePath
	}
	target := endpoint.Resolve(bucket, endpoint.ResolveOptions{
		Endpoint: opts.Endpoint,
		Region:   region,
		Style:    style,
	})
	host := opts.Host
	if host == "" {
		host = target.Host
	}
	scheme := "https"
	if opts.Insecure {
		scheme = "http"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxConns := opts.MaxConnections
	if maxConns <= 0 {
		maxConns = DefaultMaxConnections
	}

	cfg := &bucketConfig{
		bucket:   bucket,
		creds:    creds,
		region:   region,
		endpoint: target.Host,
		host:     host,
		basePath: target.BasePath,
		scheme:   scheme,
		poolKey:  bucket,
	}

	if !c.buckets.Open(bucket, cfg) {
		return fmt.Errorf("%w: %s", ErrBucketAlreadyExists, bucket)
	}
	c.transport.OpenPool(cfg.poolKey, PoolConfig{MaxConnections: maxConns, Timeout: timeout})

	resp, err := c.do(ctx, cfg, "GET", "", url.Values{"max-keys": {"0"}}, nil, nil)
	if err == nil && resp.StatusCode != 200 {
		switch resp.StatusCode {
		case 301:
			err = fmt.Errorf("%w: %s", ErrWrongRegion, bucket)
		case 404:
			err = fmt.Errorf("%w: %s", ErrNoSuchBucket, bucket)
		default:
			err = &UnknownResponseError{
				StatusCode: resp.StatusCode,
				Headers:    resp.Headers,
				Body:       resp.Body,
			}
		}
	}
	if err != nil {
		c.buckets.Close(bucket)
		c.transport.ReleasePool(cfg.poolKey)
		c.log.Warn("s3lite.open.failed", "bucket", bucket, "error", err.Error())
		return err
	}

	c.log.Info("s3lite.open.success", "bucket", bucket, "host", cfg.host,
		"region", cfg.region, "elapsed", c.now().Sub(start))
	return nil
}

// GetOptions tunes a single Get.
type GetOptions struct {
	// IfNoneMatch sends a conditional request with the given ETag. When
	// the object is unchanged the server answers 304 and the result has
	// NotModified set with no body.
	IfNoneMatch string
}

// GetResult is the outcome of a Get.
type GetResult struct {
	// Body is the object payload. Nil when NotModified is set.
	Body []byte

	// NotModified reports that the server answered 304 to a conditional
	// request. The caller's cached copy is still current.
	NotModified bool

	// Properties holds the server-reported metadata.
	Properties *Properties
}

// Get fetches an object.
func (c *Client) Get(ctx context.Context, bucket, key string, opts GetOptions) (*GetResult, error) {
	start := c.now()
	cfg, ok := c.buckets.Lookup(bucket)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}

	var extra map[string]string
	if opts.IfNoneMatch != "" {
		extra = map[string]string{"if-none-match": opts.IfNoneMatch}
	}
	resp, err := c.do(ctx, cfg, "GET", key, nil, extra, nil)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case 200:
		props, err := extractProperties(resp.Headers)
		if err != nil {
			return nil, err
		}
		c.log.Debug("s3lite.get.success", "bucket", bucket, "key", key,
			"bytes", len(resp.Body), "elapsed", c.now().Sub(start))
		return &GetResult{Body: resp.Body, Properties: props}, nil
	case 304:
		props, err := extractProperties(resp.Headers)
		if err != nil {
			return nil, err
		}
		c.log.Debug("s3lite.get.not_modified", "bucket", bucket, "key", key,
			"elapsed", c.now().Sub(start))
		return &GetResult{NotModified: true, Properties: props}, nil
	case 404:
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	default:
		return nil, &UnknownResponseError{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}
	}
}

// Put uploads an object and returns its server-reported properties.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte) (*Properties, error) {
	start := c.now()
	cfg, ok := c.buckets.Lookup(bucket)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}

	extra := map[string]string{"content-length": strconv.Itoa(len(data))}
	resp, err := c.do(ctx, cfg, "PUT", key, nil, extra, data)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, &UnknownResponseError{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}
	}
	props, err := extractProperties(resp.Headers)
	if err != nil {
		return nil, err
	}
	c.log.Debug("s3lite.put.success", "bucket", bucket, "key", key,
		"bytes", len(data), "elapsed", c.now().Sub(start))
	return props, nil
}

// Close deregisters the bucket and releases its connection pool.
// In-flight requests that already looked up the bucket complete on their
// config snapshot; only new lookups fail.
func (c *Client) Close(ctx context.Context, bucket string) error {
	cfg, ok := c.buckets.Close(bucket)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucket)
	}
	c.transport.ReleasePool(cfg.poolKey)
	c.log.Info("s3lite.close", "bucket", bucket)
	return nil
}

// do signs and sends one request. key may be empty for bucket-level
// operations.
func (c *Client) do(ctx context.Context, cfg *bucketConfig, method, key string,
	query url.Values, extraHeaders map[string]string, payload []byte) (*BucketResponse, error) {

	path := wirePath(cfg.basePath, key)

	headers := map[string]string{"host": cfg.host}
	for name, value := range extraHeaders {
		headers[name] = value
	}

	signed, err := sigv4.Sign(sigv4.Request{
		Method:      method,
		Path:        path,
		Query:       query,
		Headers:     headers,
		Payload:     payload,
		Credentials: cfg.creds,
		Region:      cfg.region,
		Service:     c.service,
		Time:        c.now(),
	})
	if err != nil {
		return nil, err
	}

	rid := xid.New().String()
	c.log.Trace("s3lite.request.begin", "request_id", rid, "method", method,
		"bucket", cfg.bucket, "path", "/"+path)

	resp, err := c.transport.RoundTrip(ctx, &BucketRequest{
		Method:   method,
		Scheme:   cfg.scheme,
		Endpoint: cfg.endpoint,
		Path:     "/" + path,
		RawQuery: signed.CanonicalQuery,
		Headers:  signed.Headers,
		Body:     payload,
		PoolKey:  cfg.poolKey,
	})
	if err != nil {
		c.log.Warn("s3lite.request.failed", "request_id", rid, "method", method,
			"bucket", cfg.bucket, "error", err.Error())
		return nil, err
	}

	c.log.Trace("s3lite.request.end", "request_id", rid, "status", resp.StatusCode)
	return resp, nil
}

// wirePath joins the base path segments and the object key into the
// percent-encoded request path, without the leading slash. Slashes inside
// the key separate segments and stay literal on the wire.
func wirePath(basePath []string, key string) string {
	segments := make([]string, 0, len(basePath)+1)
	segments = append(segments, basePath...)
	if key != "" {
		segments = append(segments, strings.Split(key, "/")...)
	}
	encoded := make([]string, len(segments))
	for i, seg := range segments {
		encoded[i] = sigv4.URIEncode(seg)
	}
	return strings.Join(encoded, "/")
}

// resolveCredentials picks the signing identity from explicit keys or the
// configured credential source. Values never appear in errors or logs.
func resolveCredentials(opts Options) (sigv4.Credentials, error) {
	if opts.AccessKey != "" && opts.SecretAccessKey != "" {
		return sigv4.Credentials{
			AccessKey:       opts.AccessKey,
			SecretAccessKey: opts.SecretAccessKey,
			SessionToken:    opts.SessionToken,
		}, nil
	}
	if opts.Credentials != nil {
		value, err := opts.Credentials.Get()
		if err != nil {
			return sigv4.Credentials{}, fmt.Errorf("s3lite: resolving credentials: %w", err)
		}
		if value.AccessKeyID == "" || value.SecretAccessKey == "" {
			return sigv4.Credentials{}, &MissingOptionError{Option: "AccessKey"}
		}
		return sigv4.Credentials{
			AccessKey:       value.AccessKeyID,
			SecretAccessKey: value.SecretAccessKey,
			SessionToken:    value.SessionToken,
		}, nil
	}
	if opts.AccessKey == "" {
		return sigv4.Credentials{}, &MissingOptionError{Option: "AccessKey"}
	}
	return sigv4.Credentials{}, &MissingOptionError{Option: "SecretAccessKey"}
}
