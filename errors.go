package s3lite

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors callers are expected to match on with errors.Is.
var (
	// ErrBucketAlreadyExists is returned by Open when the bucket name is
	// already registered on this client.
	ErrBucketAlreadyExists = errors.New("s3lite: bucket already open")

	// ErrBucketNotFound is returned when an operation names a bucket that
	// was never opened, or that has been closed.
	ErrBucketNotFound = errors.New("s3lite: bucket not open")

	// ErrWrongRegion is returned by Open when the server redirects the
	// probe (HTTP 301): the bucket exists but lives in another region.
	ErrWrongRegion = errors.New("s3lite: bucket is in a different region")

	// ErrNoSuchBucket is returned by Open when the probe gets HTTP 404:
	// the bucket does not exist on the server.
	ErrNoSuchBucket = errors.New("s3lite: no such bucket")

	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("s3lite: object not found")
)

// MissingOptionError reports a mandatory Options field that was left
// unset. The message names the field, never its would-be value.
type MissingOptionError struct {
	Option string
}

func (e *MissingOptionError) Error() string {
	return fmt.Sprintf("s3lite: missing required option %s", e.Option)
}

// UnknownResponseError carries a response the library has no mapping for.
// The caller gets the full status, headers, and body to decide what went
// wrong; the library does not guess.
type UnknownResponseError struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func (e *UnknownResponseError) Error() string {
	return fmt.Sprintf("s3lite: unexpected response status %d %s",
		e.StatusCode, http.StatusText(e.StatusCode))
}

// MalformedExpirationError reports an x-amz-expiration header the parser
// could not interpret. The raw value travels with the error.
type MalformedExpirationError struct {
	Value string
}

func (e *MalformedExpirationError) Error() string {
	return fmt.Sprintf("s3lite: malformed x-amz-expiration header %q", e.Value)
}

// TransportError wraps a connection-level failure (dial, TLS, timeout,
// broken pipe) so callers can distinguish "could not talk to the server"
// from "the server said no".
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("s3lite: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
