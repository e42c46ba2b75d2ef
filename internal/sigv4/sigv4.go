// Package sigv4 implements the client side of AWS Signature Version 4
// request signing. Everything in this package is a pure function of its
// inputs: the caller supplies the request timestamp explicitly, so signing
// the same request twice produces the same bytes.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	// Algorithm is the SigV4 algorithm identifier used in the
	// Authorization header and the string to sign.
	Algorithm = "AWS4-HMAC-SHA256"

	// TimeFormat is the x-amz-date layout (ISO 8601 basic, UTC).
	TimeFormat = "20060102T150405Z"

	// ShortTimeFormat is the credential-scope date layout.
	ShortTimeFormat = "20060102"

	// EmptyPayloadHash is the lowercase hex SHA-256 of zero bytes.
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	scopeTerminal = "aws4_request"
)

// ErrUnsupportedMethod is returned when asked to sign a verb outside the
// GET/PUT surface this library issues. Signing an unexpected verb is a
// programming error, not something to paper over.
var ErrUnsupportedMethod = errors.New("sigv4: unsupported request method")

// Credentials carries the signing identity. SessionToken is optional;
// when present it is sent and signed as x-amz-security-token.
type Credentials struct {
	AccessKey       string
	SecretAccessKey string
	SessionToken    string
}

// Request describes one HTTP request to sign. Path is the resource path
// without a leading slash, already percent-encoded the way it should
// appear on the wire; the canonical URI step prepends the slash and adds
// no further encoding. Header names are case-insensitive on input.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Payload []byte

	Credentials Credentials
	Region      string
	Service     string
	Time        time.Time
}

// Signed is the outcome of signing a request.
type Signed struct {
	// Headers holds every header to put on the wire: the canonicalized
	// input headers plus x-amz-content-sha256, x-amz-date, the optional
	// x-amz-security-token, and authorization. Keys are lowercase.
	Headers map[string]string

	// SignedHeaders is the sorted semicolon-joined header-name list that
	// was folded into the signature.
	SignedHeaders string

	// CanonicalQuery is the sorted, encoded query string the request was
	// signed with. The caller must use it verbatim as the request URI's
	// query or the server's recomputation will not match.
	CanonicalQuery string
}

// Sign produces the SigV4 headers and canonical query for req.
func Sign(req Request) (Signed, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case "GET", "PUT":
	default:
		return Signed{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}

	// One clock read feeds both x-amz-date and the scope date. Deriving
	// them from separate reads can straddle midnight and break the
	// signature.
	ts := req.Time.UTC()
	amzDate := ts.Format(TimeFormat)
	scopeDate := ts.Format(ShortTimeFormat)
	scope := strings.Join([]string{scopeDate, req.Region, req.Service, scopeTerminal}, "/")

	payloadHash := hashHex(req.Payload)

	headers := make(map[string]string, len(req.Headers)+4)
	for name, value := range req.Headers {
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	headers["x-amz-content-sha256"] = payloadHash
	headers["x-amz-date"] = amzDate
	if req.Credentials.SessionToken != "" {
		headers["x-amz-security-token"] = req.Credentials.SessionToken
	}

	canonHeaders, signedHeaders := canonicalHeaders(headers)
	canonQuery := canonicalQuery(req.Query)

	canonical := strings.Join([]string{
		method,
		"/" + req.Path,
		canonQuery,
		canonHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	stringToSign := strings.Join([]string{
		Algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonical)),
	}, "\n")

	key := signingKey(req.Credentials.SecretAccessKey, scopeDate, req.Region, req.Service)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	headers["authorization"] = Algorithm +
		" Credential=" + req.Credentials.AccessKey + "/" + scope +
		",SignedHeaders=" + signedHeaders +
		",Signature=" + signature

	return Signed{
		Headers:        headers,
		SignedHeaders:  signedHeaders,
		CanonicalQuery: canonQuery,
	}, nil
}

// canonicalHeaders renders the sorted name:value block (trailing newline
// included, per the canonical-request grammar) and the matching
// semicolon-joined signed-header list. Input keys must already be
// lowercased and values trimmed.
func canonicalHeaders(headers map[string]string) (string, string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var block strings.Builder
	for _, name := range names {
		block.WriteString(name)
		block.WriteByte(':')
		block.WriteString(headers[name])
		block.WriteByte('\n')
	}
	return block.String(), strings.Join(names, ";")
}

// canonicalQuery sorts parameters by key (values sorted within a key) and
// encodes them with the S3 variant of percent-encoding. The result is used
// both in the canonical request and as the literal wire query string.
func canonicalQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		vals := append([]string(nil), values[key]...)
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, uriEncode(key)+"="+uriEncode(v))
		}
	}
	return strings.Join(pairs, "&")
}

// URIEncode percent-encodes a single path segment or query component with
// the SigV4 rules. Callers building request paths encode each segment with
// this before joining on "/".
func URIEncode(value string) string {
	return uriEncode(value)
}

// uriEncode percent-encodes everything outside the RFC 3986 unreserved
// set, with uppercase hex digits as SigV4 requires.
func uriEncode(value string) string {
	const hexChars = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexChars[c>>4])
		b.WriteByte(hexChars[c&0x0F])
	}
	return b.String()
}

// signingKey derives the per-request key by chaining HMACs from the secret
// through date, region, and service. The raw secret never signs anything
// directly.
func signingKey(secret, date, region, service string) []byte {
	key := hmacSHA256([]byte("AWS4"+secret), date)
	key = hmacSHA256(key, region)
	key = hmacSHA256(key, service)
	return hmacSHA256(key, scopeTerminal)
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
