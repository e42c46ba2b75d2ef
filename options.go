package s3lite

import (
	"time"

	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Defaults applied by Open when the corresponding Options field is zero.
const (
	// DefaultRegion is the classic global region identifier. It maps to
	// the global endpoint and never appears as a regional subdomain.
	DefaultRegion = "us-standard"

	// DefaultTimeout bounds each request from dial to full response.
	DefaultTimeout = 5000 * time.Millisecond

	// DefaultMaxConnections caps concurrent connections per bucket pool.
	DefaultMaxConnections = 20
)

// Options configures one bucket for Open. AccessKey and SecretAccessKey
// are mandatory unless Credentials is set; everything else has a default.
type Options struct {
	// AccessKey and SecretAccessKey are the signing identity. Required
	// when Credentials is nil.
	AccessKey       string
	SecretAccessKey string

	// SessionToken is sent and signed as x-amz-security-token when set.
	// Temporary credentials from STS carry one.
	SessionToken string

	// Credentials is an optional credential source consulted when the
	// explicit keys above are empty. DefaultCredentialChain returns the
	// usual environment/file/IAM lookup order.
	Credentials *credentials.Credentials

	// Region of the bucket. Defaults to DefaultRegion ("us-standard",
	// the classic global endpoint).
	Region string

	// Endpoint overrides the AWS service domain, e.g. "minio.internal:9000"
	// or "127.0.0.1:4569". Empty means amazonaws.com.
	Endpoint string

	// Host overrides the host header when it must differ from the dial
	// address, e.g. when tunnelling. Defaults to the resolved host.
	Host string

	// PathStyle requests path-style addressing (bucket in the path, not
	// the hostname). Required for endpoints without wildcard TLS certs.
	PathStyle bool

	// Insecure switches the scheme to plain http. Intended for local
	// test servers; production traffic should stay on https.
	Insecure bool

	// Timeout bounds each request issued for this bucket. Defaults to
	// DefaultTimeout.
	Timeout time.Duration

	// MaxConnections caps the bucket's connection pool. Defaults to
	// DefaultMaxConnections.
	MaxConnections int
}

// DefaultCredentialChain returns a credential source that tries AWS
// environment variables, MinIO environment variables, the shared AWS
// credentials file, and finally IAM instance metadata.
func DefaultCredentialChain() *credentials.Credentials {
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{},
	})
}
