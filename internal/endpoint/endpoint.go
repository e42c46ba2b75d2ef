// Package endpoint maps a bucket name plus connection options to the host
// and base path the HTTP layer should target.
package endpoint

import "strings"

// Style selects how the bucket name is placed on the request.
type Style int

const (
	// StyleVirtualHosted puts the bucket in the hostname
	// (bucket.endpoint). This is the default.
	StyleVirtualHosted Style = iota

	// StylePath keeps the hostname bare and prefixes the request path
	// with the bucket name. Required for endpoints that cannot serve
	// wildcard TLS certificates, such as local test servers.
	StylePath
)

// AmazonDomain is the default service domain used when no explicit
// endpoint is configured.
const AmazonDomain = "s3.amazonaws.com"

// ResolveOptions carries the connection knobs that influence addressing.
type ResolveOptions struct {
	// Endpoint overrides the Amazon service domain, e.g. a MinIO host
	// with optional port. Empty means talk to AWS.
	Endpoint string

	// Region is only consulted for path-style requests against AWS,
	// where the regional domain replaces the global one. The zero value
	// and "us-standard" both mean the classic global endpoint.
	Region string

	// Style chooses virtual-hosted or path-style addressing.
	Style Style
}

// Target is a resolved network destination for one bucket.
type Target struct {
	// Host is the value to dial and to sign as the host header.
	Host string

	// BasePath holds path segments to prepend before the object key.
	// Empty for virtual-hosted addressing, [bucket] for path style.
	BasePath []string
}

// Resolve computes the target for a bucket under the given options.
func Resolve(bucket string, opts ResolveOptions) Target {
	if opts.Style == StylePath {
		host := opts.Endpoint
		if host == "" {
			host = regionalDomain(opts.Region)
		}
		return Target{Host: host, BasePath: []string{bucket}}
	}

	domain := opts.Endpoint
	if domain == "" {
		domain = AmazonDomain
	}
	return Target{Host: bucket + "." + domain}
}

func regionalDomain(region string) string {
	region = strings.TrimSpace(region)
	if region == "" || region == "us-standard" {
		return AmazonDomain
	}
	return "s3-" + region + ".amazonaws.com"
}
