// Package s3lite is a small client library for S3-compatible object
// stores with its own AWS Signature Version 4 implementation. It covers
// exactly two object operations, GET and PUT, plus a bucket lifecycle:
// Open validates configuration and probes the bucket, Close releases it.
//
// # Opening a bucket
//
//	cli := s3lite.New()
//	err := cli.Open(ctx, "media", s3lite.Options{
//	    AccessKey:       os.Getenv("AWS_ACCESS_KEY_ID"),
//	    SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
//	    Region:          "eu-west-1",
//	})
//	if err != nil { log.Fatal(err) }
//	defer cli.Close(context.Background(), "media")
//
// Open issues a signed zero-result listing against the bucket so bad
// credentials, a wrong region (s3lite.ErrWrongRegion), or a missing
// bucket (s3lite.ErrNoSuchBucket) surface immediately rather than on the
// first Get. Credentials can also come from the usual environment, file,
// and IAM sources via s3lite.DefaultCredentialChain.
//
// # Objects
//
//	props, err := cli.Put(ctx, "media", "reports/q3.pdf", data)
//	res, err := cli.Get(ctx, "media", "reports/q3.pdf", s3lite.GetOptions{
//	    IfNoneMatch: props.ETag,
//	})
//
// A conditional Get answered with 304 returns GetResult.NotModified
// rather than an error; a missing key returns s3lite.ErrObjectNotFound.
// Responses the library has no mapping for surface as
// *s3lite.UnknownResponseError with the full status, headers, and body.
//
// # Addressing
//
// Buckets default to virtual-hosted addressing (bucket.s3.amazonaws.com).
// Options.Endpoint points the client at MinIO or another compatible
// store; Options.PathStyle switches to path-style addressing for
// endpoints that cannot serve wildcard certificates, and Options.Insecure
// selects plain http for local testing.
//
// The client is safe for concurrent use. Signing is deterministic: the
// same request, credentials, and timestamp always produce the same
// Authorization header. Credentials never appear in errors or logs.
package s3lite
