package s3lite

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// setupFakeS3 starts an in-memory S3 server with one pre-created bucket
// and returns Options pointed at it.
func setupFakeS3(t *testing.T, bucket string) (*httptest.Server, Options) {
	t.Helper()
	backend := s3mem.New()
	fs := gofakes3.New(backend)
	server := httptest.NewServer(fs.Server())
	if err := backend.CreateBucket(bucket); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	endpoint := strings.TrimPrefix(server.URL, "http://")
	opts := Options{
		AccessKey:       "test",
		SecretAccessKey: "test",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		PathStyle:       true,
		Insecure:        true,
	}
	return server, opts
}

func TestObjectRoundTrip(t *testing.T) {
	server, opts := setupFakeS3(t, "media")
	defer server.Close()

	cli := New()
	ctx := context.Background()
	if err := cli.Open(ctx, "media", opts); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cli.Close(ctx, "media")

	payload := []byte("quarterly numbers")
	props, err := cli.Put(ctx, "media", "reports/q3.txt", payload)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if props.ETag == "" {
		t.Fatal("put returned empty etag")
	}

	res, err := cli.Get(ctx, "media", "reports/q3.txt", GetOptions{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(res.Body, payload) {
		t.Fatalf("get body = %q, want %q", res.Body, payload)
	}
	if res.NotModified {
		t.Fatal("unconditional get flagged NotModified")
	}
	if res.Properties.ETag == "" {
		t.Fatal("get returned empty etag")
	}
}

func TestGetMissingObject(t *testing.T) {
	server, opts := setupFakeS3(t, "media")
	defer server.Close()

	cli := New()
	ctx := context.Background()
	if err := cli.Open(ctx, "media", opts); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cli.Close(ctx, "media")

	if _, err := cli.Get(ctx, "media", "nope.txt", GetOptions{}); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("get missing: err = %v, want ErrObjectNotFound", err)
	}
}

func TestOpenDuplicate(t *testing.T) {
	server, opts := setupFakeS3(t, "media")
	defer server.Close()

	cli := New()
	ctx := context.Background()
	if err := cli.Open(ctx, "media", opts); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer cli.Close(ctx, "media")

	if err := cli.Open(ctx, "media", opts); !errors.Is(err, ErrBucketAlreadyExists) {
		t.Fatalf("duplicate open: err = %v, want ErrBucketAlreadyExists", err)
	}
}

func TestCloseThenReopen(t *testing.T) {
	server, opts := setupFakeS3(t, "media")
	defer server.Close()

	cli := New()
	ctx := context.Background()
	if err := cli.Open(ctx, "media", opts); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := cli.Close(ctx, "media"); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := cli.Get(ctx, "media", "any.txt", GetOptions{}); !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("get after close: err = %v, want ErrBucketNotFound", err)
	}
	if err := cli.Close(ctx, "media"); !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("double close: err = %v, want ErrBucketNotFound", err)
	}

	if err := cli.Open(ctx, "media", opts); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer cli.Close(ctx, "media")

	if _, err := cli.Put(ctx, "media", "back.txt", []byte("again")); err != nil {
		t.Fatalf("put after reopen: %v", err)
	}
}

func TestOpenMissingBucket(t *testing.T) {
	server, opts := setupFakeS3(t, "media")
	defer server.Close()

	cli := New()
	ctx := context.Background()
	if err := cli.Open(ctx, "absent", opts); !errors.Is(err, ErrNoSuchBucket) {
		t.Fatalf("open absent bucket: err = %v, want ErrNoSuchBucket", err)
	}
	// The failed probe must not leave the bucket registered.
	if _, err := cli.Get(ctx, "absent", "x", GetOptions{}); !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("get after failed open: err = %v, want ErrBucketNotFound", err)
	}
}

func TestOpenMissingCredentials(t *testing.T) {
	cli := New()
	err := cli.Open(context.Background(), "media", Options{SecretAccessKey: "only-secret"})
	var missing *MissingOptionError
	if !errors.As(err, &missing) || missing.Option != "AccessKey" {
		t.Fatalf("open without access key: err = %v, want MissingOptionError{AccessKey}", err)
	}

	err = cli.Open(context.Background(), "media", Options{AccessKey: "only-key"})
	if !errors.As(err, &missing) || missing.Option != "SecretAccessKey" {
		t.Fatalf("open without secret: err = %v, want MissingOptionError{SecretAccessKey}", err)
	}
}

func TestTransportFailure(t *testing.T) {
	cli := New()
	ctx := context.Background()
	err := cli.Open(ctx, "media", Options{
		AccessKey:       "test",
		SecretAccessKey: "test",
		Endpoint:        "127.0.0.1:1",
		PathStyle:       true,
		Insecure:        true,
	})
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("open against closed port: err = %v, want *TransportError", err)
	}
}

func TestWirePath(t *testing.T) {
	cases := []struct {
		base []string
		key  string
		want string
	}{
		{nil, "file.txt", "file.txt"},
		{[]string{"bucket-prefix"}, "file.txt", "bucket-prefix/file.txt"},
		{[]string{"b"}, "dir/sub/file.txt", "b/dir/sub/file.txt"},
		{nil, "with space.txt", "with%20space.txt"},
		{nil, "", ""},
	}
	for _, tc := range cases {
		if got := wirePath(tc.base, tc.key); got != tc.want {
			t.Fatalf("wirePath(%v, %q) = %q, want %q", tc.base, tc.key, got, tc.want)
		}
	}
}
