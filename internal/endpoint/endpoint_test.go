package endpoint

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name   string
		bucket string
		opts   ResolveOptions
		want   Target
	}{
		{
			name:   "virtual hosted aws",
			bucket: "media",
			opts:   ResolveOptions{},
			want:   Target{Host: "media.s3.amazonaws.com"},
		},
		{
			name:   "virtual hosted custom endpoint",
			bucket: "media",
			opts:   ResolveOptions{Endpoint: "minio.internal:9000"},
			want:   Target{Host: "media.minio.internal:9000"},
		},
		{
			name:   "path style aws us-standard",
			bucket: "media",
			opts:   ResolveOptions{Style: StylePath, Region: "us-standard"},
			want:   Target{Host: "s3.amazonaws.com", BasePath: []string{"media"}},
		},
		{
			name:   "path style aws empty region",
			bucket: "media",
			opts:   ResolveOptions{Style: StylePath},
			want:   Target{Host: "s3.amazonaws.com", BasePath: []string{"media"}},
		},
		{
			name:   "path style aws regional",
			bucket: "media",
			opts:   ResolveOptions{Style: StylePath, Region: "eu-west-1"},
			want:   Target{Host: "s3-eu-west-1.amazonaws.com", BasePath: []string{"media"}},
		},
		{
			name:   "path style custom endpoint ignores region",
			bucket: "media",
			opts:   ResolveOptions{Style: StylePath, Endpoint: "127.0.0.1:4569", Region: "eu-west-1"},
			want:   Target{Host: "127.0.0.1:4569", BasePath: []string{"media"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.bucket, tc.opts)
			if got.Host != tc.want.Host || !reflect.DeepEqual(got.BasePath, tc.want.BasePath) {
				t.Fatalf("Resolve(%q, %+v) = %+v, want %+v", tc.bucket, tc.opts, got, tc.want)
			}
		})
	}
}
