package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRequestHeadersStripsCredentials(t *testing.T) {
	in := http.Header{
		"Host":            []string{"viewer.example.com"},
		"Authorization":   []string{"Bearer secret"},
		"Accept":          []string{"application/json"},
		"X-Custom-Header": []string{"kept"},
	}

	out := SanitizeRequestHeaders(in)

	assert.Empty(t, out.Get("Host"))
	assert.Empty(t, out.Get("Authorization"))
	assert.Equal(t, "application/json", out.Get("Accept"))
	assert.Equal(t, "kept", out.Get("X-Custom-Header"))

	// The input headers are left untouched
	assert.Equal(t, "Bearer secret", in.Get("Authorization"))
	assert.Equal(t, "viewer.example.com", in.Get("Host"))
}

func TestSanitizeRequestHeadersNoOp(t *testing.T) {
	in := http.Header{"Accept": []string{"*/*"}}

	out := SanitizeRequestHeaders(in)

	assert.Empty(t, out.Get("Host"))
	assert.Empty(t, out.Get("Authorization"))
	assert.Equal(t, "*/*", out.Get("Accept"))
}

func TestSanitizeRequestHeadersNilInput(t *testing.T) {
	out := SanitizeRequestHeaders(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestCopyResponseHeaders(t *testing.T) {
	src := http.Header{
		"Content-Type":          []string{"application/vnd.docker.distribution.manifest.v2+json"},
		"Docker-Content-Digest": []string{"sha256:deadbeef"},
		"X-Multi":               []string{"a", "b"},
	}
	dst := http.Header{}

	CopyResponseHeaders(dst, src, map[string]string{GatewayHeader: "regatta"})

	assert.Equal(t, src.Get("Content-Type"), dst.Get("Content-Type"))
	assert.Equal(t, src.Get("Docker-Content-Digest"), dst.Get("Docker-Content-Digest"))
	assert.Equal(t, []string{"a", "b"}, dst.Values("X-Multi"))
	assert.Equal(t, "regatta", dst.Get(GatewayHeader))
}
