package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/regatta/internal/common"
	"github.com/bnema/regatta/internal/gateway"
	"github.com/bnema/regatta/internal/server"
)

const imageManifestBody = `{"schemaVersion":2,"mediaType":"application/vnd.docker.distribution.manifest.v2+json","config":{"mediaType":"application/vnd.docker.container.image.v1+json","digest":"sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","size":7023},"layers":[]}`
const imageManifestDigest = "sha256:2222222222222222222222222222222222222222222222222222222222222222"

// upstreamDouble is a registry stand-in recording what the gateway sends it
type upstreamDouble struct {
	mu       sync.Mutex
	requests []*http.Request
	handle   http.HandlerFunc
}

func (u *upstreamDouble) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, r.Clone(r.Context()))
	u.mu.Unlock()
	u.handle(w, r)
}

func (u *upstreamDouble) last(t *testing.T) *http.Request {
	t.Helper()
	u.mu.Lock()
	defer u.mu.Unlock()
	require.NotEmpty(t, u.requests)
	return u.requests[len(u.requests)-1]
}

func newTestApp(t *testing.T, upstream *httptest.Server) *server.App {
	t.Helper()
	client, err := gateway.NewClient(upstream.URL, gateway.Options{
		HTTPClient:    upstream.Client(),
		RetryInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return &server.App{
		Config: common.Config{
			Http: common.HttpConfig{Port: "8080", PathPrefix: "/registry"},
		},
		Gateway:   client,
		StartTime: time.Now(),
	}
}

func newContext(e *echo.Echo, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestProxyRegistryStripsCredentialsAndTranslatesPath(t *testing.T) {
	double := &upstreamDouble{handle: func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Docker-Distribution-Api-Version", "registry/2.0")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}}
	srv := httptest.NewServer(double)
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/registry/_catalog?n=10", nil)
	req.Header.Set("Authorization", "Basic c2VjcmV0")
	c, rec := newContext(e, req)

	require.NoError(t, ProxyRegistry(c, a))

	seen := double.last(t)
	assert.Equal(t, "/v2/_catalog", seen.URL.Path)
	assert.Equal(t, "n=10", seen.URL.RawQuery)
	assert.Empty(t, seen.Header.Get("Authorization"), "credentials must never reach the upstream")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "registry/2.0", rec.Header().Get("Docker-Distribution-Api-Version"))
	assert.Equal(t, "regatta", rec.Header().Get(gateway.GatewayHeader))
}

func TestProxyRegistryForwardsUpstreamErrorsVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "MANIFEST_UNKNOWN", http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/registry/missing/manifests/latest", nil)
	c, rec := newContext(e, req)

	require.NoError(t, ProxyRegistry(c, a))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "MANIFEST_UNKNOWN")
}

func TestProxyRegistryUnreachableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/registry/_catalog", nil)
	c, rec := newContext(e, req)

	require.NoError(t, ProxyRegistry(c, a))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/_catalog", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"repositories":["library/alpine","tools/dive"]}`))
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
	c, rec := newContext(e, req)

	require.NoError(t, GetRepositories(c, a))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"repositories":["library/alpine","tools/dive"]}`, rec.Body.String())
}

func TestGetTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/library/alpine/tags/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"library/alpine","tags":["latest","v1.2.0","v1.10.0","edge"]}`))
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/tags/library/alpine", nil)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine")

	require.NoError(t, GetTags(c, a))
	assert.Equal(t, http.StatusOK, rec.Code)
	// semver tags newest first, the rest lexicographic after
	assert.JSONEq(t, `{"repository":"library/alpine","tags":["v1.10.0","v1.2.0","edge","latest"]}`, rec.Body.String())
}

func TestGetManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/library/alpine/manifests/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/vnd.docker.distribution.manifest.v2+json")
		w.Header().Set("Docker-Content-Digest", imageManifestDigest)
		w.Write([]byte(imageManifestBody))
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/manifests/library/alpine/latest", nil)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine/latest")

	require.NoError(t, GetManifest(c, a))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), imageManifestDigest)
	assert.Contains(t, rec.Body.String(), `"repository":"library/alpine"`)
	assert.Contains(t, rec.Body.String(), `"reference":"latest"`)
}

func TestGetManifestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/manifests/library/alpine/gone", nil)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine/gone")

	require.NoError(t, GetManifest(c, a))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v2/library/alpine/blobs/"))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("layer-bytes"))
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/blobs/library/alpine/"+imageManifestDigest, nil)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine/" + imageManifestDigest)

	require.NoError(t, GetBlob(c, a))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "layer-bytes", rec.Body.String())
}

func TestGetBlobInvalidDigest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upstream call expected for an invalid digest")
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/blobs/library/alpine/not-a-digest", nil)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine/not-a-digest")

	require.NoError(t, GetBlob(c, a))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTagsPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/manifests/good"):
			w.Header().Set("Content-Type", "application/vnd.docker.distribution.manifest.v2+json")
			w.Header().Set("Docker-Content-Digest", imageManifestDigest)
			w.Write([]byte(imageManifestBody))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/tags/library/alpine",
		strings.NewReader(`{"tags":["good","missing"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine")

	require.NoError(t, DeleteTags(c, a))
	// partial failure is still a 200 with per-tag outcomes
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"deleted"`)
	assert.Contains(t, rec.Body.String(), `"state":"resolve_failed"`)
}

func TestDeleteTagsEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodDelete, "/api/tags/library/alpine", strings.NewReader(`{"tags":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(e, req)
	c.SetParamNames("*")
	c.SetParamValues("library/alpine")

	require.NoError(t, DeleteTags(c, a))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHealthUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := newTestApp(t, srv)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	c, rec := newContext(e, req)

	require.NoError(t, GetHealth(c, a))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSortTags(t *testing.T) {
	tags := []string{"latest", "1.0.0", "0.9.1", "2.0.0-rc.1", "dev", "2.0.0"}
	sortTags(tags)
	assert.Equal(t, []string{"2.0.0", "2.0.0-rc.1", "1.0.0", "0.9.1", "dev", "latest"}, tags)
}
