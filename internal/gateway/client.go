package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
)

// Client talks to a single upstream Distribution registry. It holds no
// mutable state: every entity is fetched on demand and discarded once the
// response is handed to the caller, so one client is safe to share across
// concurrent inbound requests.
type Client struct {
	base    *url.URL
	fetcher *Fetcher
	// raw client used for per-candidate manifest probes and for the delete
	// call, both of which must not go through the retrying fetcher
	http    *http.Client
	timeout time.Duration
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// HTTPClient is the underlying transport client
	HTTPClient *http.Client
	// MaxRetries bounds fetcher retries past the initial attempt
	MaxRetries int
	// RetryInterval is the fixed wait on the conditional-mismatch path
	RetryInterval time.Duration
	// Timeout is the wall-clock ceiling across one logical operation,
	// including all retries. Zero disables the ceiling.
	Timeout time.Duration
}

// NewClient creates a gateway client for the registry at rawURL
// (scheme + host + optional port).
func NewClient(rawURL string, opts Options) (*Client, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL %q: %w", rawURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("registry URL %q must include scheme and host", rawURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		base:    base,
		fetcher: NewFetcher(httpClient, opts.MaxRetries, opts.RetryInterval),
		http:    httpClient,
		timeout: opts.Timeout,
	}, nil
}

// URL joins a registry-relative path (already under /v2) onto the base URL
func (c *Client) URL(path string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String()
}

// Forward executes an already-built upstream request through the
// transient-fault fetcher. Used by the pass-through proxy handler.
func (c *Client) Forward(req *http.Request) (*http.Response, error) {
	return c.fetcher.Do(req)
}

// scoped applies the per-operation deadline ceiling, if configured
func (c *Client) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// get issues a GET through the fetcher and fails on anything but 200. The
// path may carry a query string (pagination links do).
func (c *Client) get(ctx context.Context, path, accept string) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid registry path %q: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}
	return resp, nil
}

// Ping checks the registry root (GET /v2/)
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.scoped(ctx)
	defer cancel()

	resp, err := c.get(ctx, "/v2/", "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

type catalogPage struct {
	Repositories []string `json:"repositories"`
}

// Repositories lists the registry catalog, following pagination links until
// the registry stops returning them.
func (c *Client) Repositories(ctx context.Context) ([]string, error) {
	ctx, cancel := c.scoped(ctx)
	defer cancel()

	var repositories []string
	next := "/v2/_catalog"
	for next != "" {
		resp, err := c.get(ctx, next, "")
		if err != nil {
			return nil, err
		}

		var page catalogPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		link := nextLink(resp.Header)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode catalog response: %w", err)
		}

		repositories = append(repositories, page.Repositories...)
		next = link
	}
	return repositories, nil
}

type tagsPage struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Tags lists the tags of a repository, following pagination links
func (c *Client) Tags(ctx context.Context, repository string) ([]string, error) {
	ctx, cancel := c.scoped(ctx)
	defer cancel()

	var tags []string
	next := "/v2/" + repository + "/tags/list"
	for next != "" {
		resp, err := c.get(ctx, next, "")
		if err != nil {
			return nil, err
		}

		var page tagsPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		link := nextLink(resp.Header)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode tag list response: %w", err)
		}

		tags = append(tags, page.Tags...)
		next = link
	}
	return tags, nil
}

// Blob streams a blob by digest. The caller owns the returned body. The
// deadline ceiling is deliberately not applied: it would cut off large
// downloads mid-stream.
func (c *Client) Blob(ctx context.Context, repository string, dgst digest.Digest, mediaType string) (io.ReadCloser, http.Header, error) {
	if err := dgst.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid blob digest %q: %w", dgst, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.URL("/v2/"+repository+"/blobs/"+dgst.String()), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build blob request: %w", err)
	}
	if mediaType != "" {
		req.Header.Set("Accept", mediaType)
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, upstreamError(resp)
	}
	return resp.Body, resp.Header, nil
}

// DeleteManifest deletes a manifest by digest. The protocol does not support
// deletion by tag name, so callers resolve first. The call is issued exactly
// once: a partially applied delete must not be repeated blindly.
func (c *Client) DeleteManifest(ctx context.Context, repository string, dgst digest.Digest) error {
	if err := dgst.Validate(); err != nil {
		return fmt.Errorf("invalid manifest digest %q: %w", dgst, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.URL("/v2/"+repository+"/manifests/"+dgst.String()), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		resp.Body.Close()
		return nil
	}
	return upstreamError(resp)
}

// nextLink extracts the next-page URI from an RFC 5988 Link header, as used
// by the Distribution API for catalog and tag list pagination
func nextLink(h http.Header) string {
	for _, link := range h.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			fields := strings.Split(part, ";")
			if len(fields) < 2 {
				continue
			}
			uri := strings.Trim(strings.TrimSpace(fields[0]), "<>")
			for _, param := range fields[1:] {
				if strings.EqualFold(strings.TrimSpace(param), `rel="next"`) {
					return uri
				}
			}
		}
	}
	return ""
}
