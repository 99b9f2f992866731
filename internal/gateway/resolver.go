package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/opencontainers/go-digest"

	"github.com/bnema/regatta/pkg/manifest"
)

// contentDigestHeader carries the canonical digest of the exact bytes the
// registry served. It is the only source of truth for a manifest's digest:
// re-serializing the body locally can differ in whitespace or key order.
const contentDigestHeader = "Docker-Content-Digest"

// ResolvedManifest is the outcome of resolving a reference: the canonical
// digest, the negotiated media type, the verbatim body, and its decoded form.
type ResolvedManifest struct {
	Digest    digest.Digest
	MediaType string
	Raw       []byte
	Manifest  *manifest.Manifest
}

// ResolveManifest resolves a reference (tag or digest) to its manifest.
//
// With an explicit media type (the reference is already known to be a
// digest, e.g. a child of an index) exactly one request is issued and any
// non-200 is a failure. Without one, the known manifest kinds are probed in
// priority order: 404 moves to the next candidate, any other miss is logged
// and skipped, and the first 200 wins. When every candidate misses the
// resolution fails with ErrManifestNotFound.
func (c *Client) ResolveManifest(ctx context.Context, repository, reference, mediaType string) (*ResolvedManifest, error) {
	ctx, cancel := c.scoped(ctx)
	defer cancel()

	if mediaType != "" {
		return c.fetchManifest(ctx, repository, reference, mediaType)
	}

	for _, accept := range manifest.ProbeOrder() {
		resolved, err := c.fetchManifest(ctx, repository, reference, accept)
		if err == nil {
			return resolved, nil
		}

		var upstream *UpstreamError
		switch {
		case errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound:
			log.Debug("manifest candidate not found, trying next",
				"repository", repository,
				"reference", reference,
				"mediaType", accept)
		case errors.As(err, &upstream):
			log.Warn("manifest candidate lookup failed",
				"repository", repository,
				"reference", reference,
				"mediaType", accept,
				"status", upstream.StatusCode)
		default:
			// A transient failure on one candidate must not abort the
			// probe of the remaining candidates
			log.Warn("manifest candidate unreachable",
				"repository", repository,
				"reference", reference,
				"mediaType", accept,
				"error", err)
		}
	}

	return nil, fmt.Errorf("%w: %s:%s", ErrManifestNotFound, repository, reference)
}

// fetchManifest issues one raw manifest lookup. It bypasses the retrying
// fetcher: the probe loop handles misses by moving to the next candidate.
func (c *Client) fetchManifest(ctx context.Context, repository, reference, accept string) (*ResolvedManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.URL("/v2/"+repository+"/manifests/"+reference), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError(resp)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest body: %w", err)
	}

	header := resp.Header.Get(contentDigestHeader)
	if header == "" {
		return nil, fmt.Errorf("registry returned no %s header for %s:%s", contentDigestHeader, repository, reference)
	}
	dgst, err := digest.Parse(header)
	if err != nil {
		return nil, fmt.Errorf("registry returned invalid content digest %q: %w", header, err)
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = accept
	}

	decoded, err := manifest.Decode(raw, mediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", dgst, err)
	}

	log.Debug("manifest resolved",
		"repository", repository,
		"reference", reference,
		"mediaType", mediaType,
		"digest", dgst)

	return &ResolvedManifest{
		Digest:    dgst,
		MediaType: mediaType,
		Raw:       raw,
		Manifest:  decoded,
	}, nil
}
