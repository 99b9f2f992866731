package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrManifestNotFound is returned when no probed media type yields a
// manifest for a reference. It is distinct from a transport failure.
var ErrManifestNotFound = errors.New("manifest not found")

// ErrRetriesExhausted is returned when the conditional-mismatch retry path
// gives up without ever seeing a usable response.
var ErrRetriesExhausted = errors.New("upstream retries exhausted")

// UpstreamError carries a non-2xx upstream response verbatim so callers can
// surface the registry's own status and message.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registry responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("registry responded with status %d: %s", e.StatusCode, e.Message)
}

// TransportError is a connection-level failure reaching the registry, after
// any retries. No upstream status is available.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "registry unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// upstreamError drains up to 4KB of the response body for the error message
// and closes it
func upstreamError(resp *http.Response) *UpstreamError {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		body = nil
	}
	return &UpstreamError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}
