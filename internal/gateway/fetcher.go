package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultMaxRetries bounds retries past the initial attempt
	DefaultMaxRetries = 3
	// DefaultRetryInterval is the fixed wait before retrying a
	// conditional-cache mismatch (HTTP 304) on a read
	DefaultRetryInterval = 1 * time.Second
)

// retryDecision is the outcome of one attempt
type retryDecision int

const (
	// decisionReturn hands the response to the caller as-is
	decisionReturn retryDecision = iota
	// decisionRetry retries immediately (transport failure)
	decisionRetry
	// decisionWaitRetry waits the fixed interval, then retries (stale 304)
	decisionWaitRetry
	// decisionGiveUp stops: the retry budget is spent or the request body
	// cannot be replayed
	decisionGiveUp
)

// retryState tracks one request's attempt sequence. Keeping the policy in a
// plain struct makes it unit-testable without real network calls.
type retryState struct {
	attempts   int // attempts performed so far
	maxRetries int // retries allowed past the initial attempt
	lastStatus int
	lastErr    error
}

// decide records the outcome of the attempt that just ran and picks the next
// step. replayable reports whether the request could be sent again at all;
// idempotent gates the 304 retry path, which must never repeat a mutating
// request whose first attempt may have partially succeeded upstream.
func (s *retryState) decide(status int, err error, idempotent, replayable bool) retryDecision {
	s.attempts++
	s.lastStatus = status
	s.lastErr = err

	exhausted := s.attempts > s.maxRetries

	if err != nil {
		if exhausted || !replayable {
			return decisionGiveUp
		}
		return decisionRetry
	}

	if status == http.StatusNotModified && idempotent {
		if exhausted {
			return decisionGiveUp
		}
		return decisionWaitRetry
	}

	return decisionReturn
}

// Fetcher performs one HTTP request against the upstream registry with
// bounded retry on transient conditions. Non-2xx statuses are not failures
// here; they are forwarded for the caller to interpret.
type Fetcher struct {
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
}

// NewFetcher creates a fetcher around the given client. Zero values fall
// back to the defaults.
func NewFetcher(client *http.Client, maxRetries int, retryInterval time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	return &Fetcher{
		client:        client,
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
	}
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

// Do executes the request. Transport failures are retried immediately up to
// the bound; HTTP 304 on idempotent reads is retried after a fixed wait.
// Cancelling the request context aborts the retry loop.
func (f *Fetcher) Do(req *http.Request) (*http.Response, error) {
	state := &retryState{maxRetries: f.maxRetries}
	idempotent := isIdempotent(req.Method)
	// A request with a one-shot body cannot be replayed
	replayable := req.Body == nil || req.GetBody != nil

	for {
		attemptReq := req
		if state.attempts > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", err)
			}
			attemptReq = req.Clone(req.Context())
			attemptReq.Body = body
		}

		resp, err := f.client.Do(attemptReq)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}

		switch state.decide(status, err, idempotent, replayable) {
		case decisionReturn:
			log.Debug("upstream request",
				"method", req.Method,
				"url", req.URL.String(),
				"status", status,
				"attempt", state.attempts)
			return resp, nil

		case decisionRetry:
			log.Warn("upstream request failed, retrying",
				"method", req.Method,
				"url", req.URL.String(),
				"attempt", state.attempts,
				"error", err)
			continue

		case decisionWaitRetry:
			resp.Body.Close()
			log.Warn("upstream returned 304, waiting before retry",
				"method", req.Method,
				"url", req.URL.String(),
				"attempt", state.attempts,
				"wait", f.retryInterval)
			select {
			case <-req.Context().Done():
				return nil, &TransportError{Err: req.Context().Err()}
			case <-time.After(f.retryInterval):
			}
			continue

		default: // decisionGiveUp
			if state.lastErr != nil {
				log.Error("upstream unreachable, giving up",
					"method", req.Method,
					"url", req.URL.String(),
					"attempts", state.attempts,
					"error", state.lastErr)
				return nil, &TransportError{Err: state.lastErr}
			}
			resp.Body.Close()
			log.Error("upstream kept returning 304, giving up",
				"method", req.Method,
				"url", req.URL.String(),
				"attempts", state.attempts)
			return nil, fmt.Errorf("%w: %s %s after %d attempts",
				ErrRetriesExhausted, req.Method, req.URL.String(), state.attempts)
		}
	}
}
