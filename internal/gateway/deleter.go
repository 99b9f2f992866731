package gateway

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
)

// DeletionState tracks one tag through the resolve-then-delete protocol.
// Every state other than the intermediate Resolving/Deleting ones is
// terminal for that tag within a single invocation.
type DeletionState int

const (
	StatePending DeletionState = iota
	StateResolving
	StateResolveFailed
	StateResolved
	StateDeleting
	StateDeleted
	StateDeleteFailed
)

func (s DeletionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateResolveFailed:
		return "resolve_failed"
	case StateResolved:
		return "resolved"
	case StateDeleting:
		return "deleting"
	case StateDeleted:
		return "deleted"
	case StateDeleteFailed:
		return "delete_failed"
	}
	return "unknown"
}

func (s DeletionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// TagDeletion is the outcome of one tag within a deletion batch
type TagDeletion struct {
	Tag    string        `json:"tag"`
	Digest digest.Digest `json:"digest,omitempty"`
	State  DeletionState `json:"state"`
	Error  string        `json:"error,omitempty"`
}

// DeleteTags deletes a batch of tags, strictly sequentially in input order.
// Each tag is resolved to its digest (no explicit media type) and deleted by
// digest. A per-tag failure is logged and never blocks the remaining tags;
// there is no rollback, at most one delete attempt per tag, and no aggregate
// error. Callers inspect the returned outcomes for partial failure, and are
// responsible for refetching any materialized tag listing afterwards.
func (c *Client) DeleteTags(ctx context.Context, repository string, tags []string) []TagDeletion {
	batch := uuid.NewString()
	results := make([]TagDeletion, 0, len(tags))

	log.Info("deleting tags",
		"batch", batch,
		"repository", repository,
		"count", len(tags))

	for _, tag := range tags {
		// The caller went away; leave the remaining tags untouched
		if err := ctx.Err(); err != nil {
			log.Warn("deletion batch cancelled",
				"batch", batch,
				"repository", repository,
				"tag", tag,
				"error", err)
			results = append(results, TagDeletion{
				Tag:   tag,
				State: StatePending,
				Error: err.Error(),
			})
			continue
		}

		result := TagDeletion{Tag: tag, State: StateResolving}

		resolved, err := c.ResolveManifest(ctx, repository, tag, "")
		if err != nil {
			result.State = StateResolveFailed
			result.Error = err.Error()
			log.Warn("tag resolution failed, skipping",
				"batch", batch,
				"repository", repository,
				"tag", tag,
				"error", err)
			results = append(results, result)
			continue
		}

		result.Digest = resolved.Digest
		result.State = StateDeleting

		if err := c.DeleteManifest(ctx, repository, resolved.Digest); err != nil {
			result.State = StateDeleteFailed
			result.Error = err.Error()
			log.Warn("manifest delete failed",
				"batch", batch,
				"repository", repository,
				"tag", tag,
				"digest", resolved.Digest,
				"error", err)
		} else {
			result.State = StateDeleted
			log.Info("tag deleted",
				"batch", batch,
				"repository", repository,
				"tag", tag,
				"digest", resolved.Digest)
		}
		results = append(results, result)
	}

	return results
}
