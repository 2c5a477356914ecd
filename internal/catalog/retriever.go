// Package catalog wraps the external catalog collaborators. The retriever
// sits between the match engine and the target catalog's search endpoints,
// retrying transient failures and degrading exhausted ones to empty candidate
// lists so the engine sees "no candidates" instead of an error.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"tunebridge/internal/common"
	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// DefaultRetryOptions bounds search retries at the collaborator boundary.
// Kept small: a search that fails twice is cheaper to treat as empty than to
// stall a whole worker on.
var DefaultRetryOptions = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
}

// Retriever issues search queries against the target catalog.
type Retriever struct {
	target service.TargetCatalog
	retry  service.RetryOptions
	logger *slog.Logger
}

// NewRetriever creates a retriever around the given target catalog.
func NewRetriever(target service.TargetCatalog, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		target: target,
		retry:  DefaultRetryOptions,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithRetryOptions overrides the retry behavior.
func WithRetryOptions(opts service.RetryOptions) RetrieverOption {
	return func(r *Retriever) {
		r.retry = opts
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// ByKey searches the target catalog by exact key (ISRC/UPC).
func (r *Retriever) ByKey(ctx context.Context, key string, limit int) []model.Candidate {
	var candidates []model.Candidate
	err := common.WithRetry(ctx, func() error {
		var searchErr error
		candidates, searchErr = r.target.SearchByKey(ctx, key, limit)
		return searchErr
	}, r.retry)
	if err != nil {
		r.logger.Warn("Key search failed, treating as no candidates", "key", key, "error", err)
		return nil
	}
	return candidates
}

// ByText searches the target catalog by title and artist text.
func (r *Retriever) ByText(ctx context.Context, title, artist string, limit int) []model.Candidate {
	if title == "" && artist == "" {
		return nil
	}

	var candidates []model.Candidate
	err := common.WithRetry(ctx, func() error {
		var searchErr error
		candidates, searchErr = r.target.SearchTracks(ctx, title, artist, limit)
		return searchErr
	}, r.retry)
	if err != nil {
		r.logger.Warn("Track search failed, treating as no candidates",
			"title", title, "artist", artist, "error", err)
		return nil
	}
	return candidates
}

// AlbumsByText searches the target catalog's album index.
func (r *Retriever) AlbumsByText(ctx context.Context, title, artist string, limit int) []model.Candidate {
	if title == "" && artist == "" {
		return nil
	}

	var candidates []model.Candidate
	err := common.WithRetry(ctx, func() error {
		var searchErr error
		candidates, searchErr = r.target.SearchAlbums(ctx, title, artist, limit)
		return searchErr
	}, r.retry)
	if err != nil {
		r.logger.Warn("Album search failed, treating as no candidates",
			"title", title, "artist", artist, "error", err)
		return nil
	}
	return candidates
}
