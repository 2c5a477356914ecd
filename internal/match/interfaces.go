package match

import (
	"context"

	"tunebridge/internal/model"
)

// Retriever is the engine's view of the target catalog's search side.
// Implementations never return errors: a failed search is an empty pool.
type Retriever interface {
	ByKey(ctx context.Context, key string, limit int) []model.Candidate
	ByText(ctx context.Context, title, artist string, limit int) []model.Candidate
	AlbumsByText(ctx context.Context, title, artist string, limit int) []model.Candidate
}
