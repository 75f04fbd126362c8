package engine

import (
	"context"

	"github.com/shoppilot/prosearch/internal/domain/catalog"
)

// Source supplies the catalog snapshot at initialization time. Records
// arrive with reviews already resolved (at most catalog.MaxResolvedReviews
// each).
type Source interface {
	Products(ctx context.Context) ([]catalog.Product, error)
}
