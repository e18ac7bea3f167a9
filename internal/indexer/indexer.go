// Package indexer pushes scored jobs into the search index consumed by the
// listing surface.
package indexer

import (
	"context"

	"github.com/jobiq/quality-engine/internal/domain"
)

// Indexer is the search-index backend for scored jobs.
type Indexer interface {
	// BulkIndex indexes multiple scored jobs at once.
	BulkIndex(ctx context.Context, jobs []*domain.Job) error
}
