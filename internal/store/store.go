// Package store defines the persistence port the scoring engine reads and
// writes through, and its PostgreSQL adapter.
package store

import (
	"context"

	"github.com/jobiq/quality-engine/internal/domain"
)

// Store is the persistence port. The engine and scorers depend only on this
// interface; aggregation happens behind it, never in the scoring code.
type Store interface {
	// Reads.
	JobByID(ctx context.Context, id string) (*domain.Job, error)
	ActiveJobs(ctx context.Context, limit, offset int) ([]*domain.Job, error)
	ActiveJobsByCompany(ctx context.Context, normalizedCompany, excludeURL string, limit int) ([]domain.JobCandidate, error)
	CompanyByID(ctx context.Context, id string) (*domain.Company, error)
	Companies(ctx context.Context) ([]*domain.Company, error)
	CompanyAggregates(ctx context.Context, companyID string) (*domain.CompanyAggregates, error)
	GhostContext(ctx context.Context, companyID, title string) (*domain.GhostContext, error)

	// Writes.
	UpdateJobScores(ctx context.Context, job *domain.Job) error
	UpsertCompanyScores(ctx context.Context, company *domain.Company) error
	RecordLineage(ctx context.Context, lineage *domain.JobLineage) error
	EnqueueReview(ctx context.Context, entry *domain.ReviewQueueEntry) error
}
