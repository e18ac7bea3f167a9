package engine

import (
	"context"
	"log"
	"sync"

	"github.com/jobiq/quality-engine/internal/domain"
)

// ReputationCache memoizes company reputation lookups for the duration of
// one batch invocation. It is passed into the batch call and discarded
// afterward, never held as process-wide state.
type ReputationCache struct {
	mu     sync.Mutex
	scores map[string]float64
}

// NewReputationCache creates an empty per-batch cache.
func NewReputationCache() *ReputationCache {
	return &ReputationCache{scores: make(map[string]float64)}
}

// Get returns a cached reputation score.
func (c *ReputationCache) Get(companyID string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	score, ok := c.scores[companyID]
	return score, ok
}

// Set stores a reputation score for the rest of the batch.
func (c *ReputationCache) Set(companyID string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scores[companyID] = score
}

// BatchSummary accounts for one batch run. Failures are counted, never
// fatal.
type BatchSummary struct {
	Processed        int
	Failed           int
	FlaggedForReview int
}

func (s *BatchSummary) merge(other BatchSummary) {
	s.Processed += other.Processed
	s.Failed += other.Failed
	s.FlaggedForReview += other.FlaggedForReview
}

// ScoreJobBatch scores jobs in bounded-size groups with per-group parallel
// dispatch. Jobs are independent; a failure on one is logged and counted
// without blocking the rest. Returns the successfully scored jobs and the
// run summary.
func (e *Engine) ScoreJobBatch(ctx context.Context, jobs []*domain.Job, cache *ReputationCache) ([]*domain.Job, BatchSummary) {
	var (
		summary BatchSummary
		scored  []*domain.Job
	)

	for start := 0; start < len(jobs); start += e.groupSize {
		end := start + e.groupSize
		if end > len(jobs) {
			end = len(jobs)
		}
		group := jobs[start:end]

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, job := range group {
			wg.Add(1)
			go func(job *domain.Job) {
				defer wg.Done()
				err := e.ScoreJob(ctx, job, cache)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Printf("score job %s: %v", job.ID, err)
					summary.Failed++
					return
				}
				summary.Processed++
				if job.GhostScore >= jobReviewThreshold {
					summary.FlaggedForReview++
				}
				scored = append(scored, job)
			}(job)
		}
		wg.Wait()
	}

	return scored, summary
}

// RecalculateAll pages through every active job and every company and
// rescores them. One reputation cache spans the whole pass.
func (e *Engine) RecalculateAll(ctx context.Context) (BatchSummary, error) {
	const pageSize = 200

	var summary BatchSummary
	cache := NewReputationCache()

	for offset := 0; ; offset += pageSize {
		jobs, err := e.store.ActiveJobs(ctx, pageSize, offset)
		if err != nil {
			return summary, err
		}
		if len(jobs) == 0 {
			break
		}

		_, batch := e.ScoreJobBatch(ctx, jobs, cache)
		summary.merge(batch)

		if len(jobs) < pageSize {
			break
		}
	}

	companies, err := e.store.Companies(ctx)
	if err != nil {
		return summary, err
	}
	for _, company := range companies {
		if err := e.ScoreCompany(ctx, company); err != nil {
			log.Printf("score company %s: %v", company.ID, err)
			summary.Failed++
			continue
		}
		summary.Processed++
	}

	log.Printf("recalculation pass: processed=%d failed=%d flagged=%d",
		summary.Processed, summary.Failed, summary.FlaggedForReview)

	return summary, nil
}
