// Package engine sequences the scoring components for a single job or
// company and writes results back through the store port.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobiq/quality-engine/internal/analyzer"
	"github.com/jobiq/quality-engine/internal/cleaner"
	"github.com/jobiq/quality-engine/internal/credibility"
	"github.com/jobiq/quality-engine/internal/domain"
	"github.com/jobiq/quality-engine/internal/ghost"
	"github.com/jobiq/quality-engine/internal/repost"
	"github.com/jobiq/quality-engine/internal/scoring"
	"github.com/jobiq/quality-engine/internal/store"
)

// Review queue thresholds for ghosted jobs.
const (
	jobReviewThreshold         = 5
	jobReviewHighPriorityScore = 7
)

// Config holds engine tunables.
type Config struct {
	// GroupSize bounds how many jobs are dispatched in parallel per batch
	// group.
	GroupSize int
	// Repost configures the duplicate detector.
	Repost repost.Config
}

// Engine orchestrates scoring. All component calls are pure; the engine
// owns the store round trips.
type Engine struct {
	store     store.Store
	detector  *repost.Detector
	sanitizer *cleaner.Sanitizer
	groupSize int
	now       func() time.Time
}

// New creates an engine over the given store.
func New(st store.Store, cfg Config) *Engine {
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 25
	}
	return &Engine{
		store:     st,
		detector:  repost.NewDetector(st, cfg.Repost),
		sanitizer: cleaner.NewSanitizer(),
		groupSize: cfg.GroupSize,
		now:       time.Now,
	}
}

// ScoreJob recomputes every per-job output for one job: description hash,
// repost lineage, ghost score, health and quality. The job is mutated in
// place and the results written through the store. Missing inputs are never
// errors; only store failures are.
func (e *Engine) ScoreJob(ctx context.Context, job *domain.Job, cache *ReputationCache) error {
	now := e.now()

	description := ""
	if job.Description != nil {
		description = e.sanitizer.Text(*job.Description)
	}

	// Backfill fields ingestion left as display strings.
	if job.PostedDate == nil && job.PostedText != "" {
		job.PostedDate = analyzer.ParsePostedDate(job.PostedText, now)
	}
	if job.SalaryMin == nil && job.SalaryMax == nil && job.SalaryText != "" {
		job.SalaryMin, job.SalaryMax = analyzer.ParseSalary(job.SalaryText)
	}

	if description != "" {
		hash := analyzer.Hash(description)
		job.DescriptionHash = &hash
	}

	match, err := e.detector.Detect(ctx, job)
	if err != nil {
		return fmt.Errorf("repost detection: %w", err)
	}

	canonicalID := job.ID
	if match.IsRepost {
		canonicalID = match.CanonicalJobID
		job.RepostCount = match.InstanceNumber
	} else if job.RepostCount < 1 {
		job.RepostCount = 1
	}

	// Company context enriches the ghost detector but is optional; a failed
	// lookup degrades to the base detector instead of failing the job.
	var ghostCtx *domain.GhostContext
	if job.CompanyID != nil {
		ghostCtx, err = e.store.GhostContext(ctx, *job.CompanyID, job.Title)
		if err != nil {
			log.Printf("ghost context for job %s: %v", job.ID, err)
			ghostCtx = nil
		}
	}

	ghostRes := ghost.DetectWithContext(ghost.Input{
		PostedDate:  job.PostedDate,
		RepostCount: job.RepostCount,
		SalaryMin:   job.SalaryMin,
		SalaryMax:   job.SalaryMax,
		Description: description,
		URL:         job.URL,
	}, ghostCtx, now)

	reputation := e.companyReputation(ctx, job.CompanyID, cache)

	in := scoring.Input{
		PostedDate:        job.PostedDate,
		RepostCount:       job.RepostCount,
		SalaryMin:         job.SalaryMin,
		SalaryMax:         job.SalaryMax,
		Description:       description,
		URL:               job.URL,
		CompanyReputation: &reputation,
	}

	health := scoring.HealthScore(in, now)
	freshness := scoring.Freshness(job.PostedDate, now)

	job.HealthScore = health
	job.QualityScore = scoring.QualityScore(health, freshness, reputation, ghostRes.Score)
	job.GhostScore = ghostRes.Score
	job.GhostFlags = ghostRes.Flags
	job.QualityUpdatedAt = now

	if err := e.store.UpdateJobScores(ctx, job); err != nil {
		return fmt.Errorf("write job scores: %w", err)
	}

	lineage := &domain.JobLineage{
		ID:             uuid.NewString(),
		JobID:          job.ID,
		CanonicalJobID: canonicalID,
		InstanceNumber: job.RepostCount,
	}
	if err := e.store.RecordLineage(ctx, lineage); err != nil {
		return fmt.Errorf("record lineage: %w", err)
	}

	if job.GhostScore >= jobReviewThreshold {
		if err := e.queueJobReview(ctx, job); err != nil {
			return fmt.Errorf("queue job review: %w", err)
		}
	}

	return nil
}

// ScoreCompany recomputes the company's reputation, credibility, grade and
// metrics bundle from the store's aggregates and writes them back.
func (e *Engine) ScoreCompany(ctx context.Context, company *domain.Company) error {
	agg, err := e.store.CompanyAggregates(ctx, company.ID)
	if err != nil {
		return fmt.Errorf("load aggregates: %w", err)
	}

	res := credibility.Evaluate(*agg)

	company.ReputationScore = res.ReputationScore
	company.CredibilityScore = res.CredibilityScore
	company.CredibilityGrade = res.CredibilityGrade
	company.Metrics = res.Metrics
	company.ScoreUpdatedAt = e.now()

	if err := e.store.UpsertCompanyScores(ctx, company); err != nil {
		return fmt.Errorf("write company scores: %w", err)
	}

	if res.ReputationScore < credibility.ReviewThreshold {
		priority := domain.PriorityMedium
		if res.ReputationScore < credibility.HighPriorityThreshold {
			priority = domain.PriorityHigh
		}
		entry := &domain.ReviewQueueEntry{
			ID:         uuid.NewString(),
			EntityType: domain.EntityCompany,
			EntityID:   company.ID,
			Reason:     fmt.Sprintf("Reputation score %.2f for company %q", res.ReputationScore, company.Name),
			Priority:   priority,
			Status:     domain.ReviewStatusPending,
		}
		if err := e.store.EnqueueReview(ctx, entry); err != nil {
			return fmt.Errorf("queue company review: %w", err)
		}
	}

	return nil
}

func (e *Engine) queueJobReview(ctx context.Context, job *domain.Job) error {
	priority := domain.PriorityMedium
	if job.GhostScore >= jobReviewHighPriorityScore {
		priority = domain.PriorityHigh
	}
	entry := &domain.ReviewQueueEntry{
		ID:         uuid.NewString(),
		EntityType: domain.EntityJob,
		EntityID:   job.ID,
		Reason:     fmt.Sprintf("Ghost score %d (%s)", job.GhostScore, strings.Join(job.GhostFlags, ", ")),
		Priority:   priority,
		Status:     domain.ReviewStatusPending,
	}
	return e.store.EnqueueReview(ctx, entry)
}

// companyReputation resolves the owning company's reputation score through
// the per-batch cache. Unknown companies and lookup failures both fall back
// to the neutral default.
func (e *Engine) companyReputation(ctx context.Context, companyID *string, cache *ReputationCache) float64 {
	if companyID == nil {
		return scoring.DefaultReputation
	}
	if cache != nil {
		if score, ok := cache.Get(*companyID); ok {
			return score
		}
	}

	company, err := e.store.CompanyByID(ctx, *companyID)
	if err != nil {
		log.Printf("company reputation lookup %s: %v", *companyID, err)
		return scoring.DefaultReputation
	}

	score := company.ReputationScore
	if cache != nil {
		cache.Set(*companyID, score)
	}
	return score
}
