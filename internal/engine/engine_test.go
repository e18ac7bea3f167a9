package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jobiq/quality-engine/internal/domain"
	"github.com/jobiq/quality-engine/internal/engine"
)

// fakeStore is an in-memory Store that records every write. Batch scoring
// dispatches goroutines, so all access is under the mutex.
type fakeStore struct {
	mu sync.Mutex

	activeJobs  []*domain.Job
	candidates  []domain.JobCandidate
	companies   map[string]*domain.Company
	companyList []*domain.Company
	aggregates  map[string]*domain.CompanyAggregates
	ghostCtx    *domain.GhostContext

	failUpdateFor     map[string]bool
	failCompanyLookup bool

	companyLookups int
	updatedJobs    []*domain.Job
	upserted       []*domain.Company
	lineage        []*domain.JobLineage
	reviews        []*domain.ReviewQueueEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		companies:     make(map[string]*domain.Company),
		aggregates:    make(map[string]*domain.CompanyAggregates),
		failUpdateFor: make(map[string]bool),
	}
}

func (f *fakeStore) JobByID(_ context.Context, id string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.activeJobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("job %s not found", id)
}

func (f *fakeStore) ActiveJobs(_ context.Context, limit, offset int) ([]*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.activeJobs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.activeJobs) {
		end = len(f.activeJobs)
	}
	return f.activeJobs[offset:end], nil
}

func (f *fakeStore) ActiveJobsByCompany(_ context.Context, _, _ string, _ int) ([]domain.JobCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.candidates, nil
}

func (f *fakeStore) CompanyByID(_ context.Context, id string) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.companyLookups++
	if f.failCompanyLookup {
		return nil, errors.New("company lookup failed")
	}
	c, ok := f.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %s not found", id)
	}
	return c, nil
}

func (f *fakeStore) Companies(_ context.Context) ([]*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.companyList, nil
}

func (f *fakeStore) CompanyAggregates(_ context.Context, companyID string) (*domain.CompanyAggregates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if agg, ok := f.aggregates[companyID]; ok {
		return agg, nil
	}
	return &domain.CompanyAggregates{}, nil
}

func (f *fakeStore) GhostContext(_ context.Context, _, _ string) (*domain.GhostContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ghostCtx == nil {
		return &domain.GhostContext{}, nil
	}
	return f.ghostCtx, nil
}

func (f *fakeStore) UpdateJobScores(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateFor[job.ID] {
		return errors.New("write failed")
	}
	f.updatedJobs = append(f.updatedJobs, job)
	return nil
}

func (f *fakeStore) UpsertCompanyScores(_ context.Context, company *domain.Company) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, company)
	return nil
}

func (f *fakeStore) RecordLineage(_ context.Context, lineage *domain.JobLineage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lineage = append(f.lineage, lineage)
	return nil
}

func (f *fakeStore) EnqueueReview(_ context.Context, entry *domain.ReviewQueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, entry)
	return nil
}

func strp(s string) *string  { return &s }
func f64(v float64) *float64 { return &v }

func freshJob(id string) *domain.Job {
	posted := time.Now().Add(-2 * 24 * time.Hour)
	return &domain.Job{
		ID:          id,
		CompanyName: "Acme Inc.",
		Title:       "Backend Engineer",
		Description: strp(strings.Repeat("We build freight routing software in Go and Postgres for European brokers. ", 8)),
		URL:         "https://acme.com/careers/backend-engineer-" + id,
		PostedDate:  &posted,
		SalaryMin:   f64(120000),
		SalaryMax:   f64(140000),
	}
}

func TestScoreJob_Original(t *testing.T) {
	st := newFakeStore()
	eng := engine.New(st, engine.Config{})

	job := freshJob("j1")
	if err := eng.ScoreJob(context.Background(), job, nil); err != nil {
		t.Fatalf("ScoreJob: %v", err)
	}

	if job.RepostCount != 1 {
		t.Errorf("RepostCount = %d, want 1 for an original", job.RepostCount)
	}
	if job.DescriptionHash == nil || len(*job.DescriptionHash) != 32 {
		t.Errorf("DescriptionHash = %v, want 32-char hash", job.DescriptionHash)
	}
	if job.HealthScore <= 0 || job.HealthScore > 1 {
		t.Errorf("HealthScore = %v, want in (0,1]", job.HealthScore)
	}
	if job.QualityScore <= 0 || job.QualityScore > 1 {
		t.Errorf("QualityScore = %v, want in (0,1]", job.QualityScore)
	}
	if job.GhostScore != 0 {
		t.Errorf("GhostScore = %d, want 0 for a healthy job", job.GhostScore)
	}
	if job.QualityUpdatedAt.IsZero() {
		t.Error("QualityUpdatedAt should be set")
	}

	if len(st.updatedJobs) != 1 {
		t.Fatalf("expected 1 score write, got %d", len(st.updatedJobs))
	}
	if len(st.lineage) != 1 {
		t.Fatalf("expected 1 lineage record, got %d", len(st.lineage))
	}
	lin := st.lineage[0]
	if lin.JobID != "j1" || lin.CanonicalJobID != "j1" || lin.InstanceNumber != 1 {
		t.Errorf("lineage = %+v, want self-canonical instance 1", lin)
	}
	if len(st.reviews) != 0 {
		t.Errorf("healthy job should not be queued for review: %+v", st.reviews)
	}
}

func TestScoreJob_RepostLineage(t *testing.T) {
	st := newFakeStore()
	st.candidates = []domain.JobCandidate{
		{ID: "canonical", Title: "Backend Engineer", RepostCount: 2},
	}
	eng := engine.New(st, engine.Config{})

	job := freshJob("j2")
	if err := eng.ScoreJob(context.Background(), job, nil); err != nil {
		t.Fatalf("ScoreJob: %v", err)
	}

	if job.RepostCount != 3 {
		t.Errorf("RepostCount = %d, want canonical count + 1 = 3", job.RepostCount)
	}
	if len(st.lineage) != 1 {
		t.Fatalf("expected 1 lineage record, got %d", len(st.lineage))
	}
	lin := st.lineage[0]
	if lin.CanonicalJobID != "canonical" || lin.InstanceNumber != 3 {
		t.Errorf("lineage = %+v, want canonical instance 3", lin)
	}
}

func TestScoreJob_GhostReview(t *testing.T) {
	st := newFakeStore()
	eng := engine.New(st, engine.Config{})

	posted := time.Now().Add(-100 * 24 * time.Hour)
	job := &domain.Job{
		ID:          "j3",
		CompanyName: "Acme Inc.",
		Title:       "Backend Engineer",
		Description: strp("Competitive pay for the right candidate."),
		URL:         "https://acme.com/careers",
		PostedDate:  &posted,
		RepostCount: 5,
	}
	if err := eng.ScoreJob(context.Background(), job, nil); err != nil {
		t.Fatalf("ScoreJob: %v", err)
	}

	if job.GhostScore < 5 {
		t.Fatalf("GhostScore = %d, want review-worthy (>= 5)", job.GhostScore)
	}
	if len(st.reviews) != 1 {
		t.Fatalf("expected 1 review entry, got %d", len(st.reviews))
	}
	entry := st.reviews[0]
	if entry.EntityType != domain.EntityJob || entry.EntityID != "j3" {
		t.Errorf("review entry = %+v, want job j3", entry)
	}
	if entry.Priority != domain.PriorityHigh {
		t.Errorf("Priority = %q, want high for ghost score %d", entry.Priority, job.GhostScore)
	}
	if entry.Status != domain.ReviewStatusPending {
		t.Errorf("Status = %q, want pending", entry.Status)
	}
}

func TestScoreJob_BackfillsFromText(t *testing.T) {
	st := newFakeStore()
	eng := engine.New(st, engine.Config{})

	job := &domain.Job{
		ID:          "j4",
		CompanyName: "Acme",
		Title:       "Backend Engineer",
		URL:         "https://acme.com/jobs/4",
		PostedText:  "3 days ago",
		SalaryText:  "$100,000 - $120,000",
	}
	if err := eng.ScoreJob(context.Background(), job, nil); err != nil {
		t.Fatalf("ScoreJob: %v", err)
	}

	if job.PostedDate == nil {
		t.Error("PostedDate should be backfilled from the display string")
	}
	if job.SalaryMin == nil || *job.SalaryMin != 100000 {
		t.Errorf("SalaryMin = %v, want 100000", job.SalaryMin)
	}
	if job.SalaryMax == nil || *job.SalaryMax != 120000 {
		t.Errorf("SalaryMax = %v, want 120000", job.SalaryMax)
	}
}

func TestScoreJob_ReputationCacheDedupes(t *testing.T) {
	st := newFakeStore()
	st.companies["c1"] = &domain.Company{ID: "c1", Name: "Acme", ReputationScore: 0.8}
	eng := engine.New(st, engine.Config{})

	cache := engine.NewReputationCache()
	for i := 0; i < 3; i++ {
		job := freshJob(fmt.Sprintf("j%d", i))
		job.CompanyID = strp("c1")
		if err := eng.ScoreJob(context.Background(), job, cache); err != nil {
			t.Fatalf("ScoreJob: %v", err)
		}
	}

	if st.companyLookups != 1 {
		t.Errorf("company lookups = %d, want 1 with a shared cache", st.companyLookups)
	}
}

func TestScoreJob_CompanyLookupFailureDegrades(t *testing.T) {
	st := newFakeStore()
	st.failCompanyLookup = true
	eng := engine.New(st, engine.Config{})

	job := freshJob("j5")
	job.CompanyID = strp("missing")
	if err := eng.ScoreJob(context.Background(), job, nil); err != nil {
		t.Fatalf("ScoreJob should survive a failed reputation lookup: %v", err)
	}
	if job.HealthScore <= 0 {
		t.Errorf("HealthScore = %v, want scored with neutral reputation", job.HealthScore)
	}
}

func TestScoreJobBatch_FailureIsolation(t *testing.T) {
	st := newFakeStore()
	st.failUpdateFor["j-bad"] = true
	eng := engine.New(st, engine.Config{})

	jobs := []*domain.Job{freshJob("j-a"), freshJob("j-bad"), freshJob("j-b")}
	scored, summary := eng.ScoreJobBatch(context.Background(), jobs, engine.NewReputationCache())

	if summary.Processed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want processed=2 failed=1", summary)
	}
	if len(scored) != 2 {
		t.Errorf("scored %d jobs, want 2", len(scored))
	}
	for _, job := range scored {
		if job.ID == "j-bad" {
			t.Error("failed job should not be in the scored slice")
		}
	}
}

func TestScoreCompany_LowReputationReview(t *testing.T) {
	st := newFakeStore()
	// Every job ghosted or expired, no fills, heavy reposting: reputation
	// lands well under the high-priority threshold.
	avgReposts := 10.0
	tracked, responses := 50, 2
	st.aggregates["c1"] = &domain.CompanyAggregates{
		TotalJobs:           40,
		FilledJobs:          0,
		ExpiredJobs:         40,
		GhostedJobs:         40,
		AvgRepostCount:      &avgReposts,
		TrackedApplications: &tracked,
		ResponseCount:       &responses,
	}
	eng := engine.New(st, engine.Config{})

	company := &domain.Company{ID: "c1", Name: "Shady Staffing"}
	if err := eng.ScoreCompany(context.Background(), company); err != nil {
		t.Fatalf("ScoreCompany: %v", err)
	}

	if company.ReputationScore >= 0.25 {
		t.Fatalf("ReputationScore = %v, want below review threshold", company.ReputationScore)
	}
	if company.CredibilityGrade == "" {
		t.Error("CredibilityGrade should be set")
	}
	if company.ScoreUpdatedAt.IsZero() {
		t.Error("ScoreUpdatedAt should be set")
	}
	if len(st.upserted) != 1 {
		t.Fatalf("expected 1 company upsert, got %d", len(st.upserted))
	}
	if len(st.reviews) != 1 {
		t.Fatalf("expected 1 review entry, got %d", len(st.reviews))
	}
	entry := st.reviews[0]
	if entry.EntityType != domain.EntityCompany || entry.EntityID != "c1" {
		t.Errorf("review entry = %+v, want company c1", entry)
	}
	if entry.Priority != domain.PriorityHigh {
		t.Errorf("Priority = %q, want high for reputation %v", entry.Priority, company.ReputationScore)
	}
}

func TestScoreCompany_HealthyCompanyNotFlagged(t *testing.T) {
	st := newFakeStore()
	st.aggregates["c2"] = &domain.CompanyAggregates{
		TotalJobs:  20,
		FilledJobs: 16,
	}
	eng := engine.New(st, engine.Config{})

	company := &domain.Company{ID: "c2", Name: "Acme"}
	if err := eng.ScoreCompany(context.Background(), company); err != nil {
		t.Fatalf("ScoreCompany: %v", err)
	}
	if len(st.reviews) != 0 {
		t.Errorf("healthy company should not be queued for review: %+v", st.reviews)
	}
}

func TestRecalculateAll(t *testing.T) {
	st := newFakeStore()
	st.activeJobs = []*domain.Job{freshJob("j1"), freshJob("j2")}
	st.companyList = []*domain.Company{{ID: "c1", Name: "Acme"}}
	eng := engine.New(st, engine.Config{})

	summary, err := eng.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}

	if summary.Processed != 3 {
		t.Errorf("Processed = %d, want 2 jobs + 1 company = 3", summary.Processed)
	}
	if summary.Failed != 0 {
		t.Errorf("Failed = %d, want 0", summary.Failed)
	}
	if len(st.updatedJobs) != 2 {
		t.Errorf("job score writes = %d, want 2", len(st.updatedJobs))
	}
	if len(st.upserted) != 1 {
		t.Errorf("company upserts = %d, want 1", len(st.upserted))
	}
}

// A corpus larger than one page must be scored exactly once per job, with no
// job skipped or repeated across page boundaries.
func TestRecalculateAll_MultiPage(t *testing.T) {
	st := newFakeStore()
	for i := 0; i < 250; i++ {
		st.activeJobs = append(st.activeJobs, freshJob(fmt.Sprintf("j%03d", i)))
	}
	eng := engine.New(st, engine.Config{})

	summary, err := eng.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}

	if summary.Processed != 250 {
		t.Errorf("Processed = %d, want 250", summary.Processed)
	}
	seen := make(map[string]int)
	for _, job := range st.updatedJobs {
		seen[job.ID]++
	}
	if len(seen) != 250 {
		t.Errorf("distinct jobs scored = %d, want 250", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("job %s scored %d times, want exactly once", id, n)
		}
	}
}
