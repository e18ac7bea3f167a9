package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/jobiq/quality-engine/internal/domain"
)

// Postgres implements Store against PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection and ensures the engine's tables exist.
func NewPostgres(connStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.ensureTables(); err != nil {
		return nil, fmt.Errorf("ensure tables: %w", err)
	}

	return p, nil
}

func (p *Postgres) ensureTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			company_id TEXT,
			company_name TEXT NOT NULL DEFAULT '',
			company_normalized TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			description TEXT,
			url TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			posted_date TIMESTAMP WITH TIME ZONE,
			posted_text TEXT NOT NULL DEFAULT '',
			salary_min DOUBLE PRECISION,
			salary_max DOUBLE PRECISION,
			salary_text TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL DEFAULT 'USD',
			repost_count INTEGER NOT NULL DEFAULT 1,
			description_hash TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_evergreen BOOLEAN NOT NULL DEFAULT FALSE,
			filled_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			health_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			ghost_score INTEGER NOT NULL DEFAULT 0,
			ghost_flags TEXT[] NOT NULL DEFAULT '{}',
			quality_updated_at TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_company_normalized_idx ON jobs (company_normalized) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			is_blacklisted BOOLEAN NOT NULL DEFAULT FALSE,
			employee_count INTEGER,
			reputation_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			credibility_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
			credibility_grade TEXT NOT NULL DEFAULT '',
			total_jobs INTEGER NOT NULL DEFAULT 0,
			filled_jobs INTEGER NOT NULL DEFAULT 0,
			expired_jobs INTEGER NOT NULL DEFAULT 0,
			ghosted_jobs INTEGER NOT NULL DEFAULT 0,
			fill_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			tracked_applications INTEGER NOT NULL DEFAULT 0,
			response_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			interview_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			offer_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			repost_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			ghost_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
			avg_time_to_fill_days DOUBLE PRECISION,
			median_time_to_fill_days DOUBLE PRECISION,
			evergreen_job_count INTEGER NOT NULL DEFAULT 0,
			hiring_trend TEXT NOT NULL DEFAULT 'stable',
			red_flags TEXT[] NOT NULL DEFAULT '{}',
			score_updated_at TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE TABLE IF NOT EXISTS job_lineage (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL UNIQUE,
			canonical_job_id TEXT NOT NULL,
			instance_number INTEGER NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS applications (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			company_id TEXT NOT NULL,
			responded BOOLEAN NOT NULL DEFAULT FALSE,
			interviewed BOOLEAN NOT NULL DEFAULT FALSE,
			offered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS review_queue (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS review_queue_pending_uq
			ON review_queue (entity_type, entity_id) WHERE status = 'pending'`,
	}

	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const jobColumns = `id, company_id, company_name, title, description, url, source,
	posted_date, posted_text, salary_min, salary_max, salary_text, currency,
	repost_count, description_hash, is_active,
	health_score, quality_score, ghost_score, ghost_flags, quality_updated_at`

func scanJob(row interface{ Scan(...any) error }) (*domain.Job, error) {
	var (
		job       domain.Job
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.CompanyID, &job.CompanyName, &job.Title, &job.Description,
		&job.URL, &job.Source, &job.PostedDate, &job.PostedText,
		&job.SalaryMin, &job.SalaryMax, &job.SalaryText, &job.Currency,
		&job.RepostCount, &job.DescriptionHash, &job.IsActive,
		&job.HealthScore, &job.QualityScore, &job.GhostScore,
		pq.Array(&job.GhostFlags), &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		job.QualityUpdatedAt = updatedAt.Time
	}
	return &job, nil
}

// JobByID loads one job.
func (p *Postgres) JobByID(ctx context.Context, id string) (*domain.Job, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("select job %s: %w", id, err)
	}
	return job, nil
}

// ActiveJobs pages through active jobs. The ordering column must be
// immutable: scoring backfills posted_date mid-pass, and reordering between
// pages would make offset pagination skip rows.
func (p *Postgres) ActiveJobs(ctx context.Context, limit, offset int) ([]*domain.Job, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE is_active
		 ORDER BY id
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select active jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ActiveJobsByCompany returns the bounded candidate window for repost
// comparison: recent active jobs whose normalized company name contains the
// given key, excluding the identical URL.
func (p *Postgres) ActiveJobsByCompany(ctx context.Context, normalizedCompany, excludeURL string, limit int) ([]domain.JobCandidate, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(description_hash, ''), repost_count
		 FROM jobs
		 WHERE is_active
		   AND company_normalized LIKE '%' || $1 || '%'
		   AND url <> $2
		 ORDER BY posted_date DESC NULLS LAST
		 LIMIT $3`, normalizedCompany, excludeURL, limit)
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.JobCandidate
	for rows.Next() {
		var c domain.JobCandidate
		if err := rows.Scan(&c.ID, &c.Title, &c.DescriptionHash, &c.RepostCount); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CompanyByID loads one company with its score fields.
func (p *Postgres) CompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, name, normalized_name, is_verified, is_blacklisted, employee_count,
		        reputation_score, credibility_score, credibility_grade
		 FROM companies WHERE id = $1`, id)

	var c domain.Company
	err := row.Scan(&c.ID, &c.Name, &c.NormalizedName, &c.IsVerified, &c.IsBlacklisted,
		&c.EmployeeCount, &c.ReputationScore, &c.CredibilityScore, &c.CredibilityGrade)
	if err != nil {
		return nil, fmt.Errorf("select company %s: %w", id, err)
	}
	return &c, nil
}

// Companies lists all companies for the periodic full pass.
func (p *Postgres) Companies(ctx context.Context) ([]*domain.Company, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, normalized_name, is_verified, is_blacklisted, employee_count,
		        reputation_score, credibility_score, credibility_grade
		 FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select companies: %w", err)
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		var c domain.Company
		err := rows.Scan(&c.ID, &c.Name, &c.NormalizedName, &c.IsVerified, &c.IsBlacklisted,
			&c.EmployeeCount, &c.ReputationScore, &c.CredibilityScore, &c.CredibilityGrade)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// CompanyAggregates computes the pre-aggregated counts the credibility
// reducer consumes. The counting lives here, behind the port, so the
// reducer itself never aggregates.
func (p *Postgres) CompanyAggregates(ctx context.Context, companyID string) (*domain.CompanyAggregates, error) {
	agg := &domain.CompanyAggregates{}

	row := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'filled'),
		        COUNT(*) FILTER (WHERE status = 'expired'),
		        COUNT(*) FILTER (WHERE status = 'ghosted'),
		        COUNT(*) FILTER (WHERE repost_count > 1),
		        AVG(repost_count),
		        AVG(EXTRACT(EPOCH FROM filled_at - posted_date) / 86400)
		            FILTER (WHERE filled_at IS NOT NULL AND posted_date IS NOT NULL),
		        PERCENTILE_CONT(0.5) WITHIN GROUP (
		            ORDER BY EXTRACT(EPOCH FROM filled_at - posted_date) / 86400)
		            FILTER (WHERE filled_at IS NOT NULL AND posted_date IS NOT NULL),
		        COUNT(*) FILTER (WHERE is_evergreen),
		        COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days'),
		        COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '60 days'
		                           AND created_at < NOW() - INTERVAL '30 days')
		 FROM jobs WHERE company_id = $1`, companyID)

	err := row.Scan(&agg.TotalJobs, &agg.FilledJobs, &agg.ExpiredJobs, &agg.GhostedJobs,
		&agg.RepostedJobs, &agg.AvgRepostCount,
		&agg.AvgTimeToFillDays, &agg.MedianTimeToFillDays,
		&agg.EvergreenJobCount, &agg.RecentJobCount, &agg.PreviousJobCount)
	if err != nil {
		return nil, fmt.Errorf("aggregate jobs for %s: %w", companyID, err)
	}

	row = p.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE responded),
		        COUNT(*) FILTER (WHERE interviewed),
		        COUNT(*) FILTER (WHERE offered)
		 FROM applications WHERE company_id = $1`, companyID)

	var tracked, responses, interviews, offers int
	if err := row.Scan(&tracked, &responses, &interviews, &offers); err != nil {
		return nil, fmt.Errorf("aggregate applications for %s: %w", companyID, err)
	}
	if tracked > 0 {
		agg.TrackedApplications = &tracked
		agg.ResponseCount = &responses
		agg.InterviewCount = &interviews
		agg.OfferCount = &offers
	}

	return agg, nil
}

// GhostContext returns the company-level counts consumed by the
// context-aware ghost detector.
func (p *Postgres) GhostContext(ctx context.Context, companyID, title string) (*domain.GhostContext, error) {
	gc := &domain.GhostContext{}

	row := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE is_active),
		        COUNT(*) FILTER (WHERE is_active AND title = $2)
		 FROM jobs WHERE company_id = $1`, companyID, title)
	if err := row.Scan(&gc.OpenRoleCount, &gc.SameTitleActiveCount); err != nil {
		return nil, fmt.Errorf("ghost context for %s: %w", companyID, err)
	}

	row = p.db.QueryRowContext(ctx,
		`SELECT employee_count FROM companies WHERE id = $1`, companyID)
	if err := row.Scan(&gc.EmployeeCount); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("company employee count for %s: %w", companyID, err)
	}

	return gc, nil
}

// UpdateJobScores writes the computed score fields back on one job.
func (p *Postgres) UpdateJobScores(ctx context.Context, job *domain.Job) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE jobs SET
			health_score = $2,
			quality_score = $3,
			ghost_score = $4,
			ghost_flags = $5,
			description_hash = $6,
			repost_count = $7,
			posted_date = COALESCE($8, posted_date),
			salary_min = COALESCE($9, salary_min),
			salary_max = COALESCE($10, salary_max),
			quality_updated_at = $11
		 WHERE id = $1`,
		job.ID, job.HealthScore, job.QualityScore, job.GhostScore,
		pq.Array(job.GhostFlags), job.DescriptionHash, job.RepostCount,
		job.PostedDate, job.SalaryMin, job.SalaryMax, job.QualityUpdatedAt)
	if err != nil {
		return fmt.Errorf("update job scores %s: %w", job.ID, err)
	}
	return nil
}

// UpsertCompanyScores writes the company score bundle, inserting on first
// sight and updating after.
func (p *Postgres) UpsertCompanyScores(ctx context.Context, c *domain.Company) error {
	m := c.Metrics
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO companies (
			id, name, normalized_name, is_verified, is_blacklisted, employee_count,
			reputation_score, credibility_score, credibility_grade,
			total_jobs, filled_jobs, expired_jobs, ghosted_jobs,
			fill_rate, response_rate, interview_rate, offer_rate,
			repost_rate, ghost_ratio, avg_time_to_fill_days, median_time_to_fill_days,
			evergreen_job_count, hiring_trend, red_flags, score_updated_at,
			tracked_applications
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25,
			$26
		)
		ON CONFLICT (id) DO UPDATE SET
			reputation_score = EXCLUDED.reputation_score,
			credibility_score = EXCLUDED.credibility_score,
			credibility_grade = EXCLUDED.credibility_grade,
			total_jobs = EXCLUDED.total_jobs,
			filled_jobs = EXCLUDED.filled_jobs,
			expired_jobs = EXCLUDED.expired_jobs,
			ghosted_jobs = EXCLUDED.ghosted_jobs,
			fill_rate = EXCLUDED.fill_rate,
			response_rate = EXCLUDED.response_rate,
			interview_rate = EXCLUDED.interview_rate,
			offer_rate = EXCLUDED.offer_rate,
			repost_rate = EXCLUDED.repost_rate,
			ghost_ratio = EXCLUDED.ghost_ratio,
			avg_time_to_fill_days = EXCLUDED.avg_time_to_fill_days,
			median_time_to_fill_days = EXCLUDED.median_time_to_fill_days,
			evergreen_job_count = EXCLUDED.evergreen_job_count,
			hiring_trend = EXCLUDED.hiring_trend,
			red_flags = EXCLUDED.red_flags,
			score_updated_at = EXCLUDED.score_updated_at,
			tracked_applications = EXCLUDED.tracked_applications`,
		c.ID, c.Name, c.NormalizedName, c.IsVerified, c.IsBlacklisted, c.EmployeeCount,
		c.ReputationScore, c.CredibilityScore, c.CredibilityGrade,
		m.TotalJobs, m.FilledJobs, m.ExpiredJobs, m.GhostedJobs,
		m.FillRate, m.ResponseRate, m.InterviewRate, m.OfferRate,
		m.RepostRate, m.GhostRatio, m.AvgTimeToFillDays, m.MedianTimeToFillDays,
		m.EvergreenJobCount, string(m.HiringTrend), pq.Array(m.RedFlags), c.ScoreUpdatedAt,
		m.TrackedApplications)
	if err != nil {
		return fmt.Errorf("upsert company scores %s: %w", c.ID, err)
	}
	return nil
}

// RecordLineage writes the job's lineage row, replacing a previous row for
// the same job so instance numbers never move backwards.
func (p *Postgres) RecordLineage(ctx context.Context, l *domain.JobLineage) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO job_lineage (id, job_id, canonical_job_id, instance_number)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (job_id) DO UPDATE SET
			canonical_job_id = EXCLUDED.canonical_job_id,
			instance_number = GREATEST(job_lineage.instance_number, EXCLUDED.instance_number)`,
		l.ID, l.JobID, l.CanonicalJobID, l.InstanceNumber)
	if err != nil {
		return fmt.Errorf("record lineage for %s: %w", l.JobID, err)
	}
	return nil
}

// EnqueueReview appends a review entry. A duplicate while a pending entry
// exists for the same entity is a benign no-op.
func (p *Postgres) EnqueueReview(ctx context.Context, e *domain.ReviewQueueEntry) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO review_queue (id, entity_type, entity_id, reason, priority, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending')
		 ON CONFLICT (entity_type, entity_id) WHERE status = 'pending' DO NOTHING`,
		e.ID, string(e.EntityType), e.EntityID, e.Reason, e.Priority)
	if err != nil {
		return fmt.Errorf("enqueue review for %s %s: %w", e.EntityType, e.EntityID, err)
	}
	return nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}
