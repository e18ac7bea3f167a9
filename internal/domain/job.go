package domain

import "time"

// Job represents a job posting as seen by the scoring engine. The ingestion
// pipeline owns the record; the engine reads the listing fields and writes
// the computed score fields back.
type Job struct {
	ID          string  `json:"id"`
	CompanyID   *string `json:"company_id"` // nil until the company is resolved
	CompanyName string  `json:"company_name"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`

	PostedDate *time.Time `json:"posted_date"`
	PostedText string     `json:"posted_text,omitempty"` // raw relative date from ingestion, e.g. "3 days ago"

	SalaryMin  *float64 `json:"salary_min"`
	SalaryMax  *float64 `json:"salary_max"`
	SalaryText string   `json:"salary_text,omitempty"` // raw display string, e.g. "$120k - $150k"
	Currency   string   `json:"currency"`

	RepostCount     int     `json:"repost_count"` // >= 1, 1 for originals
	DescriptionHash *string `json:"description_hash"`
	IsActive        bool    `json:"is_active"`

	// Computed outputs, written by the engine.
	HealthScore      float64   `json:"health_score"`
	QualityScore     float64   `json:"quality_score"`
	GhostScore       int       `json:"ghost_score"`
	GhostFlags       []string  `json:"ghost_flags"`
	QualityUpdatedAt time.Time `json:"quality_updated_at"`
}

// JobCandidate is the narrow projection of an active job used for repost
// comparison. The store returns a bounded window of these per company.
type JobCandidate struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DescriptionHash string `json:"description_hash"`
	RepostCount     int    `json:"repost_count"`
}

// JobLineage maps a job to its canonical (original) posting. Originals point
// at themselves with instance number 1; reposts point at the matched job.
type JobLineage struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	CanonicalJobID string    `json:"canonical_job_id"`
	InstanceNumber int       `json:"instance_number"`
	CreatedAt      time.Time `json:"created_at"`
}
