package domain

import "time"

// HiringTrend classifies a company's recent posting volume against the
// preceding window.
type HiringTrend string

const (
	TrendGrowing   HiringTrend = "growing"
	TrendStable    HiringTrend = "stable"
	TrendDeclining HiringTrend = "declining"
)

// Company is the employer record referenced by many jobs. Companies are
// created on first sight of a normalized name and never deleted, only
// flagged.
type Company struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"` // dedup key
	IsVerified     bool   `json:"is_verified"`
	IsBlacklisted  bool   `json:"is_blacklisted"`
	EmployeeCount  *int   `json:"employee_count"`

	ReputationScore  float64        `json:"reputation_score"`
	CredibilityScore float64        `json:"credibility_score"`
	CredibilityGrade string         `json:"credibility_grade"`
	Metrics          CompanyMetrics `json:"metrics"`
	ScoreUpdatedAt   time.Time      `json:"score_updated_at"`
}

// CompanyMetrics is the full per-company metrics bundle written alongside
// the credibility score.
type CompanyMetrics struct {
	TotalJobs            int         `json:"total_jobs"`
	FilledJobs           int         `json:"filled_jobs"`
	ExpiredJobs          int         `json:"expired_jobs"`
	GhostedJobs          int         `json:"ghosted_jobs"`
	FillRate             float64     `json:"fill_rate"`
	TrackedApplications  int         `json:"tracked_applications"` // 0 means no outcome data, rates below are unmeasured
	ResponseRate         float64     `json:"response_rate"`
	InterviewRate        float64     `json:"interview_rate"`
	OfferRate            float64     `json:"offer_rate"`
	RepostRate           float64     `json:"repost_rate"`
	GhostRatio           float64     `json:"ghost_ratio"`
	AvgTimeToFillDays    *float64    `json:"avg_time_to_fill_days"`
	MedianTimeToFillDays *float64    `json:"median_time_to_fill_days"`
	EvergreenJobCount    int         `json:"evergreen_job_count"`
	HiringTrend          HiringTrend `json:"hiring_trend"`
	RedFlags             []string    `json:"red_flags"`
}

// CompanyAggregates carries the pre-aggregated counts the credibility
// reducer consumes. Every field that can be unknown is a pointer so that
// consumers must handle the absent case explicitly.
type CompanyAggregates struct {
	TotalJobs   int `json:"total_jobs"`
	FilledJobs  int `json:"filled_jobs"`
	ExpiredJobs int `json:"expired_jobs"`
	GhostedJobs int `json:"ghosted_jobs"`

	// Lineage counts.
	RepostedJobs   *int     `json:"reposted_jobs"` // jobs with repost_count > 1
	AvgRepostCount *float64 `json:"avg_repost_count"`

	// Tracked application outcomes.
	TrackedApplications *int `json:"tracked_applications"`
	ResponseCount       *int `json:"response_count"`
	InterviewCount      *int `json:"interview_count"`
	OfferCount          *int `json:"offer_count"`

	AvgTimeToFillDays    *float64 `json:"avg_time_to_fill_days"`
	MedianTimeToFillDays *float64 `json:"median_time_to_fill_days"`

	EvergreenJobCount int `json:"evergreen_job_count"`

	// Job creation counts for the trailing 30-day window and the 30 days
	// before that.
	RecentJobCount   int `json:"recent_job_count"`
	PreviousJobCount int `json:"previous_job_count"`
}

// GhostContext holds company-level counts consumed by the context-aware
// ghost detector.
type GhostContext struct {
	OpenRoleCount        int  `json:"open_role_count"`
	SameTitleActiveCount int  `json:"same_title_active_count"`
	EmployeeCount        *int `json:"employee_count"`
}
