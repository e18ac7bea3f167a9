// Package scoring computes per-job health, freshness and blended quality
// scores.
package scoring

import (
	"math"
	"time"

	"github.com/jobiq/quality-engine/internal/analyzer"
	"github.com/jobiq/quality-engine/internal/ghost"
)

// Health score component weights. Configuration data, fixed at build time.
const (
	weightAge         = 0.25
	weightRepost      = 0.20
	weightSalary      = 0.15
	weightDescription = 0.15
	weightApplyLink   = 0.10
	weightReputation  = 0.15
)

// Quality blend weights and the ghost discount.
const (
	qualityHealthWeight     = 0.35
	qualityFreshnessWeight  = 0.35
	qualityReputationWeight = 0.30

	ghostPenaltyPerPoint = 0.10
	ghostPenaltyFloor    = 0.1
)

// DefaultReputation is the neutral company reputation used when none is
// known.
const DefaultReputation = 0.5

// Input carries the job fields the scorer reads. CompanyReputation is nil
// when the owning company is unknown or unscored.
type Input struct {
	PostedDate        *time.Time
	RepostCount       int
	SalaryMin         *float64
	SalaryMax         *float64
	Description       string
	URL               string
	CompanyReputation *float64
}

// AgeScore rates posting freshness, from 1.0 within a week down to 0.1 past
// 90 days. A nil posted date counts as zero days open.
func AgeScore(posted *time.Time, now time.Time) float64 {
	days := ghost.DaysOpen(posted, now)
	switch {
	case days <= 7:
		return 1.0
	case days <= 14:
		return 0.95
	case days <= 21:
		return 0.85
	case days <= 30:
		return 0.70
	case days <= 45:
		return 0.50
	case days <= 60:
		return 0.30
	case days <= 90:
		return 0.15
	default:
		return 0.1
	}
}

// RepostScore penalizes repeat listings of the same job.
func RepostScore(count int) float64 {
	switch {
	case count <= 1:
		return 1.0
	case count == 2:
		return 0.7
	case count == 3:
		return 0.4
	default:
		return 0.1
	}
}

// SalarySanityScore rates the plausibility of the advertised range by its
// relative spread. Absent bounds get neutral defaults rather than errors.
func SalarySanityScore(min, max *float64) float64 {
	if min == nil && max == nil {
		return 0.5
	}
	if min == nil || max == nil {
		return 0.7
	}

	lo, hi := *min, *max
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo <= 0 {
		return 0.7
	}

	spread := (hi - lo) / lo * 100
	switch {
	case spread <= 30:
		return 1.0
	case spread <= 50:
		return 0.9
	case spread <= 100:
		return 0.7
	case spread <= 200:
		return 0.5
	default:
		return 0.3
	}
}

// ApplyLinkScore rates how specific the application link is: a job-specific
// URL scores full, a generic careers root scores half, a missing URL less.
func ApplyLinkScore(url string) float64 {
	if url == "" {
		return 0.3
	}
	if ghost.IsGenericApplyURL(url) {
		return 0.5
	}
	return 1.0
}

// HealthScore combines the six component scores by fixed weights, rounded
// to two decimals.
func HealthScore(in Input, now time.Time) float64 {
	reputation := DefaultReputation
	if in.CompanyReputation != nil {
		reputation = *in.CompanyReputation
	}

	score := AgeScore(in.PostedDate, now)*weightAge +
		RepostScore(in.RepostCount)*weightRepost +
		SalarySanityScore(in.SalaryMin, in.SalaryMax)*weightSalary +
		analyzer.ScoreDescription(in.Description)*weightDescription +
		ApplyLinkScore(in.URL)*weightApplyLink +
		reputation*weightReputation

	return round2(score)
}

// Freshness is the age component alone, used for ranking independent of the
// full health blend.
func Freshness(posted *time.Time, now time.Time) float64 {
	return AgeScore(posted, now)
}

// QualityScore blends health, freshness and company reputation, then
// discounts by the ghost score. Each ghost point removes 10%, floored so
// ghost flags alone never drive quality to exactly zero. Rounded to two
// decimals.
func QualityScore(health, freshness, reputation float64, ghostScore int) float64 {
	penalty := 1 - float64(ghostScore)*ghostPenaltyPerPoint
	if penalty < ghostPenaltyFloor {
		penalty = ghostPenaltyFloor
	}

	blend := health*qualityHealthWeight +
		freshness*qualityFreshnessWeight +
		reputation*qualityReputationWeight

	return round2(blend * penalty)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
