// Package credibility reduces pre-aggregated per-company counts to a
// credibility score, letter grade, metrics bundle and red flags.
package credibility

import (
	"fmt"
	"math"

	"github.com/jobiq/quality-engine/internal/domain"
)

// Credibility score weights.
const (
	weightFillRate     = 0.30
	weightResponseRate = 0.25
	weightTimeToFill   = 0.20
	weightRepostRate   = 0.15
	weightGhostRatio   = 0.10
)

// Neutral defaults for missing inputs.
const (
	defaultFillRate     = 0.5
	defaultResponseRate = 0.5
	defaultRepostRate   = 0.15
	defaultGhostRatio   = 0.1
)

// Legacy reputation score weights, retained for backward product needs.
const (
	repWeightFillRate     = 0.30
	repWeightExpiredRate  = 0.20
	repWeightGhostedRate  = 0.25
	repWeightRepostFactor = 0.10
	repWeightResponseRate = 0.15
)

// Red flag thresholds.
const (
	lowResponseRate    = 0.20
	slowTimeToFillDays = 60.0
	highRepostRate     = 0.30
	ghostJobFlagCount  = 3
	evergreenFlagCount = 2
)

// Review queue thresholds for low-reputation companies.
const (
	ReviewThreshold       = 0.25
	HighPriorityThreshold = 0.15
)

// Result is the full reduction for one company.
type Result struct {
	CredibilityScore float64
	CredibilityGrade string
	ReputationScore  float64
	Metrics          domain.CompanyMetrics
}

// Evaluate reduces the aggregates to scores, grade, trend and red flags. It
// performs no aggregation itself; every missing input falls back to an
// explicit neutral default.
func Evaluate(agg domain.CompanyAggregates) Result {
	m := buildMetrics(agg)

	m.RedFlags = RedFlags(m)

	cred := CredibilityScore(agg)
	return Result{
		CredibilityScore: cred,
		CredibilityGrade: ScoreToGrade(cred),
		ReputationScore:  ReputationScore(agg),
		Metrics:          m,
	}
}

func buildMetrics(agg domain.CompanyAggregates) domain.CompanyMetrics {
	m := domain.CompanyMetrics{
		TotalJobs:            agg.TotalJobs,
		FilledJobs:           agg.FilledJobs,
		ExpiredJobs:          agg.ExpiredJobs,
		GhostedJobs:          agg.GhostedJobs,
		AvgTimeToFillDays:    agg.AvgTimeToFillDays,
		MedianTimeToFillDays: agg.MedianTimeToFillDays,
		EvergreenJobCount:    agg.EvergreenJobCount,
		HiringTrend:          HiringTrend(agg.RecentJobCount, agg.PreviousJobCount),
	}

	if agg.TotalJobs > 0 {
		total := float64(agg.TotalJobs)
		m.FillRate = round2(float64(agg.FilledJobs) / total)
		m.GhostRatio = round2(float64(agg.GhostedJobs) / total)
		if agg.RepostedJobs != nil {
			m.RepostRate = round2(float64(*agg.RepostedJobs) / total)
		}
	}

	if agg.TrackedApplications != nil && *agg.TrackedApplications > 0 {
		m.TrackedApplications = *agg.TrackedApplications
		tracked := float64(*agg.TrackedApplications)
		if agg.ResponseCount != nil {
			m.ResponseRate = round2(float64(*agg.ResponseCount) / tracked)
		}
		if agg.InterviewCount != nil {
			m.InterviewRate = round2(float64(*agg.InterviewCount) / tracked)
		}
		if agg.OfferCount != nil {
			m.OfferRate = round2(float64(*agg.OfferCount) / tracked)
		}
	}

	return m
}

// CredibilityScore is the weighted reduction over fill rate, response rate,
// time-to-fill, repost rate and ghost ratio, clamped to [0,1] and rounded
// to two decimals.
func CredibilityScore(agg domain.CompanyAggregates) float64 {
	fillRate := defaultFillRate
	ghostRatio := defaultGhostRatio
	repostRate := defaultRepostRate
	responseRate := defaultResponseRate

	if agg.TotalJobs > 0 {
		total := float64(agg.TotalJobs)
		fillRate = float64(agg.FilledJobs) / total
		ghostRatio = float64(agg.GhostedJobs) / total
		if agg.RepostedJobs != nil {
			repostRate = float64(*agg.RepostedJobs) / total
		}
	}
	if agg.TrackedApplications != nil && *agg.TrackedApplications > 0 && agg.ResponseCount != nil {
		responseRate = float64(*agg.ResponseCount) / float64(*agg.TrackedApplications)
	}

	score := fillRate*weightFillRate +
		responseRate*weightResponseRate +
		TimeToFillScore(agg.AvgTimeToFillDays)*weightTimeToFill +
		(1-repostRate)*weightRepostRate +
		(1-ghostRatio)*weightGhostRatio

	return round2(clamp01(score))
}

// ReputationScore is the simpler legacy score. A company with no jobs at
// all gets the neutral 0.5.
func ReputationScore(agg domain.CompanyAggregates) float64 {
	if agg.TotalJobs <= 0 {
		return 0.5
	}
	total := float64(agg.TotalJobs)

	fillRate := float64(agg.FilledJobs) / total
	expiredRate := float64(agg.ExpiredJobs) / total
	ghostedRate := float64(agg.GhostedJobs) / total

	avgReposts := 1.0
	if agg.AvgRepostCount != nil && *agg.AvgRepostCount > 1 {
		avgReposts = *agg.AvgRepostCount
	}
	repostFactor := math.Min(1, 1/avgReposts)

	responseRate := defaultResponseRate
	if agg.TrackedApplications != nil && *agg.TrackedApplications > 0 && agg.ResponseCount != nil {
		responseRate = float64(*agg.ResponseCount) / float64(*agg.TrackedApplications)
	}

	score := fillRate*repWeightFillRate +
		(1-expiredRate)*repWeightExpiredRate +
		(1-ghostedRate)*repWeightGhostedRate +
		repostFactor*repWeightRepostFactor +
		responseRate*repWeightResponseRate

	return round2(clamp01(score))
}

// TimeToFillScore maps average days-to-fill onto [0,1]: a month or less is
// ideal, over 90 days scores zero, unknown is neutral.
func TimeToFillScore(avgDays *float64) float64 {
	if avgDays == nil {
		return 0.5
	}
	d := *avgDays
	switch {
	case d <= 30:
		return 1.0
	case d <= 60:
		return 1.0 - (d-30)/30*0.5
	case d <= 90:
		return 0.5 - (d-60)/30*0.5
	default:
		return 0.0
	}
}

// ScoreToGrade maps a score to its letter grade. Band boundaries are
// inclusive on the lower edge.
func ScoreToGrade(score float64) string {
	switch {
	case score >= 0.97:
		return "A+"
	case score >= 0.93:
		return "A"
	case score >= 0.90:
		return "A-"
	case score >= 0.87:
		return "B+"
	case score >= 0.83:
		return "B"
	case score >= 0.80:
		return "B-"
	case score >= 0.77:
		return "C+"
	case score >= 0.73:
		return "C"
	case score >= 0.70:
		return "C-"
	case score >= 0.60:
		return "D"
	default:
		return "F"
	}
}

// HiringTrend classifies recent posting volume against the previous window.
// At least a 20% swing in either direction moves the trend off stable.
func HiringTrend(recent, previous int) domain.HiringTrend {
	switch {
	case recent == 0 && previous == 0:
		return domain.TrendStable
	case previous == 0:
		return domain.TrendGrowing
	case recent == 0:
		return domain.TrendDeclining
	}

	change := float64(recent-previous) / float64(previous) * 100
	switch {
	case change >= 20:
		return domain.TrendGrowing
	case change <= -20:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// RedFlags produces human-readable warnings from the metrics bundle. Absent
// data suppresses the corresponding check rather than flagging.
func RedFlags(m domain.CompanyMetrics) []string {
	var flags []string

	if m.TrackedApplications > 0 && m.ResponseRate < lowResponseRate {
		flags = append(flags, fmt.Sprintf("Low response rate: %.0f%% of tracked applications get a response", m.ResponseRate*100))
	}
	if m.AvgTimeToFillDays != nil && *m.AvgTimeToFillDays > slowTimeToFillDays {
		flags = append(flags, fmt.Sprintf("Slow to fill: %.0f days on average", *m.AvgTimeToFillDays))
	}
	if m.RepostRate > highRepostRate {
		flags = append(flags, fmt.Sprintf("High repost rate: %.0f%% of jobs are re-listings", m.RepostRate*100))
	}
	if ghostJobs := int(math.Round(m.GhostRatio * float64(m.TotalJobs))); ghostJobs > ghostJobFlagCount {
		flags = append(flags, fmt.Sprintf("%d likely ghost jobs", ghostJobs))
	}
	if m.EvergreenJobCount > evergreenFlagCount {
		flags = append(flags, fmt.Sprintf("%d evergreen postings kept perpetually open", m.EvergreenJobCount))
	}

	return flags
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
