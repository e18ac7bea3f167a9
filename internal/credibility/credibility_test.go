package credibility_test

import (
	"strings"
	"testing"

	"github.com/jobiq/quality-engine/internal/credibility"
	"github.com/jobiq/quality-engine/internal/domain"
)

func intp(v int) *int        { return &v }
func f64(v float64) *float64 { return &v }

// A company the platform knows nothing about lands on the neutral defaults,
// which blend to exactly 0.59.
func TestCredibilityScore_AllDefaults(t *testing.T) {
	if got := credibility.CredibilityScore(domain.CompanyAggregates{}); got != 0.59 {
		t.Errorf("CredibilityScore(empty) = %v, want 0.59", got)
	}
}

func TestCredibilityScore_KnownInputs(t *testing.T) {
	agg := domain.CompanyAggregates{
		TotalJobs:           100,
		FilledJobs:          80,
		GhostedJobs:         4,
		RepostedJobs:        intp(10),
		TrackedApplications: intp(50),
		ResponseCount:       intp(45),
		AvgTimeToFillDays:   f64(25),
	}
	if got := credibility.CredibilityScore(agg); got != 0.9 {
		t.Errorf("CredibilityScore = %v, want 0.9", got)
	}
}

func TestReputationScore(t *testing.T) {
	if got := credibility.ReputationScore(domain.CompanyAggregates{}); got != 0.5 {
		t.Errorf("ReputationScore with no jobs = %v, want neutral 0.5", got)
	}

	agg := domain.CompanyAggregates{
		TotalJobs:           100,
		FilledJobs:          80,
		ExpiredJobs:         10,
		GhostedJobs:         4,
		TrackedApplications: intp(50),
		ResponseCount:       intp(40),
	}
	if got := credibility.ReputationScore(agg); got != 0.88 {
		t.Errorf("ReputationScore = %v, want 0.88", got)
	}

	// Doubling the average repost count halves the repost factor.
	agg.AvgRepostCount = f64(2)
	if got := credibility.ReputationScore(agg); got != 0.83 {
		t.Errorf("ReputationScore with avg 2 reposts = %v, want 0.83", got)
	}
}

func TestTimeToFillScore(t *testing.T) {
	cases := []struct {
		days *float64
		want float64
	}{
		{nil, 0.5},
		{f64(10), 1.0},
		{f64(30), 1.0},
		{f64(45), 0.75},
		{f64(60), 0.5},
		{f64(75), 0.25},
		{f64(90), 0.0},
		{f64(120), 0.0},
	}
	for _, c := range cases {
		if got := credibility.TimeToFillScore(c.days); got != c.want {
			t.Errorf("TimeToFillScore(%v) = %v, want %v", c.days, got, c.want)
		}
	}
}

func TestScoreToGrade(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{1.0, "A+"},
		{0.97, "A+"},
		{0.95, "A"},
		{0.93, "A"},
		{0.91, "A-"},
		{0.90, "A-"},
		{0.88, "B+"},
		{0.85, "B"},
		{0.81, "B-"},
		{0.78, "C+"},
		{0.75, "C"},
		{0.71, "C-"},
		{0.65, "D"},
		{0.60, "D"},
		{0.59, "F"},
		{0.0, "F"},
	}
	for _, c := range cases {
		if got := credibility.ScoreToGrade(c.score); got != c.want {
			t.Errorf("ScoreToGrade(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestHiringTrend(t *testing.T) {
	cases := []struct {
		recent, previous int
		want             domain.HiringTrend
	}{
		{0, 0, domain.TrendStable},
		{5, 0, domain.TrendGrowing},
		{0, 5, domain.TrendDeclining},
		{15, 10, domain.TrendGrowing},
		{12, 10, domain.TrendGrowing},
		{11, 10, domain.TrendStable},
		{9, 10, domain.TrendStable},
		{8, 10, domain.TrendDeclining},
		{5, 10, domain.TrendDeclining},
	}
	for _, c := range cases {
		if got := credibility.HiringTrend(c.recent, c.previous); got != c.want {
			t.Errorf("HiringTrend(%d, %d) = %q, want %q", c.recent, c.previous, got, c.want)
		}
	}
}

func TestRedFlags(t *testing.T) {
	clean := domain.CompanyMetrics{
		TotalJobs:           50,
		TrackedApplications: 20,
		ResponseRate:        0.8,
		RepostRate:          0.05,
		GhostRatio:          0.02,
	}
	if flags := credibility.RedFlags(clean); len(flags) != 0 {
		t.Errorf("healthy metrics produced flags: %v", flags)
	}

	bad := domain.CompanyMetrics{
		TotalJobs:           20,
		TrackedApplications: 30,
		ResponseRate:        0.1,
		AvgTimeToFillDays:   f64(75),
		RepostRate:          0.4,
		GhostRatio:          0.5,
		EvergreenJobCount:   3,
	}
	flags := credibility.RedFlags(bad)
	if len(flags) != 5 {
		t.Fatalf("expected 5 flags, got %d: %v", len(flags), flags)
	}
	for _, want := range []string{"response rate", "Slow to fill", "repost rate", "ghost jobs", "evergreen"} {
		if !containsSubstring(flags, want) {
			t.Errorf("flags %v missing one mentioning %q", flags, want)
		}
	}
}

// The low-response check distinguishes "no outcome data" from "measured
// zero": absent tracking suppresses the flag, while tracked applications
// with no responses at all fire it.
func TestRedFlags_ResponseRatePresence(t *testing.T) {
	untracked := domain.CompanyMetrics{TotalJobs: 10, ResponseRate: 0}
	if flags := credibility.RedFlags(untracked); containsSubstring(flags, "response rate") {
		t.Errorf("no tracked applications should not flag: %v", flags)
	}

	silent := domain.CompanyMetrics{TotalJobs: 10, TrackedApplications: 50, ResponseRate: 0}
	if flags := credibility.RedFlags(silent); !containsSubstring(flags, "response rate") {
		t.Errorf("measured 0%% response rate over tracked applications should flag: %v", flags)
	}
}

// Full reduction over a company that never responds: the red flag must
// survive the metrics build, not just the direct RedFlags call.
func TestEvaluate_ZeroResponseRateFlagged(t *testing.T) {
	res := credibility.Evaluate(domain.CompanyAggregates{
		TotalJobs:           20,
		FilledJobs:          10,
		TrackedApplications: intp(50),
		ResponseCount:       intp(0),
	})
	if res.Metrics.TrackedApplications != 50 {
		t.Errorf("TrackedApplications = %d, want 50", res.Metrics.TrackedApplications)
	}
	if !containsSubstring(res.Metrics.RedFlags, "response rate") {
		t.Errorf("zero responses over 50 tracked applications should flag: %v", res.Metrics.RedFlags)
	}
}

func TestEvaluate(t *testing.T) {
	agg := domain.CompanyAggregates{
		TotalJobs:           100,
		FilledJobs:          80,
		GhostedJobs:         3,
		RepostedJobs:        intp(10),
		TrackedApplications: intp(50),
		ResponseCount:       intp(45),
		AvgTimeToFillDays:   f64(25),
		RecentJobCount:      15,
		PreviousJobCount:    10,
	}
	res := credibility.Evaluate(agg)

	if res.CredibilityScore != 0.9 {
		t.Errorf("CredibilityScore = %v, want 0.9", res.CredibilityScore)
	}
	if res.CredibilityGrade != "A-" {
		t.Errorf("CredibilityGrade = %q, want A-", res.CredibilityGrade)
	}
	if res.Metrics.FillRate != 0.8 {
		t.Errorf("FillRate = %v, want 0.8", res.Metrics.FillRate)
	}
	if res.Metrics.ResponseRate != 0.9 {
		t.Errorf("ResponseRate = %v, want 0.9", res.Metrics.ResponseRate)
	}
	if res.Metrics.RepostRate != 0.1 {
		t.Errorf("RepostRate = %v, want 0.1", res.Metrics.RepostRate)
	}
	if res.Metrics.HiringTrend != domain.TrendGrowing {
		t.Errorf("HiringTrend = %q, want growing", res.Metrics.HiringTrend)
	}
	if len(res.Metrics.RedFlags) != 0 {
		t.Errorf("unexpected red flags: %v", res.Metrics.RedFlags)
	}
}

func containsSubstring(flags []string, sub string) bool {
	for _, f := range flags {
		if strings.Contains(f, sub) {
			return true
		}
	}
	return false
}
