// Package ghost flags posting patterns associated with listings that are
// not actively being filled.
package ghost

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jobiq/quality-engine/internal/domain"
)

// Flag tags carried on a scored job. Weights are additive and the total is
// capped at MaxScore.
const (
	FlagOpen90Days          = "open_90_days"
	FlagReposted4Plus       = "reposted_4_plus"
	FlagNoSalaryCompetitive = "no_salary_competitive"
	FlagShortDescription    = "short_description"
	FlagGenericApply        = "generic_apply"
	FlagTooManyOpenings     = "too_many_openings"
	FlagMultiLocation       = "multi_location"
)

const (
	// MaxScore caps the additive ghost score.
	MaxScore = 10

	staleDays            = 90
	repostThreshold      = 4
	shortDescriptionLen  = 500
	openRoleThreshold    = 20
	sameTitleThreshold   = 10
	smallCompanyEmployee = 100
)

// Input carries the job fields the detector reads.
type Input struct {
	PostedDate  *time.Time
	RepostCount int
	SalaryMin   *float64
	SalaryMax   *float64
	Description string
	URL         string
}

// Result is the ghost score and its contributing flags.
type Result struct {
	Score int
	Flags []string
}

// DaysOpen returns whole days between the posted date and now. A nil posted
// date counts as zero days open, not an error.
func DaysOpen(posted *time.Time, now time.Time) int {
	if posted == nil {
		return 0
	}
	days := int(now.Sub(*posted).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Detect scores a job's ghost indicators from its own fields alone. The
// function is pure: same inputs, same result.
func Detect(in Input, now time.Time) Result {
	var res Result

	if DaysOpen(in.PostedDate, now) > staleDays {
		res.add(FlagOpen90Days, 3)
	}
	if in.RepostCount >= repostThreshold {
		res.add(FlagReposted4Plus, 3)
	}
	if in.SalaryMin == nil && in.SalaryMax == nil &&
		strings.Contains(strings.ToLower(in.Description), "competitive") {
		res.add(FlagNoSalaryCompetitive, 1)
	}
	if utf8.RuneCountInString(in.Description) < shortDescriptionLen {
		res.add(FlagShortDescription, 1)
	}
	if IsGenericApplyURL(in.URL) {
		res.add(FlagGenericApply, 2)
	}

	res.cap()
	return res
}

// DetectWithContext layers company-level indicators on top of Detect using
// externally supplied aggregate counts. A nil context degrades to the base
// detector.
func DetectWithContext(in Input, ctx *domain.GhostContext, now time.Time) Result {
	res := Detect(in, now)
	if ctx == nil {
		return res
	}

	if ctx.OpenRoleCount > openRoleThreshold &&
		ctx.EmployeeCount != nil && *ctx.EmployeeCount < smallCompanyEmployee {
		res.add(FlagTooManyOpenings, 2)
	}
	if ctx.SameTitleActiveCount >= sameTitleThreshold {
		res.add(FlagMultiLocation, 2)
	}

	res.cap()
	return res
}

// IsGenericApplyURL reports whether an application link points at a careers
// or jobs root rather than a specific posting.
func IsGenericApplyURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.Trim(strings.ToLower(u.Path), "/")
	switch path {
	case "", "careers", "jobs", "career", "join", "join-us", "work-with-us",
		"careers/jobs", "careers/search", "jobs/search", "about/careers":
		return true
	}
	return false
}

func (r *Result) add(flag string, weight int) {
	r.Flags = append(r.Flags, flag)
	r.Score += weight
}

func (r *Result) cap() {
	if r.Score > MaxScore {
		r.Score = MaxScore
	}
}
