// Package analyzer normalizes, hashes and scores free-text job descriptions.
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strings"
)

const (
	// maxNormalizedLen bounds the normalized text used for hashing.
	maxNormalizedLen = 500
	// shortTextThreshold is the length below which boilerplate scoring has
	// insufficient signal.
	shortTextThreshold = 100
	// boilerplateSaturation is the match count at which the boilerplate
	// score saturates at 1.0.
	boilerplateSaturation = 5
)

var (
	calendarWordRe = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|january|february|march|april|may|june|july|august|september|october|november|december|mon|tue|wed|thu|fri|sat|sun|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\b`)
	dateTokenRe    = regexp.MustCompile(`\b\d{1,4}[/\-.]\d{1,2}(?:[/\-.]\d{1,4})?\b`)
	punctuationRe  = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// boilerplatePatterns are cliché phrases that signal a low-effort or
// evergreen description.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)fast[\s-]?paced environment`),
	regexp.MustCompile(`(?i)rock\s?star`),
	regexp.MustCompile(`(?i)\bninja\b`),
	regexp.MustCompile(`(?i)\bguru\b`),
	regexp.MustCompile(`(?i)wear many hats`),
	regexp.MustCompile(`(?i)competitive salary`),
	regexp.MustCompile(`(?i)self[\s-]?starter`),
	regexp.MustCompile(`(?i)work hard,?\s?play hard`),
	regexp.MustCompile(`(?i)dynamic (environment|team)`),
	regexp.MustCompile(`(?i)equal opportunity employer`),
	regexp.MustCompile(`(?i)hit the ground running`),
	regexp.MustCompile(`(?i)(like|we are) a family`),
}

var (
	salaryRe       = regexp.MustCompile(`(?i)(\$\s?\d|salary|compensation|pay range|per year|per hour)`)
	benefitsRe     = regexp.MustCompile(`(?i)(benefits|health insurance|401\s?\(?k\)?|paid time off|\bpto\b|dental|vision|parental leave)`)
	requirementsRe = regexp.MustCompile(`(?i)(requirements|qualifications|must have|you should have|we('|’)re looking for|years of experience)`)
	teamInfoRe     = regexp.MustCompile(`(?i)(our team|the team|team of|you('|’)ll work with|report(s|ing)? to)`)
	techStackRe    = regexp.MustCompile(`(?i)(tech stack|technologies|tools we use|\b(go|golang|python|java|javascript|typescript|react|node|rust|aws|gcp|azure|kubernetes|docker|postgres|sql)\b)`)
)

// Signals are the presence tests extracted from a description.
type Signals struct {
	HasSalary        bool    `json:"has_salary"`
	HasBenefits      bool    `json:"has_benefits"`
	HasRequirements  bool    `json:"has_requirements"`
	HasTeamInfo      bool    `json:"has_team_info"`
	HasTechStack     bool    `json:"has_tech_stack"`
	WordCount        int     `json:"word_count"`
	BoilerplateScore float64 `json:"boilerplate_score"`
}

// Normalize lowercases text, removes weekday/month names, date-like tokens
// and punctuation, collapses whitespace and truncates to 500 characters.
// This makes hashing robust to the variation job boards introduce between
// repostings of the same description.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = calendarWordRe.ReplaceAllString(s, " ")
	s = dateTokenRe.ReplaceAllString(s, " ")
	s = punctuationRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) > maxNormalizedLen {
		s = s[:maxNormalizedLen]
	}
	return s
}

// Hash returns a 32-hex-character digest of the normalized text. Two
// descriptions that normalize identically always hash identically.
func Hash(text string) string {
	h := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(h[:16])
}

// BoilerplateScore returns the fraction of cliché patterns matched, scaled
// so five or more matches saturate at 1.0. Texts under 100 characters
// return a neutral 0.5.
func BoilerplateScore(text string) float64 {
	if len(text) < shortTextThreshold {
		return 0.5
	}
	matches := 0
	for _, re := range boilerplatePatterns {
		if re.MatchString(text) {
			matches++
		}
	}
	score := float64(matches) / boilerplateSaturation
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ExtractSignals runs the presence tests over the description. Empty text
// yields all-false signals and a zero word count.
func ExtractSignals(text string) Signals {
	if strings.TrimSpace(text) == "" {
		return Signals{}
	}
	return Signals{
		HasSalary:        salaryRe.MatchString(text),
		HasBenefits:      benefitsRe.MatchString(text),
		HasRequirements:  requirementsRe.MatchString(text),
		HasTeamInfo:      teamInfoRe.MatchString(text),
		HasTechStack:     techStackRe.MatchString(text),
		WordCount:        len(strings.Fields(text)),
		BoilerplateScore: BoilerplateScore(text),
	}
}

// ScoreDescription rates a description in [0.1, 1.0]. Empty input returns
// exactly 0.1.
func ScoreDescription(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.1
	}
	sig := ExtractSignals(text)

	score := 0.3
	score += lengthBonus(sig.WordCount)

	if sig.HasSalary {
		score += 0.08
	}
	if sig.HasBenefits {
		score += 0.05
	}
	if sig.HasRequirements {
		score += 0.05
	}
	if sig.HasTeamInfo {
		score += 0.04
	}
	if sig.HasTechStack {
		score += 0.03
	}

	score -= sig.BoilerplateScore * 0.20

	return clamp(score, 0.1, 1.0)
}

// lengthBonus rewards longer descriptions in diminishing bands and
// penalizes very short ones.
func lengthBonus(wordCount int) float64 {
	switch {
	case wordCount >= 1500:
		return 0.25
	case wordCount >= 1000:
		return 0.20
	case wordCount >= 600:
		return 0.15
	case wordCount >= 300:
		return 0.10
	case wordCount >= 100:
		return 0.05
	default:
		return -0.15
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
