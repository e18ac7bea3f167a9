// Package repost determines whether an incoming job is a re-listing of a
// previously seen posting at the same company.
package repost

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jobiq/quality-engine/internal/analyzer"
	"github.com/jobiq/quality-engine/internal/domain"
)

// Config holds the detector's tunables. The defaults have no documented
// derivation and are kept configurable for calibration against labeled
// duplicate data.
type Config struct {
	// CandidateWindow bounds how many recent active jobs per company are
	// compared. Trades completeness for a bounded cost per job.
	CandidateWindow int
	// TitleSimilarityPct is the fuzzy-title match threshold in percent.
	TitleSimilarityPct float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CandidateWindow:    50,
		TitleSimilarityPct: 85.0,
	}
}

// CandidateSource supplies the bounded window of other active jobs from the
// same normalized company, excluding the identical URL.
type CandidateSource interface {
	ActiveJobsByCompany(ctx context.Context, normalizedCompany, excludeURL string, limit int) ([]domain.JobCandidate, error)
}

// Match types reported on a detection.
const (
	MatchTitle   = "title"
	MatchContent = "content"
)

// Match is the outcome of duplicate detection for one incoming job.
type Match struct {
	IsRepost       bool
	CanonicalJobID string
	InstanceNumber int
	MatchType      string
}

// Detector classifies incoming jobs as originals or reposts.
type Detector struct {
	source CandidateSource
	cfg    Config
}

// NewDetector creates a detector over the given candidate source. Zero
// config fields fall back to the defaults.
func NewDetector(source CandidateSource, cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.CandidateWindow <= 0 {
		cfg.CandidateWindow = def.CandidateWindow
	}
	if cfg.TitleSimilarityPct <= 0 {
		cfg.TitleSimilarityPct = def.TitleSimilarityPct
	}
	return &Detector{source: source, cfg: cfg}
}

// Detect searches recent active jobs from the same company and classifies
// the incoming job. Fuzzy title matches take priority; failing that, an
// exact normalized-description hash match counts even when titles differ.
// No match means the job is an original with instance number 1.
func (d *Detector) Detect(ctx context.Context, job *domain.Job) (Match, error) {
	original := Match{InstanceNumber: 1}

	normalized := NormalizeCompanyName(job.CompanyName)
	if normalized == "" {
		return original, nil
	}

	candidates, err := d.source.ActiveJobsByCompany(ctx, normalized, job.URL, d.cfg.CandidateWindow)
	if err != nil {
		return original, fmt.Errorf("load candidates: %w", err)
	}

	for _, c := range candidates {
		if TitleSimilarity(job.Title, c.Title) >= d.cfg.TitleSimilarityPct {
			return Match{
				IsRepost:       true,
				CanonicalJobID: c.ID,
				InstanceNumber: c.RepostCount + 1,
				MatchType:      MatchTitle,
			}, nil
		}
	}

	if job.Description != nil && *job.Description != "" {
		hash := analyzer.Hash(*job.Description)
		for _, c := range candidates {
			if c.DescriptionHash != "" && c.DescriptionHash == hash {
				return Match{
					IsRepost:       true,
					CanonicalJobID: c.ID,
					InstanceNumber: c.RepostCount + 1,
					MatchType:      MatchContent,
				}, nil
			}
		}
	}

	return original, nil
}

// TitleSimilarity converts normalized Levenshtein distance to a percentage:
// 100 × (1 − distance/max(len)). Exact equality short-circuits to 100.
func TitleSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 100 * (1 - float64(dist)/float64(maxLen))
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	legalSuffixRe   = regexp.MustCompile(`(?i)\b(incorporated|corporation|limited|inc|llc|ltd|corp|co|gmbh|ag|plc|sa|bv)\b\.?`)
	companyPunctRe  = regexp.MustCompile(`[^\w\s]`)
	companySpaceRe  = regexp.MustCompile(`\s+`)
)

// NormalizeCompanyName reduces a company name to its dedup key: lowercase,
// no legal-entity suffixes, no parentheticals, no punctuation, collapsed
// whitespace. Must stay consistent with the company matcher or duplicate
// detection silently degrades.
func NormalizeCompanyName(name string) string {
	s := strings.ToLower(name)
	s = parentheticalRe.ReplaceAllString(s, " ")
	s = legalSuffixRe.ReplaceAllString(s, " ")
	s = companyPunctRe.ReplaceAllString(s, "")
	s = companySpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
