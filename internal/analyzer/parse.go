package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// hoursPerYear converts hourly figures to annual. Values under 500 in a
// salary string are assumed to be hourly rates.
const hoursPerYear = 2080

var (
	salaryNumberRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	relativeDateRe  = regexp.MustCompile(`(\d+)\s*(minute|hour|day|week|month)s?\s*ago`)
	salaryStripper  = strings.NewReplacer("$", "", ",", "", "/year", "", "/yr", "", "/annum", "")
	salaryKExpander = strings.NewReplacer("k", "000", "K", "000")
)

// ParseSalary extracts annualized min/max values from a display string such
// as "$120,000 - $150,000/year" or "$60k - $80k". Hourly figures are
// annualized. Returns nils when no numbers are present.
func ParseSalary(text string) (*float64, *float64) {
	if text == "" {
		return nil, nil
	}

	s := salaryStripper.Replace(text)
	s = salaryKExpander.Replace(s)

	numbers := salaryNumberRe.FindAllString(s, -1)
	switch {
	case len(numbers) >= 2:
		minVal, err1 := strconv.ParseFloat(numbers[0], 64)
		maxVal, err2 := strconv.ParseFloat(numbers[1], 64)
		if err1 != nil || err2 != nil {
			return nil, nil
		}
		if minVal < 500 {
			minVal *= hoursPerYear
			maxVal *= hoursPerYear
		}
		return &minVal, &maxVal
	case len(numbers) == 1:
		val, err := strconv.ParseFloat(numbers[0], 64)
		if err != nil {
			return nil, nil
		}
		if val < 500 {
			val *= hoursPerYear
		}
		v2 := val
		return &val, &v2
	}
	return nil, nil
}

// ParsePostedDate resolves a relative posting date ("3 days ago", "today",
// "yesterday") against now. Returns nil when the string is empty or
// unrecognized.
func ParsePostedDate(text string, now time.Time) *time.Time {
	if text == "" {
		return nil
	}
	s := strings.ToLower(text)

	if m := relativeDateRe.FindStringSubmatch(s); m != nil {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		var d time.Duration
		switch m[2] {
		case "minute":
			d = time.Duration(num) * time.Minute
		case "hour":
			d = time.Duration(num) * time.Hour
		case "day":
			d = time.Duration(num) * 24 * time.Hour
		case "week":
			d = time.Duration(num) * 7 * 24 * time.Hour
		case "month":
			d = time.Duration(num) * 30 * 24 * time.Hour
		}
		t := now.Add(-d)
		return &t
	}

	if strings.Contains(s, "today") || strings.Contains(s, "just posted") {
		t := now
		return &t
	}
	if strings.Contains(s, "yesterday") {
		t := now.Add(-24 * time.Hour)
		return &t
	}

	return nil
}
