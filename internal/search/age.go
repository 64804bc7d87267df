package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeAge = regexp.MustCompile(`^(\d+|an?|one)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseAge resolves a search result's age string to a publish time
func ParseAge(age string, now time.Time) (time.Time, bool) {
	age = strings.TrimSpace(age)
	if age == "" {
		return time.Time{}, false
	}

	if m := relativeAge.FindStringSubmatch(strings.ToLower(age)); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		switch m[2] {
		case "second":
			return now.Add(-time.Duration(n) * time.Second), true
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute), true
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour), true
		case "day":
			return now.AddDate(0, 0, -n), true
		case "week":
			return now.AddDate(0, 0, -7*n), true
		case "month":
			return now.AddDate(0, -n, 0), true
		case "year":
			return now.AddDate(-n, 0, 0), true
		}
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, age); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
