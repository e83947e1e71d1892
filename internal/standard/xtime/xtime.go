// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xtime provides extensions to the standard time package.
package xtime

import (
	"strings"
	"time"
)

// ReportLayout is the day/month/year hour:minute:second layout used in reports.
const ReportLayout = "02/01/2006 15:04:05"

// timestampLayouts are tried in order by ParseTimestamp.
//
// Slash dates are read month-first, falling back to day-first when the
// month-first reading is not a valid date (e.g., "25/01/2024").
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
}

// ParseTimestamp parses s using the first matching layout.
//
// Timestamps without a zone are interpreted as UTC.
// Returns false if s is empty or matches no layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatReport formats t with ReportLayout.
func FormatReport(t time.Time) string {
	return t.Format(ReportLayout)
}

// DaysBefore returns t moved back by the given number of calendar days.
func DaysBefore(t time.Time, days int) time.Time {
	return t.Add(-time.Duration(days) * 24 * time.Hour)
}
