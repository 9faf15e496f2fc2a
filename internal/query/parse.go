// Package query answers free-text availability questions ("who has a full
// Thursday available in March") against the daily availability table. The
// parser is an ordered table of substring rules, not a grammar: one day
// name, one month name, and one threshold are recognized per query, first
// match wins.
package query

import "strings"

// defaultMinHours is the threshold applied when the text names no
// availability level. It means "meaningfully free", not "completely free".
const defaultMinHours = 4.0

// dayNames in fixed scan order. Plural forms ("thursdays") match because
// the singular is a substring of the plural.
var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var fullDayMarkers = []string{"full", "whole", "entire", "all day"}

// Query is the structured form of a free-text availability question.
type Query struct {
	DayName   string   `json:"dayName,omitempty"`
	MonthName string   `json:"monthName,omitempty"`
	FullDay   bool     `json:"fullDay"`
	MinHours  *float64 `json:"minHours,omitempty"`
}

// Parse extracts filter parameters from free text. Ambiguous or multi-day
// questions are not supported: only the first day name and first month name
// in scan order are recognized.
func Parse(text string) Query {
	lower := strings.ToLower(text)
	var q Query

	for _, day := range dayNames {
		if strings.Contains(lower, strings.ToLower(day)) {
			q.DayName = day
			break
		}
	}

	for _, month := range monthNames {
		if strings.Contains(lower, strings.ToLower(month)) {
			q.MonthName = month
			break
		}
	}

	for _, marker := range fullDayMarkers {
		if strings.Contains(lower, marker) {
			q.FullDay = true
			return q
		}
	}

	// "half a day" and the unspecified case share the same threshold.
	hours := defaultMinHours
	q.MinHours = &hours
	return q
}
