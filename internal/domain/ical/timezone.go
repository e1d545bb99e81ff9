package ical

import (
	"regexp"
	"strings"
	"time"
)

// tzOffsetHours maps TZID names seen in real-world calendar exports
// (Windows display names plus common IANA zones) to their UTC offset.
// The table is deliberately partial: an unknown zone falls back to the
// server's local time, a documented imprecision rather than a failure.
var tzOffsetHours = map[string]float64{
	"eastern standard time": -5, "eastern daylight time": -4, "us/eastern": -5, "america/new_york": -5,
	"central standard time": -6, "central daylight time": -5, "us/central": -6, "america/chicago": -6,
	"central america standard time": -6,
	"mountain standard time":        -7, "mountain daylight time": -6, "us/mountain": -7, "america/denver": -7,
	"pacific standard time": -8, "pacific daylight time": -7, "us/pacific": -8, "america/los_angeles": -8,
	"pacific standard time (mexico)": -8,
	"india standard time":            5.5, "asia/kolkata": 5.5,
	"sri lanka standard time": 5.5,
	"singapore standard time": 8, "asia/singapore": 8,
	"china standard time": 8, "asia/shanghai": 8,
	"tokyo standard time": 9, "asia/tokyo": 9,
	"e. africa standard time": 3,
	"romance standard time":   1,
	"gmt standard time":       0, "utc": 0, "gmt": 0,
	"w. europe standard time": 1, "europe/berlin": 1, "europe/paris": 1,
}

var tzidPattern = regexp.MustCompile(`(?i)TZID=([^;:]+)`)

// zoneFromParams resolves a property parameter string like
// ";TZID=Europe/Berlin" to a fixed-offset location. The second return
// is false when no known zone was found.
func zoneFromParams(params string) (*time.Location, bool) {
	m := tzidPattern.FindStringSubmatch(params)
	if m == nil {
		return nil, false
	}
	name := strings.ToLower(strings.TrimSpace(m[1]))
	offset, ok := tzOffsetHours[name]
	if !ok {
		return nil, false
	}
	return time.FixedZone(m[1], int(offset*3600)), true
}
