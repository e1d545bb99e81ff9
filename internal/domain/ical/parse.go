// Package ical converts raw iCalendar (RFC 5545-ish) text into a
// bounded, sorted list of upcoming events. Real-world calendar exports
// vary widely, so parsing is tolerant: a malformed VEVENT block is
// skipped, never aborting the whole feed.
package ical

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Event is a single upcoming calendar entry. It is produced
// transiently per request and never persisted.
type Event struct {
	Summary  string
	Start    time.Time
	End      time.Time // zero when the feed carries no DTEND
	Location string
	AllDay   bool
}

// MarshalJSON renders the wire shape the dashboard widget expects,
// with explicit nulls for absent end/location.
func (e Event) MarshalJSON() ([]byte, error) {
	out := struct {
		Summary  string  `json:"summary"`
		Start    string  `json:"start"`
		End      *string `json:"end"`
		Location *string `json:"location"`
		AllDay   bool    `json:"allDay"`
	}{
		Summary: e.Summary,
		Start:   isoUTC(e.Start),
		AllDay:  e.AllDay,
	}
	if !e.End.IsZero() {
		end := isoUTC(e.End)
		out.End = &end
	}
	if e.Location != "" {
		out.Location = &e.Location
	}
	return sonic.Marshal(out)
}

func isoUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

var (
	foldPattern     = regexp.MustCompile(`\r?\n[ \t]`)
	summaryPattern  = propPattern("SUMMARY")
	locationPattern = propPattern("LOCATION")
	dtstartPattern  = propPattern("DTSTART")
	dtendPattern    = propPattern("DTEND")
)

// propPattern matches a content line for key, tolerating a trailing
// parameter chain (e.g. DTSTART;TZID=...:value).
func propPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + key + `((?:;[^:\r\n]*)?):(.*)$`)
}

// Parse extracts up to max upcoming events from ics text, relative to
// now. Events that have fully elapsed are dropped; all-day events are
// kept for the whole current local day. Results are sorted ascending
// by start.
func Parse(text string, max int, now time.Time) []Event {
	// RFC 5545 folds long lines; a leading space or tab marks a
	// continuation. Unfold before any field extraction.
	unfolded := foldPattern.ReplaceAllString(text, "")

	events := make([]Event, 0, 8)
	blocks := strings.Split(unfolded, "BEGIN:VEVENT")
	for _, raw := range blocks[1:] {
		block, _, _ := strings.Cut(raw, "END:VEVENT")
		if block == "" {
			continue
		}

		_, dtstartVal := prop(block, dtstartPattern)
		if dtstartVal == "" {
			continue
		}
		dtstartParams, _ := propWithParams(block, dtstartPattern)
		dtendParams, dtendVal := propWithParams(block, dtendPattern)

		allDay := len(dtstartVal) == 8

		start, ok := parseDate(dtstartVal, dtstartParams)
		if !ok {
			continue
		}
		end, _ := parseDate(dtendVal, dtendParams)

		// Discard fully elapsed events. All-day events compare against
		// the start of the current local day so "today" survives past
		// midnight; timed events are kept only while now is strictly
		// before their end.
		cutoff := now
		if allDay {
			cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		}
		if start.Before(cutoff) && !end.After(cutoff) {
			continue
		}

		_, summary := prop(block, summaryPattern)
		_, location := prop(block, locationPattern)
		summary = unescapeText(summary)
		if summary == "" {
			summary = "Untitled"
		}

		events = append(events, Event{
			Summary:  summary,
			Start:    start,
			End:      end,
			Location: unescapeText(location),
			AllDay:   allDay,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	if max > 0 && len(events) > max {
		events = events[:max]
	}
	return events
}

func prop(block string, re *regexp.Regexp) (params, value string) {
	return propWithParams(block, re)
}

func propWithParams(block string, re *regexp.Regexp) (params, value string) {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return "", ""
	}
	return m[1], strings.TrimSpace(m[2])
}

// unescapeText resolves the RFC 5545 text escapes that show up in
// SUMMARY/LOCATION values.
func unescapeText(s string) string {
	s = strings.ReplaceAll(s, `\,`, ",")
	s = strings.ReplaceAll(s, `\n`, " ")
	return s
}

// parseDate handles the two iCal date shapes: 20260210 (date-only,
// all-day) and 20260210T150000[Z]. A trailing Z means UTC; otherwise a
// TZID parameter is resolved against the partial offset table and
// anything unknown is treated as server-local wall-clock time.
func parseDate(value, params string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if len(value) == 8 {
		t, err := time.ParseInLocation("20060102", value, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.ParseInLocation("20060102T150405", strings.TrimSuffix(value, "Z"), time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	loc := time.Local
	if zone, ok := zoneFromParams(params); ok {
		loc = zone
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
