// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// endOfDay is the last instant kept in a day range, to the microsecond.
const endOfDay = 24*time.Hour - time.Microsecond

// timeRange is a closed interval of event start times. A zero End means open ended.
type timeRange struct {
	Start, End time.Time
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayRange covers the whole calendar day of t.
func dayRange(t time.Time) timeRange {
	start := startOfDay(t)
	return timeRange{Start: start, End: start.Add(endOfDay)}
}

// singleDay reports whether r starts and ends on the same calendar day.
func (r timeRange) singleDay() bool {
	return !r.End.IsZero() && startOfDay(r.Start).Equal(startOfDay(r.End))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// weekRange returns Monday 00:00 to Sunday 23:59:59.999999 of the week of t.
func weekRange(t time.Time) timeRange {
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	monday := startOfDay(t).AddDate(0, 0, -offset)
	return timeRange{Start: monday, End: monday.AddDate(0, 0, 6).Add(endOfDay)}
}

// monthRange returns the first to the last day of the month of t.
func monthRange(t time.Time) timeRange {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return timeRange{Start: first, End: last.Add(endOfDay)}
}

// namedRange resolves the week and month phrases of query relative to now.
func namedRange(query string, now time.Time) (timeRange, bool) {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "last week", "previous week"):
		return weekRange(now.AddDate(0, 0, -7)), true
	case containsAny(q, "this week", "current week"):
		return weekRange(now), true
	case containsAny(q, "last month", "previous month"):
		return monthRange(startOfDay(now).AddDate(0, 0, -now.Day())), true
	case containsAny(q, "this month", "current month"):
		return monthRange(now), true
	}
	return timeRange{}, false
}

// dateParser finds a natural language date such as "next tuesday" or "May 20".
var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDay returns the day mentioned in query, if any.
func parseDay(query string, now time.Time) (timeRange, bool) {
	r, err := dateParser.Parse(query, now)
	if err != nil || r == nil {
		return timeRange{}, false
	}
	return dayRange(r.Time.In(now.Location())), true
}

// queryRange picks the events window for a free-form query. ok is false when the
// query names no date, in which case upcoming events are listed.
func queryRange(query string, now time.Time) (r timeRange, ok bool) {
	if r, ok := namedRange(query, now); ok {
		return r, true
	}
	if r, ok := parseDay(query, now); ok {
		return r, true
	}
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "tomorrow"):
		return dayRange(now.AddDate(0, 0, 1)), true
	case containsAny(q, "today", "next"):
		return dayRange(now), true
	}
	return timeRange{}, false
}
