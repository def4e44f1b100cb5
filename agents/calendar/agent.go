// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package calendar implements an agent that answers schedule questions from a
// Google Calendar and plans the day around its events.
package calendar

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/go-a2a/a2a-samples/agent"
	"github.com/go-a2a/a2a-samples/internal/spreadsheet"
)

// SupportedContentTypes are the output modes the agent produces.
var SupportedContentTypes = []string{"text", "text/plain"}

// ExcelHeaders are the column titles of the events workbook.
var ExcelHeaders = []string{"Date", "Summary", "Attachments", "Conference Links"}

const (
	// DefaultExcelPath is the workbook fetched events are appended to.
	DefaultExcelPath = "calendar_activities.xlsx"

	progressUpdate = "Looking up your calendar events..."

	noTitle = "(No Title)"

	dayPlanLimit  = 50
	historyLimit  = 100
	defaultLimit  = 10
	dayWideOpen   = "You have no events scheduled for today. Your day is wide open!"
	noFreeSlots   = "No free slots between events. Consider scheduling breaks before your first or after your last event."
	noHistory     = "No events found in your calendar history."
	noUpcoming    = "No upcoming events found."
	errorResponse = "An error occurred: "
)

var (
	dayPlanPhrases = []string{"plan my day", "organize my day", "what's my schedule", "day at a glance"}
	historyPhrases = []string{"all events", "everything", "history", "full list"}
)

// Agent answers calendar questions.
type Agent struct {
	events    EventLister
	excelPath string
	now       func() time.Time
	logger    *slog.Logger
}

var _ agent.Agent = (*Agent)(nil)

// Option configures an [Agent].
type Option func(*Agent)

// WithExcelPath sets the workbook fetched events are appended to. An empty path
// disables the export.
func WithExcelPath(path string) Option {
	return func(a *Agent) {
		a.excelPath = path
	}
}

// WithLogger sets the [*slog.Logger] for the agent.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

// New returns an agent reading events from events.
func New(events EventLister, opts ...Option) *Agent {
	a := &Agent{
		events:    events,
		excelPath: DefaultExcelPath,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SupportedContentTypes implements [agent.Agent].
func (a *Agent) SupportedContentTypes() []string { return SupportedContentTypes }

// Invoke implements [agent.Agent].
func (a *Agent) Invoke(ctx context.Context, query, sessionID string) (string, error) {
	return a.answer(ctx, query)
}

// Stream implements [agent.Agent]. A lookup failure ends the stream asking the
// user for input instead of failing the task.
func (a *Agent) Stream(ctx context.Context, query, sessionID string) iter.Seq2[agent.StreamEvent, error] {
	return func(yield func(agent.StreamEvent, error) bool) {
		if !yield(agent.Progress(progressUpdate), nil) {
			return
		}
		text, err := a.answer(ctx, query)
		if err != nil {
			yield(agent.NeedsInput(errorResponse+err.Error()), nil)
			return
		}
		yield(agent.Done(agent.Text(text)), nil)
	}
}

func (a *Agent) answer(ctx context.Context, query string) (string, error) {
	q := strings.ToLower(query)
	now := a.now()

	if containsAny(q, dayPlanPhrases...) {
		day := dayRange(now)
		events, err := a.fetch(ctx, EventQuery{TimeMin: day.Start, TimeMax: day.End, MaxResults: dayPlanLimit})
		if err != nil {
			return "", err
		}
		return planMyDay(events), nil
	}

	var (
		r      timeRange
		ranged bool
		limit  int64 = defaultLimit
	)
	switch {
	case containsAny(q, historyPhrases...):
		r = timeRange{Start: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), End: now}
		ranged = true
		limit = historyLimit
	default:
		r, ranged = queryRange(query, now)
		if !ranged {
			r = timeRange{Start: now}
		}
	}

	events, err := a.fetch(ctx, EventQuery{TimeMin: r.Start, TimeMax: r.End, MaxResults: limit})
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		switch {
		case limit == historyLimit:
			return noHistory, nil
		case ranged && r.singleDay():
			return "No events found for " + r.Start.Format(time.DateOnly), nil
		case ranged:
			return fmt.Sprintf("No events found from %s to %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly)), nil
		default:
			return noUpcoming, nil
		}
	}
	return summarizeEvents(events), nil
}

// fetch lists events and appends them to the workbook.
func (a *Agent) fetch(ctx context.Context, q EventQuery) ([]*gcal.Event, error) {
	events, err := a.events.ListEvents(ctx, q)
	if err != nil {
		a.logger.ErrorContext(ctx, "list calendar events", "error", err)
		return nil, err
	}
	a.logger.InfoContext(ctx, "calendar events fetched", "count", len(events), "from", q.TimeMin, "to", q.TimeMax)
	if a.excelPath == "" || len(events) == 0 {
		return events, nil
	}
	rows := make([][]any, len(events))
	for i, ev := range events {
		rows[i] = excelRow(ev)
	}
	n, err := spreadsheet.Append(a.excelPath, ExcelHeaders, rows)
	if err != nil {
		return nil, fmt.Errorf("append events to %s: %w", a.excelPath, err)
	}
	a.logger.InfoContext(ctx, "appended rows", "count", n, "path", a.excelPath)
	return events, nil
}

// eventTime returns the raw dateTime of t, or its date for all-day events.
func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	return cmp.Or(t.DateTime, t.Date)
}

// parseEventTime parses an event boundary. All-day dates are midnight UTC.
func parseEventTime(t *gcal.EventDateTime) time.Time {
	s := eventTime(t)
	if v, err := time.Parse(time.RFC3339, s); err == nil {
		return v
	}
	if v, err := time.Parse(time.DateOnly, s); err == nil {
		return v
	}
	return time.Time{}
}

func summary(ev *gcal.Event) string {
	return cmp.Or(ev.Summary, noTitle)
}

func excelRow(ev *gcal.Event) []any {
	var attachments, links []string
	for _, att := range ev.Attachments {
		attachments = append(attachments, att.Title+" "+att.FileUrl)
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.Uri != "" {
				links = append(links, ep.Uri)
			}
		}
	}
	return []any{eventTime(ev.Start), summary(ev), strings.Join(attachments, ", "), strings.Join(links, ", ")}
}

// planMyDay summarizes today's events and the gaps between them.
func planMyDay(events []*gcal.Event) string {
	if len(events) == 0 {
		return dayWideOpen
	}
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(x, y *gcal.Event) int {
		return parseEventTime(x.Start).Compare(parseEventTime(y.Start))
	})

	first, last := sorted[0], sorted[len(sorted)-1]
	lines := []string{
		fmt.Sprintf("You have %d event(s) today.", len(sorted)),
		fmt.Sprintf("First event: %s - %s", eventTime(first.Start), summary(first)),
		fmt.Sprintf("Last event: %s - %s", eventTime(last.End), summary(last)),
	}

	var free []string
	for i := range len(sorted) - 1 {
		end := parseEventTime(sorted[i].End)
		next := parseEventTime(sorted[i+1].Start)
		if end.Before(next) {
			free = append(free, fmt.Sprintf("Free from %s to %s", end.Format("15:04"), next.Format("15:04")))
		}
	}
	if len(free) == 0 {
		lines = append(lines, noFreeSlots)
	} else {
		lines = append(lines, "Suggested free slots for breaks or tasks:")
		lines = append(lines, free...)
	}
	return strings.Join(lines, "\n")
}

var conferenceEntryTypes = []string{"video", "phone", "more"}

// summarizeEvents lists events with their attachments and conference entry points.
func summarizeEvents(events []*gcal.Event) string {
	lines := []string{"Here are your events:"}
	for _, ev := range events {
		lines = append(lines, eventTime(ev.Start)+": "+summary(ev))
		for _, att := range ev.Attachments {
			lines = append(lines, fmt.Sprintf("Attachment: %s %s", cmp.Or(att.Title, "(Attachment)"), att.FileUrl))
		}
		if ev.ConferenceData == nil {
			continue
		}
		for _, ep := range ev.ConferenceData.EntryPoints {
			if slices.Contains(conferenceEntryTypes, ep.EntryPointType) {
				lines = append(lines, fmt.Sprintf("Conference: %s %s", cmp.Or(ep.Label, ep.EntryPointType), ep.Uri))
			}
		}
	}
	return strings.Join(lines, "\n")
}
