// Package calendar lays out a month or week grid of dated events.
package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"sisvei/internal/model"
)

// DateLayout is the YYYY-MM-DD form used for every calendar date string.
const DateLayout = "2006-01-02"

// Event is one labeled entry on a calendar day.
type Event struct {
	Title string
	Date  string
	// ID links back to the appointment; optional.
	ID string
}

// Day is one grid cell. Date is what a click on the cell reports.
type Day struct {
	Date    string
	Number  int
	InMonth bool
	IsToday bool
	Events  []Event
}

// Grid is the laid-out calendar for one view.
type Grid struct {
	View     model.ViewMode
	Title    string
	Weekdays []string
	Weeks    [][]Day

	// Navigation targets as YYYY-MM-DD cursors.
	Prev  string
	Next  string
	Today string
}

// Options controls Build.
type Options struct {
	View      model.ViewMode
	Cursor    time.Time
	Today     time.Time
	WeekStart time.Weekday
	Events    []Event
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Build lays out the grid around opts.Cursor. Events keep their input
// order within a day; events outside the visible range are ignored.
func Build(opts Options) (Grid, error) {
	if opts.View != model.ViewWeek {
		opts.View = model.ViewMonth
	}
	cursor := dateOnly(opts.Cursor)
	today := dateOnly(opts.Today)

	var start time.Time
	var days int
	switch opts.View {
	case model.ViewWeek:
		start = startOfWeek(cursor, opts.WeekStart)
		days = 7
	default:
		first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		start = startOfWeek(first, opts.WeekStart)
		end := startOfWeek(last, opts.WeekStart).AddDate(0, 0, 6)
		days = int(end.Sub(start).Hours()/24) + 1
	}

	dates, err := enumerateDays(start, days)
	if err != nil {
		return Grid{}, err
	}

	byDate := make(map[string][]Event)
	for _, ev := range opts.Events {
		byDate[ev.Date] = append(byDate[ev.Date], ev)
	}

	g := Grid{
		View:     opts.View,
		Weekdays: weekdayLabels(opts.WeekStart),
		Today:    FormatDate(today),
	}

	week := make([]Day, 0, 7)
	for _, d := range dates {
		key := FormatDate(d)
		week = append(week, Day{
			Date:    key,
			Number:  d.Day(),
			InMonth: opts.View == model.ViewWeek || d.Month() == cursor.Month(),
			IsToday: d.Equal(today),
			Events:  byDate[key],
		})
		if len(week) == 7 {
			g.Weeks = append(g.Weeks, week)
			week = make([]Day, 0, 7)
		}
	}

	switch opts.View {
	case model.ViewWeek:
		g.Title = weekTitle(start, start.AddDate(0, 0, 6))
		g.Prev = FormatDate(cursor.AddDate(0, 0, -7))
		g.Next = FormatDate(cursor.AddDate(0, 0, 7))
	default:
		first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, time.UTC)
		g.Title = fmt.Sprintf("%s de %d", monthNames[cursor.Month()-1], cursor.Year())
		g.Prev = FormatDate(first.AddDate(0, -1, 0))
		g.Next = FormatDate(first.AddDate(0, 1, 0))
	}

	return g, nil
}

// enumerateDays lists count consecutive days from start with a DAILY rule.
func enumerateDays(start time.Time, count int) ([]time.Time, error) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Count:   count,
	})
	if err != nil {
		return nil, fmt.Errorf("calendar: build day rule: %w", err)
	}
	return r.All(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfWeek(d time.Time, weekStart time.Weekday) time.Time {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var weekdayNames = [...]string{"dom", "seg", "ter", "qua", "qui", "sex", "sáb"}

func weekdayLabels(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = weekdayNames[(int(weekStart)+i)%7]
	}
	return out
}

func weekTitle(from, to time.Time) string {
	switch {
	case from.Year() != to.Year():
		return fmt.Sprintf("%d de %s de %d – %d de %s de %d",
			from.Day(), monthNames[from.Month()-1], from.Year(),
			to.Day(), monthNames[to.Month()-1], to.Year())
	case from.Month() != to.Month():
		return fmt.Sprintf("%d de %s – %d de %s de %d",
			from.Day(), monthNames[from.Month()-1],
			to.Day(), monthNames[to.Month()-1], to.Year())
	default:
		return fmt.Sprintf("%d – %d de %s de %d",
			from.Day(), to.Day(), monthNames[from.Month()-1], from.Year())
	}
}
