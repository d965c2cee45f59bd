// Package ics renders the appointment list as an iCalendar feed so the
// fleet schedule can be subscribed to from other calendar clients.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "sisvei/internal/log"
	"sisvei/internal/model"
)

const (
	ProductID    = "-//Prefeitura Municipal de Piracicaba//SISVEI//PT"
	CalendarName = "SISVEI - Agendamentos de Veículos"
	uidDomain    = "sisvei"
)

// EventTitle is the label used for an appointment on the calendar grid
// and in exported feeds.
func EventTitle(a model.Appointment) string {
	return a.StartTime + " - " + a.Vehicle
}

// Export serializes appointments into a VCALENDAR. Dates and times are
// read in loc. Appointments whose date or time cannot be parsed are
// skipped. An end time earlier than the start time is taken to be on the
// following day.
func Export(appointments []model.Appointment, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(CalendarName)
	cal.SetXWRCalName(CalendarName)
	cal.SetXWRTimezone(loc.String())

	skipped := 0
	for _, a := range appointments {
		start, end, err := span(a, loc)
		if err != nil {
			skipped++
			appLog.Warn("ics export: skipping appointment", "id", a.ID, "date", a.Date, "err", err)
			continue
		}

		ev := cal.AddEvent(uid(a))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(EventTitle(a))
		ev.SetLocation(a.StartAddress)
		ev.SetDescription(description(a))
	}

	appLog.Debug("ics export completed", "event_count", len(appointments)-skipped, "skipped", skipped)
	return cal.Serialize()
}

func span(a model.Appointment, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func uid(a model.Appointment) string {
	id := a.ID
	if id == "" {
		id = a.Date + "-" + a.StartTime + "-" + a.Vehicle
	}
	return id + "@" + uidDomain
}

func description(a model.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Saída: %s\n", a.StartAddress)
	fmt.Fprintf(&b, "Retorno: %s\n", a.EndAddress)
	fmt.Fprintf(&b, "Veículo: %s\n", a.Vehicle)
	fmt.Fprintf(&b, "Motorista: %s", a.Driver)
	if len(a.Passengers) > 0 {
		fmt.Fprintf(&b, "\nPassageiros: %s", strings.Join(a.Passengers, ", "))
	}
	return b.String()
}
