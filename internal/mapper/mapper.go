// Package mapper converts between the UI appointment and the remote
// store's record shape. Every function here is pure.
package mapper

import (
	"strings"

	"sisvei/internal/model"
)

const passengerSeparator = ", "

// ToAppointment maps a remote record into a UI appointment.
//
// The timestamps are expected to start with YYYY-MM-DDTHH:MM. Shorter
// values are sliced leniently and yield truncated or empty fields.
func ToAppointment(rec model.RemoteRecord) model.Appointment {
	return model.Appointment{
		ID:           rec.ID,
		Date:         substring(rec.DataHoraSaida, 0, 10),
		StartTime:    substring(rec.DataHoraSaida, 11, 16),
		EndTime:      substring(rec.DataHoraChegada, 11, 16),
		StartAddress: rec.EnderecoSaida,
		EndAddress:   rec.EnderecoChegada,
		Vehicle:      rec.PlacaVeiculo,
		Driver:       rec.NomeMotorista,
		Passengers:   SplitPassengers(rec.NomePassageiros),
	}
}

// ToRemoteRecord maps a UI appointment into the remote record shape. The
// soft-delete flag is always false.
func ToRemoteRecord(a model.Appointment) model.RemoteRecord {
	return model.RemoteRecord{
		ID:              a.ID,
		DataHoraSaida:   joinTimestamp(a.Date, a.StartTime),
		DataHoraChegada: joinTimestamp(a.Date, a.EndTime),
		EnderecoSaida:   a.StartAddress,
		EnderecoChegada: a.EndAddress,
		NomeMotorista:   a.Driver,
		PlacaVeiculo:    a.Vehicle,
		NomePassageiros: strings.Join(a.Passengers, passengerSeparator),
		Excluido:        false,
	}
}

// FromForm assembles an unsaved appointment for date from a form draft.
func FromForm(date string, data model.AppointmentFormData) model.Appointment {
	return model.Appointment{
		Date:         date,
		StartTime:    data.StartTime,
		EndTime:      data.EndTime,
		StartAddress: data.StartAddress,
		EndAddress:   data.EndAddress,
		Vehicle:      data.Vehicle,
		Driver:       data.Driver,
		Passengers:   SplitPassengerLines(data.Passengers),
	}
}

// SplitPassengers splits the comma-joined passenger field, trimming each
// name and dropping empty ones.
func SplitPassengers(s string) []string {
	return splitNonEmpty(s, ",", true)
}

// SplitPassengerLines splits the form's multiline passenger input, one
// name per line. Empty lines are dropped; names are kept as typed.
func SplitPassengerLines(s string) []string {
	return splitNonEmpty(strings.ReplaceAll(s, "\r\n", "\n"), "\n", false)
}

func splitNonEmpty(s, sep string, trim bool) []string {
	out := []string{}
	if s == "" {
		return out
	}
	for _, p := range strings.Split(s, sep) {
		if trim {
			p = strings.TrimSpace(p)
		}
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func joinTimestamp(date, hhmm string) string {
	return date + "T" + hhmm + ":00"
}

// substring returns s[start:end] with both bounds clamped to len(s).
func substring(s string, start, end int) string {
	if start > len(s) {
		start = len(s)
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}
