package model

// Appointment is a single scheduled vehicle trip on one calendar date, as
// the UI sees it.
type Appointment struct {
	// ID is assigned by the remote store; empty until persisted.
	ID string

	// Date is the calendar day in YYYY-MM-DD form.
	Date string

	// StartTime / EndTime are HH:MM strings. Their order is not enforced.
	StartTime string
	EndTime   string

	StartAddress string
	EndAddress   string

	// Vehicle is free text, usually a plate.
	Vehicle string
	Driver  string

	// Passengers holds one non-empty name per entry, in input order.
	Passengers []string
}

// AppointmentFormData is the draft collected by the appointment form.
// Passengers is the raw multiline input (one name per line); the date is
// injected by the caller from the selected calendar day.
type AppointmentFormData struct {
	StartTime    string `validate:"required"`
	EndTime      string `validate:"required"`
	StartAddress string `validate:"required"`
	EndAddress   string `validate:"required"`
	Vehicle      string `validate:"required"`
	Driver       string `validate:"required"`
	Passengers   string `validate:"required"`
}

// RemoteRecord is the raw JSON document stored by the persistence service.
type RemoteRecord struct {
	ID              string `json:"_id,omitempty"`
	DataHoraSaida   string `json:"DataHoraSaida"`
	DataHoraChegada string `json:"DataHoraChegada"`
	EnderecoSaida   string `json:"EnderecoSaida"`
	EnderecoChegada string `json:"EnderecoChegada"`
	NomeMotorista   string `json:"NomeMotorista"`
	PlacaVeiculo    string `json:"PlacaVeiculo"`
	NomePassageiros string `json:"NomePassageiros,omitempty"`

	// Excluido is the soft-delete flag. Records with it set are never shown.
	Excluido bool `json:"excluido"`
}

// ViewMode is the calendar grid granularity.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
)

// ParseViewMode returns the matching mode and whether s was recognized.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case ViewMonth, ViewWeek:
		return ViewMode(s), true
	default:
		return "", false
	}
}

// Theme is the persisted UI color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the matching theme and whether s was recognized.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), true
	default:
		return "", false
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
