// Package form holds the appointment form: it keeps the typed values,
// checks that every field is filled and hands the draft to a callback.
package form

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"sisvei/internal/model"
)

var validate = validator.New()

// Field names as used in the HTML form.
const (
	FieldStartTime    = "startTime"
	FieldEndTime      = "endTime"
	FieldStartAddress = "startAddress"
	FieldEndAddress   = "endAddress"
	FieldVehicle      = "vehicle"
	FieldDriver       = "driver"
	FieldPassengers   = "passengers"
)

// fieldOf maps struct field names reported by the validator to form names.
var fieldOf = map[string]string{
	"StartTime":    FieldStartTime,
	"EndTime":      FieldEndTime,
	"StartAddress": FieldStartAddress,
	"EndAddress":   FieldEndAddress,
	"Vehicle":      FieldVehicle,
	"Driver":       FieldDriver,
	"Passengers":   FieldPassengers,
}

var requiredMessages = map[string]string{
	FieldStartTime:    "Horário de saída é obrigatório",
	FieldEndTime:      "Horário de retorno é obrigatório",
	FieldStartAddress: "Endereço de saída é obrigatório",
	FieldEndAddress:   "Endereço de retorno é obrigatório",
	FieldVehicle:      "Veículo é obrigatório",
	FieldDriver:       "Motorista é obrigatório",
	FieldPassengers:   "Lista de passageiros é obrigatória",
}

// ValidationError lists the fields that failed the presence check, keyed
// by form field name, with a user-facing message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "required fields missing: " + strings.Join(names, ", ")
}

// Validate checks that every field of data is non-empty.
func Validate(data model.AppointmentFormData) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		name, ok := fieldOf[fe.StructField()]
		if !ok {
			name = fe.StructField()
		}
		out.Fields[name] = requiredMessages[name]
	}
	return out
}

// Form is one open appointment form.
type Form struct {
	Values model.AppointmentFormData
	Errors map[string]string

	editing bool
}

// New opens a form. With initial values the form is in edit mode.
func New(initial *model.AppointmentFormData) *Form {
	f := &Form{Errors: map[string]string{}}
	if initial != nil {
		f.Values = *initial
		f.editing = true
	}
	return f
}

// Title is the heading shown above the form.
func (f *Form) Title() string {
	if f.editing {
		return "Editar Agendamento"
	}
	return "Novo Agendamento"
}

// Submit records values, validates them and, when every field is filled,
// calls onSubmit. A *ValidationError is returned without calling onSubmit.
func (f *Form) Submit(values model.AppointmentFormData, onSubmit func(model.AppointmentFormData) error) error {
	f.Values = values
	if err := Validate(values); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			f.Errors = verr.Fields
		}
		return err
	}
	f.Errors = map[string]string{}
	return onSubmit(values)
}

// HasError reports whether field failed the last validation.
func (f *Form) HasError(field string) bool {
	_, ok := f.Errors[field]
	return ok
}

// Clone returns a copy safe to hand to renderers.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	c := *f
	c.Errors = make(map[string]string, len(f.Errors))
	for k, v := range f.Errors {
		c.Errors[k] = v
	}
	return &c
}
