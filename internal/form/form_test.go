package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sisvei/internal/model"
)

func filled() model.AppointmentFormData {
	return model.AppointmentFormData{
		StartTime:    "08:00",
		EndTime:      "17:00",
		StartAddress: "Rua A",
		EndAddress:   "Rua B",
		Vehicle:      "ABC123",
		Driver:       "Joana",
		Passengers:   "Ana\nBeto\n",
	}
}

func TestSubmitCallsCallbackWhenFilled(t *testing.T) {
	f := New(nil)
	var got model.AppointmentFormData
	calls := 0

	err := f.Submit(filled(), func(d model.AppointmentFormData) error {
		calls++
		got = d
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, filled(), got)
	assert.Empty(t, f.Errors)
}

func TestSubmitRefusesEachMissingField(t *testing.T) {
	tests := []struct {
		field string
		clear func(*model.AppointmentFormData)
	}{
		{FieldStartTime, func(d *model.AppointmentFormData) { d.StartTime = "" }},
		{FieldEndTime, func(d *model.AppointmentFormData) { d.EndTime = "" }},
		{FieldStartAddress, func(d *model.AppointmentFormData) { d.StartAddress = "" }},
		{FieldEndAddress, func(d *model.AppointmentFormData) { d.EndAddress = "" }},
		{FieldVehicle, func(d *model.AppointmentFormData) { d.Vehicle = "" }},
		{FieldDriver, func(d *model.AppointmentFormData) { d.Driver = "" }},
		{FieldPassengers, func(d *model.AppointmentFormData) { d.Passengers = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f := New(nil)
			data := filled()
			tt.clear(&data)

			err := f.Submit(data, func(model.AppointmentFormData) error {
				t.Fatal("submit callback must not run")
				return nil
			})

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, 1)
			assert.True(t, f.HasError(tt.field))
			assert.NotEmpty(t, f.Errors[tt.field])
			assert.Equal(t, data, f.Values)
		})
	}
}

func TestSubmitFlagsEveryEmptyField(t *testing.T) {
	f := New(nil)

	err := f.Submit(model.AppointmentFormData{Vehicle: "ABC123"}, func(model.AppointmentFormData) error {
		t.Fatal("submit callback must not run")
		return nil
	})

	require.Error(t, err)
	assert.Len(t, f.Errors, 6)
	assert.False(t, f.HasError(FieldVehicle))
	assert.Equal(t, "Motorista é obrigatório", f.Errors[FieldDriver])
	assert.Contains(t, err.Error(), FieldPassengers)
}

func TestSubmitClearsPreviousErrors(t *testing.T) {
	f := New(nil)
	_ = f.Submit(model.AppointmentFormData{}, func(model.AppointmentFormData) error { return nil })
	require.NotEmpty(t, f.Errors)

	require.NoError(t, f.Submit(filled(), func(model.AppointmentFormData) error { return nil }))
	assert.Empty(t, f.Errors)
}

func TestSubmitPropagatesCallbackError(t *testing.T) {
	f := New(nil)
	boom := errors.New("store down")

	err := f.Submit(filled(), func(model.AppointmentFormData) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.Errors)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Novo Agendamento", New(nil).Title())

	initial := filled()
	f := New(&initial)
	assert.Equal(t, "Editar Agendamento", f.Title())
	assert.Equal(t, initial, f.Values)
}

func TestCloneIsIndependent(t *testing.T) {
	f := New(nil)
	f.Errors[FieldDriver] = "x"

	c := f.Clone()
	c.Errors[FieldVehicle] = "y"

	assert.False(t, f.HasError(FieldVehicle))
	assert.Nil(t, (*Form)(nil).Clone())
}
