package app

import (
	"sisvei/internal/calendar"
	"sisvei/internal/form"
	"sisvei/internal/model"
)

// State is a snapshot for renderers, which must treat it as read-only.
type State struct {
	SelectedDate string
	ModalOpen    bool
	FormOpen     bool
	ScrollLocked bool
	Pane         Pane

	Appointments []model.Appointment
	// Selected holds the appointments on SelectedDate.
	Selected []model.Appointment

	View   model.ViewMode
	Theme  model.Theme
	Cursor string
	Grid   calendar.Grid

	// Alert is a pending blocking message, empty when none.
	Alert string
	Form  *form.Form
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, err := c.gridLocked()
	if err != nil {
		return State{}, err
	}

	pane, _ := c.modal.Content().(Pane)
	return State{
		SelectedDate: c.selectedDate,
		ModalOpen:    c.modal.Open(),
		FormOpen:     c.form != nil,
		ScrollLocked: c.modal.ScrollLocked(),
		Pane:         pane,
		Appointments: append([]model.Appointment{}, c.appointments...),
		Selected:     filterByDate(c.appointments, c.selectedDate),
		View:         c.view,
		Theme:        c.theme,
		Cursor:       c.cursor,
		Grid:         g,
		Alert:        c.alert,
		Form:         c.form.Clone(),
	}, nil
}
