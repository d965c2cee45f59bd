// Package app owns the SISVEI application state and the transitions
// between idle, viewing a date and editing a new appointment.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sisvei/internal/calendar"
	"sisvei/internal/form"
	"sisvei/internal/ics"
	appLog "sisvei/internal/log"
	"sisvei/internal/mapper"
	"sisvei/internal/modal"
	"sisvei/internal/model"
	"sisvei/internal/prefs"
	"sisvei/internal/store"
)

// Store is the remote appointment collection.
type Store interface {
	List(ctx context.Context) ([]model.RemoteRecord, error)
	Create(ctx context.Context, rec model.RemoteRecord) (model.RemoteRecord, error)
	Delete(ctx context.Context, id string) error
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Pane is what the modal currently shows.
type Pane string

const (
	PaneList Pane = "list"
	PaneForm Pane = "form"
)

// Navigation directions for the calendar cursor.
const (
	NavPrev  = "prev"
	NavNext  = "next"
	NavToday = "today"
)

const themeKey = "theme"

const (
	DeletePrompt = "Tem certeza que deseja excluir este agendamento?"
	HelpText     = "Ajuda do Sistema:\n\n" +
		"1. Clique em uma data para ver os agendamentos\n" +
		"2. Use o botão \"+\" para adicionar um novo agendamento\n" +
		"3. Alterne entre visualização mensal e semanal usando os ícones na barra superior"
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrInvalidView = errors.New("invalid view mode")
	ErrNotViewing  = errors.New("no date is being viewed")
	ErrNoForm      = errors.New("appointment form is not open")
	ErrInvalidID   = errors.New("appointment id is empty")
)

// Options configures a Controller.
type Options struct {
	Store     Store
	Prefs     prefs.Store
	Location  *time.Location
	WeekStart time.Weekday
	// Now is overridable for tests.
	Now func() time.Time
}

// Controller is the single owner of application state. Every mutation
// happens under mu; remote calls run outside it and their results are
// applied once they complete, so the last completed call wins.
type Controller struct {
	store     Store
	prefs     prefs.Store
	loc       *time.Location
	weekStart time.Weekday
	now       func() time.Time

	mu           sync.Mutex
	modal        *modal.Modal
	selectedDate string
	form         *form.Form
	appointments []model.Appointment
	view         model.ViewMode
	theme        model.Theme
	cursor       string
	alert        string

	// loaded is set once a List call has succeeded.
	loaded bool
}

// New builds a Controller in the idle state, restoring the saved theme.
func New(opts Options) *Controller {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Prefs == nil {
		opts.Prefs = prefs.NewMemory()
	}

	c := &Controller{
		store:        opts.Store,
		prefs:        opts.Prefs,
		loc:          opts.Location,
		weekStart:    opts.WeekStart,
		now:          opts.Now,
		appointments: []model.Appointment{},
		view:         model.ViewMonth,
		theme:        model.ThemeLight,
	}
	// onClose only runs from modal calls made while mu is held.
	c.modal = modal.New(c.resetToIdleLocked)
	c.cursor = c.todayLocked()

	if v, ok := opts.Prefs.Get(themeKey); ok {
		if t, ok := model.ParseTheme(v); ok {
			c.theme = t
		}
	}
	return c
}

// Load replaces the appointment list with the remote collection and
// raises an alert on failure. A failed first load leaves the list empty;
// a failed reload keeps the last list that loaded.
func (c *Controller) Load(ctx context.Context) error {
	recs, err := c.store.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		appLog.Error("loading appointments failed", err, "reload", c.loaded)
		if !c.loaded {
			c.appointments = []model.Appointment{}
		}
		c.alert = alertFor("Não foi possível carregar os agendamentos", err)
		return err
	}

	c.appointments = ingest(recs)
	c.loaded = true
	appLog.Info("appointments loaded", "count", len(c.appointments), "records", len(recs))
	return nil
}

// ingest is the only path from remote records to appointments; it is
// where soft-deleted records are dropped.
func ingest(recs []model.RemoteRecord) []model.Appointment {
	out := make([]model.Appointment, 0, len(recs))
	for _, rec := range recs {
		if rec.Excluido {
			continue
		}
		out = append(out, mapper.ToAppointment(rec))
	}
	return out
}

// SelectDate opens the modal on the list of appointments for date.
func (c *Controller) SelectDate(date string) error {
	if _, err := calendar.ParseDate(date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedDate = date
	c.form = nil
	c.modal.Show(PaneList)
	return nil
}

// AddAppointment switches from the date's list to an empty form.
func (c *Controller) AddAppointment() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.modal.Open() || c.selectedDate == "" {
		return ErrNotViewing
	}
	c.openFormLocked()
	return nil
}

// NewAppointment selects today and opens an empty form directly.
func (c *Controller) NewAppointment() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectedDate = c.todayLocked()
	c.openFormLocked()
}

func (c *Controller) openFormLocked() {
	c.form = form.New(nil)
	c.modal.Show(PaneForm)
}

// Submit validates data and, when complete, creates the appointment
// remotely for the selected date. Validation errors stay on the form and
// make no remote call. A failed create keeps the form open with an alert.
func (c *Controller) Submit(ctx context.Context, data model.AppointmentFormData) error {
	c.mu.Lock()
	f := c.form
	date := c.selectedDate
	if f == nil {
		c.mu.Unlock()
		return ErrNoForm
	}
	var draft model.AppointmentFormData
	err := f.Submit(data, func(d model.AppointmentFormData) error {
		draft = d
		return nil
	})
	c.mu.Unlock()
	if err != nil {
		return err
	}

	rec := mapper.ToRemoteRecord(mapper.FromForm(date, draft))
	created, err := c.store.Create(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		appLog.Error("create appointment failed", err, "date", date, "vehicle", draft.Vehicle)
		c.alert = alertFor("Erro ao salvar o agendamento", err)
		return err
	}

	added := ingest([]model.RemoteRecord{created})
	c.appointments = append(c.appointments, added...)
	appLog.Info("appointment created", "id", created.ID, "date", date)

	// The user may have closed the modal while the call was in flight.
	if c.form == f {
		c.form = nil
		c.modal.Show(PaneList)
	}
	return nil
}

// CancelForm returns to the date's list without touching the list.
func (c *Controller) CancelForm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.form == nil {
		return
	}
	c.form = nil
	c.modal.Show(PaneList)
}

// CloseModal is the explicit close button.
func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal.Close()
}

// ModalKey forwards a key press to the modal; Escape closes it.
func (c *Controller) ModalKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal.HandleKey(key)
}

// ModalClick forwards a click; only backdrop clicks close the modal.
func (c *Controller) ModalClick(r modal.Region) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modal.HandleClick(r)
}

// resetToIdleLocked is the modal's close callback. Unsaved form input is
// discarded.
func (c *Controller) resetToIdleLocked() {
	c.selectedDate = ""
	c.form = nil
}

// Delete asks for confirmation and removes the appointment remotely, then
// locally. It reports whether anything was deleted.
func (c *Controller) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if id == "" {
		c.mu.Lock()
		c.alert = alertFor("Erro ao excluir o agendamento", ErrInvalidID)
		c.mu.Unlock()
		return false, ErrInvalidID
	}
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return false, nil
	}

	err := c.store.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		appLog.Error("delete appointment failed", err, "id", id)
		c.alert = alertFor("Erro ao excluir o agendamento", err)
		return false, err
	}

	kept := c.appointments[:0:0]
	for _, a := range c.appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	c.appointments = kept
	appLog.Info("appointment deleted", "id", id)
	return true, nil
}

// SetView switches between month and week grids. Modal state is untouched.
func (c *Controller) SetView(v string) error {
	mode, ok := model.ParseViewMode(v)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidView, v)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = mode
	return nil
}

// Navigate moves the calendar cursor one page back, forward or to today.
func (c *Controller) Navigate(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir == NavToday {
		c.cursor = c.todayLocked()
		return nil
	}

	g, err := c.gridLocked()
	if err != nil {
		return err
	}
	switch dir {
	case NavPrev:
		c.cursor = g.Prev
	case NavNext:
		c.cursor = g.Next
	default:
		return fmt.Errorf("unknown navigation %q", dir)
	}
	return nil
}

// ToggleTheme flips light/dark and persists the choice.
func (c *Controller) ToggleTheme() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.theme.Toggle()
	if err := c.prefs.Set(themeKey, string(next)); err != nil {
		appLog.Error("saving theme failed", err, "theme", next)
		c.alert = "Não foi possível salvar a preferência de tema."
		return err
	}
	c.theme = next
	return nil
}

// Help raises the help text as an alert.
func (c *Controller) Help() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alert = HelpText
}

// DismissAlert clears the pending alert.
func (c *Controller) DismissAlert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alert = ""
}

// SelectedDateAppointments returns the appointments on the selected date
// in list order.
func (c *Controller) SelectedDateAppointments() []model.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filterByDate(c.appointments, c.selectedDate)
}

// Appointments returns a copy of the full list.
func (c *Controller) Appointments() []model.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Appointment{}, c.appointments...)
}

func filterByDate(all []model.Appointment, date string) []model.Appointment {
	out := []model.Appointment{}
	if date == "" {
		return out
	}
	for _, a := range all {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// Location is the zone used for "today" and exports.
func (c *Controller) Location() *time.Location {
	return c.loc
}

func (c *Controller) todayLocked() string {
	return c.now().In(c.loc).Format(calendar.DateLayout)
}

func (c *Controller) gridLocked() (calendar.Grid, error) {
	cursor, err := calendar.ParseDate(c.cursor)
	if err != nil {
		return calendar.Grid{}, err
	}
	today, _ := calendar.ParseDate(c.todayLocked())

	events := make([]calendar.Event, 0, len(c.appointments))
	for _, a := range c.appointments {
		events = append(events, calendar.Event{
			ID:    a.ID,
			Title: ics.EventTitle(a),
			Date:  a.Date,
		})
	}
	return calendar.Build(calendar.Options{
		View:      c.view,
		Cursor:    cursor,
		Today:     today,
		WeekStart: c.weekStart,
		Events:    events,
	})
}

// alertFor turns a store error into the single user-facing message.
func alertFor(action string, err error) string {
	var (
		ne *store.NetworkError
		se *store.ServerError
		pe *store.ParseError
	)
	switch {
	case errors.As(err, &ne):
		return action + ": falha de conexão com o servidor."
	case errors.As(err, &se):
		return fmt.Sprintf("%s: o servidor respondeu %s.", action, se.Status)
	case errors.As(err, &pe):
		return action + ": resposta inválida do servidor."
	default:
		return action + "."
	}
}
