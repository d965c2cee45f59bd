package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"sisvei/internal/app"
	"sisvei/internal/calendar"
	"sisvei/internal/config"
	"sisvei/internal/form"
	"sisvei/internal/ics"
	appLog "sisvei/internal/log"
	"sisvei/internal/modal"
	"sisvei/internal/model"
)

// Server renders the controller state as HTML and turns browser posts
// into controller transitions. Every state-changing route answers
// 303 See Other back to the calendar page.
type Server struct {
	cfg  *config.Config
	ctrl *app.Controller
	mux  *http.ServeMux
	tmpl *template.Template

	// now is overridable for tests.
	now func() time.Time
}

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed all:static
var embeddedStatic embed.FS

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"brDate": func(date string) string {
		t, err := calendar.ParseDate(date)
		if err != nil {
			return date
		}
		return t.Format("02/01/2006")
	},
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, ctrl *app.Controller) *Server {
	s := &Server{
		cfg:  cfg,
		ctrl: ctrl,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index.html.tmpl").Funcs(templateFuncs).ParseFS(embeddedTemplates, "templates/*.tmpl")),
		now:  time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /api/appointments", s.handleAppointments)
	s.mux.Handle("GET /static/", s.staticFileServer())

	s.mux.HandleFunc("POST /select", s.handleSelect)
	s.mux.HandleFunc("POST /add", s.handleAdd)
	s.mux.HandleFunc("POST /new", s.handleNew)
	s.mux.HandleFunc("POST /appointments", s.handleSubmit)
	s.mux.HandleFunc("POST /cancel", s.handleCancel)
	s.mux.HandleFunc("POST /close", s.handleClose)
	s.mux.HandleFunc("POST /modal/key", s.handleModalKey)
	s.mux.HandleFunc("POST /modal/click", s.handleModalClick)
	s.mux.HandleFunc("POST /appointments/{id}/delete", s.handleDelete)
	s.mux.HandleFunc("POST /view", s.handleView)
	s.mux.HandleFunc("POST /nav", s.handleNav)
	s.mux.HandleFunc("POST /theme", s.handleTheme)
	s.mux.HandleFunc("POST /help", s.handleHelp)
	s.mux.HandleFunc("POST /alert/dismiss", s.handleDismiss)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// pageData is what the index template renders.
type pageData struct {
	app.State
	DeletePrompt string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	st, err := s.ctrl.Snapshot()
	if err != nil {
		appLog.Error("snapshot failed", err)
		writeError(w, http.StatusInternalServerError, "failed to build calendar")
		return
	}

	// Render into a buffer so a template error never leaves a half page.
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, pageData{State: st, DeletePrompt: app.DeletePrompt}); err != nil {
		appLog.Error("render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	body := ics.Export(s.ctrl.Appointments(), s.ctrl.Location(), s.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sisvei.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// appointmentDTO is the JSON view of one appointment.
type appointmentDTO struct {
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	StartAddress string   `json:"start_address"`
	EndAddress   string   `json:"end_address"`
	Vehicle      string   `json:"vehicle"`
	Driver       string   `json:"driver"`
	Passengers   []string `json:"passengers"`
}

// appointmentsResponse is the JSON response shape for /api/appointments.
type appointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
	Timezone     string           `json:"timezone"`
}

// handleAppointments returns the visible appointment list.
//
// GET /api/appointments?date=2024-03-10
//   - date: optional; only that day's appointments, in list order
func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := calendar.ParseDate(date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	all := s.ctrl.Appointments()
	dtos := make([]appointmentDTO, 0, len(all))
	for _, a := range all {
		if date != "" && a.Date != date {
			continue
		}
		passengers := a.Passengers
		if passengers == nil {
			passengers = []string{}
		}
		dtos = append(dtos, appointmentDTO{
			ID:           a.ID,
			Date:         a.Date,
			StartTime:    a.StartTime,
			EndTime:      a.EndTime,
			StartAddress: a.StartAddress,
			EndAddress:   a.EndAddress,
			Vehicle:      a.Vehicle,
			Driver:       a.Driver,
			Passengers:   passengers,
		})
	}

	writeJSON(w, http.StatusOK, appointmentsResponse{
		Appointments: dtos,
		Timezone:     s.ctrl.Location().String(),
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SelectDate(r.FormValue("date")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	backToCalendar(w, r)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.AddAppointment(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	backToCalendar(w, r)
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	s.ctrl.NewAppointment()
	backToCalendar(w, r)
}

// handleSubmit hands the posted form to the controller. Validation and
// store failures are already reflected in controller state (field errors
// or an alert), so both still redirect back to the page.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data := model.AppointmentFormData{
		StartTime:    r.FormValue(form.FieldStartTime),
		EndTime:      r.FormValue(form.FieldEndTime),
		StartAddress: r.FormValue(form.FieldStartAddress),
		EndAddress:   r.FormValue(form.FieldEndAddress),
		Vehicle:      r.FormValue(form.FieldVehicle),
		Driver:       r.FormValue(form.FieldDriver),
		Passengers:   r.FormValue(form.FieldPassengers),
	}

	err := s.ctrl.Submit(r.Context(), data)
	if errors.Is(err, app.ErrNoForm) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			appLog.Debug("form rejected", "fields", len(verr.Fields))
		}
	}
	backToCalendar(w, r)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.ctrl.CancelForm()
	backToCalendar(w, r)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.ctrl.CloseModal()
	backToCalendar(w, r)
}

func (s *Server) handleModalKey(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ModalKey(r.FormValue("key"))
	backToCalendar(w, r)
}

func (s *Server) handleModalClick(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ModalClick(modal.Region(r.FormValue("region")))
	backToCalendar(w, r)
}

// handleDelete trusts the browser's confirm prompt, reported in the
// confirmed field. Anything but "true" counts as declined.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	confirmed := r.FormValue("confirmed") == "true"

	_, err := s.ctrl.Delete(r.Context(), id, app.ConfirmFunc(func(string) bool { return confirmed }))
	if err != nil {
		appLog.Debug("delete did not complete", "id", id)
	}
	backToCalendar(w, r)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SetView(r.FormValue("view")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	backToCalendar(w, r)
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Navigate(r.FormValue("dir")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	backToCalendar(w, r)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	// A failed save is surfaced as an alert by the controller.
	_ = s.ctrl.ToggleTheme()
	backToCalendar(w, r)
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Help()
	backToCalendar(w, r)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.ctrl.DismissAlert()
	backToCalendar(w, r)
}

// staticFileServer serves the embedded stylesheet and script under /static/.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static assets not available", http.StatusServiceUnavailable)
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func backToCalendar(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
