package server

import (
	"net/http"
	"strconv"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/service"
	"github.com/rs/zerolog"
)

// CalendarHandler serves calendar and membership routes
type CalendarHandler struct {
	service service.CalendarService
	log     zerolog.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(s service.CalendarService, log zerolog.Logger) *CalendarHandler {
	return &CalendarHandler{
		service: s,
		log:     log,
	}
}

// CreateCalendar handles POST /calendars
func (h *CalendarHandler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	calendar, err := h.service.CreateCalendar(r.Context(), req.Name, assignments(req.Owners), requesterFrom(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "calendar", calendar)
}

// GetCalendar handles GET /calendars/{id}
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	calendar, err := h.service.GetCalendarWithOwners(r.Context(), requesterFrom(r.Context()), calendarID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "calendar", calendar)
}

// EditCalendar handles PUT /calendars/{id}
func (h *CalendarHandler) EditCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	var req editCalendarRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	calendar, err := h.service.EditCalendar(r.Context(), requesterFrom(r.Context()), calendarID, req.Name)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "calendar", calendar)
}

// DeleteCalendar handles DELETE /calendars/{id}
func (h *CalendarHandler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	if err := h.service.DeleteCalendar(r.Context(), requesterFrom(r.Context()), calendarID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "message", "Calendar deleted successfully")
}

// ListUserCalendars handles GET /users/me/calendars
func (h *CalendarHandler) ListUserCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.ListUserCalendars(r.Context(), requesterFrom(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if calendars == nil {
		calendars = []*models.UserCalendar{}
	}

	writeSuccess(w, http.StatusOK, "calendars", calendars)
}

// AddMembers handles POST /calendars/{id}/members
func (h *CalendarHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	var req addMembersRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	members, err := h.service.AddMembers(r.Context(), requesterFrom(r.Context()), calendarID, assignments(req.Members))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "members", members)
}

// ConfirmMembership handles POST /calendars/{id}/members/confirm
func (h *CalendarHandler) ConfirmMembership(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	m, err := h.service.ConfirmMembership(r.Context(), requesterFrom(r.Context()), calendarID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "membership", m)
}

// RemoveMember handles DELETE /calendars/{id}/members/{user_id}
func (h *CalendarHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "user_id", "user")
	if !ok {
		return
	}

	removal, err := h.service.RemoveMember(r.Context(), requesterFrom(r.Context()), calendarID, userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "success",
		"remaining":        removal.Remaining,
		"calendar_deleted": removal.CalendarDeleted,
	})
}

// ListEvents handles GET /calendars/{id}/events
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	events, err := h.service.ListEvents(r.Context(), requesterFrom(r.Context()), calendarID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}

	writeSuccess(w, http.StatusOK, "events", events)
}

// GetPreferences handles GET /calendars/{id}/preferences
func (h *CalendarHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	matrix, err := h.service.GetPreferences(r.Context(), requesterFrom(r.Context()), calendarID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "preferences", matrix)
}

// ExportICS handles GET /calendars/{id}/export.ics
func (h *CalendarHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	body, err := h.service.ExportICS(r.Context(), requesterFrom(r.Context()), calendarID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+calendarID.String()+`.ics"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
