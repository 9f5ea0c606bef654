package server

import (
	"net/http"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/service"
	"github.com/rs/zerolog"
)

// EventHandler serves event and attendance routes
type EventHandler struct {
	service service.EventService
	log     zerolog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(s service.EventService, log zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: s,
		log:     log,
	}
}

// CreateEvent handles POST /calendars/{id}/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(w, r, "id", "calendar")
	if !ok {
		return
	}

	var req eventRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), requesterFrom(r.Context()), calendarID, req.fields(), req.TimezoneOffset)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "event", event)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(r.Context(), requesterFrom(r.Context()), eventID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "event", event)
}

// EditEvent handles PUT /events/{id}
func (h *EventHandler) EditEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	var req eventRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	event, err := h.service.EditEvent(r.Context(), requesterFrom(r.Context()), eventID, req.fields())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "event", event)
}

// DeleteEvent handles DELETE /events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	if err := h.service.DeleteEvent(r.Context(), requesterFrom(r.Context()), eventID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "message", "Event deleted successfully")
}

// GetAttendees handles GET /events/{id}/attendees
func (h *EventHandler) GetAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	attendees, err := h.service.GetEventAttendees(r.Context(), requesterFrom(r.Context()), eventID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if attendees == nil {
		attendees = []*models.Attendance{}
	}

	writeSuccess(w, http.StatusOK, "attendees", attendees)
}

// InviteAttendees handles POST /events/{id}/attendees
func (h *EventHandler) InviteAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	var req inviteRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	attendees, err := h.service.InviteAttendees(r.Context(), requesterFrom(r.Context()), eventID, req.Users)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "attendees", attendees)
}

// RespondToInvitation handles POST /events/{id}/status
func (h *EventHandler) RespondToInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "id", "event")
	if !ok {
		return
	}

	var req statusRequest
	if !decode(w, r, h.log, &req) {
		return
	}

	attendance, err := h.service.RespondToInvitation(r.Context(), requesterFrom(r.Context()), eventID, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeSuccess(w, http.StatusOK, "attendance", attendance)
}
