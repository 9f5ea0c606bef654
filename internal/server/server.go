package server

import (
	"context"
	"net/http"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

var validate = validator.New()

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	JWTSecret      string
	AllowedOrigins []string
}

type Server struct {
	Server      *http.Server
	log         zerolog.Logger
	db          Pinger
	auth        *Authenticator
	calendarAPI *CalendarHandler
	eventAPI    *EventHandler
}

func New(opts Options, db Pinger, calendars service.CalendarService, events service.EventService, log zerolog.Logger) *Server {
	s := &Server{
		Server: &http.Server{
			Addr:         opts.Addr,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		log:         log,
		db:          db,
		auth:        NewAuthenticator(opts.JWTSecret),
		calendarAPI: NewCalendarHandler(calendars, log),
		eventAPI:    NewEventHandler(events, log),
	}

	// Setup routes
	r := mux.NewRouter()
	s.setupRoutes(r)

	s.Server.Handler = cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	return s
}

// Handler returns the root handler, CORS included
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)

	// Health check endpoint
	r.HandleFunc("/health", s.healthCheck).Methods("GET")

	// API v1 routes, all authenticated
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)

	// Calendars routes
	calendars := api.PathPrefix("/calendars").Subrouter()
	calendars.HandleFunc("", s.calendarAPI.CreateCalendar).Methods("POST")
	calendars.HandleFunc("/{id}", s.calendarAPI.GetCalendar).Methods("GET")
	calendars.HandleFunc("/{id}", s.calendarAPI.EditCalendar).Methods("PUT")
	calendars.HandleFunc("/{id}", s.calendarAPI.DeleteCalendar).Methods("DELETE")

	// Calendar members routes
	calendars.HandleFunc("/{id}/members", s.calendarAPI.AddMembers).Methods("POST")
	calendars.HandleFunc("/{id}/members/confirm", s.calendarAPI.ConfirmMembership).Methods("POST")
	calendars.HandleFunc("/{id}/members/{user_id}", s.calendarAPI.RemoveMember).Methods("DELETE")

	// Calendar read models
	calendars.HandleFunc("/{id}/events", s.calendarAPI.ListEvents).Methods("GET")
	calendars.HandleFunc("/{id}/events", s.eventAPI.CreateEvent).Methods("POST")
	calendars.HandleFunc("/{id}/preferences", s.calendarAPI.GetPreferences).Methods("GET")
	calendars.HandleFunc("/{id}/export.ics", s.calendarAPI.ExportICS).Methods("GET")

	// Users routes
	api.HandleFunc("/users/me/calendars", s.calendarAPI.ListUserCalendars).Methods("GET")

	// Events routes
	events := api.PathPrefix("/events").Subrouter()
	events.HandleFunc("/{id}", s.eventAPI.GetEvent).Methods("GET")
	events.HandleFunc("/{id}", s.eventAPI.EditEvent).Methods("PUT")
	events.HandleFunc("/{id}", s.eventAPI.DeleteEvent).Methods("DELETE")

	// Event attendees routes
	events.HandleFunc("/{id}/attendees", s.eventAPI.GetAttendees).Methods("GET")
	events.HandleFunc("/{id}/attendees", s.eventAPI.InviteAttendees).Methods("POST")
	events.HandleFunc("/{id}/status", s.eventAPI.RespondToInvitation).Methods("POST")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("address", s.Server.Addr).Msg("Starting server")
	return s.Server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("Shutting down server")
	return s.Server.Shutdown(ctx)
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.db == nil {
		s.log.Error().Msg("Database is not initialized")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy","error":"database not initialized"}`))
		return
	}

	// Check database connection with timeout
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("Database health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unhealthy","error":"database connection failed"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
