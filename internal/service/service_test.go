package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agenda-distribuida/calendar-service/internal/database"
	"github.com/agenda-distribuida/calendar-service/internal/events"
	"github.com/agenda-distribuida/calendar-service/internal/membership"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testEventTypes = []string{"work", "sport", "meeting"}

type recordingBroker struct {
	mu    sync.Mutex
	types []string
}

func (b *recordingBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.types = append(b.types, message.(events.Event).Type)
	return nil
}

func (b *recordingBroker) published() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.types...)
}

type testEnv struct {
	db        *sql.DB
	store     *repository.Store
	calendars CalendarService
	events    EventService
	broker    *recordingBroker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zerolog.Nop()
	store := repository.NewStore(db.DB(), log)
	registry := membership.NewRegistry(log)
	broker := &recordingBroker{}
	publisher := events.NewPublisher(broker, "calendars", log)

	return &testEnv{
		db:        db.DB(),
		store:     store,
		calendars: NewCalendarService(store, registry, publisher, testEventTypes, log),
		events:    NewEventService(store, registry, publisher, log),
		broker:    broker,
	}
}

func (e *testEnv) user(t *testing.T, pseudo string) uuid.UUID {
	t.Helper()
	u := &models.User{Pseudo: pseudo, Email: pseudo + "@example.com"}
	require.NoError(t, e.store.Transaction(context.Background(), func(tx *repository.Tx) error {
		return tx.Users.Create(context.Background(), u)
	}))
	return u.ID
}

// calendarWith creates a calendar owned by admin whose other members hold the
// given roles and confirmation state.
func (e *testEnv) calendarWith(t *testing.T, admin uuid.UUID, members ...models.MemberAssignment) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	cal, err := e.calendars.CreateCalendar(ctx, "Team", nil, admin)
	require.NoError(t, err)
	if len(members) == 0 {
		return cal.ID
	}

	rows := make([]models.MemberAssignment, len(members))
	copy(rows, members)
	require.NoError(t, e.store.Transaction(ctx, func(tx *repository.Tx) error {
		for _, m := range rows {
			if err := tx.Members.Insert(ctx, &models.Membership{
				CalendarID: cal.ID,
				UserID:     m.UserID,
				Role:       m.Role,
				Confirmed:  m.Confirmed,
			}); err != nil {
				return err
			}
		}
		count, err := tx.Members.CountConfirmed(ctx, cal.ID)
		if err != nil {
			return err
		}
		return tx.Calendars.SetOwnerCount(ctx, cal.ID, count)
	}))
	return cal.ID
}

// count runs a COUNT(*) query straight against the database.
func (e *testEnv) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(query, args...).Scan(&n))
	return n
}
