package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/agenda-distribuida/calendar-service/internal/database"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/preferences"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "calendar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.DB(), zerolog.Nop())
}

func seedUser(t *testing.T, s *Store, pseudo string) *models.User {
	t.Helper()
	user := &models.User{Pseudo: pseudo, Email: pseudo + "@example.com"}
	require.NoError(t, s.Transaction(context.Background(), func(tx *Tx) error {
		return tx.Users.Create(context.Background(), user)
	}))
	return user
}

func seedCalendar(t *testing.T, s *Store, name string) *models.Calendar {
	t.Helper()
	cal := &models.Calendar{Name: name, TimeslotPreferences: preferences.NewMatrix([]string{"work", "sport"})}
	require.NoError(t, s.Transaction(context.Background(), func(tx *Tx) error {
		return tx.Calendars.Create(context.Background(), cal)
	}))
	return cal
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cal := seedCalendar(t, s, "Team")

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		got, err := tx.Calendars.GetByID(ctx, cal.ID)
		if err != nil {
			return err
		}
		require.NoError(t, got.TimeslotPreferences.RecordEvent("work", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 0))
		return tx.Calendars.Update(ctx, got)
	}))

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		got, err := tx.Calendars.GetByID(ctx, cal.ID)
		require.NoError(t, err)
		grid, ok := got.TimeslotPreferences.Grid("work")
		require.True(t, ok)
		assert.Equal(t, 1, grid[time.Monday][10])
		assert.Equal(t, []string{"sport", "work"}, got.TimeslotPreferences.Types())
		return nil
	}))
}

func TestTransactionRollsBackAndClassifies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Tx) error {
		if err := tx.Users.Create(ctx, &models.User{Pseudo: "ghost", Email: "ghost@example.com"}); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTransactionFailure))
	assert.ErrorIs(t, err, boom)

	err = s.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Users.FindByPseudo(ctx, "ghost")
		return err
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Classified errors pass through unchanged.
	conflict := apperr.Conflict("already there")
	err = s.Transaction(ctx, func(tx *Tx) error { return conflict })
	assert.Same(t, conflict, err)
}

func TestMembershipLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	cal := seedCalendar(t, s, "Team")

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		found, err := tx.Members.Find(ctx, cal.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, found.IsAbsent())

		require.NoError(t, tx.Members.Insert(ctx, &models.Membership{CalendarID: cal.ID, UserID: alice.ID, Role: models.RoleAdmin, Confirmed: true}))
		require.NoError(t, tx.Members.Insert(ctx, &models.Membership{CalendarID: cal.ID, UserID: bob.ID, Role: models.RoleActor}))

		err = tx.Members.Insert(ctx, &models.Membership{CalendarID: cal.ID, UserID: bob.ID, Role: models.RoleAdmin})
		assert.ErrorIs(t, err, ErrDuplicateMembership)

		count, err := tx.Members.CountConfirmed(ctx, cal.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, tx.Members.Confirm(ctx, cal.ID, bob.ID))
		count, err = tx.Members.CountConfirmed(ctx, cal.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		members, err := tx.Members.ListByCalendar(ctx, cal.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "alice", members[0].Pseudo)

		found, err = tx.Members.Find(ctx, cal.ID, bob.ID)
		require.NoError(t, err)
		m, ok := found.Get()
		require.True(t, ok)
		assert.Equal(t, models.RoleActor, m.Role)
		assert.True(t, m.Confirmed)

		require.NoError(t, tx.Members.Delete(ctx, cal.ID, bob.ID))
		assert.ErrorIs(t, tx.Members.Delete(ctx, cal.ID, bob.ID), ErrMembershipNotFound)

		calendars, err := tx.Calendars.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, calendars, 1)
		assert.Equal(t, "Team", calendars[0].CalendarName)
		assert.Equal(t, models.RoleAdmin, calendars[0].Role)
		return nil
	}))
}

func TestAttendanceLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	cal := seedCalendar(t, s, "Team")
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		event := &models.Event{
			CalendarID: cal.ID,
			Name:       "Standup",
			Type:       "work",
			Visibility: models.VisibilityPrivate,
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
		}
		require.NoError(t, tx.Events.Create(ctx, event))

		got, err := tx.Events.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.True(t, got.StartTime.Equal(start))
		assert.Equal(t, models.VisibilityPrivate, got.Visibility)

		require.NoError(t, tx.Attendees.Insert(ctx, &models.Attendance{EventID: event.ID, UserID: alice.ID, Status: models.AttendanceInvited}))
		assert.ErrorIs(t, tx.Attendees.Insert(ctx, &models.Attendance{EventID: event.ID, UserID: alice.ID, Status: models.AttendanceInvited}), ErrDuplicateAttendance)

		require.NoError(t, tx.Attendees.UpdateStatus(ctx, event.ID, alice.ID, models.AttendanceAccepted))
		a, err := tx.Attendees.Get(ctx, event.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AttendanceAccepted, a.Status)
		assert.Equal(t, "alice", a.Pseudo)
		assert.NotNil(t, a.RespondedAt)

		_, err = tx.Attendees.Get(ctx, event.ID, uuid.New())
		assert.ErrorIs(t, err, ErrAttendanceNotFound)

		// The attendee row still references the event.
		assert.Error(t, tx.Events.Delete(ctx, event.ID))
		return nil
	}))
}

func TestDeleteCalendarCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	cal := seedCalendar(t, s, "Team")
	other := seedCalendar(t, s, "Other")
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	populate := func(tx *Tx, calendarID uuid.UUID) error {
		if err := tx.Members.Insert(ctx, &models.Membership{CalendarID: calendarID, UserID: alice.ID, Role: models.RoleAdmin, Confirmed: true}); err != nil {
			return err
		}
		if err := tx.Groups.Create(ctx, &models.Group{Name: "crew", CalendarID: calendarID}); err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			event := &models.Event{CalendarID: calendarID, Name: "e", Type: "work", Visibility: models.VisibilityPublic, StartTime: start, EndTime: start}
			if err := tx.Events.Create(ctx, event); err != nil {
				return err
			}
			if err := tx.Attendees.Insert(ctx, &models.Attendance{EventID: event.ID, UserID: alice.ID, Status: models.AttendanceInvited}); err != nil {
				return err
			}
		}
		return nil
	}
	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		if err := populate(tx, cal.ID); err != nil {
			return err
		}
		return populate(tx, other.ID)
	}))

	t.Run("aborted cascade leaves everything", func(t *testing.T) {
		err := s.Transaction(ctx, func(tx *Tx) error {
			if err := DeleteCalendarCascade(ctx, tx, cal.ID); err != nil {
				return err
			}
			return errors.New("crash after cascade")
		})
		require.Error(t, err)

		require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
			_, err := tx.Calendars.GetByID(ctx, cal.ID)
			require.NoError(t, err)
			ids, err := tx.Events.ListIDsByCalendar(ctx, cal.ID)
			require.NoError(t, err)
			assert.Len(t, ids, 2)
			groups, err := tx.Groups.FindByCalendarID(ctx, cal.ID)
			require.NoError(t, err)
			assert.Len(t, groups, 1)
			return nil
		}))
	})

	t.Run("committed cascade removes dependents only for the calendar", func(t *testing.T) {
		var eventIDs []uuid.UUID
		require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
			var err error
			eventIDs, err = tx.Events.ListIDsByCalendar(ctx, cal.ID)
			if err != nil {
				return err
			}
			return DeleteCalendarCascade(ctx, tx, cal.ID)
		}))

		require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
			_, err := tx.Calendars.GetByID(ctx, cal.ID)
			assert.ErrorIs(t, err, ErrCalendarNotFound)

			for _, id := range eventIDs {
				_, err := tx.Events.GetByID(ctx, id)
				assert.ErrorIs(t, err, ErrEventNotFound)
				attendees, err := tx.Attendees.ListByEvent(ctx, id)
				require.NoError(t, err)
				assert.Empty(t, attendees)
			}

			groups, err := tx.Groups.FindByCalendarID(ctx, cal.ID)
			require.NoError(t, err)
			assert.Empty(t, groups)

			found, err := tx.Members.Find(ctx, cal.ID, alice.ID)
			require.NoError(t, err)
			assert.True(t, found.IsAbsent())

			ids, err := tx.Events.ListIDsByCalendar(ctx, other.ID)
			require.NoError(t, err)
			assert.Len(t, ids, 2)
			groups, err = tx.Groups.FindByCalendarID(ctx, other.ID)
			require.NoError(t, err)
			assert.Len(t, groups, 1)
			return nil
		}))
	})
}

func TestListOrphaned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	owned := seedCalendar(t, s, "Owned")
	pending := seedCalendar(t, s, "Pending")

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		if err := tx.Members.Insert(ctx, &models.Membership{CalendarID: owned.ID, UserID: alice.ID, Role: models.RoleAdmin, Confirmed: true}); err != nil {
			return err
		}
		return tx.Members.Insert(ctx, &models.Membership{CalendarID: pending.ID, UserID: alice.ID, Role: models.RoleActor})
	}))

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		ids, err := tx.Calendars.ListOrphaned(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{pending.ID}, ids)
		return nil
	}))
}

func TestUserDirectory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		err := tx.Users.Create(ctx, &models.User{Pseudo: "alice", Email: "other@example.com"})
		assert.ErrorIs(t, err, ErrDuplicateUser)

		got, err := tx.Users.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Pseudo)

		ok, err := tx.Users.Exists(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		kind apperr.Kind
	}{
		{ErrCalendarNotFound, apperr.KindNotFound},
		{fmt.Errorf("lookup: %w", ErrUserNotFound), apperr.KindNotFound},
		{ErrDuplicateMembership, apperr.KindConflict},
		{ErrDuplicateAttendance, apperr.KindConflict},
		{errors.New("disk I/O error"), apperr.KindUnknown},
		{apperr.Forbidden(nil, "nope"), apperr.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.kind, apperr.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.NoError(t, Classify(nil))
}
