package service

import (
	"context"
	"testing"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/agenda-distribuida/calendar-service/internal/events"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday10 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func TestCreateEventRecordsPreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	calID := env.calendarWith(t, alice)

	event, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{
		Name:      "Standup",
		Type:      "work",
		StartTime: monday10,
		EndTime:   monday10.Add(time.Hour),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, event.Visibility)

	_, err = env.events.CreateEvent(ctx, alice, calID, models.EventFields{
		Name:      "Late run",
		Type:      "sport",
		StartTime: time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
	}, 60)
	require.NoError(t, err)

	matrix, err := env.calendars.GetPreferences(ctx, alice, calID)
	require.NoError(t, err)

	work, _ := matrix.Grid("work")
	assert.Equal(t, 1, work[time.Monday][10])
	assert.Equal(t, 1, work[time.Monday][11])
	assert.Equal(t, 2, sum(work))

	sport, _ := matrix.Grid("sport")
	assert.Equal(t, 1, sport[time.Tuesday][0], "offset shifts the placement into the next day")
	assert.Equal(t, 1, sum(sport))

	assert.Contains(t, env.broker.published(), events.EventCreated)
}

func sum(g [7][24]int) int {
	total := 0
	for _, day := range g {
		for _, v := range day {
			total += v
		}
	}
	return total
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	calID := env.calendarWith(t, alice)

	valid := models.EventFields{Name: "x", Type: "work", StartTime: monday10, EndTime: monday10}
	tests := []struct {
		name     string
		fields   models.EventFields
		tzOffset int
	}{
		{"unknown type", models.EventFields{Name: "x", Type: "party", StartTime: monday10, EndTime: monday10}, 0},
		{"end before start", models.EventFields{Name: "x", Type: "work", StartTime: monday10, EndTime: monday10.Add(-time.Minute)}, 0},
		{"missing name", models.EventFields{Type: "work", StartTime: monday10, EndTime: monday10}, 0},
		{"bad visibility", models.EventFields{Name: "x", Type: "work", Visibility: "team", StartTime: monday10, EndTime: monday10}, 0},
		{"missing times", models.EventFields{Name: "x", Type: "work"}, 0},
		{"too long", models.EventFields{
			Name:      "x",
			Type:      "work",
			StartTime: time.Date(2, 1, 1, 0, 0, 0, 0, time.UTC),
			EndTime:   time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
		}, 0},
		{"just over a year", models.EventFields{Name: "x", Type: "work", StartTime: monday10, EndTime: monday10.Add(models.MaxEventDuration + time.Hour)}, 0},
		{"offset too far east", valid, 841},
		{"offset too far west", valid, -841},
		{"offset overflow", valid, 1 << 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.events.CreateEvent(ctx, alice, calID, tt.fields, tt.tzOffset)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}

	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM events`))
	matrix, err := env.calendars.GetPreferences(ctx, alice, calID)
	require.NoError(t, err)
	work, _ := matrix.Grid("work")
	assert.Zero(t, sum(work))
}

func TestCreateEventAcceptsBoundaryValues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	calID := env.calendarWith(t, alice)

	_, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{
		Name:      "Sabbatical",
		Type:      "work",
		StartTime: monday10,
		EndTime:   monday10.Add(models.MaxEventDuration),
	}, 840)
	require.NoError(t, err)

	_, err = env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Call", Type: "work", StartTime: monday10, EndTime: monday10}, -840)
	require.NoError(t, err)

	// one bucket per hour of the year plus the inclusive end, and one for the call
	matrix, err := env.calendars.GetPreferences(ctx, alice, calID)
	require.NoError(t, err)
	work, _ := matrix.Grid("work")
	assert.Equal(t, 366*24+1+1, sum(work))
}

func TestEditEventKeepsPreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	calID := env.calendarWith(t, alice)

	event, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Standup", Type: "work", StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)

	later := monday10.Add(48 * time.Hour)
	edited, err := env.events.EditEvent(ctx, alice, event.ID, models.EventFields{
		Name:       "Retro",
		Location:   "Room 2",
		Type:       "meeting",
		Visibility: models.VisibilityPublic,
		StartTime:  later,
		EndTime:    later.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Retro", edited.Name)
	assert.Equal(t, models.VisibilityPublic, edited.Visibility)

	got, err := env.events.GetEvent(ctx, alice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Room 2", got.Location)
	assert.True(t, got.StartTime.Equal(later))

	matrix, err := env.calendars.GetPreferences(ctx, alice, calID)
	require.NoError(t, err)
	work, _ := matrix.Grid("work")
	meeting, _ := matrix.Grid("meeting")
	assert.Equal(t, 1, work[time.Monday][10])
	assert.Zero(t, sum(meeting))

	_, err = env.events.EditEvent(ctx, alice, event.ID, models.EventFields{Name: "Retro", Type: "party", StartTime: later, EndTime: later})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestInviteAttendees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.user(t, "carol")
	dave := env.user(t, "dave")
	calID := env.calendarWith(t, alice, models.MemberAssignment{UserID: dave, Role: models.RoleActor, Confirmed: true})

	event, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Standup", Type: "work", StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)

	attendees, err := env.events.InviteAttendees(ctx, alice, event.ID, []string{"bob", "dave"})
	require.NoError(t, err)
	require.Len(t, attendees, 2)
	for _, a := range attendees {
		assert.Equal(t, models.AttendanceInvited, a.Status)
	}

	// bob had no relation and joins as an unconfirmed outsider; dave's membership is unchanged.
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM calendar_members WHERE calendar_id = ? AND user_id = ? AND role = 'outsider' AND confirmed = 0`, calID, bob))
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM calendar_members WHERE calendar_id = ? AND user_id = ? AND role = 'actor' AND confirmed = 1`, calID, dave))

	attendees, err = env.events.InviteAttendees(ctx, alice, event.ID, []string{"carol"})
	require.NoError(t, err)
	assert.Len(t, attendees, 3, "prior attendees are returned with the new ones")

	// An outsider invite did not change the owner count.
	cal, err := env.calendars.GetCalendarWithOwners(ctx, alice, calID)
	require.NoError(t, err)
	assert.Equal(t, 2, cal.NbOwners)
}

func TestInviteAttendeesIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.user(t, "bob")
	env.user(t, "carol")
	outsider := env.user(t, "olivia")
	calID := env.calendarWith(t, alice, models.MemberAssignment{UserID: outsider, Role: models.RoleOutsider, Confirmed: true})

	event, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Standup", Type: "work", StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)
	_, err = env.events.InviteAttendees(ctx, alice, event.ID, []string{"bob"})
	require.NoError(t, err)

	attendeesBefore := env.count(t, `SELECT COUNT(*) FROM event_attendees`)
	membersBefore := env.count(t, `SELECT COUNT(*) FROM calendar_members`)

	tests := []struct {
		name    string
		pseudos []string
		kind    apperr.Kind
		names   string
	}{
		{"unknown pseudo", []string{"carol", "zed"}, apperr.KindNotFound, "zed"},
		{"malformed pseudo", []string{"carol", "a b"}, apperr.KindNotFound, "a b"},
		{"existing attendee", []string{"carol", "bob"}, apperr.KindConflict, "bob"},
		{"repeated in batch", []string{"carol", "carol"}, apperr.KindConflict, "carol"},
		{"empty batch", nil, apperr.KindInvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.events.InviteAttendees(ctx, alice, event.ID, tt.pseudos)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Contains(t, apperr.Message(err), tt.names)

			assert.Equal(t, attendeesBefore, env.count(t, `SELECT COUNT(*) FROM event_attendees`))
			assert.Equal(t, membersBefore, env.count(t, `SELECT COUNT(*) FROM calendar_members`))
		})
	}

	_, err = env.events.InviteAttendees(ctx, outsider, event.ID, []string{"carol"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGetEventReadRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	stranger := env.user(t, "stranger")
	guest := env.user(t, "guest")
	calID := env.calendarWith(t, alice)

	private, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Private", Type: "work", StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)
	public, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Public", Type: "work", Visibility: models.VisibilityPublic, StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)

	got, err := env.events.GetEvent(ctx, stranger, public.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceInvited, got.Status, "no attendance row reads as invited")

	_, err = env.events.GetEvent(ctx, stranger, private.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = env.events.GetEventAttendees(ctx, stranger, private.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = env.events.InviteAttendees(ctx, alice, private.ID, []string{"guest"})
	require.NoError(t, err)

	got, err = env.events.GetEvent(ctx, guest, private.ID)
	require.NoError(t, err, "attendees read the events they are invited to")
	assert.Equal(t, "Private", got.Name)

	attendees, err := env.events.GetEventAttendees(ctx, guest, private.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, "guest", attendees[0].Pseudo)

	_, err = env.events.GetEvent(ctx, alice, public.ID)
	require.NoError(t, err)

	list, err := env.calendars.ListEvents(ctx, alice, calID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	_, err = env.calendars.ListEvents(ctx, stranger, calID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestRespondToInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	calID := env.calendarWith(t, alice)

	event, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Standup", Type: "work", StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)

	_, err = env.events.RespondToInvitation(ctx, bob, event.ID, models.AttendanceAccepted)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.events.InviteAttendees(ctx, alice, event.ID, []string{"bob"})
	require.NoError(t, err)

	_, err = env.events.RespondToInvitation(ctx, bob, event.ID, models.AttendanceInvited)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	attendance, err := env.events.RespondToInvitation(ctx, bob, event.ID, models.AttendanceDeclined)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceDeclined, attendance.Status)
	assert.NotNil(t, attendance.RespondedAt)

	_, err = env.events.RespondToInvitation(ctx, bob, event.ID, models.AttendanceAccepted)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	got, err := env.events.GetEvent(ctx, bob, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceDeclined, got.Status)

	assert.Contains(t, env.broker.published(), events.AttendanceUpdated)
}

func TestDeleteEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	calID := env.calendarWith(t, alice)

	event, err := env.events.CreateEvent(ctx, alice, calID, models.EventFields{Name: "Standup", Type: "work", StartTime: monday10, EndTime: monday10}, 0)
	require.NoError(t, err)
	_, err = env.events.InviteAttendees(ctx, alice, event.ID, []string{"bob"})
	require.NoError(t, err)

	err = env.events.DeleteEvent(ctx, bob, event.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, env.events.DeleteEvent(ctx, alice, event.ID))
	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM event_attendees WHERE event_id = ?`, event.ID))

	_, err = env.events.GetEvent(ctx, alice, event.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	err = env.events.DeleteEvent(ctx, alice, event.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// The invitation membership outlives the event.
	require.NoError(t, env.store.Transaction(ctx, func(tx *repository.Tx) error {
		found, err := tx.Members.Find(ctx, calID, bob)
		require.NoError(t, err)
		assert.True(t, found.IsPresent())
		return nil
	}))
}
