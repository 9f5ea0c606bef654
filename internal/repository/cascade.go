package repository

import (
	"context"

	"github.com/google/uuid"
)

// DeleteCalendarCascade removes a calendar and everything hanging off it:
// groups, attendees of its events, the events, memberships, then the
// calendar row. It must run inside a Transaction so a failure at any step
// leaves the calendar intact.
func DeleteCalendarCascade(ctx context.Context, tx *Tx, calendarID uuid.UUID) error {
	groups, err := tx.Groups.FindByCalendarID(ctx, calendarID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if err := tx.Groups.DeleteByID(ctx, g.ID); err != nil {
			return err
		}
	}

	eventIDs, err := tx.Events.ListIDsByCalendar(ctx, calendarID)
	if err != nil {
		return err
	}
	if err := tx.Attendees.DeleteByEvents(ctx, eventIDs); err != nil {
		return err
	}
	if err := tx.Events.DeleteByIDs(ctx, eventIDs); err != nil {
		return err
	}

	if err := tx.Members.DeleteByCalendar(ctx, calendarID); err != nil {
		return err
	}

	return tx.Calendars.Delete(ctx, calendarID)
}
