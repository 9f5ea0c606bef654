// Package membership keeps the relation between users and calendars and the
// owner count derived from it.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/mo"
)

// Removal describes the outcome of RemoveMember.
type Removal struct {
	// Remaining is the confirmed-owner count after the removal.
	Remaining int
	// CalendarDeleted is set when the removal left no owner and the calendar
	// was cascaded away in the same transaction.
	CalendarDeleted bool
}

// Registry operates on memberships inside a caller-supplied transaction.
type Registry struct {
	log zerolog.Logger
}

// NewRegistry creates a new membership registry
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{log: log}
}

// FindRelation returns the membership of userID on calendarID, if any.
func (r *Registry) FindRelation(ctx context.Context, tx *repository.Tx, calendarID, userID uuid.UUID) (mo.Option[models.Membership], error) {
	return tx.Members.Find(ctx, calendarID, userID)
}

// AddMembers inserts a batch of memberships. A user that already has a
// relation with the calendar, or appears twice in the batch, fails the whole
// batch with Conflict; rows inserted before the failure are discarded with the
// caller's transaction.
func (r *Registry) AddMembers(ctx context.Context, tx *repository.Tx, calendarID uuid.UUID, assignments []models.MemberAssignment) ([]models.Membership, error) {
	added := make([]models.Membership, 0, len(assignments))
	for _, a := range assignments {
		if !a.Role.IsValid() {
			return nil, apperr.InvalidInput("invalid role %q", a.Role)
		}

		exists, err := tx.Users.Exists(ctx, a.UserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperr.NotFound("user %s not found", a.UserID)
		}

		m := models.Membership{
			CalendarID: calendarID,
			UserID:     a.UserID,
			Role:       a.Role,
			Confirmed:  a.Confirmed,
		}
		if err := tx.Members.Insert(ctx, &m); err != nil {
			if errors.Is(err, repository.ErrDuplicateMembership) {
				return nil, apperr.Wrap(apperr.KindConflict, err, "user %s already has a relation with this calendar", a.UserID)
			}
			return nil, err
		}
		added = append(added, m)
	}

	if _, err := r.recountOwners(ctx, tx, calendarID); err != nil {
		return nil, err
	}
	return added, nil
}

// Confirm accepts a pending membership.
func (r *Registry) Confirm(ctx context.Context, tx *repository.Tx, calendarID, userID uuid.UUID) (models.Membership, error) {
	found, err := tx.Members.Find(ctx, calendarID, userID)
	if err != nil {
		return models.Membership{}, err
	}
	m, ok := found.Get()
	if !ok {
		return models.Membership{}, apperr.NotFound("user has no relation with this calendar")
	}
	if m.Confirmed {
		return models.Membership{}, apperr.Conflict("membership is already confirmed")
	}

	if err := tx.Members.Confirm(ctx, calendarID, userID); err != nil {
		return models.Membership{}, repository.Classify(err)
	}
	if _, err := r.recountOwners(ctx, tx, calendarID); err != nil {
		return models.Membership{}, err
	}

	m.Confirmed = true
	return m, nil
}

// RemoveMember deletes the relation between userID and calendarID. When no
// confirmed owner is left the calendar is deleted with its dependents.
func (r *Registry) RemoveMember(ctx context.Context, tx *repository.Tx, calendarID, userID uuid.UUID) (Removal, error) {
	if err := tx.Members.Delete(ctx, calendarID, userID); err != nil {
		return Removal{}, repository.Classify(err)
	}

	remaining, err := r.recountOwners(ctx, tx, calendarID)
	if err != nil {
		return Removal{}, err
	}
	if remaining > 0 {
		return Removal{Remaining: remaining}, nil
	}

	if err := repository.DeleteCalendarCascade(ctx, tx, calendarID); err != nil {
		return Removal{}, fmt.Errorf("failed to delete orphaned calendar: %w", err)
	}

	r.log.Info().
		Str("calendar_id", calendarID.String()).
		Str("user_id", userID.String()).
		Msg("Last owner left, calendar deleted")
	return Removal{CalendarDeleted: true}, nil
}

// ListMembers returns every membership of a calendar with the member pseudo.
func (r *Registry) ListMembers(ctx context.Context, tx *repository.Tx, calendarID uuid.UUID) ([]*models.MemberView, error) {
	return tx.Members.ListByCalendar(ctx, calendarID)
}

// recountOwners stores the confirmed-member count on the calendar row.
func (r *Registry) recountOwners(ctx context.Context, tx *repository.Tx, calendarID uuid.UUID) (int, error) {
	count, err := tx.Members.CountConfirmed(ctx, calendarID)
	if err != nil {
		return 0, err
	}
	if err := tx.Calendars.SetOwnerCount(ctx, calendarID, count); err != nil {
		return 0, repository.Classify(err)
	}
	return count, nil
}
