package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/agenda-distribuida/calendar-service/internal/apperr"
	"github.com/rs/zerolog"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx bundles the repositories bound to one open transaction.
type Tx struct {
	Calendars CalendarRepository
	Members   MembershipRepository
	Events    EventRepository
	Attendees AttendanceRepository
	Users     UserRepository
	Groups    GroupRepository
}

func newTx(q DBTX, log zerolog.Logger) *Tx {
	return &Tx{
		Calendars: NewCalendarRepository(q, log),
		Members:   NewMembershipRepository(q, log),
		Events:    NewEventRepository(q, log),
		Attendees: NewAttendanceRepository(q, log),
		Users:     NewUserRepository(q, log),
		Groups:    NewGroupRepository(q, log),
	}
}

// Store is the unit-of-work entry point of the persistence layer.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new store over db
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
	}
}

// Transaction runs fn inside one transaction. fn's writes are committed
// together when it returns nil and discarded otherwise.
//
// Errors that already carry an apperr.Kind are returned unchanged; any other
// failure aborts the transaction as a TransactionFailure.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to begin transaction")
		return apperr.TransactionFailure(err, "failed to begin transaction")
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error().Err(err).Msg("Failed to rollback transaction")
		}
	}()

	if err := fn(newTx(tx, s.log)); err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return err
		}
		s.log.Error().Err(err).Msg("Transaction aborted")
		return apperr.TransactionFailure(err, "transaction aborted")
	}

	if err := tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("Failed to commit transaction")
		return apperr.TransactionFailure(err, "failed to commit transaction")
	}

	return nil
}
