package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserRepository defines the interface for user directory access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPseudo(ctx context.Context, pseudo string) (*models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type userRepository struct {
	db  DBTX
	log zerolog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX, log zerolog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// Create registers a user in the directory
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, pseudo, email, created_at)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.Pseudo, user.Email, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		r.log.Error().
			Err(err).
			Str("pseudo", user.Pseudo).
			Msg("Failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by its ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, `WHERE id = ?`, id)
}

// FindByPseudo retrieves a user by its pseudo
func (r *userRepository) FindByPseudo(ctx context.Context, pseudo string) (*models.User, error) {
	return r.findOne(ctx, `WHERE pseudo = ?`, pseudo)
}

// Exists reports whether id is a known user
func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to check user existence")
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, pseudo, email, created_at FROM users `+where, arg,
	).Scan(&user.ID, &user.Pseudo, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		r.log.Error().Err(err).Interface("key", arg).Msg("Failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
