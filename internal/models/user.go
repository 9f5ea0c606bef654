package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

var pseudoPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,31}$`)

// User is an entry of the user directory.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Pseudo    string    `json:"pseudo" db:"pseudo"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidPseudo reports whether pseudo matches the account naming rules.
func ValidPseudo(pseudo string) bool {
	return pseudoPattern.MatchString(pseudo)
}
