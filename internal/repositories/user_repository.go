package repositories

import (
	"time"

	"pulse/internal/models"
)

// RankedUser is a user row annotated with its popularity score: posts
// authored plus subscription edges where the user is either endpoint. The
// password column is never selected into it.
type RankedUser struct {
	Name         string
	Country      string
	City         string
	Birthdate    *time.Time
	Interests    string
	Bio          string
	LastActivity *time.Time
	Score        int
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByName(name string) (*models.User, error)
	UpdateProfile(name string, fields map[string]interface{}) error
	Bump(name string, at time.Time) error
	TopUsers(limit int) ([]RankedUser, error)
}
