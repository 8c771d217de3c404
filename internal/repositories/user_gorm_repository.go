package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pulse/internal/models"
	"pulse/pkg/apperrors"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create inserts a new user. Username uniqueness is enforced by the primary
// key, so a concurrent duplicate registration surfaces as a translated
// duplicate-key error rather than racing a prior existence check.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByName retrieves a user by username.
func (r *GORMUserRepository) GetByName(name string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by name %s: %w", name, err)
	}
	return &user, nil
}

// UpdateProfile applies a partial column update. Absent fields stay
// untouched, matching the update-profile contract.
func (r *GORMUserRepository) UpdateProfile(name string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.Model(&models.User{}).Where("name = ?", name).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile of %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// Bump records the last-activity timestamp of a user.
func (r *GORMUserRepository) Bump(name string, at time.Time) error {
	err := r.db.Model(&models.User{}).Where("name = ?", name).
		Update("last_activity", at).Error
	if err != nil {
		return fmt.Errorf("failed to bump activity of %s: %w", name, err)
	}
	return nil
}

// TopUsers computes the popularity leaderboard in a single grouped
// aggregation: one row per username out of a UNION ALL projection of post
// authorship and both subscription endpoints. Ties order by username for
// determinism.
func (r *GORMUserRepository) TopUsers(limit int) ([]RankedUser, error) {
	var ranked []RankedUser
	err := r.db.Raw(`
		SELECT u.name, u.country, u.city, u.birthdate, u.interests, u.bio,
		       u.last_activity, COALESCE(sc.score, 0) AS score
		FROM users u
		LEFT JOIN (
			SELECT name, COUNT(*) AS score
			FROM (
				SELECT author AS name FROM posts
				UNION ALL
				SELECT source AS name FROM subscriptions
				UNION ALL
				SELECT target AS name FROM subscriptions
			) activity
			GROUP BY name
		) sc ON sc.name = u.name
		ORDER BY score DESC, u.name ASC
		LIMIT ?`, limit).Scan(&ranked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank users: %w", err)
	}
	return ranked, nil
}
