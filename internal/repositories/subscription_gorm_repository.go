package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pulse/internal/models"
	"pulse/pkg/apperrors"
)

// GORMSubscriptionRepository is a GORM implementation of
// SubscriptionRepository.
type GORMSubscriptionRepository struct {
	db *gorm.DB
}

// NewGORMSubscriptionRepository creates a new instance of
// GORMSubscriptionRepository.
func NewGORMSubscriptionRepository(db *gorm.DB) *GORMSubscriptionRepository {
	return &GORMSubscriptionRepository{
		db: db,
	}
}

// Create inserts the (source, target) edge. Duplicates trip the composite
// unique index and come back as a distinguishable conflict, which keeps the
// check correct under concurrent inserts.
func (r *GORMSubscriptionRepository) Create(source, target string) error {
	sub := &models.Subscription{
		ID:     uuid.New().String(),
		Source: source,
		Target: target,
	}
	if err := r.db.Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrSubscriptionExists
		}
		return fmt.Errorf("failed to create subscription %s -> %s: %w", source, target, err)
	}
	return nil
}

// Delete removes the (source, target) edge. Deleting an edge that does not
// exist is reported, not silently ignored.
func (r *GORMSubscriptionRepository) Delete(source, target string) error {
	res := r.db.Where("source = ? AND target = ?", source, target).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete subscription %s -> %s: %w", source, target, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrSubscriptionNotFound
	}
	return nil
}

// CountBySource returns the out-degree of source.
func (r *GORMSubscriptionRepository) CountBySource(source string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("source = ?", source).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions of %s: %w", source, err)
	}
	return count, nil
}

// CountByTarget returns the in-degree (subscriber count) of target.
func (r *GORMSubscriptionRepository) CountByTarget(target string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).
		Where("target = ?", target).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers of %s: %w", target, err)
	}
	return count, nil
}

// ListTargets returns the usernames source subscribes to, ordered
// alphabetically.
func (r *GORMSubscriptionRepository) ListTargets(source string) ([]string, error) {
	var targets []string
	err := r.db.Model(&models.Subscription{}).
		Where("source = ?", source).
		Order("target ASC").
		Pluck("target", &targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions of %s: %w", source, err)
	}
	return targets, nil
}
