package repositories

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"pulse/internal/models"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// Create inserts a new post. The id and creation timestamp are assigned by
// the store.
func (r *GORMPostRepository) Create(post *models.Post) error {
	if err := r.db.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// applyFilter narrows tx by the optional filter predicates. End is inclusive
// of the whole day, so the upper bound is the start of the following day.
func applyFilter(tx *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Keyword != "" {
		tx = tx.Where("lower(title) LIKE ?", "%"+strings.ToLower(filter.Keyword)+"%")
	}
	if filter.Start != nil {
		tx = tx.Where("created >= ?", *filter.Start)
	}
	if filter.End != nil {
		tx = tx.Where("created < ?", filter.End.AddDate(0, 0, 1))
	}
	return tx
}

// ListByAuthor returns the author's posts newest first.
func (r *GORMPostRepository) ListByAuthor(author string, filter PostFilter) ([]models.Post, error) {
	var posts []models.Post
	tx := applyFilter(r.db.Where("author = ?", author), filter)
	if err := tx.Order("id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts of %s: %w", author, err)
	}
	return posts, nil
}

// ListFeed returns posts authored by anyone the source subscribes to, newest
// first. The followee set is resolved inside the query rather than loaded
// into memory.
func (r *GORMPostRepository) ListFeed(source string, filter PostFilter) ([]models.Post, error) {
	var posts []models.Post
	followees := r.db.Model(&models.Subscription{}).
		Select("target").
		Where("source = ?", source)
	tx := applyFilter(r.db.Where("author IN (?)", followees), filter)
	if err := tx.Order("id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list feed of %s: %w", source, err)
	}
	return posts, nil
}

// CountByAuthor returns how many posts the author has written.
func (r *GORMPostRepository) CountByAuthor(author string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).
		Where("author = ?", author).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count posts of %s: %w", author, err)
	}
	return count, nil
}

// CountFeedSince counts feed posts created strictly after since.
func (r *GORMPostRepository) CountFeedSince(source string, since time.Time) (int64, error) {
	followees := r.db.Model(&models.Subscription{}).
		Select("target").
		Where("source = ?", source)
	var count int64
	err := r.db.Model(&models.Post{}).
		Where("author IN (?)", followees).
		Where("created > ?", since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count new feed posts of %s: %w", source, err)
	}
	return count, nil
}

// RecentByAuthor returns up to limit newest posts of the author, used for
// the post previews embedded in profile listings.
func (r *GORMPostRepository) RecentByAuthor(author string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("author = ?", author).
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts of %s: %w", author, err)
	}
	return posts, nil
}
