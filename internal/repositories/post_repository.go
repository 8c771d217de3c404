package repositories

import (
	"time"

	"pulse/internal/models"
)

// PostFilter narrows post listings. Zero-valued fields are ignored; present
// ones combine with logical AND inside a single parameterized query.
//
// Keyword is a case-insensitive substring match against the title. Start and
// End bound the creation date inclusively on both ends.
type PostFilter struct {
	Keyword string
	Start   *time.Time
	End     *time.Time
}

// PostRepository defines the interface for post data access.
type PostRepository interface {
	Create(post *models.Post) error
	ListByAuthor(author string, filter PostFilter) ([]models.Post, error)
	ListFeed(source string, filter PostFilter) ([]models.Post, error)
	CountByAuthor(author string) (int64, error)
	CountFeedSince(source string, since time.Time) (int64, error)
	RecentByAuthor(author string, limit int) ([]models.Post, error)
}
