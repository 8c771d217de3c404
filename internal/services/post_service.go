package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"pulse/internal/models"
	"pulse/internal/repositories"
)

// PostEventPublisher sends post-created events to downstream consumers. The
// feed itself stays pull-based; this is a side channel.
type PostEventPublisher interface {
	PublishPostCreated(event map[string]interface{}) error
}

// PostService handles post creation and the pull-based feed reads.
type PostService struct {
	postRepo repositories.PostRepository
	userRepo repositories.UserRepository
	events   PostEventPublisher // nil disables publishing
}

// NewPostService creates a new PostService. events may be nil when no broker
// is configured.
func NewPostService(postRepo repositories.PostRepository, userRepo repositories.UserRepository, events PostEventPublisher) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		events:   events,
	}
}

// CreatePost stores a new immutable post for author and announces it on the
// event channel when one is configured.
func (s *PostService) CreatePost(author, title, text string) (*models.Post, error) {
	post := &models.Post{
		Author: author,
		Title:  title,
		Text:   text,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	if s.events != nil {
		event := map[string]interface{}{
			"post_id": post.ID,
			"author":  post.Author,
			"title":   post.Title,
			"created": post.Created.Format(time.RFC3339),
		}
		if err := s.events.PublishPostCreated(event); err != nil {
			// The post is committed; a lost event must not fail the write.
			logrus.WithError(err).WithField("post_id", post.ID).Warn("failed to publish post event")
		}
	}

	return post, nil
}

// PostsOf lists posts authored by username, newest first. The author is
// looked up first so an unknown username reports ErrUserNotFound instead of
// an empty list.
func (s *PostService) PostsOf(username string, filter repositories.PostFilter) ([]models.Post, error) {
	if _, err := s.userRepo.GetByName(username); err != nil {
		return nil, err
	}
	return s.postRepo.ListByAuthor(username, filter)
}

// Feed lists posts authored by everyone username subscribes to, newest
// first.
func (s *PostService) Feed(username string, filter repositories.PostFilter) ([]models.Post, error) {
	return s.postRepo.ListFeed(username, filter)
}

// NewActivitySince counts feed posts created strictly after since. A nil
// since means the user has never been seen before, which yields zero.
func (s *PostService) NewActivitySince(username string, since *time.Time) (int64, error) {
	if since == nil {
		return 0, nil
	}
	return s.postRepo.CountFeedSince(username, *since)
}
