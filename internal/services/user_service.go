package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"pulse/internal/models"
	"pulse/internal/repositories"
)

// PostPreviewCount is how many recent posts a ranked profile embeds.
const PostPreviewCount = 5

// DefaultTopLimit is the leaderboard size when the caller does not ask for
// one.
const DefaultTopLimit = 20

// UserProfile is the public projection of a user. It never carries the
// password hash.
type UserProfile struct {
	Name              string     `json:"name"`
	Country           string     `json:"country"`
	City              string     `json:"city"`
	Birthdate         *time.Time `json:"birthdate,omitempty"`
	Interests         []string   `json:"interests"`
	Bio               string     `json:"bio"`
	Subscriptions     []string   `json:"subscriptions"`
	SubscriberCount   int64      `json:"subscribers_count"`
	SubscriptionCount int64      `json:"subscriptions_count"`
	PostCount         int64      `json:"post_count"`
}

// RankedProfile is a leaderboard entry: a trimmed profile, the popularity
// score and a preview of recent posts.
type RankedProfile struct {
	Name      string        `json:"name"`
	Country   string        `json:"country"`
	City      string        `json:"city"`
	Bio       string        `json:"bio"`
	Interests []string      `json:"interests"`
	Score     int           `json:"score"`
	Posts     []models.Post `json:"posts"`
}

// ProfileUpdate carries the optional profile fields. Nil pointers (and a nil
// interest list) leave the stored value unchanged.
type ProfileUpdate struct {
	Country   *string
	City      *string
	Bio       *string
	Birthdate *time.Time
	Interests []string
}

// UserService handles profile reads/updates and the popularity leaderboard.
type UserService struct {
	userRepo         repositories.UserRepository
	postRepo         repositories.PostRepository
	subscriptionRepo repositories.SubscriptionRepository
	cache            *redis.Client // nil disables leaderboard caching
	cacheTTL         time.Duration
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(userRepo repositories.UserRepository, postRepo repositories.PostRepository, subscriptionRepo repositories.SubscriptionRepository, cache *redis.Client) *UserService {
	return &UserService{
		userRepo:         userRepo,
		postRepo:         postRepo,
		subscriptionRepo: subscriptionRepo,
		cache:            cache,
		cacheTTL:         30 * time.Second,
	}
}

// Profile builds the public projection for username, deriving the counts and
// the interest list on read so they can never go stale.
func (s *UserService) Profile(username string) (*UserProfile, error) {
	user, err := s.userRepo.GetByName(username)
	if err != nil {
		return nil, err
	}
	return s.project(user)
}

func (s *UserService) project(user *models.User) (*UserProfile, error) {
	subscriptions, err := s.subscriptionRepo.ListTargets(user.Name)
	if err != nil {
		return nil, err
	}
	subscribers, err := s.subscriptionRepo.CountByTarget(user.Name)
	if err != nil {
		return nil, err
	}
	postCount, err := s.postRepo.CountByAuthor(user.Name)
	if err != nil {
		return nil, err
	}

	return &UserProfile{
		Name:              user.Name,
		Country:           user.Country,
		City:              user.City,
		Birthdate:         user.Birthdate,
		Interests:         SplitInterests(user.Interests),
		Bio:               user.Bio,
		Subscriptions:     subscriptions,
		SubscriberCount:   subscribers,
		SubscriptionCount: int64(len(subscriptions)),
		PostCount:         postCount,
	}, nil
}

// UpdateProfile applies the present fields and returns the fresh projection.
func (s *UserService) UpdateProfile(username string, update ProfileUpdate) (*UserProfile, error) {
	fields := map[string]interface{}{}
	if update.Country != nil {
		fields["country"] = *update.Country
	}
	if update.City != nil {
		fields["city"] = *update.City
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.Birthdate != nil {
		fields["birthdate"] = *update.Birthdate
	}
	if update.Interests != nil {
		fields["interests"] = JoinInterests(update.Interests)
	}

	if err := s.userRepo.UpdateProfile(username, fields); err != nil {
		return nil, err
	}
	return s.Profile(username)
}

// TopUsers returns the leaderboard, score descending, ties by username. The
// aggregate runs over the whole population, so results are kept in a short
// cache-aside window when Redis is configured.
func (s *UserService) TopUsers(limit int) ([]RankedProfile, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	key := fmt.Sprintf("rank:top:%d", limit)
	if s.cache != nil {
		if data, err := s.cache.Get(context.Background(), key).Bytes(); err == nil {
			var cached []RankedProfile
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	ranked, err := s.userRepo.TopUsers(limit)
	if err != nil {
		return nil, err
	}

	profiles := make([]RankedProfile, 0, len(ranked))
	for _, entry := range ranked {
		posts, err := s.postRepo.RecentByAuthor(entry.Name, PostPreviewCount)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, RankedProfile{
			Name:      entry.Name,
			Country:   entry.Country,
			City:      entry.City,
			Bio:       entry.Bio,
			Interests: SplitInterests(entry.Interests),
			Score:     entry.Score,
			Posts:     posts,
		})
	}

	if s.cache != nil {
		if data, err := json.Marshal(profiles); err == nil {
			if err := s.cache.Set(context.Background(), key, data, s.cacheTTL).Err(); err != nil {
				logrus.WithError(err).Warn("failed to cache leaderboard")
			}
		}
	}
	return profiles, nil
}

// JoinInterests flattens interest tags into the comma-joined form stored on
// the user row.
func JoinInterests(interests []string) string {
	return strings.Join(interests, ", ")
}

// SplitInterests is the inverse of JoinInterests. An empty stored value
// yields an empty list, not [""].
func SplitInterests(stored string) []string {
	if stored == "" {
		return []string{}
	}
	parts := strings.Split(stored, ",")
	interests := make([]string, 0, len(parts))
	for _, part := range parts {
		interests = append(interests, strings.TrimSpace(part))
	}
	return interests
}
