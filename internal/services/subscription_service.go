package services

import (
	"pulse/internal/repositories"
	"pulse/pkg/apperrors"
)

// MaxSubscriptions caps the outgoing edges any one user may hold.
const MaxSubscriptions = 100

// SubscriptionService owns the directed follow relation between users.
type SubscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository, userRepo repositories.UserRepository) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
	}
}

// Subscribe adds target to source's subscriptions. Checks run cheapest
// first: the local self-check, then the cardinality limit, then target
// existence, and finally the insert itself, whose unique index reports a
// duplicate edge.
func (s *SubscriptionService) Subscribe(source, target string) error {
	if source == target {
		return apperrors.ErrSelfSubscription
	}

	count, err := s.subscriptionRepo.CountBySource(source)
	if err != nil {
		return err
	}
	if count >= MaxSubscriptions {
		return apperrors.ErrSubscriptionLimit
	}

	if _, err := s.userRepo.GetByName(target); err != nil {
		return err
	}

	return s.subscriptionRepo.Create(source, target)
}

// Unsubscribe removes target from source's subscriptions, reporting a
// missing edge as ErrSubscriptionNotFound.
func (s *SubscriptionService) Unsubscribe(source, target string) error {
	return s.subscriptionRepo.Delete(source, target)
}

// Subscriptions lists the usernames source subscribes to.
func (s *SubscriptionService) Subscriptions(source string) ([]string, error) {
	return s.subscriptionRepo.ListTargets(source)
}

// SubscriptionCount returns the out-degree of username.
func (s *SubscriptionService) SubscriptionCount(username string) (int64, error) {
	return s.subscriptionRepo.CountBySource(username)
}

// SubscriberCount returns the in-degree of username.
func (s *SubscriptionService) SubscriberCount(username string) (int64, error) {
	return s.subscriptionRepo.CountByTarget(username)
}
