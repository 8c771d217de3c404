package repositories

// SubscriptionRepository defines the interface for follow-edge data access.
type SubscriptionRepository interface {
	Create(source, target string) error
	Delete(source, target string) error
	CountBySource(source string) (int64, error)
	CountByTarget(target string) (int64, error)
	ListTargets(source string) ([]string, error)
}
