package apperrors

var (
	// Domain errors — returned by services/repositories
	ErrUsernameTaken        = AlreadyExists("username already exists")
	ErrUserNotFound         = NotFound("user not found")
	ErrBadCredential        = Unauthorized("incorrect username or password")
	ErrUnauthorized         = Unauthorized("invalid or expired token")
	ErrSelfSubscription     = Forbidden("not allowed to subscribe to your own account")
	ErrSubscriptionLimit    = Forbidden("maximum subscription count of 100 reached")
	ErrSubscriptionExists   = AlreadyExists("subscription already exists")
	ErrSubscriptionNotFound = NotFound("subscription not found")
)
