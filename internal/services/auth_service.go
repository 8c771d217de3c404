package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"pulse/internal/models"
	"pulse/internal/repositories"
	"pulse/pkg/apperrors"
)

// AuthService handles registration, credential checks and session tokens.
type AuthService struct {
	userRepo      repositories.UserRepository
	postRepo      repositories.PostRepository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService. The signing secret is injected
// here; nothing else in the process holds it.
func NewAuthService(userRepo repositories.UserRepository, postRepo repositories.PostRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		postRepo:      postRepo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 30 * time.Minute,
	}
}

// LoginResult carries a fresh token plus the number of feed posts created
// since the user's previous activity.
type LoginResult struct {
	Token    string
	NewPosts int64
}

// Register creates a new user with a bcrypt-hashed password and returns a
// session token. A taken username surfaces as ErrUsernameTaken.
func (s *AuthService) Register(username, password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Name: username, Password: string(hashed)}
	if err := s.userRepo.Create(user); err != nil {
		return "", err
	}

	return s.issueToken(username)
}

// Login authenticates a username/password pair. Unknown usernames and wrong
// passwords both come back as ErrBadCredential so the response does not leak
// which one it was.
func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByName(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrBadCredential
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrBadCredential
	}

	token, err := s.issueToken(username)
	if err != nil {
		return nil, err
	}

	// Never logged in before means nothing can be unseen.
	var newPosts int64
	if user.LastActivity != nil {
		newPosts, err = s.postRepo.CountFeedSince(username, *user.LastActivity)
		if err != nil {
			logrus.WithError(err).WithField("user", username).Warn("failed to count new feed posts")
			newPosts = 0
		}
	}

	return &LoginResult{Token: token, NewPosts: newPosts}, nil
}

// issueToken signs a 30-minute HS256 token carrying the subject username.
func (s *AuthService) issueToken(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(s.tokenDuration).Unix(),
		"iat": now.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the subject
// username. Malformed, tampered and expired tokens all map to
// ErrUnauthorized; no partial subject ever escapes.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", apperrors.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperrors.ErrUnauthorized
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", apperrors.ErrUnauthorized
	}
	return subject, nil
}

// CurrentUser resolves a token to a live user and records the activity bump
// that every successful resolution implies.
func (s *AuthService) CurrentUser(tokenString string) (*models.User, error) {
	subject, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByName(subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Token outlived its subject; treat like any other bad token.
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	if err := s.userRepo.Bump(user.Name, time.Now()); err != nil {
		logrus.WithError(err).WithField("user", user.Name).Warn("failed to bump last activity")
	}
	return user, nil
}
