package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pulse/internal/handlers"
	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/repositories"
	"pulse/internal/services"
)

// setupApp builds a Fiber app over an isolated in-memory SQLite database
// with the full handler/service/repository stack, no broker and no cache.
func setupApp(t *testing.T, name string) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Subscription{}))

	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)
	subscriptionRepo := repositories.NewGORMSubscriptionRepository(db)

	authService := services.NewAuthService(userRepo, postRepo, "test_jwt_secret")
	userService := services.NewUserService(userRepo, postRepo, subscriptionRepo, nil)
	postService := services.NewPostService(postRepo, userRepo, nil)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewUserHandler(userService).RegisterRoutes(protected)
	handlers.NewPostHandler(postService).RegisterRoutes(protected)
	handlers.NewSubscriptionHandler(subscriptionService, postService).RegisterRoutes(protected)

	return app
}

// TestMain suppresses logging for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	payload := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &payload))
	} else if len(raw) > 0 && raw[0] == '[' {
		payload["list"] = mustUnmarshalList(t, raw)
	}
	return resp, payload
}

func mustUnmarshalList(t *testing.T, raw []byte) []interface{} {
	t.Helper()
	var list []interface{}
	require.NoError(t, json.Unmarshal(raw, &list))
	return list
}

func register(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()
	resp, payload := request(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := payload["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginAndResolve(t *testing.T) {
	app := setupApp(t, "it_auth")

	token := register(t, app, "alice1", "Secret123!")

	// The token resolves back to the registered user
	resp, payload := request(t, app, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice1", payload["name"])
	// The password hash never appears in any projection
	_, hasPassword := payload["password"]
	assert.False(t, hasPassword)

	// Login with the same pair succeeds
	resp, payload = request(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice1",
		"password": "Secret123!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, payload["access_token"])
	assert.Contains(t, payload["message"], "new posts from your subscriptions")

	// Second registration with the same username always conflicts
	resp, _ = request(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice1",
		"password": "Other456$!",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Wrong password and unknown user produce the same unauthorized answer
	resp, wrongPass := request(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice1",
		"password": "WrongPass9!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, unknownUser := request(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "ghost11",
		"password": "Secret123!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrongPass["message"], unknownUser["message"])
}

func TestRegisterValidation(t *testing.T) {
	app := setupApp(t, "it_validation")

	cases := []map[string]string{
		{"username": "ab1", "password": "Secret123!"},             // too short
		{"username": "waytoolongname1", "password": "Secret123!"}, // too long
		{"username": "alice-1", "password": "Secret123!"},         // not alphanumeric
		{"username": "alice1", "password": "short1!A"},            // password too short
		{"username": "alice1", "password": "secret123!"},          // no uppercase
		{"username": "alice1", "password": "Secretabc!"},          // no digit
		{"username": "alice1", "password": "Secret1234"},          // no symbol
	}
	for _, body := range cases {
		resp, _ := request(t, app, http.MethodPost, "/api/v1/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %v", body)
	}
}

func TestPostsAndFeedScenario(t *testing.T) {
	app := setupApp(t, "it_feed")

	aliceToken := register(t, app, "alice1", "Secret123!")

	// Alice writes a post
	resp, created := request(t, app, http.MethodPost, "/api/v1/posts", aliceToken, map[string]string{
		"title": "Hello",
		"text":  "World is here today",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "alice1", created["author"])

	// Bob registers and follows alice
	bobToken := register(t, app, "bob222", "Secret123!")
	resp, _ = request(t, app, http.MethodPost, "/api/v1/subscriptions", bobToken, map[string]string{
		"username": "alice1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Bob's feed contains exactly the one post, with author attached
	resp, payload := request(t, app, http.MethodGet, "/api/v1/feed", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	feed := payload["list"].([]interface{})
	require.Len(t, feed, 1)
	post := feed[0].(map[string]interface{})
	assert.Equal(t, "Hello", post["title"])
	assert.Equal(t, "alice1", post["author"])

	// Alice's own feed is empty; she follows nobody
	resp, payload = request(t, app, http.MethodGet, "/api/v1/feed", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, payload["list"])

	// Keyword filtering narrows the feed
	resp, payload = request(t, app, http.MethodGet, "/api/v1/feed?keyword=hello", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, payload["list"], 1)
	resp, payload = request(t, app, http.MethodGet, "/api/v1/feed?keyword=nomatch", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, payload["list"])

	// Post body validation rejects out-of-range lengths before the store
	resp, _ = request(t, app, http.MethodPost, "/api/v1/posts", aliceToken, map[string]string{
		"title": "ok",
		"text":  "too short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Another user's posts are listable by username
	resp, payload = request(t, app, http.MethodGet, "/api/v1/users/alice1/posts", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, payload["list"], 1)

	resp, _ = request(t, app, http.MethodGet, "/api/v1/users/ghost1/posts", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscriptionFailureKinds(t *testing.T) {
	app := setupApp(t, "it_subscriptions")

	aliceToken := register(t, app, "alice1", "Secret123!")
	register(t, app, "bob222", "Secret123!")

	// Self-follow is forbidden
	resp, _ := request(t, app, http.MethodPost, "/api/v1/subscriptions", aliceToken, map[string]string{
		"username": "alice1",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown target
	resp, _ = request(t, app, http.MethodPost, "/api/v1/subscriptions", aliceToken, map[string]string{
		"username": "ghost1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// First follow works, second conflicts
	resp, _ = request(t, app, http.MethodPost, "/api/v1/subscriptions", aliceToken, map[string]string{
		"username": "bob222",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = request(t, app, http.MethodPost, "/api/v1/subscriptions", aliceToken, map[string]string{
		"username": "bob222",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unfollow works once, then reports the missing edge
	resp, _ = request(t, app, http.MethodDelete, "/api/v1/subscriptions", aliceToken, map[string]string{
		"username": "bob222",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = request(t, app, http.MethodDelete, "/api/v1/subscriptions", aliceToken, map[string]string{
		"username": "bob222",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileUpdateAndRead(t *testing.T) {
	app := setupApp(t, "it_profile")

	aliceToken := register(t, app, "alice1", "Secret123!")
	bobToken := register(t, app, "bob222", "Secret123!")

	resp, payload := request(t, app, http.MethodPut, "/api/v1/users/me", aliceToken, map[string]interface{}{
		"country":   "Spain",
		"city":      "Madrid",
		"birthdate": "1984-07-21",
		"bio":       "Let's talk about yourself...",
		"interests": []string{"sleep", "code"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Spain", payload["country"])
	assert.Equal(t, []interface{}{"sleep", "code"}, payload["interests"])

	// Partial update leaves absent fields unchanged
	resp, payload = request(t, app, http.MethodPut, "/api/v1/users/me", aliceToken, map[string]interface{}{
		"city": "Barcelona",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Barcelona", payload["city"])
	assert.Equal(t, "Spain", payload["country"])

	// Interests must be alphanumeric tokens
	resp, _ = request(t, app, http.MethodPut, "/api/v1/users/me", aliceToken, map[string]interface{}{
		"interests": []string{"not ok!"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Public read by someone else, no hash in sight
	resp, payload = request(t, app, http.MethodGet, "/api/v1/users/alice1", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice1", payload["name"])
	assert.Equal(t, "Barcelona", payload["city"])
	_, hasPassword := payload["password"]
	assert.False(t, hasPassword)

	resp, _ = request(t, app, http.MethodGet, "/api/v1/users/ghost1", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTopUsersEndpoint(t *testing.T) {
	app := setupApp(t, "it_top")

	aliceToken := register(t, app, "alice1", "Secret123!")
	bobToken := register(t, app, "bob222", "Secret123!")

	for i := 0; i < 2; i++ {
		resp, _ := request(t, app, http.MethodPost, "/api/v1/posts", aliceToken, map[string]string{
			"title": fmt.Sprintf("post %d", i),
			"text":  "some text long enough here",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	// bob follows alice: one edge scored for both endpoints
	resp, _ := request(t, app, http.MethodPost, "/api/v1/subscriptions", bobToken, map[string]string{
		"username": "alice1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload := request(t, app, http.MethodGet, "/api/v1/users/top?limit=10", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	top := payload["list"].([]interface{})
	require.Len(t, top, 2)

	first := top[0].(map[string]interface{})
	second := top[1].(map[string]interface{})
	// alice: 2 posts + 1 edge = 3, bob: 1 edge = 1
	assert.Equal(t, "alice1", first["name"])
	assert.Equal(t, float64(3), first["score"])
	assert.Equal(t, "bob222", second["name"])
	assert.Equal(t, float64(1), second["score"])
	// Previews ride along
	assert.Len(t, first["posts"], 2)
}

func TestUnauthorizedAccess(t *testing.T) {
	app := setupApp(t, "it_unauthorized")

	resp, _ := request(t, app, http.MethodGet, "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, app, http.MethodGet, "/api/v1/feed", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
