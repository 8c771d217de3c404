package handlers

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pulse/internal/services"
)

var (
	digitRe     = regexp.MustCompile(`\d`)
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	symbolRe    = regexp.MustCompile(`[!@#$%^&*()_]`)
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	validate := validator.New()
	// Password policy: more than 8 chars with a digit, an uppercase letter
	// and a symbol out of !@#$%^&*()_.
	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return len(password) > 8 &&
			digitRe.MatchString(password) &&
			uppercaseRe.MatchString(password) &&
			symbolRe.MatchString(password)
	})
	return &AuthHandler{
		authService: authService,
		validate:    validate,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=4,max=14"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a new user and returns a session token.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	token, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// HandleLogin authenticates a username/password pair and returns a token
// plus how many feed posts appeared since the user's previous activity.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	result, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": result.Token,
		"token_type":   "bearer",
		"new_posts":    result.NewPosts,
		"message":      fmt.Sprintf("You have %d new posts from your subscriptions.", result.NewPosts),
	})
}
