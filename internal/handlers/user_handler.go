package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pulse/internal/services"
)

// UserHandler handles HTTP requests for profiles and the leaderboard.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes. The fixed /users/top route is
// registered before the /users/:username wildcard.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/users/top", h.HandleTopUsers)
	router.Get("/users/me", h.HandleGetMe)
	router.Put("/users/me", h.HandleUpdateMe)
	router.Get("/users/:username", h.HandleGetProfile)
}

// UpdateProfileRequest represents the request body for a partial profile
// update. Absent fields leave the stored values unchanged.
type UpdateProfileRequest struct {
	Country   *string  `json:"country"`
	City      *string  `json:"city"`
	Bio       *string  `json:"bio"`
	Birthdate *string  `json:"birthdate"` // 2006-01-02
	Interests []string `json:"interests" validate:"omitempty,dive,alphanum"`
}

// HandleGetMe returns the profile of the acting user.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	user := currentUser(c)
	profile, err := h.userService.Profile(user.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

// HandleUpdateMe applies a partial profile update and returns the fresh
// snapshot.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	update := services.ProfileUpdate{
		Country:   req.Country,
		City:      req.City,
		Bio:       req.Bio,
		Interests: req.Interests,
	}
	if req.Birthdate != nil {
		birthdate, err := time.Parse("2006-01-02", *req.Birthdate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid birthdate, expected YYYY-MM-DD",
			})
		}
		update.Birthdate = &birthdate
	}

	user := currentUser(c)
	profile, err := h.userService.UpdateProfile(user.Name, update)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

// HandleGetProfile returns the public profile of any user.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	profile, err := h.userService.Profile(c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

// HandleTopUsers returns the popularity leaderboard with recent-post
// previews.
func (h *UserHandler) HandleTopUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", services.DefaultTopLimit)
	profiles, err := h.userService.TopUsers(limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profiles)
}
