package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pulse/internal/services"
)

// SubscriptionHandler handles HTTP requests for follow edges and the feed.
type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
	postService         *services.PostService
	validate            *validator.Validate
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService *services.SubscriptionService, postService *services.PostService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		postService:         postService,
		validate:            validator.New(),
	}
}

// RegisterRoutes registers the subscription and feed routes.
func (h *SubscriptionHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/subscriptions", h.HandleSubscribe)
	router.Delete("/subscriptions", h.HandleUnsubscribe)
	router.Get("/subscriptions", h.HandleListSubscriptions)
	router.Get("/feed", h.HandleFeed)
}

// SubscriptionRequest represents the request body naming the target user.
type SubscriptionRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=4,max=14"`
}

// HandleSubscribe adds the named user to the acting user's subscriptions.
func (h *SubscriptionHandler) HandleSubscribe(c *fiber.Ctx) error {
	var req SubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	user := currentUser(c)
	if err := h.subscriptionService.Subscribe(user.Name, req.Username); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Subscription added successfully",
	})
}

// HandleUnsubscribe removes the named user from the acting user's
// subscriptions.
func (h *SubscriptionHandler) HandleUnsubscribe(c *fiber.Ctx) error {
	var req SubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return failValidation(c, err)
	}

	user := currentUser(c)
	if err := h.subscriptionService.Unsubscribe(user.Name, req.Username); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Subscription removed successfully",
	})
}

// HandleListSubscriptions lists the usernames the acting user subscribes to.
func (h *SubscriptionHandler) HandleListSubscriptions(c *fiber.Ctx) error {
	user := currentUser(c)
	subscriptions, err := h.subscriptionService.Subscriptions(user.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"subscriptions": subscriptions,
	})
}

// HandleFeed lists posts authored by the acting user's subscriptions,
// newest first, with optional keyword/date filters.
func (h *SubscriptionHandler) HandleFeed(c *fiber.Ctx) error {
	filter, err := parsePostFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user := currentUser(c)
	posts, err := h.postService.Feed(user.Name, filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}
