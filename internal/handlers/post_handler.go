package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pulse/internal/services"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	postService *services.PostService
	validate    *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the post routes with the Fiber app.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/posts", h.HandleCreatePost)
	router.Get("/posts", h.HandleMyPosts)
	router.Get("/users/:username/posts", h.HandleUserPosts)
}

// CreatePostRequest represents the request body for creating a post.
type CreatePostRequest struct {
	Title string `json:"title" validate:"required,min=1,max=99"`
	Text  string `json:"text" validate:"required,min=10,max=999"`
}

// HandleCreatePost stores a new post authored by the acting user.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
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
	post, err := h.postService.CreatePost(user.Name, req.Title, req.Text)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleMyPosts lists the acting user's posts, newest first, with optional
// keyword/date filters.
func (h *PostHandler) HandleMyPosts(c *fiber.Ctx) error {
	filter, err := parsePostFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	user := currentUser(c)
	posts, err := h.postService.PostsOf(user.Name, filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// HandleUserPosts lists another user's posts with the same ordering and
// filter contract.
func (h *PostHandler) HandleUserPosts(c *fiber.Ctx) error {
	filter, err := parsePostFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	posts, err := h.postService.PostsOf(c.Params("username"), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}
