package handlers

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/repositories"
	"pulse/pkg/apperrors"
)

// statusForCode maps application error codes to HTTP statuses. The core
// itself knows nothing about this mapping.
func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return fiber.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		return fiber.StatusForbidden
	case apperrors.CodeNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeAlreadyExists:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders a service error. Unknown errors collapse to a bare 500 so
// internals never leak outward.
func fail(c *fiber.Ctx, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown || code == apperrors.CodeInternal {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
	return c.Status(statusForCode(code)).JSON(fiber.Map{
		"code":    code,
		"message": err.Error(),
	})
}

// failValidation renders validator errors field by field.
func failValidation(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// currentUser pulls the user resolved by the auth middleware out of the
// request locals.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(middleware.UserKey).(*models.User)
	return user
}

// parsePostFilter reads the optional keyword/start/end query parameters.
// Dates use the 2006-01-02 form and bound the creation date inclusively.
func parsePostFilter(c *fiber.Ctx) (repositories.PostFilter, error) {
	filter := repositories.PostFilter{Keyword: c.Query("keyword")}
	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid start date %q", raw)
		}
		filter.Start = &start
	}
	if raw := c.Query("end"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid end date %q", raw)
		}
		filter.End = &end
	}
	return filter, nil
}
