package handlers

import (
	"errors"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("user").(*models.User)
	return user, ok && user != nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// mapServiceError turns service sentinels into status codes. Anything unrecognised
// is logged and reported as a 500 with the fallback message.
func mapServiceError(c *fiber.Ctx, logger logrus.FieldLogger, err error, fallback string) error {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return badRequest(c, validation.Message)
	case errors.Is(err, services.ErrInvalidInput):
		return badRequest(c, "Invalid request")
	case errors.Is(err, services.ErrEmailTaken):
		return badRequest(c, "Email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrUnauthorized):
		return unauthorized(c)
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, services.ErrPostNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
	case errors.Is(err, services.ErrMealNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Meal not found"})
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error(fallback)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
