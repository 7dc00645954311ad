package handlers

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type accountAuthService interface {
	Signup(ctx context.Context, input services.SignupInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

type AuthHandler struct {
	service accountAuthService
	logger  logrus.FieldLogger
}

func NewAuthHandler(service accountAuthService, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Goal     string `json:"goal"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUserResponse struct {
	ID    string `json:"user_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Goal  string `json:"goal"`
}

type meResponse struct {
	ID            string `json:"user_id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Goal          string `json:"goal"`
	Followers     int    `json:"followers"`
	Following     int    `json:"following"`
	PostsCount    int    `json:"posts_count"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.service.Signup(c.Context(), services.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Goal:     req.Goal,
	})
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to create account")
	}

	return c.JSON(fiber.Map{
		"token": result.Token,
		"user":  newAuthUserResponse(result.User),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to log in")
	}

	return c.JSON(fiber.Map{
		"token": result.Token,
		"user":  newAuthUserResponse(result.User),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	return c.JSON(meResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Goal:          user.Goal,
		Followers:     len(user.Followers),
		Following:     len(user.Following),
		PostsCount:    user.PostsCount,
		CurrentStreak: user.CurrentStreak,
		LongestStreak: user.LongestStreak,
	})
}

func newAuthUserResponse(user *models.User) authUserResponse {
	return authUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Goal:  user.Goal,
	}
}
