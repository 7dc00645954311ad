package handlers

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type profileService interface {
	GetProfile(ctx context.Context, viewer *models.User, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, caller *models.User, update services.ProfileUpdate) error
}

type socialGraphService interface {
	ToggleFollow(ctx context.Context, caller *models.User, targetID string) (bool, error)
	ListFollowers(ctx context.Context, userID string) ([]models.UserSummary, error)
	ListFollowing(ctx context.Context, userID string) ([]models.UserSummary, error)
}

type ProfileHandler struct {
	profiles profileService
	social   socialGraphService
	logger   logrus.FieldLogger
}

func NewProfileHandler(profiles profileService, social socialGraphService, logger logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		social:   social,
		logger:   logger,
	}
}

type updateProfileRequest struct {
	Name             *string  `json:"name"`
	Goal             *string  `json:"goal"`
	Bio              *string  `json:"bio"`
	DailyCalorieGoal *int     `json:"daily_calorie_goal"`
	DailyProteinGoal *float64 `json:"daily_protein_goal"`
	DailyCarbsGoal   *float64 `json:"daily_carbs_goal"`
	DailyFatGoal     *float64 `json:"daily_fat_goal"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	viewer, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.profiles.GetProfile(c.Context(), viewer, c.Params("id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load profile")
	}
	return c.JSON(profile)
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := h.profiles.UpdateProfile(c.Context(), user, services.ProfileUpdate{
		Name:             req.Name,
		Goal:             req.Goal,
		Bio:              req.Bio,
		DailyCalorieGoal: req.DailyCalorieGoal,
		DailyProteinGoal: req.DailyProteinGoal,
		DailyCarbsGoal:   req.DailyCarbsGoal,
		DailyFatGoal:     req.DailyFatGoal,
	})
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to update profile")
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully"})
}

func (h *ProfileHandler) ToggleFollow(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	following, err := h.social.ToggleFollow(c.Context(), user, c.Params("id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to update follow")
	}

	message := "User unfollowed"
	if following {
		message = "User followed"
	}
	return c.JSON(fiber.Map{"message": message, "is_following": following})
}

func (h *ProfileHandler) ListFollowers(c *fiber.Ctx) error {
	followers, err := h.social.ListFollowers(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load followers")
	}
	return c.JSON(fiber.Map{"followers": followers})
}

func (h *ProfileHandler) ListFollowing(c *fiber.Ctx) error {
	following, err := h.social.ListFollowing(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load following")
	}
	return c.JSON(fiber.Map{"following": following})
}
