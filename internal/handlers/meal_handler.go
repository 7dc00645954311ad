package handlers

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type mealLedgerService interface {
	LogManual(ctx context.Context, caller *models.User, input services.MealInput) (string, error)
	LogFromPhoto(ctx context.Context, caller *models.User, upload services.PhotoUpload) (string, models.AnalysisResult, error)
	GetToday(ctx context.Context, caller *models.User) (*models.TodaySummary, error)
	GetHistory(ctx context.Context, caller *models.User, limit int) ([]models.Meal, error)
}

type MealHandler struct {
	service mealLedgerService
	logger  logrus.FieldLogger
}

func NewMealHandler(service mealLedgerService, logger logrus.FieldLogger) *MealHandler {
	return &MealHandler{
		service: service,
		logger:  logger,
	}
}

type logMealRequest struct {
	Name        string   `json:"name"`
	Ingredients *string  `json:"ingredients"`
	Quantity    *string  `json:"quantity"`
	Calories    *int     `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
}

func (h *MealHandler) LogMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req logMealRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	mealID, err := h.service.LogManual(c.Context(), user, services.MealInput{
		Name:        req.Name,
		Ingredients: req.Ingredients,
		Quantity:    req.Quantity,
		Calories:    req.Calories,
		Protein:     req.Protein,
		Carbs:       req.Carbs,
		Fat:         req.Fat,
	})
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to log meal")
	}

	return c.JSON(fiber.Map{"meal_id": mealID, "message": "Meal logged successfully"})
}

func (h *MealHandler) AnalyzeMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	upload, err := readImageUpload(c)
	if err != nil {
		return uploadError(c, err)
	}

	mealID, result, err := h.service.LogFromPhoto(c.Context(), user, upload)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to analyze meal")
	}

	return c.JSON(fiber.Map{
		"meal_id":         mealID,
		"analysis":        result.Estimate,
		"analysis_status": result.Status,
		"message":         "Meal analyzed and logged successfully",
	})
}

func (h *MealHandler) GetToday(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	summary, err := h.service.GetToday(c.Context(), user)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load today's meals")
	}
	return c.JSON(summary)
}

func (h *MealHandler) GetHistory(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	limit, ok := parseLimit(c, services.DefaultHistoryLimit, services.MaxHistoryLimit)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	meals, err := h.service.GetHistory(c.Context(), user, limit)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load meal history")
	}
	return c.JSON(fiber.Map{"meals": meals})
}
