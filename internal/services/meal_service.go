package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/amalxloop/EatFlex/internal/metrics"
	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
	recentMealsLimit    = 5
)

type MealStore interface {
	Create(ctx context.Context, meal *models.Meal) error
	GetByID(ctx context.Context, id string) (*models.Meal, error)
	ListByDate(ctx context.Context, userID, date string) ([]models.Meal, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Meal, error)
}

type MealAnalyzer interface {
	Analyze(ctx context.Context, image []byte, hint string) models.AnalysisResult
}

type MealInput struct {
	Name        string
	Ingredients *string
	Quantity    *string
	Calories    *int
	Protein     *float64
	Carbs       *float64
	Fat         *float64
}

type PhotoUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

type MealService struct {
	meals    MealStore
	analyzer MealAnalyzer
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewMealService(meals MealStore, analyzer MealAnalyzer, m *metrics.Metrics) *MealService {
	return &MealService{
		meals:    meals,
		analyzer: analyzer,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *MealService) LogManual(ctx context.Context, caller *models.User, input MealInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", invalid("Meal name is required")
	}

	createdAt := s.now().UTC()
	meal := &models.Meal{
		ID:          uuid.NewString(),
		UserID:      caller.ID,
		Name:        name,
		Ingredients: input.Ingredients,
		Quantity:    input.Quantity,
		Calories:    input.Calories,
		Protein:     input.Protein,
		Carbs:       input.Carbs,
		Fat:         input.Fat,
		CreatedAt:   createdAt,
		Date:        models.MealDate(createdAt),
	}
	if err := s.meals.Create(ctx, meal); err != nil {
		return "", err
	}

	s.metrics.MealLogged("manual")
	return meal.ID, nil
}

// LogFromPhoto runs the photo through the analyzer and stores whatever estimate comes
// back, degraded or not, after clamping it into valid ranges.
func (s *MealService) LogFromPhoto(ctx context.Context, caller *models.User, upload PhotoUpload) (string, models.AnalysisResult, error) {
	if !strings.HasPrefix(strings.ToLower(upload.ContentType), "image/") {
		return "", models.AnalysisResult{}, invalid("File must be an image")
	}
	if len(upload.Data) == 0 {
		return "", models.AnalysisResult{}, invalid("File is empty")
	}

	result := s.analyzer.Analyze(ctx, upload.Data, photoHint(upload.Filename))
	result.Estimate = sanitizeEstimate(result.Estimate)
	estimate := result.Estimate

	createdAt := s.now().UTC()
	meal := &models.Meal{
		ID:           uuid.NewString(),
		UserID:       caller.ID,
		Name:         estimate.Name,
		Ingredients:  &estimate.Ingredients,
		Calories:     &estimate.Calories,
		Protein:      &estimate.Protein,
		Carbs:        &estimate.Carbs,
		Fat:          &estimate.Fat,
		Confidence:   &estimate.Confidence,
		AnalyzedByAI: true,
		CreatedAt:    createdAt,
		Date:         models.MealDate(createdAt),
	}
	if err := s.meals.Create(ctx, meal); err != nil {
		return "", models.AnalysisResult{}, err
	}

	s.metrics.MealLogged("photo")
	return meal.ID, result, nil
}

func (s *MealService) GetToday(ctx context.Context, caller *models.User) (*models.TodaySummary, error) {
	meals, err := s.meals.ListByDate(ctx, caller.ID, models.MealDate(s.now()))
	if err != nil {
		return nil, err
	}

	summary := &models.TodaySummary{
		Meals: meals,
		Goals: caller.DailyGoals(),
	}
	for _, meal := range meals {
		summary.Totals.Add(meal)
	}
	return summary, nil
}

func (s *MealService) GetHistory(ctx context.Context, caller *models.User, limit int) ([]models.Meal, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.meals.ListRecent(ctx, caller.ID, limit)
}

func (s *MealService) GetMeal(ctx context.Context, caller *models.User, mealID string) (*models.Meal, error) {
	meal, err := s.meals.GetByID(ctx, mealID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, err
	}
	if meal.UserID != caller.ID {
		return nil, ErrMealNotFound
	}
	return meal, nil
}

// photoHint turns "chicken salad.jpg" into "chicken salad".
func photoHint(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}
