package repository

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/jackc/pgx/v5"
)

const mealColumns = `
	meal_id, user_id, name, ingredients, quantity,
	calories, protein, carbs, fat, confidence, analyzed_by_ai, created_at, meal_date
`

type MealRepository struct {
	db DBTX
}

func NewMealRepository(db DBTX) *MealRepository {
	return &MealRepository{db: db}
}

func (r *MealRepository) Create(ctx context.Context, meal *models.Meal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO meals (
			meal_id, user_id, name, ingredients, quantity,
			calories, protein, carbs, fat, confidence, analyzed_by_ai, created_at, meal_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		meal.ID,
		meal.UserID,
		meal.Name,
		meal.Ingredients,
		meal.Quantity,
		meal.Calories,
		meal.Protein,
		meal.Carbs,
		meal.Fat,
		meal.Confidence,
		meal.AnalyzedByAI,
		meal.CreatedAt,
		meal.Date,
	)
	return err
}

func (r *MealRepository) GetByID(ctx context.Context, id string) (*models.Meal, error) {
	row := r.db.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE meal_id = $1`, id)
	return scanMeal(row)
}

// ListByDate returns one user's meals for a calendar day, newest first.
func (r *MealRepository) ListByDate(ctx context.Context, userID, date string) ([]models.Meal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mealColumns+`
		FROM meals
		WHERE user_id = $1 AND meal_date = $2
		ORDER BY created_at DESC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	return collectMeals(rows)
}

func (r *MealRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Meal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mealColumns+`
		FROM meals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectMeals(rows)
}

func collectMeals(rows pgx.Rows) ([]models.Meal, error) {
	defer rows.Close()

	meals := make([]models.Meal, 0)
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *meal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return meals, nil
}

func scanMeal(row rowScanner) (*models.Meal, error) {
	var meal models.Meal
	var confidence *int16
	err := row.Scan(
		&meal.ID,
		&meal.UserID,
		&meal.Name,
		&meal.Ingredients,
		&meal.Quantity,
		&meal.Calories,
		&meal.Protein,
		&meal.Carbs,
		&meal.Fat,
		&confidence,
		&meal.AnalyzedByAI,
		&meal.CreatedAt,
		&meal.Date,
	)
	if err != nil {
		return nil, err
	}
	if confidence != nil {
		value := int(*confidence)
		meal.Confidence = &value
	}
	return &meal, nil
}
