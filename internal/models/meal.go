package models

import "time"

const MealDateLayout = "2006-01-02"

type Meal struct {
	ID           string    `json:"meal_id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Ingredients  *string   `json:"ingredients"`
	Quantity     *string   `json:"quantity"`
	Calories     *int      `json:"calories"`
	Protein      *float64  `json:"protein"`
	Carbs        *float64  `json:"carbs"`
	Fat          *float64  `json:"fat"`
	Confidence   *int      `json:"confidence,omitempty"`
	AnalyzedByAI bool      `json:"analyzed_by_ai"`
	CreatedAt    time.Time `json:"created_at"`
	Date         string    `json:"date"`
}

// MealDate is the UTC calendar day a meal belongs to.
func MealDate(t time.Time) string {
	return t.UTC().Format(MealDateLayout)
}

type NutritionTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add folds a meal into the totals; missing fields count as zero.
func (t *NutritionTotals) Add(meal Meal) {
	if meal.Calories != nil {
		t.Calories += *meal.Calories
	}
	if meal.Protein != nil {
		t.Protein += *meal.Protein
	}
	if meal.Carbs != nil {
		t.Carbs += *meal.Carbs
	}
	if meal.Fat != nil {
		t.Fat += *meal.Fat
	}
}

type TodaySummary struct {
	Meals  []Meal          `json:"meals"`
	Totals NutritionTotals `json:"totals"`
	Goals  DailyGoals      `json:"goals"`
}
