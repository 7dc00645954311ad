package models

import (
	"slices"
	"time"
)

const (
	GoalBulking     = "bulking"
	GoalCutting     = "cutting"
	GoalMaintenance = "maintenance"
)

const (
	DefaultCalorieGoal = 2000
	DefaultProteinGoal = 150.0
	DefaultCarbsGoal   = 250.0
	DefaultFatGoal     = 70.0
)

type User struct {
	ID               string    `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	Goal             string    `json:"goal"`
	Bio              string    `json:"bio"`
	DailyCalorieGoal int       `json:"daily_calorie_goal"`
	DailyProteinGoal float64   `json:"daily_protein_goal"`
	DailyCarbsGoal   float64   `json:"daily_carbs_goal"`
	DailyFatGoal     float64   `json:"daily_fat_goal"`
	Followers        []string  `json:"followers"`
	Following        []string  `json:"following"`
	PostsCount       int       `json:"posts_count"`
	CurrentStreak    int       `json:"current_streak"`
	LongestStreak    int       `json:"longest_streak"`
	CreatedAt        time.Time `json:"created_at"`
}

type DailyGoals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (u *User) DailyGoals() DailyGoals {
	return DailyGoals{
		Calories: u.DailyCalorieGoal,
		Protein:  u.DailyProteinGoal,
		Carbs:    u.DailyCarbsGoal,
		Fat:      u.DailyFatGoal,
	}
}

func (u *User) IsFollowing(userID string) bool {
	return slices.Contains(u.Following, userID)
}

func IsValidGoal(goal string) bool {
	switch goal {
	case GoalBulking, GoalCutting, GoalMaintenance:
		return true
	default:
		return false
	}
}

// UserSummary is the public card shown in follower and following lists.
type UserSummary struct {
	ID   string `json:"user_id"`
	Name string `json:"name"`
	Goal string `json:"goal"`
}

type Profile struct {
	ID            string     `json:"user_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Goal          string     `json:"goal"`
	Bio           string     `json:"bio"`
	Followers     int        `json:"followers"`
	Following     int        `json:"following"`
	PostsCount    int        `json:"posts_count"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	CreatedAt     time.Time  `json:"created_at"`
	RecentPosts   []Post     `json:"recent_posts"`
	RecentMeals   []Meal     `json:"recent_meals,omitempty"`
	IsFollowing   bool       `json:"is_following"`
	DailyGoals    DailyGoals `json:"daily_goals"`
}
