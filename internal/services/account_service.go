package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/repository"
	"github.com/amalxloop/EatFlex/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	minPasswordLength  = 8
	profilePostsLimit  = 10
	uniqueViolationSQL = "23505"
)

type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req repository.UpdateProfileInput) error
}

type PostLister interface {
	ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]models.Post, error)
}

type RecentMealLister interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Meal, error)
}

type SignupInput struct {
	Email    string
	Password string
	Name     string
	Goal     string
}

type ProfileUpdate struct {
	Name             *string
	Goal             *string
	Bio              *string
	DailyCalorieGoal *int
	DailyProteinGoal *float64
	DailyCarbsGoal   *float64
	DailyFatGoal     *float64
}

type AuthResult struct {
	Token string
	User  *models.User
}

type AccountService struct {
	users     AccountStore
	posts     PostLister
	meals     RecentMealLister
	jwtSecret string
}

func NewAccountService(users AccountStore, posts PostLister, meals RecentMealLister, jwtSecret string) *AccountService {
	return &AccountService{
		users:     users,
		posts:     posts,
		meals:     meals,
		jwtSecret: jwtSecret,
	}
}

func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, invalid("Password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("Name is required")
	}
	goal := strings.TrimSpace(input.Goal)
	if goal == "" {
		goal = models.GoalMaintenance
	}
	if !models.IsValidGoal(goal) {
		return nil, invalid("Goal must be one of bulking, cutting, maintenance")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:               uuid.NewString(),
		Email:            email,
		Name:             name,
		PasswordHash:     hash,
		Goal:             goal,
		DailyCalorieGoal: models.DefaultCalorieGoal,
		DailyProteinGoal: models.DefaultProteinGoal,
		DailyCarbsGoal:   models.DefaultCarbsGoal,
		DailyFatGoal:     models.DefaultFatGoal,
		Followers:        []string{},
		Following:        []string{},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQL {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issueToken(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(user)
}

// Authenticate resolves a caller id taken from a verified token to its user row.
func (s *AccountService) Authenticate(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnauthorized
	}
	return user, err
}

// GetProfile builds userID's profile as seen by viewer. Recent meals are only
// included when viewers look at their own profile.
func (s *AccountService) GetProfile(ctx context.Context, viewer *models.User, userID string) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByAuthors(ctx, []string{user.ID}, profilePostsLimit)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Goal:          user.Goal,
		Bio:           user.Bio,
		Followers:     len(user.Followers),
		Following:     len(user.Following),
		PostsCount:    user.PostsCount,
		CurrentStreak: user.CurrentStreak,
		LongestStreak: user.LongestStreak,
		CreatedAt:     user.CreatedAt,
		RecentPosts:   posts,
		IsFollowing:   viewer.IsFollowing(user.ID),
		DailyGoals:    user.DailyGoals(),
	}

	if viewer.ID == user.ID {
		meals, err := s.meals.ListRecent(ctx, user.ID, recentMealsLimit)
		if err != nil {
			return nil, err
		}
		profile.RecentMeals = meals
	}
	return profile, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, caller *models.User, update ProfileUpdate) error {
	req := repository.UpdateProfileInput{
		Bio:              update.Bio,
		DailyCalorieGoal: update.DailyCalorieGoal,
		DailyProteinGoal: update.DailyProteinGoal,
		DailyCarbsGoal:   update.DailyCarbsGoal,
		DailyFatGoal:     update.DailyFatGoal,
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return invalid("Name cannot be empty")
		}
		req.Name = &name
	}
	if update.Goal != nil {
		if !models.IsValidGoal(*update.Goal) {
			return invalid("Goal must be one of bulking, cutting, maintenance")
		}
		req.Goal = update.Goal
	}
	if update.DailyCalorieGoal != nil && *update.DailyCalorieGoal < 0 {
		return invalid("Daily calorie goal cannot be negative")
	}
	for _, goal := range []*float64{update.DailyProteinGoal, update.DailyCarbsGoal, update.DailyFatGoal} {
		if goal != nil && *goal < 0 {
			return invalid("Daily macro goals cannot be negative")
		}
	}

	err := s.users.UpdateProfile(ctx, caller.ID, req)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (s *AccountService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(user.ID, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(raw string) (string, error) {
	address, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || address.Address != strings.TrimSpace(raw) {
		return "", invalid("A valid email address is required")
	}
	return strings.ToLower(address.Address), nil
}
