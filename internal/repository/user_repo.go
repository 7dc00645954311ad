package repository

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `
	user_id, email, name, password_hash, goal, bio,
	daily_calorie_goal, daily_protein_goal, daily_carbs_goal, daily_fat_goal,
	followers, following, posts_count, current_streak, longest_streak, created_at
`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type UpdateProfileInput struct {
	Name             *string
	Goal             *string
	Bio              *string
	DailyCalorieGoal *int
	DailyProteinGoal *float64
	DailyCarbsGoal   *float64
	DailyFatGoal     *float64
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			user_id, email, name, password_hash, goal,
			daily_calorie_goal, daily_protein_goal, daily_carbs_goal, daily_fat_goal
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Goal,
		user.DailyCalorieGoal,
		user.DailyProteinGoal,
		user.DailyCarbsGoal,
		user.DailyFatGoal,
	).Scan(&user.CreatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, req UpdateProfileInput) error {
	query := `
		UPDATE users
		SET name = COALESCE($1, name),
			goal = COALESCE($2, goal),
			bio = COALESCE($3, bio),
			daily_calorie_goal = COALESCE($4, daily_calorie_goal),
			daily_protein_goal = COALESCE($5, daily_protein_goal),
			daily_carbs_goal = COALESCE($6, daily_carbs_goal),
			daily_fat_goal = COALESCE($7, daily_fat_goal)
		WHERE user_id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		req.Name,
		req.Goal,
		req.Bio,
		req.DailyCalorieGoal,
		req.DailyProteinGoal,
		req.DailyCarbsGoal,
		req.DailyFatGoal,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListSummaries returns the public cards for ids in the order given; unknown ids are skipped.
func (r *UserRepository) ListSummaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	summaries := make([]models.UserSummary, 0, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id, name, goal
		FROM users
		WHERE user_id = ANY($1)
		ORDER BY array_position($1::text[], user_id)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var summary models.UserSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Goal); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// lockFollowing row-locks both users in id order and returns the follower's following list.
func (r *UserRepository) lockFollowing(ctx context.Context, followerID, targetID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, following
		FROM users
		WHERE user_id = ANY($1)
		ORDER BY user_id
		FOR UPDATE
	`, []string{followerID, targetID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var following []string
	found := 0
	for rows.Next() {
		var id string
		var list []string
		if err := rows.Scan(&id, &list); err != nil {
			return nil, err
		}
		found++
		if id == followerID {
			following = list
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if found != 2 {
		return nil, pgx.ErrNoRows
	}
	return following, nil
}

func (r *UserRepository) addFollowEdge(ctx context.Context, followerID, targetID string) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE users
		SET following = array_append(following, $2::text)
		WHERE user_id = $1 AND NOT ($2::text = ANY(following))
	`, followerID, targetID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET followers = array_append(followers, $2::text)
		WHERE user_id = $1 AND NOT ($2::text = ANY(followers))
	`, targetID, followerID)
	return err
}

func (r *UserRepository) removeFollowEdge(ctx context.Context, followerID, targetID string) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE users SET following = array_remove(following, $2::text) WHERE user_id = $1
	`, followerID, targetID); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE users SET followers = array_remove(followers, $2::text) WHERE user_id = $1
	`, targetID, followerID)
	return err
}

func (r *UserRepository) incrementPostsCount(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET posts_count = posts_count + 1 WHERE user_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Goal,
		&user.Bio,
		&user.DailyCalorieGoal,
		&user.DailyProteinGoal,
		&user.DailyCarbsGoal,
		&user.DailyFatGoal,
		&user.Followers,
		&user.Following,
		&user.PostsCount,
		&user.CurrentStreak,
		&user.LongestStreak,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
