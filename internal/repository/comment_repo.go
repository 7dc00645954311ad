package repository

import (
	"context"
	"errors"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const commentColumns = `comment_id, post_id, user_id, author_name, content, created_at`

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create appends a comment. A missing post surfaces as pgx.ErrNoRows.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO post_comments (comment_id, post_id, user_id, author_name, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		comment.ID,
		comment.PostID,
		comment.UserID,
		comment.AuthorName,
		comment.Content,
		comment.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return pgx.ErrNoRows
	}
	return err
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+commentColumns+`
		FROM post_comments
		WHERE post_id = $1
		ORDER BY position
	`, postID)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

func (r *CommentRepository) ListByPosts(ctx context.Context, postIDs []string) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+commentColumns+`
		FROM post_comments
		WHERE post_id = ANY($1)
		ORDER BY post_id, position
	`, postIDs)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

func collectComments(rows pgx.Rows) ([]models.Comment, error) {
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.UserID,
			&comment.AuthorName,
			&comment.Content,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
