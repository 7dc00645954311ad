package repository

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/jackc/pgx/v5"
)

const postColumns = `post_id, user_id, author_name, content, image_url, meal_id, likes, created_at`

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO posts (post_id, user_id, author_name, content, image_url, meal_id, likes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		post.ID,
		post.UserID,
		post.AuthorName,
		post.Content,
		post.ImageURL,
		post.MealID,
		nonNilStrings(post.Likes),
		post.CreatedAt,
	)
	return err
}

// GetByID loads a post with its comments in insertion order.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE post_id = $1`, id))
	if err != nil {
		return nil, err
	}

	comments, err := NewCommentRepository(r.db).ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Comments = comments
	return post, nil
}

// AuthorID returns the post's author, or pgx.ErrNoRows when the post does not exist.
func (r *PostRepository) AuthorID(ctx context.Context, id string) (string, error) {
	var authorID string
	err := r.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE post_id = $1`, id).Scan(&authorID)
	return authorID, err
}

// ListByAuthors returns posts by any of authorIDs, newest first. A nil slice means all authors.
func (r *PostRepository) ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]models.Post, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if authorIDs == nil {
		rows, err = r.db.Query(ctx, `
			SELECT `+postColumns+`
			FROM posts
			ORDER BY created_at DESC, post_id
			LIMIT $1
		`, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+postColumns+`
			FROM posts
			WHERE user_id = ANY($1)
			ORDER BY created_at DESC, post_id
			LIMIT $2
		`, authorIDs, limit)
	}
	if err != nil {
		return nil, err
	}

	posts, err := collectPosts(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ToggleLike flips userID's membership in the post's likes in one statement and
// reports the new state along with the post's author.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, string, error) {
	var (
		liked    bool
		authorID string
	)
	err := r.db.QueryRow(ctx, `
		UPDATE posts
		SET likes = CASE
			WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text)
			ELSE array_append(likes, $2::text)
		END
		WHERE post_id = $1
		RETURNING $2::text = ANY(likes), user_id
	`, postID, userID).Scan(&liked, &authorID)
	return liked, authorID, err
}

func (r *PostRepository) attachComments(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
	}

	comments, err := NewCommentRepository(r.db).ListByPosts(ctx, ids)
	if err != nil {
		return err
	}
	for _, comment := range comments {
		i := index[comment.PostID]
		posts[i].Comments = append(posts[i].Comments, comment)
	}
	return nil
}

func collectPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.AuthorName,
		&post.Content,
		&post.ImageURL,
		&post.MealID,
		&post.Likes,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	post.Likes = nonNilStrings(post.Likes)
	post.Comments = []models.Comment{}
	return &post, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
