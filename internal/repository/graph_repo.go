package repository

import (
	"context"
	"slices"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/jackc/pgx/v5"
)

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GraphRepository groups writes that span several rows and must commit together.
type GraphRepository struct {
	db TxBeginner
}

func NewGraphRepository(db TxBeginner) *GraphRepository {
	return &GraphRepository{db: db}
}

// ToggleFollow flips the follow edge between two users and reports whether
// followerID follows targetID afterwards. Both rows are locked in id order so
// concurrent toggles on the same pair serialize without deadlocking.
func (r *GraphRepository) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	users := NewUserRepository(tx)
	following, err := users.lockFollowing(ctx, followerID, targetID)
	if err != nil {
		return false, err
	}

	nowFollowing := !slices.Contains(following, targetID)
	if nowFollowing {
		err = users.addFollowEdge(ctx, followerID, targetID)
	} else {
		err = users.removeFollowEdge(ctx, followerID, targetID)
	}
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return nowFollowing, nil
}

// PublishPost stores a post and bumps its author's posts_count.
func (r *GraphRepository) PublishPost(ctx context.Context, post *models.Post) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := NewPostRepository(tx).Create(ctx, post); err != nil {
		return err
	}
	if err := NewUserRepository(tx).incrementPostsCount(ctx, post.UserID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
