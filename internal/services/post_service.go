package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/amalxloop/EatFlex/internal/metrics"
	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultFeedLimit      = 20
	DefaultDiscoverLimit  = 50
	DefaultUserPostsLimit = 20
	postImagesFolder      = "posts"
)

type PostPublisher interface {
	PublishPost(ctx context.Context, post *models.Post) error
}

type PostStore interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	AuthorID(ctx context.Context, id string) (string, error)
	ListByAuthors(ctx context.Context, authorIDs []string, limit int) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, string, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
}

type MealReader interface {
	GetByID(ctx context.Context, id string) (*models.Meal, error)
}

type PostInput struct {
	Content  string
	ImageURL *string
	MealID   *string
}

type PostService struct {
	publisher PostPublisher
	posts     PostStore
	comments  CommentStore
	meals     MealReader
	storage   StorageService
	notifier  Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPostService(
	publisher PostPublisher,
	posts PostStore,
	comments CommentStore,
	meals MealReader,
	storage StorageService,
	notifier Notifier,
	m *metrics.Metrics,
) *PostService {
	return &PostService{
		publisher: publisher,
		posts:     posts,
		comments:  comments,
		meals:     meals,
		storage:   storage,
		notifier:  notifier,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *PostService) CreatePost(ctx context.Context, caller *models.User, input PostInput) (string, error) {
	return s.publish(ctx, caller, input, "manual")
}

// ShareMeal publishes one of the caller's meals as a post with a nutrition summary.
func (s *PostService) ShareMeal(ctx context.Context, caller *models.User, mealID string) (string, error) {
	meal, err := s.meals.GetByID(ctx, mealID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrMealNotFound
	}
	if err != nil {
		return "", err
	}
	if meal.UserID != caller.ID {
		return "", ErrMealNotFound
	}

	return s.publish(ctx, caller, PostInput{
		Content: mealShareContent(meal),
		MealID:  &meal.ID,
	}, "meal_share")
}

func (s *PostService) publish(ctx context.Context, caller *models.User, input PostInput, origin string) (string, error) {
	post := &models.Post{
		ID:         uuid.NewString(),
		UserID:     caller.ID,
		AuthorName: caller.Name,
		Content:    input.Content,
		ImageURL:   input.ImageURL,
		MealID:     input.MealID,
		Likes:      []string{},
		Comments:   []models.Comment{},
		CreatedAt:  s.now().UTC(),
	}
	if err := s.publisher.PublishPost(ctx, post); err != nil {
		return "", err
	}

	s.metrics.PostCreated(origin)
	return post.ID, nil
}

// ToggleLike likes the post if the caller has not liked it yet and unlikes it otherwise.
func (s *PostService) ToggleLike(ctx context.Context, caller *models.User, postID string) (bool, error) {
	liked, authorID, err := s.posts.ToggleLike(ctx, postID, caller.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrPostNotFound
	}
	if err != nil {
		return false, err
	}

	s.metrics.LikeToggled(liked)
	if liked {
		s.notify(models.NotificationLike, authorID, caller, postID)
	}
	return liked, nil
}

func (s *PostService) AddComment(ctx context.Context, caller *models.User, postID string, content string) (*models.Comment, error) {
	authorID, err := s.posts.AuthorID(ctx, postID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:         uuid.NewString(),
		PostID:     postID,
		UserID:     caller.ID,
		AuthorName: caller.Name,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	err = s.comments.Create(ctx, comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	s.metrics.CommentAdded()
	s.notify(models.NotificationComment, authorID, caller, postID)
	return comment, nil
}

func (s *PostService) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.posts.AuthorID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

// GetFeed lists posts by the caller and everyone they follow. When that is
// empty it falls back to the global feed.
func (s *PostService) GetFeed(ctx context.Context, caller *models.User, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	authors := append(slices.Clone(caller.Following), caller.ID)
	posts, err := s.posts.ListByAuthors(ctx, authors, limit)
	if err != nil {
		return nil, err
	}
	if len(posts) > 0 {
		return posts, nil
	}
	return s.posts.ListByAuthors(ctx, nil, limit)
}

func (s *PostService) GetDiscoverFeed(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultDiscoverLimit
	}
	return s.posts.ListByAuthors(ctx, nil, limit)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultUserPostsLimit
	}
	return s.posts.ListByAuthors(ctx, []string{userID}, limit)
}

// UploadPostImage stores an image for a post and returns its URL. The post itself is not modified.
func (s *PostService) UploadPostImage(ctx context.Context, postID string, upload PhotoUpload) (string, error) {
	if !strings.HasPrefix(strings.ToLower(upload.ContentType), "image/") {
		return "", invalid("File must be an image")
	}

	if _, err := s.posts.AuthorID(ctx, postID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPostNotFound
		}
		return "", err
	}

	filename := postID + "_" + filepath.Base(upload.Filename)
	url, err := s.storage.UploadFile(ctx, upload.Data, filename, postImagesFolder, upload.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload post image: %w", err)
	}
	return url, nil
}

func (s *PostService) notify(kind string, recipientID string, actor *models.User, postID string) {
	if s.notifier == nil || recipientID == actor.ID {
		return
	}
	s.notifier.Notify(models.Notification{
		Type:        kind,
		RecipientID: recipientID,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		PostID:      postID,
		CreatedAt:   s.now().UTC(),
	})
}

func mealShareContent(meal *models.Meal) string {
	calories := 0
	if meal.Calories != nil {
		calories = *meal.Calories
	}
	return fmt.Sprintf(
		"Just had %s! 🍽️\n\n📊 Nutrition:\n• %d calories\n• %sg protein\n• %sg carbs\n• %sg fat",
		meal.Name,
		calories,
		formatGrams(meal.Protein),
		formatGrams(meal.Carbs),
		formatGrams(meal.Fat),
	)
}

// formatGrams renders stored macros the way they were entered: 20 -> "20.0", 25.5 -> "25.5".
func formatGrams(value *float64) string {
	if value == nil {
		return "0"
	}
	formatted := strconv.FormatFloat(*value, 'f', -1, 64)
	if !strings.ContainsAny(formatted, ".eE") {
		formatted += ".0"
	}
	return formatted
}
