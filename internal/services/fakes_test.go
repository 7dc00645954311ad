package services

import (
	"context"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// memoryDB backs the fake stores below with the same semantics the
// Postgres repositories provide.
type memoryDB struct {
	mu       sync.Mutex
	users    map[string]*models.User
	meals    []models.Meal
	posts    []*models.Post
	comments []models.Comment
}

func newMemoryDB() *memoryDB {
	return &memoryDB{users: make(map[string]*models.User)}
}

func cloneUser(user *models.User) *models.User {
	copied := *user
	copied.Followers = slices.Clone(user.Followers)
	copied.Following = slices.Clone(user.Following)
	return &copied
}

type fakeUsers struct {
	db        *memoryDB
	createErr error
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, existing := range f.db.users {
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	user.CreatedAt = time.Now().UTC()
	f.db.users[user.ID] = cloneUser(user)
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, user := range f.db.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	user, ok := f.db.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneUser(user), nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, req repository.UpdateProfileInput) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	user, ok := f.db.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Goal != nil {
		user.Goal = *req.Goal
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.DailyCalorieGoal != nil {
		user.DailyCalorieGoal = *req.DailyCalorieGoal
	}
	if req.DailyProteinGoal != nil {
		user.DailyProteinGoal = *req.DailyProteinGoal
	}
	if req.DailyCarbsGoal != nil {
		user.DailyCarbsGoal = *req.DailyCarbsGoal
	}
	if req.DailyFatGoal != nil {
		user.DailyFatGoal = *req.DailyFatGoal
	}
	return nil
}

func (f *fakeUsers) ListSummaries(_ context.Context, ids []string) ([]models.UserSummary, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	summaries := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if user, ok := f.db.users[id]; ok {
			summaries = append(summaries, models.UserSummary{ID: user.ID, Name: user.Name, Goal: user.Goal})
		}
	}
	return summaries, nil
}

func (f *fakeUsers) ToggleFollow(_ context.Context, followerID, targetID string) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	follower, ok := f.db.users[followerID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	target, ok := f.db.users[targetID]
	if !ok {
		return false, pgx.ErrNoRows
	}

	if slices.Contains(follower.Following, targetID) {
		follower.Following = slices.DeleteFunc(follower.Following, func(id string) bool { return id == targetID })
		target.Followers = slices.DeleteFunc(target.Followers, func(id string) bool { return id == followerID })
		return false, nil
	}
	follower.Following = append(follower.Following, targetID)
	target.Followers = append(target.Followers, followerID)
	return true, nil
}

type fakeMeals struct {
	db *memoryDB
}

func (f *fakeMeals) Create(_ context.Context, meal *models.Meal) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.meals = append(f.db.meals, *meal)
	return nil
}

func (f *fakeMeals) GetByID(_ context.Context, id string) (*models.Meal, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, meal := range f.db.meals {
		if meal.ID == id {
			copied := meal
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMeals) ListByDate(_ context.Context, userID, date string) ([]models.Meal, error) {
	return f.list(func(meal models.Meal) bool { return meal.UserID == userID && meal.Date == date }, 0), nil
}

func (f *fakeMeals) ListRecent(_ context.Context, userID string, limit int) ([]models.Meal, error) {
	return f.list(func(meal models.Meal) bool { return meal.UserID == userID }, limit), nil
}

func (f *fakeMeals) list(keep func(models.Meal) bool, limit int) []models.Meal {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	meals := make([]models.Meal, 0)
	for _, meal := range f.db.meals {
		if keep(meal) {
			meals = append(meals, meal)
		}
	}
	sort.SliceStable(meals, func(i, j int) bool { return meals[i].CreatedAt.After(meals[j].CreatedAt) })
	if limit > 0 && len(meals) > limit {
		meals = meals[:limit]
	}
	return meals
}

type fakePosts struct {
	db *memoryDB
}

func (f *fakePosts) PublishPost(_ context.Context, post *models.Post) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	author, ok := f.db.users[post.UserID]
	if !ok {
		return pgx.ErrNoRows
	}
	copied := *post
	f.db.posts = append(f.db.posts, &copied)
	author.PostsCount++
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	post := f.find(id)
	if post == nil {
		return nil, pgx.ErrNoRows
	}
	return f.snapshot(post), nil
}

func (f *fakePosts) AuthorID(_ context.Context, id string) (string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	post := f.find(id)
	if post == nil {
		return "", pgx.ErrNoRows
	}
	return post.UserID, nil
}

func (f *fakePosts) ListByAuthors(_ context.Context, authorIDs []string, limit int) ([]models.Post, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	posts := make([]models.Post, 0)
	for _, post := range f.db.posts {
		if authorIDs == nil || slices.Contains(authorIDs, post.UserID) {
			posts = append(posts, *f.snapshot(post))
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakePosts) ToggleLike(_ context.Context, postID, userID string) (bool, string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	post := f.find(postID)
	if post == nil {
		return false, "", pgx.ErrNoRows
	}
	if slices.Contains(post.Likes, userID) {
		post.Likes = slices.DeleteFunc(post.Likes, func(id string) bool { return id == userID })
		return false, post.UserID, nil
	}
	post.Likes = append(post.Likes, userID)
	return true, post.UserID, nil
}

func (f *fakePosts) find(id string) *models.Post {
	for _, post := range f.db.posts {
		if post.ID == id {
			return post
		}
	}
	return nil
}

func (f *fakePosts) snapshot(post *models.Post) *models.Post {
	copied := *post
	copied.Likes = slices.Clone(post.Likes)
	copied.Comments = []models.Comment{}
	for _, comment := range f.db.comments {
		if comment.PostID == post.ID {
			copied.Comments = append(copied.Comments, comment)
		}
	}
	return &copied
}

type fakeComments struct {
	db *memoryDB
}

func (f *fakeComments) Create(_ context.Context, comment *models.Comment) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	if (&fakePosts{db: f.db}).find(comment.PostID) == nil {
		return pgx.ErrNoRows
	}
	f.db.comments = append(f.db.comments, *comment)
	return nil
}

func (f *fakeComments) ListByPost(_ context.Context, postID string) ([]models.Comment, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	comments := make([]models.Comment, 0)
	for _, comment := range f.db.comments {
		if comment.PostID == postID {
			comments = append(comments, comment)
		}
	}
	return comments, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Notification
}

func (n *recordingNotifier) Notify(notification models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification)
}

func (n *recordingNotifier) Events() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

type stubStorage struct {
	url         string
	err         error
	lastName    string
	lastFolder  string
	lastType    string
	lastContent []byte
}

func (s *stubStorage) UploadFile(_ context.Context, content []byte, filename string, folder string, contentType string) (string, error) {
	s.lastContent = content
	s.lastName = filename
	s.lastFolder = folder
	s.lastType = contentType
	return s.url, s.err
}

// tickingClock returns strictly increasing timestamps so newest-first ordering is deterministic.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seedUser(db *memoryDB, id, name string) *models.User {
	user := &models.User{
		ID:               id,
		Email:            strings.ToLower(name) + "@example.com",
		Name:             name,
		PasswordHash:     "hash",
		Goal:             models.GoalMaintenance,
		DailyCalorieGoal: models.DefaultCalorieGoal,
		DailyProteinGoal: models.DefaultProteinGoal,
		DailyCarbsGoal:   models.DefaultCarbsGoal,
		DailyFatGoal:     models.DefaultFatGoal,
		Followers:        []string{},
		Following:        []string{},
	}
	db.mu.Lock()
	db.users[id] = cloneUser(user)
	db.mu.Unlock()
	return user
}

// reload fetches the current row so callers see follow changes, the way the auth middleware would.
func reload(db *memoryDB, id string) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	return cloneUser(db.users[id])
}
