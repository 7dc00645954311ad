package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/amalxloop/EatFlex/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func withUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user_id", user.ID)
			c.Locals("user", user)
		}
		return c.Next()
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return payload
}

func jsonRequest(method, target string, body any) *http.Request {
	encoded, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func imageRequest(t *testing.T, target, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type stubAccountService struct {
	signupResult *services.AuthResult
	signupErr    error
	loginResult  *services.AuthResult
	loginErr     error
	lastSignup   services.SignupInput
}

func (s *stubAccountService) Signup(_ context.Context, input services.SignupInput) (*services.AuthResult, error) {
	s.lastSignup = input
	return s.signupResult, s.signupErr
}

func (s *stubAccountService) Login(_ context.Context, _, _ string) (*services.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func TestSignupReturnsTokenAndUser(t *testing.T) {
	service := &stubAccountService{signupResult: &services.AuthResult{
		Token: "jwt",
		User:  &models.User{ID: "u1", Email: "ada@example.com", Name: "Ada", Goal: "cutting", PasswordHash: "secret"},
	}}
	app := fiber.New()
	app.Post("/api/auth/signup", NewAuthHandler(service, quietLogger()).Signup)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "ada@example.com", "password": "correct-horse", "name": "Ada", "goal": "cutting",
	}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	payload := decodeBody(t, resp)
	if payload["token"] != "jwt" {
		t.Fatalf("unexpected token: %v", payload["token"])
	}
	user := payload["user"].(map[string]any)
	if user["user_id"] != "u1" || user["goal"] != "cutting" {
		t.Fatalf("unexpected user: %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash leaked")
	}
	if service.lastSignup.Name != "Ada" {
		t.Fatalf("expected name forwarded, got %+v", service.lastSignup)
	}
}

func TestSignupDuplicateEmailIsBadRequest(t *testing.T) {
	app := fiber.New()
	app.Post("/api/auth/signup", NewAuthHandler(&stubAccountService{signupErr: services.ErrEmailTaken}, quietLogger()).Signup)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", map[string]string{"email": "ada@example.com"}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); payload["error"] != "Email already registered" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := fiber.New()
	app.Post("/api/auth/login", NewAuthHandler(&stubAccountService{loginErr: services.ErrInvalidCredentials}, quietLogger()).Login)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.c", "password": "x"}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); payload["error"] != "Invalid credentials" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
}

func TestMeReturnsCounts(t *testing.T) {
	user := &models.User{ID: "u1", Name: "Ada", Followers: []string{"a", "b"}, Following: []string{"c"}, PostsCount: 4, CurrentStreak: 3}
	app := fiber.New()
	app.Use(withUser(user))
	app.Get("/api/auth/me", NewAuthHandler(&stubAccountService{}, quietLogger()).Me)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload := decodeBody(t, resp)
	if payload["followers"] != 2.0 || payload["following"] != 1.0 || payload["posts_count"] != 4.0 || payload["current_streak"] != 3.0 {
		t.Fatalf("unexpected me payload: %v", payload)
	}
}

type stubSocialService struct {
	following  bool
	err        error
	summaries  []models.UserSummary
	lastTarget string
}

func (s *stubSocialService) ToggleFollow(_ context.Context, _ *models.User, targetID string) (bool, error) {
	s.lastTarget = targetID
	return s.following, s.err
}

func (s *stubSocialService) ListFollowers(_ context.Context, _ string) ([]models.UserSummary, error) {
	return s.summaries, s.err
}

func (s *stubSocialService) ListFollowing(_ context.Context, _ string) ([]models.UserSummary, error) {
	return s.summaries, s.err
}

type stubProfileService struct {
	profile    *models.Profile
	err        error
	lastUpdate services.ProfileUpdate
}

func (s *stubProfileService) GetProfile(_ context.Context, _ *models.User, _ string) (*models.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfileService) UpdateProfile(_ context.Context, _ *models.User, update services.ProfileUpdate) error {
	s.lastUpdate = update
	return s.err
}

func TestToggleFollowReportsState(t *testing.T) {
	social := &stubSocialService{following: true}
	app := fiber.New()
	app.Use(withUser(&models.User{ID: "alice"}))
	app.Post("/api/profile/follow/:id", NewProfileHandler(&stubProfileService{}, social, quietLogger()).ToggleFollow)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/profile/follow/bob", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload := decodeBody(t, resp)
	if payload["message"] != "User followed" || payload["is_following"] != true {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if social.lastTarget != "bob" {
		t.Fatalf("expected target bob, got %q", social.lastTarget)
	}
}

func TestToggleFollowSelfIsBadRequestWithMessage(t *testing.T) {
	social := &stubSocialService{err: &services.ValidationError{Message: "Cannot follow yourself"}}
	app := fiber.New()
	app.Use(withUser(&models.User{ID: "alice"}))
	app.Post("/api/profile/follow/:id", NewProfileHandler(&stubProfileService{}, social, quietLogger()).ToggleFollow)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/profile/follow/alice", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); payload["error"] != "Cannot follow yourself" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
}

func TestListFollowersUnknownUserIsNotFound(t *testing.T) {
	app := fiber.New()
	app.Use(withUser(&models.User{ID: "alice"}))
	app.Get("/api/profile/followers/:id", NewProfileHandler(&stubProfileService{}, &stubSocialService{err: services.ErrUserNotFound}, quietLogger()).ListFollowers)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/profile/followers/ghost", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateProfileForwardsPartialFields(t *testing.T) {
	profiles := &stubProfileService{}
	app := fiber.New()
	app.Use(withUser(&models.User{ID: "alice"}))
	app.Put("/api/profile", NewProfileHandler(profiles, &stubSocialService{}, quietLogger()).UpdateProfile)

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/profile", map[string]any{"goal": "bulking", "daily_calorie_goal": 3000}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if profiles.lastUpdate.Goal == nil || *profiles.lastUpdate.Goal != "bulking" {
		t.Fatalf("unexpected goal: %+v", profiles.lastUpdate.Goal)
	}
	if profiles.lastUpdate.Name != nil || profiles.lastUpdate.DailyCalorieGoal == nil || *profiles.lastUpdate.DailyCalorieGoal != 3000 {
		t.Fatalf("unexpected update: %+v", profiles.lastUpdate)
	}
}

type stubMealService struct {
	mealID     string
	result     models.AnalysisResult
	err        error
	today      *models.TodaySummary
	history    []models.Meal
	lastInput  services.MealInput
	lastUpload services.PhotoUpload
	lastLimit  int
}

func (s *stubMealService) LogManual(_ context.Context, _ *models.User, input services.MealInput) (string, error) {
	s.lastInput = input
	return s.mealID, s.err
}

func (s *stubMealService) LogFromPhoto(_ context.Context, _ *models.User, upload services.PhotoUpload) (string, models.AnalysisResult, error) {
	s.lastUpload = upload
	return s.mealID, s.result, s.err
}

func (s *stubMealService) GetToday(_ context.Context, _ *models.User) (*models.TodaySummary, error) {
	return s.today, s.err
}

func (s *stubMealService) GetHistory(_ context.Context, _ *models.User, limit int) ([]models.Meal, error) {
	s.lastLimit = limit
	return s.history, s.err
}

func newMealApp(service *stubMealService) *fiber.App {
	handler := NewMealHandler(service, quietLogger())
	app := fiber.New()
	app.Use(withUser(&models.User{ID: "u1"}))
	app.Post("/api/meals/log", handler.LogMeal)
	app.Post("/api/meals/analyze", handler.AnalyzeMeal)
	app.Get("/api/meals/today", handler.GetToday)
	app.Get("/api/meals/history", handler.GetHistory)
	return app
}

func TestLogMealForwardsNullableFields(t *testing.T) {
	service := &stubMealService{mealID: "m1"}
	app := newMealApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/meals/log", map[string]any{"name": "Steak", "calories": 500, "protein": 40}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload := decodeBody(t, resp)
	if payload["meal_id"] != "m1" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if service.lastInput.Calories == nil || *service.lastInput.Calories != 500 {
		t.Fatalf("unexpected calories: %+v", service.lastInput.Calories)
	}
	if service.lastInput.Carbs != nil {
		t.Fatalf("expected carbs to stay nil")
	}
}

func TestAnalyzeMealReturnsEstimateAndStatus(t *testing.T) {
	service := &stubMealService{
		mealID: "m2",
		result: models.AnalysisResult{
			Status:   models.AnalysisDegraded,
			Reason:   models.ReasonUpstreamUnavailable,
			Estimate: models.NutritionEstimate{Name: "soup", Calories: 400, Confidence: 1},
		},
	}
	app := newMealApp(service)

	resp, err := app.Test(imageRequest(t, "/api/meals/analyze", "soup.jpg", "image/jpeg", []byte("jpeg-bytes")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	payload := decodeBody(t, resp)
	if payload["analysis_status"] != "degraded" {
		t.Fatalf("unexpected status: %v", payload["analysis_status"])
	}
	analysis := payload["analysis"].(map[string]any)
	if analysis["confidence"] != 1.0 || analysis["name"] != "soup" {
		t.Fatalf("unexpected analysis: %v", analysis)
	}
	if service.lastUpload.Filename != "soup.jpg" || service.lastUpload.ContentType != "image/jpeg" {
		t.Fatalf("unexpected upload: %+v", service.lastUpload)
	}
	if string(service.lastUpload.Data) != "jpeg-bytes" {
		t.Fatalf("unexpected upload data: %q", service.lastUpload.Data)
	}
}

func TestAnalyzeMealRequiresFile(t *testing.T) {
	app := newMealApp(&stubMealService{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/meals/analyze", map[string]string{}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnalyzeMealNonImageIsBadRequest(t *testing.T) {
	app := newMealApp(&stubMealService{err: &services.ValidationError{Message: "File must be an image"}})

	resp, err := app.Test(imageRequest(t, "/api/meals/analyze", "menu.pdf", "application/pdf", []byte("%PDF")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); payload["error"] != "File must be an image" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
}

func TestMealHistoryLimitParsing(t *testing.T) {
	service := &stubMealService{history: []models.Meal{}}
	app := newMealApp(service)

	cases := map[string]int{
		"/api/meals/history":           services.DefaultHistoryLimit,
		"/api/meals/history?limit=10":  10,
		"/api/meals/history?limit=500": services.MaxHistoryLimit,
	}
	for target, want := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusOK || service.lastLimit != want {
			t.Fatalf("%s: expected limit %d, got %d (status %d)", target, want, service.lastLimit, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/meals/history?limit=abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestMealTodayWithoutUserIsUnauthorized(t *testing.T) {
	app := fiber.New()
	app.Get("/api/meals/today", NewMealHandler(&stubMealService{}, quietLogger()).GetToday)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/meals/today", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

type stubPostService struct {
	postID      string
	liked       bool
	err         error
	posts       []models.Post
	comments    []models.Comment
	imageURL    string
	lastPostID  string
	lastContent string
	lastLimit   int
}

func (s *stubPostService) CreatePost(_ context.Context, _ *models.User, input services.PostInput) (string, error) {
	s.lastContent = input.Content
	return s.postID, s.err
}

func (s *stubPostService) ShareMeal(_ context.Context, _ *models.User, mealID string) (string, error) {
	s.lastPostID = mealID
	return s.postID, s.err
}

func (s *stubPostService) ToggleLike(_ context.Context, _ *models.User, postID string) (bool, error) {
	s.lastPostID = postID
	return s.liked, s.err
}

func (s *stubPostService) AddComment(_ context.Context, _ *models.User, postID string, content string) (*models.Comment, error) {
	s.lastPostID = postID
	s.lastContent = content
	if s.err != nil {
		return nil, s.err
	}
	return &models.Comment{ID: "c1", Content: content}, nil
}

func (s *stubPostService) GetComments(_ context.Context, postID string) ([]models.Comment, error) {
	s.lastPostID = postID
	return s.comments, s.err
}

func (s *stubPostService) GetFeed(_ context.Context, _ *models.User, limit int) ([]models.Post, error) {
	s.lastLimit = limit
	return s.posts, s.err
}

func (s *stubPostService) GetDiscoverFeed(_ context.Context, limit int) ([]models.Post, error) {
	s.lastLimit = limit
	return s.posts, s.err
}

func (s *stubPostService) GetUserPosts(_ context.Context, userID string, limit int) ([]models.Post, error) {
	s.lastPostID = userID
	s.lastLimit = limit
	return s.posts, s.err
}

func (s *stubPostService) UploadPostImage(_ context.Context, postID string, _ services.PhotoUpload) (string, error) {
	s.lastPostID = postID
	return s.imageURL, s.err
}

func newPostApp(service *stubPostService) *fiber.App {
	handler := NewPostHandler(service, quietLogger())
	app := fiber.New()
	app.Use(withUser(&models.User{ID: "u1", Name: "Ada"}))
	app.Post("/api/posts/create", handler.CreatePost)
	app.Get("/api/posts/feed", handler.GetFeed)
	app.Get("/api/posts/discover", handler.GetDiscover)
	app.Get("/api/posts/user/:id", handler.GetUserPosts)
	app.Post("/api/posts/share-meal/:meal_id", handler.ShareMeal)
	app.Post("/api/posts/:id/like", handler.ToggleLike)
	app.Post("/api/posts/:id/comment", handler.AddComment)
	app.Get("/api/posts/:id/comments", handler.GetComments)
	app.Post("/api/posts/:id/upload-image", handler.UploadImage)
	return app
}

func TestToggleLikeResponses(t *testing.T) {
	service := &stubPostService{liked: false}
	app := newPostApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/posts/p1/like", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload := decodeBody(t, resp)
	if payload["message"] != "Post unliked" || payload["liked"] != false {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if service.lastPostID != "p1" {
		t.Fatalf("expected post p1, got %q", service.lastPostID)
	}

	service.err = services.ErrPostNotFound
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/posts/missing/like", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestShareMealNotFound(t *testing.T) {
	app := newPostApp(&stubPostService{err: services.ErrMealNotFound})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/posts/share-meal/m9", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); payload["error"] != "Meal not found" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
}

func TestAddCommentForwardsContent(t *testing.T) {
	service := &stubPostService{}
	app := newPostApp(service)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts/p1/comment", map[string]string{"content": "great macros"}))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if payload := decodeBody(t, resp); payload["message"] != "Comment added successfully" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if service.lastPostID != "p1" || service.lastContent != "great macros" {
		t.Fatalf("unexpected forward: %q %q", service.lastPostID, service.lastContent)
	}
}

func TestFeedDefaultsAndUnexpectedErrors(t *testing.T) {
	service := &stubPostService{posts: []models.Post{{ID: "p1"}}}
	app := newPostApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/feed", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload := decodeBody(t, resp)
	if posts := payload["posts"].([]any); len(posts) != 1 {
		t.Fatalf("unexpected posts: %v", posts)
	}
	if service.lastLimit != services.DefaultFeedLimit {
		t.Fatalf("expected default feed limit, got %d", service.lastLimit)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/discover", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if service.lastLimit != services.DefaultDiscoverLimit {
		t.Fatalf("expected default discover limit, got %d", service.lastLimit)
	}

	service.err = errors.New("connection reset")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/feed", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); strings.Contains(payload["error"].(string), "connection reset") {
		t.Fatalf("internal error leaked: %v", payload["error"])
	}
}

func TestUploadImageReturnsURL(t *testing.T) {
	service := &stubPostService{imageURL: "https://api.eatflex.com/images/p1_plate.png"}
	app := newPostApp(service)

	resp, err := app.Test(imageRequest(t, "/api/posts/p1/upload-image", "plate.png", "image/png", []byte("png")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if payload := decodeBody(t, resp); payload["image_url"] != "https://api.eatflex.com/images/p1_plate.png" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if service.lastPostID != "p1" {
		t.Fatalf("expected post p1, got %q", service.lastPostID)
	}
}

type stubSocketUsers struct {
	user *models.User
	err  error
}

func (s *stubSocketUsers) Authenticate(_ context.Context, _ string) (*models.User, error) {
	return s.user, s.err
}

func newSocketAuthApp(users socketUserResolver) *fiber.App {
	app := fiber.New()
	app.Get("/api/ws", NewNotificationHandler(nil, users, "secret", quietLogger()).WebSocketAuth, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func upgradeRequest(t *testing.T, userID string) *http.Request {
	t.Helper()

	token, err := utils.GenerateToken(userID, "secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/ws?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	return req
}

func TestNotificationSocketResolvesStoredUser(t *testing.T) {
	app := newSocketAuthApp(&stubSocketUsers{user: &models.User{ID: "u1"}})

	resp, err := app.Test(upgradeRequest(t, "u1"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "u1" {
		t.Fatalf("expected 200 u1, got %d %q", resp.StatusCode, body)
	}
}

func TestNotificationSocketRejectsDeletedUser(t *testing.T) {
	app := newSocketAuthApp(&stubSocketUsers{err: services.ErrUnauthorized})

	resp, err := app.Test(upgradeRequest(t, "deleted"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if payload := decodeBody(t, resp); payload["error"] != "User not found" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
}

func TestNotificationSocketStoreFailureIsInternalError(t *testing.T) {
	app := newSocketAuthApp(&stubSocketUsers{err: errors.New("db down")})

	resp, err := app.Test(upgradeRequest(t, "u1"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestNotificationSocketRequiresUpgrade(t *testing.T) {
	app := newSocketAuthApp(&stubSocketUsers{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?token=abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
