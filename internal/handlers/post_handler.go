package handlers

import (
	"context"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const maxFeedLimit = 100

type postFeedService interface {
	CreatePost(ctx context.Context, caller *models.User, input services.PostInput) (string, error)
	ShareMeal(ctx context.Context, caller *models.User, mealID string) (string, error)
	ToggleLike(ctx context.Context, caller *models.User, postID string) (bool, error)
	AddComment(ctx context.Context, caller *models.User, postID string, content string) (*models.Comment, error)
	GetComments(ctx context.Context, postID string) ([]models.Comment, error)
	GetFeed(ctx context.Context, caller *models.User, limit int) ([]models.Post, error)
	GetDiscoverFeed(ctx context.Context, limit int) ([]models.Post, error)
	GetUserPosts(ctx context.Context, userID string, limit int) ([]models.Post, error)
	UploadPostImage(ctx context.Context, postID string, upload services.PhotoUpload) (string, error)
}

type PostHandler struct {
	service postFeedService
	logger  logrus.FieldLogger
}

func NewPostHandler(service postFeedService, logger logrus.FieldLogger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

type createPostRequest struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
	MealID   *string `json:"meal_id"`
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	postID, err := h.service.CreatePost(c.Context(), user, services.PostInput{
		Content:  req.Content,
		ImageURL: req.ImageURL,
		MealID:   req.MealID,
	})
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to create post")
	}
	return c.JSON(fiber.Map{"post_id": postID, "message": "Post created successfully"})
}

func (h *PostHandler) ShareMeal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	postID, err := h.service.ShareMeal(c.Context(), user, c.Params("meal_id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to share meal")
	}
	return c.JSON(fiber.Map{"post_id": postID, "message": "Meal shared successfully"})
}

func (h *PostHandler) ToggleLike(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	liked, err := h.service.ToggleLike(c.Context(), user, c.Params("id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to update like")
	}

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	return c.JSON(fiber.Map{"message": message, "liked": liked})
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.service.AddComment(c.Context(), user, c.Params("id"), req.Content); err != nil {
		return mapServiceError(c, h.logger, err, "Failed to add comment")
	}
	return c.JSON(fiber.Map{"message": "Comment added successfully"})
}

func (h *PostHandler) GetComments(c *fiber.Ctx) error {
	comments, err := h.service.GetComments(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load comments")
	}
	return c.JSON(fiber.Map{"comments": comments})
}

func (h *PostHandler) UploadImage(c *fiber.Ctx) error {
	upload, err := readImageUpload(c)
	if err != nil {
		return uploadError(c, err)
	}

	imageURL, err := h.service.UploadPostImage(c.Context(), c.Params("id"), upload)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to upload image")
	}
	return c.JSON(fiber.Map{"image_url": imageURL})
}

func (h *PostHandler) GetFeed(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	limit, ok := parseLimit(c, services.DefaultFeedLimit, maxFeedLimit)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	posts, err := h.service.GetFeed(c.Context(), user, limit)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load feed")
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) GetDiscover(c *fiber.Ctx) error {
	limit, ok := parseLimit(c, services.DefaultDiscoverLimit, maxFeedLimit)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	posts, err := h.service.GetDiscoverFeed(c.Context(), limit)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load discover feed")
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) GetUserPosts(c *fiber.Ctx) error {
	limit, ok := parseLimit(c, services.DefaultUserPostsLimit, maxFeedLimit)
	if !ok {
		return badRequest(c, "Invalid limit")
	}

	posts, err := h.service.GetUserPosts(c.Context(), c.Params("id"), limit)
	if err != nil {
		return mapServiceError(c, h.logger, err, "Failed to load posts")
	}
	return c.JSON(fiber.Map{"posts": posts})
}
