package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/amalxloop/EatFlex/internal/models"
	"github.com/amalxloop/EatFlex/internal/services"
	notifyws "github.com/amalxloop/EatFlex/internal/websocket"
	"github.com/amalxloop/EatFlex/pkg/utils"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type socketUserResolver interface {
	Authenticate(ctx context.Context, userID string) (*models.User, error)
}

type NotificationHandler struct {
	hub       *notifyws.Hub
	users     socketUserResolver
	jwtSecret string
	logger    logrus.FieldLogger
}

func NewNotificationHandler(hub *notifyws.Hub, users socketUserResolver, jwtSecret string, logger logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{
		hub:       hub,
		users:     users,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// WebSocketAuth reads the token from ?token= or the Authorization header.
func (h *NotificationHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	user, err := h.users.Authenticate(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found"})
		}
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("resolve websocket user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	c.Locals("user_id", user.ID)
	return c.Next()
}

func (h *NotificationHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := notifyws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *NotificationHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
