package notifyws

import (
	"context"
	"encoding/json"

	"github.com/amalxloop/EatFlex/internal/models"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
)

// Hub fans social notifications out to every open connection of the recipient.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.Notification
	done       chan struct{}
	logger     logrus.FieldLogger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.Notification, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case notification := <-h.broadcast:
			h.deliver(notification)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify queues a notification without blocking the caller. When the queue is
// full the notification is dropped.
func (h *Hub) Notify(notification models.Notification) {
	select {
	case h.broadcast <- notification:
	default:
		h.logger.WithFields(logrus.Fields{
			"type":         notification.Type,
			"recipient_id": notification.RecipientID,
		}).Warn("notification queue full, dropping notification")
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) deliver(notification models.Notification) {
	set, ok := h.clients[notification.RecipientID]
	if !ok {
		return
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		h.logger.WithError(err).Error("encode notification")
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, notification.RecipientID)
	}
}

// ReadPump discards inbound frames and unregisters the client once the connection closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
