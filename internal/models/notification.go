package models

import "time"

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
)

type Notification struct {
	Type        string    `json:"type"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	PostID      string    `json:"post_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
