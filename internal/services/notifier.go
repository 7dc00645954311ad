package services

import "github.com/amalxloop/EatFlex/internal/models"

// Notifier receives social events after they are committed. Delivery is best effort.
type Notifier interface {
	Notify(notification models.Notification)
}
