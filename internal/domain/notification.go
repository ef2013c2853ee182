package domain

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// NotificationAction — кнопка в уведомлении (например, «Log in» при истёкшей сессии).
type NotificationAction struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Notification struct {
	ID        string              `json:"id"`
	Type      NotificationType    `json:"type"`
	Title     string              `json:"title"`
	Message   string              `json:"message,omitempty"`
	Read      bool                `json:"read"`
	CreatedAt time.Time           `json:"createdAt"`
	Action    *NotificationAction `json:"action,omitempty"`
}
