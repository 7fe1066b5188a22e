package models

import (
	"time"
)

// NotificationStatus is the delivery state of an outbound message.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification records an outbound customer message for an order.
// Write-once except for the status/sent-timestamp update after the
// dispatch attempt.
type Notification struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	OrderID          uint               `gorm:"not null;index" json:"order_id"`
	Order            *Order             `gorm:"foreignKey:OrderID" json:"-"`
	RecipientPhone   string             `gorm:"not null" json:"recipient_phone"`
	Message          string             `gorm:"type:text;not null" json:"message"`
	NotificationType string             `gorm:"not null" json:"notification_type"` // sms, whatsapp
	Status           NotificationStatus `gorm:"not null;default:'pending'" json:"status"`
	SentAt           *time.Time         `json:"sent_at"`
	CreatedAt        time.Time          `json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
