package model

import (
	"time"

	"github.com/stemsi/certify-backend/internal/config"
)

// Collections are capped to their most recent entries.
const (
	MaxSentNotifications = 100
	MaxInboxEntries      = 100
)

// NotificationTarget selects the recipients of a broadcast.
type NotificationTarget string

const (
	TargetAll    NotificationTarget = "all"
	TargetUsers  NotificationTarget = "users"
	TargetAdmins NotificationTarget = "admins"
	TargetEmail  NotificationTarget = "email"
)

// SentNotificationLog records one administrator broadcast.
type SentNotificationLog struct {
	ID             string             `json:"id"`
	Target         NotificationTarget `json:"target"`
	Title          string             `json:"title"`
	Message        string             `json:"message"`
	TargetEmail    string             `json:"targetEmail,omitempty"`
	SentAt         time.Time          `json:"sentAt"`
	RecipientCount int                `json:"recipientCount"`
}

// AppNotification is one entry of a recipient's inbox.
type AppNotification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	Link      string    `json:"link,omitempty"`
	Tag       string    `json:"tag,omitempty"`
}

// InboxKey identifies one recipient's inbox.
type InboxKey struct {
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

// StorageKey is the store key of the inbox.
func (k InboxKey) StorageKey() string {
	return config.StoreKey.Inbox(string(k.Role), k.Email)
}

// BroadcastRequest is the admin payload for sending a notification.
type BroadcastRequest struct {
	Target      NotificationTarget `json:"target" binding:"required,oneof=all users admins email"`
	Title       string             `json:"title" binding:"required,min=1,max=200"`
	Message     string             `json:"message" binding:"required,min=1,max=2000"`
	TargetEmail string             `json:"targetEmail" binding:"omitempty,email"`
	Link        string             `json:"link" binding:"max=500"`
}
