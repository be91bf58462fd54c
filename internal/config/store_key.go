package config

import (
	"fmt"
	"strings"
)

// StoreKeyStruct names every collection persisted in the key-value store.
type StoreKeyStruct struct {
	AdminTests        string
	ExamSettings      string
	Users             string
	Appointments      string
	QuizHistory       string
	SentNotifications string
	AuthUser          string
	AuthToken         string
}

// InboxPrefix is shared by every per-recipient inbox key.
const InboxPrefix = "notifications_"

// Inbox returns the storage key of one recipient's inbox.
func (k *StoreKeyStruct) Inbox(role, email string) string {
	return fmt.Sprintf("%s%s_%s", InboxPrefix, role, strings.ToLower(email))
}

// ParseInbox splits an inbox storage key back into role and email.
func (k *StoreKeyStruct) ParseInbox(key string) (role, email string, ok bool) {
	rest, found := strings.CutPrefix(key, InboxPrefix)
	if !found {
		return "", "", false
	}
	role, email, ok = strings.Cut(rest, "_")
	if !ok || role == "" || email == "" {
		return "", "", false
	}
	return role, email, true
}

// AuthSession returns the key holding the active token id of a user.
func (k *StoreKeyStruct) AuthSession(email string) string {
	return fmt.Sprintf("%s:%s", k.AuthToken, strings.ToLower(email))
}

var StoreKey = &StoreKeyStruct{
	AdminTests:        "adminTests",
	ExamSettings:      "examSettings",
	Users:             "users",
	Appointments:      "appointments",
	QuizHistory:       "quizHistory",
	SentNotifications: "adminSentNotifications",
	AuthUser:          "authUser",
	AuthToken:         "authToken",
}

// Credential returns the key holding the password hash of an account.
func (k *StoreKeyStruct) Credential(email string) string {
	return fmt.Sprintf("credentials:%s", strings.ToLower(email))
}
