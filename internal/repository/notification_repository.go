package repository

import (
	"context"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/store"
)

// NotificationRepository persists the sent-notification log and the
// per-recipient inboxes.
type NotificationRepository struct {
	store *store.Store
}

func NewNotificationRepository(s *store.Store) *NotificationRepository {
	return &NotificationRepository{store: s}
}

func (r *NotificationRepository) ListSent(ctx context.Context) []model.SentNotificationLog {
	return model.NormalizeSentLog(
		store.ReadList[model.SentNotificationLog](ctx, r.store, config.StoreKey.SentNotifications))
}

func (r *NotificationRepository) SaveSent(ctx context.Context, logs []model.SentNotificationLog) error {
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.SentNotifications), logs)
}

// Inbox returns one recipient's notifications, newest first.
func (r *NotificationRepository) Inbox(ctx context.Context, k model.InboxKey) []model.AppNotification {
	return model.NormalizeInbox(store.ReadList[model.AppNotification](ctx, r.store, k.StorageKey()))
}

func (r *NotificationRepository) SaveInbox(ctx context.Context, k model.InboxKey, items []model.AppNotification) error {
	if len(items) > model.MaxInboxEntries {
		items = items[:model.MaxInboxEntries]
	}
	return r.store.WriteJSON(ctx, bus.InboxChange(k), items)
}
