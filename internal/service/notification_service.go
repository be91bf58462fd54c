package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/mailer"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/repository"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoRecipients         = errors.New("no recipient matches the target")
)

// NotificationService fans notifications out to per-recipient inboxes and
// serves inbox reads.
type NotificationService struct {
	repo         *repository.NotificationRepository
	builtinAdmin string
	mailer       mailer.Mailer
	now          func() time.Time
	log          zerolog.Logger

	// inbox writes are read-modify-write on one blob per recipient
	mu    sync.Mutex
	locks map[model.InboxKey]*sync.Mutex
}

// NewNotificationService creates a NotificationService. mail may be nil.
func NewNotificationService(repo *repository.NotificationRepository, builtinAdmin string, mail mailer.Mailer, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:         repo,
		builtinAdmin: strings.ToLower(strings.TrimSpace(builtinAdmin)),
		mailer:       mail,
		now:          time.Now,
		log:          log.With().Str("component", "notification_service").Logger(),
		locks:        make(map[model.InboxKey]*sync.Mutex),
	}
}

// lock serializes writers of one inbox and returns the unlock function.
func (s *NotificationService) lock(k model.InboxKey) func() {
	s.mu.Lock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// BuiltinAdmin is the reserved administrator address that always receives
// admin broadcasts.
func (s *NotificationService) BuiltinAdmin() string {
	return s.builtinAdmin
}

// Recipients resolves a broadcast target against the registered users,
// deduplicated by role and email, in a stable order.
func (s *NotificationService) Recipients(target model.NotificationTarget, email string, users []model.AdminUserRecord) []model.InboxKey {
	var keys []model.InboxKey
	add := func(role model.Role, email string) {
		k := model.InboxKey{Role: role, Email: strings.ToLower(strings.TrimSpace(email))}
		if k.Email != "" && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	builtin := model.InboxKey{Role: model.RoleAdmin, Email: s.builtinAdmin}

	switch target {
	case model.TargetAll:
		for _, u := range users {
			add(u.Role, u.Email)
		}
		add(builtin.Role, builtin.Email)
	case model.TargetUsers:
		for _, u := range users {
			if u.Role == model.RoleUser {
				add(u.Role, u.Email)
			}
		}
	case model.TargetAdmins:
		for _, u := range users {
			if u.Role == model.RoleAdmin {
				add(u.Role, u.Email)
			}
		}
		add(builtin.Role, builtin.Email)
	case model.TargetEmail:
		email = strings.ToLower(strings.TrimSpace(email))
		for _, u := range users {
			if u.Email == email {
				add(u.Role, u.Email)
			}
		}
		if email == s.builtinAdmin {
			add(builtin.Role, builtin.Email)
		}
	}
	return keys
}

// Deliver appends n to each inbox. Inboxes are written independently: a
// failed write is logged and reported in the joined error but does not stop
// the others. Returns how many inboxes received the entry.
func (s *NotificationService) Deliver(ctx context.Context, keys []model.InboxKey, n model.AppNotification) (int, error) {
	var errs []error
	delivered := 0
	for _, k := range keys {
		added, err := s.Push(ctx, k, n)
		if err != nil {
			s.log.Error().Err(err).Str("inbox", k.StorageKey()).Msg("failed to deliver notification")
			errs = append(errs, fmt.Errorf("%s: %w", k.StorageKey(), err))
			continue
		}
		if added {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

// Push prepends n to one inbox. An entry whose tag is already present in the
// inbox is dropped, and Push reports false.
func (s *NotificationService) Push(ctx context.Context, k model.InboxKey, n model.AppNotification) (bool, error) {
	added, err := s.prepend(ctx, k, n)
	if err != nil || !added {
		return false, err
	}
	s.mirror(ctx, k, n)
	return true, nil
}

func (s *NotificationService) prepend(ctx context.Context, k model.InboxKey, n model.AppNotification) (bool, error) {
	unlock := s.lock(k)
	defer unlock()

	items := s.repo.Inbox(ctx, k)
	if n.Tag != "" && slices.ContainsFunc(items, func(e model.AppNotification) bool { return e.Tag == n.Tag }) {
		return false, nil
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Read = false

	if err := s.repo.SaveInbox(ctx, k, append([]model.AppNotification{n}, items...)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *NotificationService) mirror(ctx context.Context, k model.InboxKey, n model.AppNotification) {
	if s.mailer == nil {
		return
	}
	text := n.Message
	if n.Link != "" {
		text += "\n\n" + n.Link
	}
	if err := s.mailer.Send(ctx, mailer.Message{To: k.Email, Subject: n.Title, Text: text}); err != nil {
		s.log.Warn().Err(err).Str("to", k.Email).Msg("failed to mirror notification by email")
	}
}

// NotifyAdmins delivers n to every administrator and the built-in address.
func (s *NotificationService) NotifyAdmins(ctx context.Context, users []model.AdminUserRecord, n model.AppNotification) {
	keys := s.Recipients(model.TargetAdmins, "", users)
	_, _ = s.Deliver(ctx, keys, n)
}

// List returns an inbox, newest first.
func (s *NotificationService) List(ctx context.Context, k model.InboxKey) []model.AppNotification {
	return s.repo.Inbox(ctx, k)
}

// UnreadCount counts the unread entries of an inbox.
func (s *NotificationService) UnreadCount(ctx context.Context, k model.InboxKey) int {
	n := 0
	for _, e := range s.repo.Inbox(ctx, k) {
		if !e.Read {
			n++
		}
	}
	return n
}

// MarkRead flags one entry as read.
func (s *NotificationService) MarkRead(ctx context.Context, k model.InboxKey, id string) error {
	unlock := s.lock(k)
	defer unlock()

	items := s.repo.Inbox(ctx, k)
	i := slices.IndexFunc(items, func(e model.AppNotification) bool { return e.ID == id })
	if i < 0 {
		return ErrNotificationNotFound
	}
	if items[i].Read {
		return nil
	}
	items[i].Read = true
	return s.repo.SaveInbox(ctx, k, items)
}

// MarkAllRead flags every entry as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, k model.InboxKey) (int, error) {
	unlock := s.lock(k)
	defer unlock()

	items := s.repo.Inbox(ctx, k)
	changed := 0
	for i := range items {
		if !items[i].Read {
			items[i].Read = true
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, s.repo.SaveInbox(ctx, k, items)
}
