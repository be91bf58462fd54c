package repository

import (
	"context"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/store"
)

// SessionRepository remembers the active token id of each account so that a
// newer login invalidates older tokens.
type SessionRepository struct {
	store *store.Store
}

func NewSessionRepository(s *store.Store) *SessionRepository {
	return &SessionRepository{store: s}
}

func (r *SessionRepository) Active(ctx context.Context, email string) (string, bool) {
	var jti string
	if !r.store.ReadJSON(ctx, config.StoreKey.AuthSession(email), &jti) || jti == "" {
		return "", false
	}
	return jti, true
}

func (r *SessionRepository) SetActive(ctx context.Context, email, jti string) error {
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.AuthSession(email)), jti)
}

func (r *SessionRepository) Clear(ctx context.Context, email string) error {
	return r.SetActive(ctx, email, "")
}
