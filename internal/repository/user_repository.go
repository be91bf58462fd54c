package repository

import (
	"context"
	"strings"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/store"
)

// UserRepository persists registered accounts and their credentials.
type UserRepository struct {
	store *store.Store
}

func NewUserRepository(s *store.Store) *UserRepository {
	return &UserRepository{store: s}
}

func (r *UserRepository) List(ctx context.Context) []model.AdminUserRecord {
	return model.NormalizeUsers(store.ReadList[model.AdminUserRecord](ctx, r.store, config.StoreKey.Users))
}

func (r *UserRepository) Save(ctx context.Context, users []model.AdminUserRecord) error {
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.Users), users)
}

// GetByEmail returns the account with the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.AdminUserRecord, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.List(ctx) {
		if u.Email == email {
			return u, true
		}
	}
	return model.AdminUserRecord{}, false
}

func (r *UserRepository) GetCredential(ctx context.Context, email string) (model.Credential, bool) {
	var c model.Credential
	if !r.store.ReadJSON(ctx, config.StoreKey.Credential(email), &c) || c.PasswordHash == "" {
		return model.Credential{}, false
	}
	return c, true
}

func (r *UserRepository) SaveCredential(ctx context.Context, c model.Credential) error {
	c.Email = strings.ToLower(c.Email)
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.Credential(c.Email)), c)
}
