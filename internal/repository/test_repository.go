package repository

import (
	"context"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/store"
)

// TestRepository persists the admin test catalogue.
type TestRepository struct {
	store *store.Store
}

func NewTestRepository(s *store.Store) *TestRepository {
	return &TestRepository{store: s}
}

func (r *TestRepository) List(ctx context.Context) []model.AdminTest {
	return model.NormalizeTests(store.ReadList[model.AdminTest](ctx, r.store, config.StoreKey.AdminTests))
}

func (r *TestRepository) Save(ctx context.Context, tests []model.AdminTest) error {
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.AdminTests), tests)
}
