package repository

import (
	"context"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/store"
)

type SettingRepository struct {
	store *store.Store
}

func NewSettingRepository(s *store.Store) *SettingRepository {
	return &SettingRepository{store: s}
}

// Get returns the stored settings. Fields missing from the blob keep their
// defaults; an unreadable blob yields DefaultExamSettings.
func (r *SettingRepository) Get(ctx context.Context) model.ExamSettings {
	s := model.DefaultExamSettings()
	if !r.store.ReadJSON(ctx, config.StoreKey.ExamSettings, &s) {
		return model.DefaultExamSettings()
	}
	return model.NormalizeSettings(s)
}

func (r *SettingRepository) Save(ctx context.Context, s model.ExamSettings) error {
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.ExamSettings), s)
}
