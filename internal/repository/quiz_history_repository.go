package repository

import (
	"context"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/store"
)

// QuizHistoryRepository persists the append-only quiz attempt history.
type QuizHistoryRepository struct {
	store *store.Store
}

func NewQuizHistoryRepository(s *store.Store) *QuizHistoryRepository {
	return &QuizHistoryRepository{store: s}
}

func (r *QuizHistoryRepository) List(ctx context.Context) []model.QuizHistoryRecord {
	return model.NormalizeQuizHistory(
		store.ReadList[model.QuizHistoryRecord](ctx, r.store, config.StoreKey.QuizHistory))
}

// Append adds rec at the end of the history. Callers serialize appends.
func (r *QuizHistoryRepository) Append(ctx context.Context, rec model.QuizHistoryRecord) error {
	history := append(r.List(ctx), rec)
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.QuizHistory), history)
}
