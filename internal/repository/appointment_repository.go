package repository

import (
	"context"

	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/store"
)

type AppointmentRepository struct {
	store *store.Store
}

func NewAppointmentRepository(s *store.Store) *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

func (r *AppointmentRepository) List(ctx context.Context) []model.AdminAppointmentRecord {
	return model.NormalizeAppointments(
		store.ReadList[model.AdminAppointmentRecord](ctx, r.store, config.StoreKey.Appointments))
}

func (r *AppointmentRepository) Save(ctx context.Context, appts []model.AdminAppointmentRecord) error {
	return r.store.WriteJSON(ctx, bus.CollectionChange(config.StoreKey.Appointments), appts)
}
