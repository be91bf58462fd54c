package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/model"
)

// PublicSettings is the part of the exam settings shown to candidates.
type PublicSettings struct {
	TestDuration          int          `json:"testDuration"`
	PassingThreshold      int          `json:"passingThreshold"`
	LeadTimeHours         int          `json:"leadTimeHours"`
	MaxReschedulesPerUser int          `json:"maxReschedulesPerUser"`
	RejectionCooldownDays int          `json:"rejectionCooldownDays"`
	ExamLocation          string       `json:"examLocation"`
	ExamRoom              string       `json:"examRoom"`
	DefaultSlots          []model.Slot `json:"defaultSlots"`
}

type SettingService struct {
	admin *AdminService
	log   zerolog.Logger
}

func NewSettingService(adminSvc *AdminService, log zerolog.Logger) *SettingService {
	return &SettingService{
		admin: adminSvc,
		log:   log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) Get() model.ExamSettings {
	return s.admin.Settings()
}

func (s *SettingService) Public() PublicSettings {
	set := s.admin.Settings()
	return PublicSettings{
		TestDuration:          set.TestDuration,
		PassingThreshold:      set.PassingThreshold,
		LeadTimeHours:         set.LeadTimeHours,
		MaxReschedulesPerUser: set.MaxReschedulesPerUser,
		RejectionCooldownDays: set.RejectionCooldownDays,
		ExamLocation:          set.ExamLocation,
		ExamRoom:              set.ExamRoom,
		DefaultSlots:          set.DefaultSlots,
	}
}

// Update replaces the settings wholesale.
func (s *SettingService) Update(ctx context.Context, set model.ExamSettings) (model.ExamSettings, error) {
	res, err := s.admin.Dispatch(ctx, admin.UpdateSettings{Settings: set})
	if err != nil {
		if !admin.IsValidation(err) {
			s.log.Error().Err(err).Msg("failed to update settings")
		}
		return model.ExamSettings{}, err
	}
	s.log.Info().
		Int("appointments_per_day", res.State.Settings.AppointmentsPerDay).
		Int("blocked_dates", len(res.State.Settings.BlockedDates)).
		Msg("Exam settings updated")
	return res.State.Settings, nil
}
