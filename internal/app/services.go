// Package app wires repositories and services over an opened store. It is
// shared by the server and the maintenance commands.
package app

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/mailer"
	"github.com/stemsi/certify-backend/internal/repository"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stemsi/certify-backend/internal/store"
)

type Services struct {
	Admin        *service.AdminService
	Auth         *service.AuthService
	Booking      *service.BookingService
	Dashboard    *service.DashboardService
	Notification *service.NotificationService
	Quiz         *service.QuizService
	Setting      *service.SettingService
}

// NewMailer picks SendGrid when an API key is configured and the console
// mailer otherwise.
func NewMailer(cfg *config.Config, log zerolog.Logger) mailer.Mailer {
	if cfg.SendgridAPIKey != "" {
		return mailer.NewSendgridMailer(cfg.SendgridAPIKey, cfg.AppName, cfg.MailFrom)
	}
	return mailer.NewConsoleMailer(log)
}

// NewServices builds every service over st and loads the admin state.
func NewServices(ctx context.Context, cfg *config.Config, st *store.Store, mail mailer.Mailer, log zerolog.Logger) *Services {
	testRepo := repository.NewTestRepository(st)
	settingRepo := repository.NewSettingRepository(st)
	userRepo := repository.NewUserRepository(st)
	appointmentRepo := repository.NewAppointmentRepository(st)
	notificationRepo := repository.NewNotificationRepository(st)
	quizRepo := repository.NewQuizHistoryRepository(st)
	sessionRepo := repository.NewSessionRepository(st)

	notification := service.NewNotificationService(notificationRepo, cfg.BuiltinAdminEmail, mail, log)
	adminSvc := service.NewAdminService(testRepo, settingRepo, userRepo, appointmentRepo, notificationRepo, notification, cfg.Location, log)
	adminSvc.Load(ctx)

	booking := service.NewBookingService(adminSvc, cfg.Location)
	quiz := service.NewQuizService(quizRepo, adminSvc, notification, log)

	return &Services{
		Admin:        adminSvc,
		Auth:         service.NewAuthService(cfg, userRepo, sessionRepo, adminSvc, log),
		Booking:      booking,
		Dashboard:    service.NewDashboardService(adminSvc, booking, quiz),
		Notification: notification,
		Quiz:         quiz,
		Setting:      service.NewSettingService(adminSvc, log),
	}
}
