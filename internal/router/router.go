package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/handler"
	"github.com/stemsi/certify-backend/internal/middleware"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Setting      *handler.SettingHandler
	Schedule     *handler.ScheduleHandler
	Appointment  *handler.AppointmentHandler
	Dashboard    *handler.DashboardHandler
	Notification *handler.NotificationHandler
	Quiz         *handler.QuizHandler
	Test         *handler.TestHandler
	User         *handler.UserHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work owned by the router, such as the rate limiter
// sweep.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// Restrict to AllowedOrigins when set, otherwise allow all for dev.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(response.AccessLog(log))
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	requireUser := []gin.HandlerFunc{
		middleware.RequireJWT(authService),
		middleware.CheckActiveSession(authService),
	}

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.CacheControl(60))
	{
		publicAPI.GET("/settings", handlers.Setting.GetPublicSettings)
	}

	scheduleAPI := router.Group("/api/v1/schedule")
	{
		scheduleAPI.GET("/days", handlers.Schedule.Days)
		scheduleAPI.GET("/days/:date/slots", handlers.Schedule.Slots)
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, 30, time.Minute)
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)

		auth.GET("/me", append(requireUser, handlers.Auth.Me)...)
		auth.POST("/logout", append(requireUser, handlers.Auth.Logout)...)
	}

	// ─── 2. Signed-in Group (JWT + Active Session) ─────────────────────
	userAPI := router.Group("/api/v1")
	userAPI.Use(requireUser...)
	userAPI.Use(middleware.NoStore())
	{
		userAPI.POST("/appointments", handlers.Appointment.Book)
		userAPI.GET("/appointments/mine", handlers.Appointment.Mine)
		userAPI.POST("/appointments/:id/reschedule", handlers.Appointment.Reschedule)
		userAPI.POST("/appointments/:id/cancel", handlers.Appointment.Cancel)

		userAPI.GET("/notifications", handlers.Notification.List)
		userAPI.POST("/notifications/read-all", handlers.Notification.MarkAllRead)
		userAPI.POST("/notifications/:id/read", handlers.Notification.MarkRead)

		userAPI.POST("/quiz-history", handlers.Quiz.Record)
		userAPI.GET("/quiz-history/mine", handlers.Quiz.Mine)

		userAPI.GET("/tests", handlers.Test.List)
		userAPI.GET("/tests/:id", handlers.Test.Get)
	}

	// ─── 3. WebSocket Group (Query Token) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/changes", handlers.WS.ChangeStream)
	}

	// ─── 4. Admin Group (JWT + Active Session + Role) ──────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireUser...)
	adminAPI.Use(middleware.RequireRole(model.RoleAdmin), middleware.NoStore())
	{
		adminAPI.GET("/dashboard", handlers.Dashboard.GetDashboardData)

		settingsGroup := adminAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Setting.GetSettings)
			settingsGroup.PUT("", handlers.Setting.UpdateSettings)
		}

		testsGroup := adminAPI.Group("/tests")
		{
			testsGroup.GET("", handlers.Test.List)
			testsGroup.POST("", handlers.Test.Create)
			testsGroup.PUT("/:id", handlers.Test.Update)
			testsGroup.DELETE("/:id", handlers.Test.Delete)
		}

		adminAPI.GET("/users", handlers.User.List)
		adminAPI.POST("/users/:id/toggle-block", handlers.User.ToggleBlock)

		appointmentsGroup := adminAPI.Group("/appointments")
		{
			appointmentsGroup.GET("", handlers.Appointment.AdminList)
			appointmentsGroup.PUT("/:id/status", handlers.Appointment.SetStatus)
			appointmentsGroup.PATCH("/:id", handlers.Appointment.Patch)
		}

		adminAPI.GET("/notifications", handlers.Notification.ListSent)
		adminAPI.POST("/notifications", handlers.Notification.Broadcast)

		adminAPI.GET("/quiz-history", handlers.Quiz.AdminList)
	}

	return router
}
