package service

import (
	"context"
	"math"

	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/schedule"
)

const (
	dashboardUpcomingDays = 5
	dashboardRecentQuiz   = 5
)

// DashboardData consolidates all metrics for the admin dashboard.
type DashboardData struct {
	TotalUsers         int                             `json:"totalUsers"`
	TotalAdmins        int                             `json:"totalAdmins"`
	BlockedUsers       int                             `json:"blockedUsers"`
	TotalTests         int                             `json:"totalTests"`
	AppointmentCounts  map[model.AppointmentStatus]int `json:"appointmentCounts"`
	TodayAppointments  []model.AdminAppointmentRecord  `json:"todayAppointments"`
	UpcomingDays       []schedule.DayAvailability      `json:"upcomingDays"`
	RecentQuizAttempts []model.QuizHistoryRecord       `json:"recentQuizAttempts"`
	AverageExamScore   float64                         `json:"averageExamScore"`
	PassRate           float64                         `json:"passRate"`
}

// DashboardService aggregates the admin overview from the live state.
type DashboardService struct {
	admin   *AdminService
	booking *BookingService
	quiz    *QuizService
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(adminSvc *AdminService, booking *BookingService, quiz *QuizService) *DashboardService {
	return &DashboardService{admin: adminSvc, booking: booking, quiz: quiz}
}

// GetDashboardData computes every dashboard metric from one snapshot.
func (s *DashboardService) GetDashboardData(ctx context.Context) *DashboardData {
	st := s.admin.Snapshot()
	data := &DashboardData{
		TotalTests: len(st.Tests),
		AppointmentCounts: map[model.AppointmentStatus]int{
			model.AppointmentPending:   0,
			model.AppointmentApproved:  0,
			model.AppointmentRejected:  0,
			model.AppointmentCancelled: 0,
		},
		TodayAppointments:  []model.AdminAppointmentRecord{},
		RecentQuizAttempts: []model.QuizHistoryRecord{},
	}

	for _, u := range st.Users {
		if u.Role == model.RoleAdmin {
			data.TotalAdmins++
		} else {
			data.TotalUsers++
		}
		if u.IsBlocked {
			data.BlockedUsers++
		}
	}

	today := s.booking.now().In(s.booking.loc).Format(model.DateLayout)
	for _, a := range st.Appointments {
		data.AppointmentCounts[a.Status]++
		if a.Date == today && a.Status == model.AppointmentApproved {
			data.TodayAppointments = append(data.TodayAppointments, a)
		}
	}

	from, to := s.booking.DefaultWindow()
	data.UpcomingDays = s.booking.Days(from, to, dashboardUpcomingDays)

	history := s.quiz.All(ctx)
	data.RecentQuizAttempts = append(data.RecentQuizAttempts, history[:min(len(history), dashboardRecentQuiz)]...)

	var sum float64
	exams, passed := 0, 0
	for _, r := range history {
		if r.Mode != model.QuizModeExam {
			continue
		}
		exams++
		sum += r.Score
		if r.Score >= float64(st.Settings.PassingThreshold) {
			passed++
		}
	}
	if exams > 0 {
		data.AverageExamScore = math.Round(sum/float64(exams)*100) / 100
		data.PassRate = Score(passed, exams)
	}
	return data
}
