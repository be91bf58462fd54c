package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/repository"
)

// QuizService records completed quiz attempts.
type QuizService struct {
	repo     *repository.QuizHistoryRepository
	admin    *AdminService
	notifier *NotificationService
	now      func() time.Time
	log      zerolog.Logger

	// appends are read-modify-write on one blob
	mu sync.Mutex
}

func NewQuizService(repo *repository.QuizHistoryRepository, adminSvc *AdminService, notifier *NotificationService, log zerolog.Logger) *QuizService {
	return &QuizService{
		repo:     repo,
		admin:    adminSvc,
		notifier: notifier,
		now:      time.Now,
		log:      log.With().Str("component", "quiz_service").Logger(),
	}
}

// Score is the percentage of correct answers, rounded to two decimals.
func Score(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10000) / 100
}

// Record appends an attempt for user and tells the administrators.
func (s *QuizService) Record(ctx context.Context, user model.AdminUserRecord, req model.QuizResultRequest) (model.QuizHistoryRecord, error) {
	mode := req.Mode
	if mode == "" {
		mode = model.QuizModeTraining
	}
	rec := model.QuizHistoryRecord{
		ID:            uuid.NewString(),
		CategoryID:    strings.TrimSpace(req.CategoryID),
		CategoryTitle: strings.TrimSpace(req.CategoryTitle),
		Score:         Score(req.Correct, req.Total),
		Mode:          mode,
		Total:         req.Total,
		Correct:       req.Correct,
		Wrong:         req.Wrong,
		Unanswered:    req.Unanswered,
		TimeTaken:     req.TimeTaken,
		ChapterStats:  req.ChapterStats,
		CompletedAt:   s.now(),
		UserEmail:     user.Email,
		UserName:      user.FullName,
	}

	s.mu.Lock()
	err := s.repo.Append(ctx, rec)
	s.mu.Unlock()
	if err != nil {
		s.log.Error().Err(err).Str("user", user.Email).Msg("failed to record quiz result")
		return model.QuizHistoryRecord{}, err
	}

	if mode == model.QuizModeExam {
		s.notifier.NotifyAdmins(ctx, s.admin.Users(), model.AppNotification{
			Title:   "Exam simulation completed",
			Message: fmt.Sprintf("%s menyelesaikan %s dengan skor %.2f.", user.FullName, rec.CategoryTitle, rec.Score),
			Link:    "/admin/quiz-history",
			Tag:     "quiz:" + rec.ID,
		})
	}
	return rec, nil
}

// All lists every attempt, newest first.
func (s *QuizService) All(ctx context.Context) []model.QuizHistoryRecord {
	h := s.repo.List(ctx)
	out := make([]model.QuizHistoryRecord, len(h))
	for i, r := range h {
		out[len(h)-1-i] = r
	}
	return out
}

// Mine lists the attempts of one user, newest first.
func (s *QuizService) Mine(ctx context.Context, email string) []model.QuizHistoryRecord {
	out := make([]model.QuizHistoryRecord, 0)
	for _, r := range s.All(ctx) {
		if strings.EqualFold(r.UserEmail, email) {
			out = append(out, r)
		}
	}
	return out
}
