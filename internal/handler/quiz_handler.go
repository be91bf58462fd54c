package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/middleware"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/response"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stemsi/certify-backend/internal/validator"
)

type QuizHandler struct {
	quizService *service.QuizService
}

func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// Record godoc
// POST /api/v1/quiz-history
func (h *QuizHandler) Record(c *gin.Context) {
	var req model.QuizResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, _ := middleware.GetUser(c)
	rec, err := h.quizService.Record(c.Request.Context(), user, req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"record": rec})
}

// Mine godoc
// GET /api/v1/quiz-history/mine
func (h *QuizHandler) Mine(c *gin.Context) {
	user, _ := middleware.GetUser(c)
	response.Success(c, http.StatusOK, gin.H{"history": h.quizService.Mine(c.Request.Context(), user.Email)})
}

// AdminList godoc
// GET /api/v1/admin/quiz-history
func (h *QuizHandler) AdminList(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"history": h.quizService.All(c.Request.Context())})
}
