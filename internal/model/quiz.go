package model

import "time"

// QuizMode distinguishes practice runs from exam simulations.
type QuizMode string

const (
	QuizModeTraining QuizMode = "training"
	QuizModeExam     QuizMode = "exam"
)

// ChapterAccuracy is the per-chapter breakdown of a quiz attempt.
type ChapterAccuracy struct {
	Chapter  string  `json:"chapter"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// QuizHistoryRecord is one completed quiz attempt. Records are never edited.
type QuizHistoryRecord struct {
	ID            string            `json:"id"`
	CategoryID    string            `json:"categoryId"`
	CategoryTitle string            `json:"categoryTitle"`
	Score         float64           `json:"score"`
	Mode          QuizMode          `json:"mode,omitempty"`
	Total         int               `json:"total"`
	Correct       int               `json:"correct"`
	Wrong         int               `json:"wrong"`
	Unanswered    int               `json:"unanswered"`
	TimeTaken     int               `json:"timeTaken"`
	ChapterStats  []ChapterAccuracy `json:"chapterStats,omitempty"`
	CompletedAt   time.Time         `json:"completedAt"`
	UserEmail     string            `json:"userEmail,omitempty"`
	UserName      string            `json:"userName,omitempty"`
}

// QuizResultRequest is the payload a client submits after finishing a quiz.
type QuizResultRequest struct {
	CategoryID    string            `json:"categoryId" binding:"required,max=100"`
	CategoryTitle string            `json:"categoryTitle" binding:"required,max=255"`
	Mode          QuizMode          `json:"mode" binding:"omitempty,oneof=training exam"`
	Total         int               `json:"total" binding:"min=1"`
	Correct       int               `json:"correct" binding:"min=0,ltefield=Total"`
	Wrong         int               `json:"wrong" binding:"min=0"`
	Unanswered    int               `json:"unanswered" binding:"min=0"`
	TimeTaken     int               `json:"timeTaken" binding:"min=0"`
	ChapterStats  []ChapterAccuracy `json:"chapterStats"`
}
