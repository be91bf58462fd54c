package model

import "time"

// AdminQuestion is one multiple-choice question of an AdminTest.
type AdminQuestion struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// AdminTest is a named assessment managed from the back office.
type AdminTest struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Duration     int             `json:"duration"`
	PassingScore int             `json:"passingScore"`
	Questions    []AdminQuestion `json:"questions"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// QuestionInput is a question as submitted by an administrator.
type QuestionInput struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// TestInput is the payload for creating or updating a test. Structural rules
// (non-empty title, option bounds) are checked by the reducer so that every
// caller gets the same messages.
type TestInput struct {
	Title        string          `json:"title" binding:"max=255"`
	Description  string          `json:"description" binding:"max=2000"`
	Duration     int             `json:"duration" binding:"min=0,max=180"`
	PassingScore int             `json:"passingScore" binding:"min=0,max=100"`
	Questions    []QuestionInput `json:"questions"`
}
