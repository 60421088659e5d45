package models

import (
	"time"

	"github.com/lib/pq"
)

// Reading session lifecycle statuses.
const (
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
	StatusQuit       = "quit"
)

// ReadingSession is one timed run through a fixed random sample of the user's
// images. ImageOrder pins the sample at start time so the client sequences
// through a stable ordered list.
type ReadingSession struct {
	ID              string         `gorm:"primaryKey;column:session_id" json:"session_id"`
	UserID          uint           `gorm:"index" json:"-"`
	Status          string         `json:"status"`
	TotalImages     int            `json:"total_images"`
	ImagesReviewed  int            `json:"images_reviewed"`
	CorrectCount    int            `json:"correct_count"`
	TotalTimeMs     int64          `json:"total_time_ms"`
	PauseDurationMs int64          `json:"pause_duration_ms"`
	ImageOrder      pq.StringArray `gorm:"type:text[]" json:"-"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	PausedAt        *time.Time     `json:"paused_at,omitempty"`
}

// Active reports whether the session still accepts responses.
func (s *ReadingSession) Active() bool {
	return s.Status == StatusInProgress || s.Status == StatusPaused
}

// Accuracy returns the percentage of correct responses so far, 0 if none.
func (s *ReadingSession) Accuracy() float64 {
	if s.ImagesReviewed == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.ImagesReviewed) * 100
}

// SessionResponse records a single submitted diagnosis. Created exactly once
// per image in a session and never updated.
type SessionResponse struct {
	ID             string    `gorm:"primaryKey;column:response_id" json:"response_id"`
	SessionID      string    `gorm:"index" json:"session_id"`
	ImageID        string    `json:"image_id"`
	UserDiagnosis  string    `json:"user_diagnosis"`
	ActualCategory string    `json:"actual_category"`
	IsCorrect      bool      `json:"is_correct"`
	TimeTakenMs    int64     `json:"time_taken_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionBundle is the wire shape of session fetch/start responses: the
// session plus its ordered images (redacted) and, for fetches, prior responses.
type SessionBundle struct {
	Session   *ReadingSession   `json:"session"`
	Images    []Image           `json:"images"`
	Responses []SessionResponse `json:"responses,omitempty"`
}

// SubmitRequest is the body of POST /sessions/{id}/response.
type SubmitRequest struct {
	ImageID     string `json:"image_id" binding:"required"`
	Diagnosis   string `json:"diagnosis" binding:"required"`
	TimeTakenMs int64  `json:"time_taken_ms"`
}

// SubmitResult is the correctness verdict returned for a submitted diagnosis.
type SubmitResult struct {
	ResponseID     string `json:"response_id"`
	IsCorrect      bool   `json:"is_correct"`
	ActualCategory string `json:"actual_category"`
}
