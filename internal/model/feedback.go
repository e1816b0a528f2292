package model

import (
	"time"

	"github.com/google/uuid"
)

// LessonFeedback отзыв ученика после занятия
type LessonFeedback struct {
	ID        uuid.UUID `json:"id"`
	LessonID  uuid.UUID `json:"lesson_id"`
	StudentID uuid.UUID `json:"student_id"`
	Rating    int       `json:"rating"` // 1..5
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
