package model

import (
	"time"

	"github.com/google/uuid"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// LessonAttendance один цикл подключения/выхода ученика на занятии.
// Одна строка на пару (lesson, student), повторный вход перезаписывает joined_at.
type LessonAttendance struct {
	ID                 uuid.UUID        `json:"id"`
	LessonID           uuid.UUID        `json:"lesson_id"`
	StudentID          uuid.UUID        `json:"student_id"`
	JoinedAt           time.Time        `json:"joined_at"`
	LeftAt             *time.Time       `json:"left_at,omitempty"`
	DurationMinutes    *int             `json:"duration_minutes,omitempty"`
	AttendanceStatus   AttendanceStatus `json:"attendance_status"`
	ParticipationScore *int             `json:"participation_score,omitempty"`
	TeacherNotes       *string          `json:"teacher_notes,omitempty"`
}

// HasLeft вышел ли ученик
func (a *LessonAttendance) HasLeft() bool {
	return a.LeftAt != nil
}
