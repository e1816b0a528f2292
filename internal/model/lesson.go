package model

import (
	"time"

	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
)

type LessonStatus string

const (
	LessonStatusScheduled  LessonStatus = "scheduled"
	LessonStatusInProgress LessonStatus = "in_progress"
	LessonStatusCompleted  LessonStatus = "completed"
	LessonStatusCancelled  LessonStatus = "cancelled"
)

// Valid проверяет что статус из допустимого набора
func (s LessonStatus) Valid() bool {
	switch s {
	case LessonStatusScheduled, LessonStatusInProgress, LessonStatusCompleted, LessonStatusCancelled:
		return true
	}
	return false
}

// ScheduledLesson живое занятие учителя в конкретный день и время
type ScheduledLesson struct {
	ID                uuid.UUID            `json:"id"`
	Title             string               `json:"title"`
	Description       *string              `json:"description,omitempty"`
	TeacherID         uuid.UUID            `json:"teacher_id"`
	LessonContentID   *uuid.UUID           `json:"lesson_content_id,omitempty"`
	ScheduledDate     schedule.Date        `json:"scheduled_date"`
	ScheduledTime     schedule.TimeOfDay   `json:"scheduled_time"`
	DurationMinutes   int                  `json:"duration_minutes"`
	MaxStudents       int                  `json:"max_students"`
	Status            LessonStatus         `json:"status"`
	MeetingLink       *string              `json:"meeting_link,omitempty"`
	MeetingPassword   *string              `json:"meeting_password,omitempty"`
	Requirements      *string              `json:"requirements,omitempty"`
	Materials         *string              `json:"materials,omitempty"`
	Notes             *string              `json:"notes,omitempty"`
	IsRecurring       bool                 `json:"is_recurring"`
	RecurrencePattern *schedule.Recurrence `json:"recurrence_pattern,omitempty"`
	RecurrenceEndDate *schedule.Date       `json:"recurrence_end_date,omitempty"`
	ParentLessonID    *uuid.UUID           `json:"parent_lesson_id,omitempty"` // для сгенерированных повторений
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// Window окно занятия в указанной локации
func (l *ScheduledLesson) Window(loc *time.Location) schedule.Window {
	return schedule.NewWindow(l.ScheduledDate, l.ScheduledTime, l.DurationMinutes, loc)
}

// Slot окно занятия внутри дня для проверки пересечений
func (l *ScheduledLesson) Slot() (schedule.Slot, error) {
	return schedule.NewSlot(l.ID, l.ScheduledTime, l.DurationMinutes)
}

// IsCancelled отменено ли занятие
func (l *ScheduledLesson) IsCancelled() bool {
	return l.Status == LessonStatusCancelled
}

// Occurrence повторение шаблонного занятия на другую дату
func (l *ScheduledLesson) Occurrence(date schedule.Date) *ScheduledLesson {
	parentID := l.ID
	return &ScheduledLesson{
		Title:           l.Title,
		Description:     l.Description,
		TeacherID:       l.TeacherID,
		LessonContentID: l.LessonContentID,
		ScheduledDate:   date,
		ScheduledTime:   l.ScheduledTime,
		DurationMinutes: l.DurationMinutes,
		MaxStudents:     l.MaxStudents,
		Status:          LessonStatusScheduled,
		MeetingLink:     l.MeetingLink,
		MeetingPassword: l.MeetingPassword,
		Requirements:    l.Requirements,
		Materials:       l.Materials,
		Notes:           l.Notes,
		ParentLessonID:  &parentID,
	}
}

// LessonView занятие вместе с производными признаками окна
type LessonView struct {
	*ScheduledLesson
	schedule.Flags
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CanJoinFrom time.Time `json:"can_join_from"`
}

// NewLessonView считает признаки окна на момент now
func NewLessonView(l *ScheduledLesson, now time.Time, loc *time.Location) LessonView {
	w := l.Window(loc)
	return LessonView{
		ScheduledLesson: l,
		Flags:           w.Flags(now),
		StartsAt:        w.Start,
		EndsAt:          w.End,
		CanJoinFrom:     w.CanJoinFrom,
	}
}

// LessonStats агрегаты по записям, посещаемости и отзывам
type LessonStats struct {
	EnrolledCount int     `json:"enrolled_count"`
	AttendedCount int     `json:"attended_count"`
	FeedbackCount int     `json:"feedback_count"`
	AverageRating float64 `json:"average_rating"`
}

// LessonDetails карточка занятия
type LessonDetails struct {
	LessonView
	Stats LessonStats `json:"stats"`
}

// LessonFilter параметры выборки занятий
type LessonFilter struct {
	TeacherID *uuid.UUID
	StudentID *uuid.UUID
	Date      *schedule.Date
	DateFrom  *schedule.Date
	DateTo    *schedule.Date
	Status    *LessonStatus
	Limit     int
	Offset    int
}
