package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
)

// Хранилища, с которыми работают сервисы. Реализации лежат в internal/repository,
// в тестах подменяются на in-memory.

type LessonStore interface {
	Create(ctx context.Context, l *model.ScheduledLesson) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduledLesson, error)
	List(ctx context.Context, f model.LessonFilter) ([]*model.ScheduledLesson, int64, error)
	Update(ctx context.Context, l *model.ScheduledLesson) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.LessonStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListRecurringTemplates(ctx context.Context) ([]*model.ScheduledLesson, error)
	OccurrenceExists(ctx context.Context, parentID uuid.UUID, date schedule.Date) (bool, error)
	GetStats(ctx context.Context, id uuid.UUID) (*model.LessonStats, error)
}

type EnrollmentStore interface {
	Upsert(ctx context.Context, e *model.LessonEnrollment) error
	GetActive(ctx context.Context, lessonID, studentID uuid.UUID) (*model.LessonEnrollment, error)
	CountActive(ctx context.Context, lessonID uuid.UUID) (int, error)
}

type AttendanceStore interface {
	UpsertJoin(ctx context.Context, a *model.LessonAttendance) error
	Get(ctx context.Context, lessonID, studentID uuid.UUID) (*model.LessonAttendance, error)
	UpdateLeave(ctx context.Context, a *model.LessonAttendance) error
}

type FeedbackStore interface {
	Upsert(ctx context.Context, f *model.LessonFeedback) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type AvailabilityStore interface {
	ListWindows(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityWindow, error)
	ReplaceWindows(ctx context.Context, teacherID uuid.UUID, windows []*model.AvailabilityWindow) error
	ListBlackouts(ctx context.Context, teacherID uuid.UUID, from schedule.Date) ([]*model.BlackoutDate, error)
	AddBlackout(ctx context.Context, b *model.BlackoutDate) error
	DeleteBlackout(ctx context.Context, teacherID, id uuid.UUID) (bool, error)
}

// ScheduleChecker две булевы проверки перед записью занятия
type ScheduleChecker interface {
	// CheckScheduleConflict true, если окно [start, end) пересекается с другим занятием учителя.
	// excludeLessonID == uuid.Nil при создании.
	CheckScheduleConflict(ctx context.Context, teacherID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay, excludeLessonID uuid.UUID) (bool, error)
	// CheckTeacherAvailability true, если учитель работает в эту дату и время
	CheckTeacherAvailability(ctx context.Context, teacherID uuid.UUID, date schedule.Date, at schedule.TimeOfDay) (bool, error)
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// SystemClock настоящие часы
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
