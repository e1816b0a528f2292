package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
)

// ScheduleRepository проверяет расписание учителя: пересечения с его занятиями
// и рабочие часы. Строки читаются из БД, правила считаются в пакете schedule.
type ScheduleRepository struct {
	lessons      TeacherDayLister
	availability AvailabilityReader
}

// TeacherDayLister неотменённые занятия учителя за день
type TeacherDayLister interface {
	ListByTeacherAndDate(ctx context.Context, teacherID uuid.UUID, date schedule.Date) ([]*model.ScheduledLesson, error)
}

type AvailabilityReader interface {
	ListWindows(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityWindow, error)
	IsBlackout(ctx context.Context, teacherID uuid.UUID, date schedule.Date) (bool, error)
}

func NewScheduleRepository(lessons TeacherDayLister, availability AvailabilityReader) *ScheduleRepository {
	return &ScheduleRepository{lessons: lessons, availability: availability}
}

// CheckScheduleConflict есть ли у учителя неотменённое занятие в этот день,
// пересекающееся с [start, end). excludeLessonID исключает само редактируемое занятие.
func (r *ScheduleRepository) CheckScheduleConflict(ctx context.Context, teacherID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay, excludeLessonID uuid.UUID) (bool, error) {
	lessons, err := r.lessons.ListByTeacherAndDate(ctx, teacherID, date)
	if err != nil {
		return false, fmt.Errorf("check schedule conflict: %w", err)
	}

	existing := make([]schedule.Slot, 0, len(lessons))
	for _, l := range lessons {
		s, err := l.Slot()
		if err != nil {
			// занятия через полночь в БД не попадают, но старые строки могли остаться
			continue
		}
		existing = append(existing, s)
	}

	candidate := schedule.Slot{Start: start, End: end}
	return schedule.HasConflict(candidate, existing, excludeLessonID), nil
}

// CheckTeacherAvailability доступен ли учитель в эту дату и время по рабочим часам и выходным
func (r *ScheduleRepository) CheckTeacherAvailability(ctx context.Context, teacherID uuid.UUID, date schedule.Date, at schedule.TimeOfDay) (bool, error) {
	windows, err := r.availability.ListWindows(ctx, teacherID)
	if err != nil {
		return false, fmt.Errorf("check teacher availability: %w", err)
	}

	blackout, err := r.availability.IsBlackout(ctx, teacherID, date)
	if err != nil {
		return false, fmt.Errorf("check teacher availability: %w", err)
	}

	var blackouts []*model.BlackoutDate
	if blackout {
		blackouts = append(blackouts, &model.BlackoutDate{TeacherID: teacherID, Date: date})
	}

	return model.AvailabilityRules(windows, blackouts).Allows(date, at), nil
}
