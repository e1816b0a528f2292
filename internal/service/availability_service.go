package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService рабочие часы и выходные учителя, по которым проверяется доступность
type AvailabilityService struct {
	availabilityRepo AvailabilityStore
	userRepo         UserStore
	clock            Clock
	location         *time.Location
	logger           *zap.Logger
}

func NewAvailabilityService(
	availabilityRepo AvailabilityStore,
	userRepo UserStore,
	clock Clock,
	location *time.Location,
	logger *zap.Logger,
) *AvailabilityService {
	if location == nil {
		location = time.Local
	}
	return &AvailabilityService{
		availabilityRepo: availabilityRepo,
		userRepo:         userRepo,
		clock:            clock,
		location:         location,
		logger:           logger,
	}
}

// Availability расписание учителя и будущие выходные
type Availability struct {
	TeacherID uuid.UUID                   `json:"teacher_id"`
	Windows   []*model.AvailabilityWindow `json:"windows"`
	Blackouts []*model.BlackoutDate       `json:"blackouts"`
}

// WindowInput рабочие часы в один день недели
type WindowInput struct {
	Weekday   int
	StartTime schedule.TimeOfDay
	EndTime   schedule.TimeOfDay
}

// Get рабочие часы и выходные начиная с сегодняшнего дня
func (s *AvailabilityService) Get(ctx context.Context, teacherID uuid.UUID) (*Availability, error) {
	if _, err := s.getTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	windows, err := s.availabilityRepo.ListWindows(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}

	today := schedule.DateOf(s.clock.Now().In(s.location))
	blackouts, err := s.availabilityRepo.ListBlackouts(ctx, teacherID, today)
	if err != nil {
		return nil, fmt.Errorf("get blackout dates: %w", err)
	}

	if windows == nil {
		windows = []*model.AvailabilityWindow{}
	}
	if blackouts == nil {
		blackouts = []*model.BlackoutDate{}
	}

	return &Availability{TeacherID: teacherID, Windows: windows, Blackouts: blackouts}, nil
}

// SetWindows заменяет рабочие часы учителя. Пустой набор снимает ограничения.
func (s *AvailabilityService) SetWindows(ctx context.Context, actor model.Actor, teacherID uuid.UUID, in []WindowInput) ([]*model.AvailabilityWindow, error) {
	if _, err := s.getTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if !actor.CanManage(teacherID) {
		return nil, forbidden("only the teacher or an admin can change availability")
	}

	windows := make([]*model.AvailabilityWindow, 0, len(in))
	for i, w := range in {
		if w.Weekday < 0 || w.Weekday > 6 {
			return nil, validationError("windows[%d]: weekday must be between 0 and 6", i)
		}
		if !w.StartTime.Before(w.EndTime) {
			return nil, validationError("windows[%d]: start_time must be before end_time", i)
		}
		windows = append(windows, &model.AvailabilityWindow{
			TeacherID: teacherID,
			Weekday:   w.Weekday,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
		})
	}

	if err := s.availabilityRepo.ReplaceWindows(ctx, teacherID, windows); err != nil {
		return nil, fmt.Errorf("replace availability windows: %w", err)
	}

	s.logger.Info("Availability updated",
		zap.String("teacher_id", teacherID.String()),
		zap.Int("windows", len(windows)),
	)

	return windows, nil
}

// AddBlackout добавляет выходной день
func (s *AvailabilityService) AddBlackout(ctx context.Context, actor model.Actor, teacherID uuid.UUID, date schedule.Date, reason *string) (*model.BlackoutDate, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	if _, err := s.getTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if !actor.CanManage(teacherID) {
		return nil, forbidden("only the teacher or an admin can change availability")
	}

	blackout := &model.BlackoutDate{TeacherID: teacherID, Date: date, Reason: reason}
	if err := s.availabilityRepo.AddBlackout(ctx, blackout); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, newError(KindConflict, "%s is already a day off", date)
		}
		return nil, fmt.Errorf("add blackout date: %w", err)
	}

	s.logger.Info("Blackout date added",
		zap.String("teacher_id", teacherID.String()),
		zap.Stringer("date", date),
	)

	return blackout, nil
}

// DeleteBlackout удаляет выходной день
func (s *AvailabilityService) DeleteBlackout(ctx context.Context, actor model.Actor, teacherID, blackoutID uuid.UUID) error {
	if !actor.CanManage(teacherID) {
		return forbidden("only the teacher or an admin can change availability")
	}

	deleted, err := s.availabilityRepo.DeleteBlackout(ctx, teacherID, blackoutID)
	if err != nil {
		return fmt.Errorf("delete blackout date: %w", err)
	}
	if !deleted {
		return notFound("blackout date")
	}

	s.logger.Info("Blackout date deleted",
		zap.String("teacher_id", teacherID.String()),
		zap.String("blackout_id", blackoutID.String()),
	)

	return nil
}

func (s *AvailabilityService) getTeacher(ctx context.Context, teacherID uuid.UUID) (*model.User, error) {
	teacher, err := s.userRepo.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher() {
		return nil, notFound("teacher")
	}
	return teacher, nil
}
