package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AttendanceService struct {
	lessonRepo     LessonStore
	enrollmentRepo EnrollmentStore
	attendanceRepo AttendanceStore
	clock          Clock
	location       *time.Location
	logger         *zap.Logger
}

func NewAttendanceService(
	lessonRepo LessonStore,
	enrollmentRepo EnrollmentStore,
	attendanceRepo AttendanceStore,
	clock Clock,
	location *time.Location,
	logger *zap.Logger,
) *AttendanceService {
	if location == nil {
		location = time.Local
	}
	return &AttendanceService{
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		attendanceRepo: attendanceRepo,
		clock:          clock,
		location:       location,
		logger:         logger,
	}
}

// JoinResult то, что нужно ученику для входа на занятие
type JoinResult struct {
	LessonID        uuid.UUID          `json:"lesson_id"`
	Title           string             `json:"title"`
	TeacherID       uuid.UUID          `json:"teacher_id"`
	MeetingLink     *string            `json:"meeting_link,omitempty"`
	MeetingPassword *string            `json:"meeting_password,omitempty"`
	DurationMinutes int                `json:"duration_minutes"`
	Materials       *string            `json:"materials,omitempty"`
	Requirements    *string            `json:"requirements,omitempty"`
	Status          model.LessonStatus `json:"status"`
	JoinedAt        time.Time          `json:"joined_at"`
}

// LeaveResult итог выхода с занятия
type LeaveResult struct {
	LessonID        uuid.UUID `json:"lesson_id"`
	StudentID       uuid.UUID `json:"student_id"`
	JoinedAt        time.Time `json:"joined_at"`
	LeftAt          time.Time `json:"left_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Join подключает ученика к занятию.
// Проверки по порядку: ученик указан, занятие есть, actor вправе действовать за ученика,
// ученик записан, окно входа открыто, занятие не закончилось.
// Повторный вход перезаписывает joined_at в той же строке посещаемости.
func (s *AttendanceService) Join(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*JoinResult, error) {
	if studentID == uuid.Nil {
		return nil, validationError("student_id is required")
	}

	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, notFound("lesson")
	}
	if err := actForStudent(actor, studentID, lesson.TeacherID); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.GetActive(ctx, lessonID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if enrollment == nil {
		return nil, forbidden("student is not enrolled in this lesson")
	}

	if lesson.IsCancelled() {
		return nil, newError(KindEnded, "lesson was cancelled")
	}

	now := s.clock.Now()
	window := lesson.Window(s.location)

	if now.Before(window.CanJoinFrom) {
		return nil, &TooEarlyError{
			MinutesUntilJoin: window.MinutesUntilJoin(now),
			JoinAllowedAt:    window.CanJoinFrom,
		}
	}
	if window.Flags(now).HasEnded {
		return nil, newError(KindEnded, "lesson has already ended")
	}

	attendance := &model.LessonAttendance{
		LessonID:         lessonID,
		StudentID:        studentID,
		JoinedAt:         now,
		AttendanceStatus: model.AttendanceStatusPresent,
	}
	if err := s.attendanceRepo.UpsertJoin(ctx, attendance); err != nil {
		return nil, fmt.Errorf("record attendance: %w", err)
	}

	// Статус занятия обновляем только после начала; ошибка не мешает входу
	if lesson.Status == model.LessonStatusScheduled && !now.Before(window.Start) {
		if err := s.lessonRepo.UpdateStatus(ctx, lessonID, model.LessonStatusInProgress); err != nil {
			s.logger.Warn("Failed to mark lesson in progress",
				zap.Error(err),
				zap.String("lesson_id", lessonID.String()),
			)
		} else {
			lesson.Status = model.LessonStatusInProgress
		}
	}

	s.logger.Info("Student joined lesson",
		zap.String("lesson_id", lessonID.String()),
		zap.String("student_id", studentID.String()),
		zap.Time("joined_at", now),
	)

	return &JoinResult{
		LessonID:        lesson.ID,
		Title:           lesson.Title,
		TeacherID:       lesson.TeacherID,
		MeetingLink:     lesson.MeetingLink,
		MeetingPassword: lesson.MeetingPassword,
		DurationMinutes: lesson.DurationMinutes,
		Materials:       lesson.Materials,
		Requirements:    lesson.Requirements,
		Status:          lesson.Status,
		JoinedAt:        now,
	}, nil
}

// Leave фиксирует выход и длительность присутствия.
// Повторный вызов пересчитывает длительность от того же joined_at и перезаписывает её.
func (s *AttendanceService) Leave(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*LeaveResult, error) {
	if studentID == uuid.Nil {
		return nil, validationError("student_id is required")
	}

	if actor.UserID != studentID {
		lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
		if err != nil {
			return nil, fmt.Errorf("get lesson: %w", err)
		}
		if lesson == nil {
			return nil, notFound("lesson")
		}
		if err := actForStudent(actor, studentID, lesson.TeacherID); err != nil {
			return nil, err
		}
	}

	attendance, err := s.attendanceRepo.Get(ctx, lessonID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	if attendance == nil {
		return nil, notFound("attendance record")
	}

	now := s.clock.Now()
	duration := schedule.AttendedMinutes(attendance.JoinedAt, now)
	attendance.LeftAt = &now
	attendance.DurationMinutes = &duration

	if err := s.attendanceRepo.UpdateLeave(ctx, attendance); err != nil {
		return nil, fmt.Errorf("record leave: %w", err)
	}

	s.logger.Info("Student left lesson",
		zap.String("lesson_id", lessonID.String()),
		zap.String("student_id", studentID.String()),
		zap.Int("duration_minutes", duration),
	)

	return &LeaveResult{
		LessonID:        lessonID,
		StudentID:       studentID,
		JoinedAt:        attendance.JoinedAt,
		LeftAt:          now,
		DurationMinutes: duration,
	}, nil
}
