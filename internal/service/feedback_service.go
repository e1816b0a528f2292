package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FeedbackService struct {
	lessonRepo     LessonStore
	enrollmentRepo EnrollmentStore
	feedbackRepo   FeedbackStore
	clock          Clock
	location       *time.Location
	logger         *zap.Logger
}

func NewFeedbackService(
	lessonRepo LessonStore,
	enrollmentRepo EnrollmentStore,
	feedbackRepo FeedbackStore,
	clock Clock,
	location *time.Location,
	logger *zap.Logger,
) *FeedbackService {
	if location == nil {
		location = time.Local
	}
	return &FeedbackService{
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		feedbackRepo:   feedbackRepo,
		clock:          clock,
		location:       location,
		logger:         logger,
	}
}

// Submit сохраняет оценку ученика после окончания занятия; повторная отправка заменяет прежнюю
func (s *FeedbackService) Submit(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID, rating int, comment *string) (*model.LessonFeedback, error) {
	if studentID == uuid.Nil {
		return nil, validationError("student_id is required")
	}
	if rating < 1 || rating > 5 {
		return nil, validationError("rating must be between 1 and 5")
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

	if !lesson.Window(s.location).Flags(s.clock.Now()).HasEnded {
		return nil, validationError("feedback can be left only after the lesson ends")
	}

	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		comment = &trimmed
		if trimmed == "" {
			comment = nil
		}
	}

	feedback := &model.LessonFeedback{
		LessonID:  lessonID,
		StudentID: studentID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.feedbackRepo.Upsert(ctx, feedback); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	s.logger.Info("Feedback submitted",
		zap.String("lesson_id", lessonID.String()),
		zap.String("student_id", studentID.String()),
		zap.Int("rating", rating),
	)

	return feedback, nil
}
