package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultDurationMinutes = 60
	defaultMaxStudents     = 1
)

type LessonService struct {
	lessonRepo     LessonStore
	enrollmentRepo EnrollmentStore
	userRepo       UserStore
	checker        ScheduleChecker
	clock          Clock
	location       *time.Location
	logger         *zap.Logger
}

func NewLessonService(
	lessonRepo LessonStore,
	enrollmentRepo EnrollmentStore,
	userRepo UserStore,
	checker ScheduleChecker,
	clock Clock,
	location *time.Location,
	logger *zap.Logger,
) *LessonService {
	if location == nil {
		location = time.Local
	}
	return &LessonService{
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		userRepo:       userRepo,
		checker:        checker,
		clock:          clock,
		location:       location,
		logger:         logger,
	}
}

// CreateLessonInput поля нового занятия. ScheduledTime указатель: 00:00 валидное время.
type CreateLessonInput struct {
	Title             string
	Description       *string
	TeacherID         uuid.UUID
	LessonContentID   *uuid.UUID
	ScheduledDate     schedule.Date
	ScheduledTime     *schedule.TimeOfDay
	DurationMinutes   int
	MaxStudents       int
	MeetingLink       *string
	MeetingPassword   *string
	Requirements      *string
	Materials         *string
	Notes             *string
	IsRecurring       bool
	RecurrencePattern *schedule.Recurrence
	RecurrenceEndDate *schedule.Date
}

// UpdateLessonInput изменяемые поля; nil означает "не менять"
type UpdateLessonInput struct {
	Title             *string
	Description       *string
	LessonContentID   *uuid.UUID
	ScheduledDate     *schedule.Date
	ScheduledTime     *schedule.TimeOfDay
	DurationMinutes   *int
	MaxStudents       *int
	Status            *model.LessonStatus
	MeetingLink       *string
	MeetingPassword   *string
	Requirements      *string
	Materials         *string
	Notes             *string
	IsRecurring       *bool
	RecurrencePattern *schedule.Recurrence
	RecurrenceEndDate *schedule.Date
}

// List занятия по фильтру с производными признаками. Пустой список не ошибка.
func (s *LessonService) List(ctx context.Context, actor model.Actor, filter model.LessonFilter) ([]model.LessonView, int64, error) {
	if actor.IsStudent() && filter.StudentID != nil && *filter.StudentID != actor.UserID {
		return nil, 0, forbidden("students can list only their own enrollments")
	}

	lessons, total, err := s.lessonRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	now := s.clock.Now()
	views := make([]model.LessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, model.NewLessonView(redact(l, actor), now, s.location))
	}

	return views, total, nil
}

// Get карточка занятия со статистикой
func (s *LessonService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.LessonDetails, error) {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.lessonRepo.GetStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lesson stats: %w", err)
	}

	return &model.LessonDetails{
		LessonView: model.NewLessonView(redact(lesson, actor), s.clock.Now(), s.location),
		Stats:      *stats,
	}, nil
}

// Create проверяет поля, учителя, пересечения и доступность, затем создаёт занятие
func (s *LessonService) Create(ctx context.Context, actor model.Actor, in CreateLessonInput) (*model.ScheduledLesson, error) {
	lesson, err := in.lesson()
	if err != nil {
		return nil, err
	}

	teacher, err := s.userRepo.GetByID(ctx, lesson.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, notFound("teacher")
	}
	if !teacher.IsTeacher() {
		return nil, validationError("user %s is not a teacher", teacher.ID)
	}

	if !actor.CanManage(lesson.TeacherID) {
		return nil, forbidden("only the teacher or an admin can schedule this lesson")
	}

	slot, _ := lesson.Slot()
	if err := s.checkSlot(ctx, lesson, slot, uuid.Nil, true); err != nil {
		return nil, err
	}

	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		if errors.Is(err, model.ErrScheduleOverlap) {
			return nil, errScheduleConflict()
		}
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	s.logger.Info("Lesson created",
		zap.String("lesson_id", lesson.ID.String()),
		zap.String("teacher_id", lesson.TeacherID.String()),
		zap.Stringer("date", lesson.ScheduledDate),
		zap.Stringer("time", lesson.ScheduledTime),
		zap.Int("duration_minutes", lesson.DurationMinutes),
	)

	return lesson, nil
}

// Update применяет изменения. Пересечения проверяются только при сдвиге окна,
// само занятие из проверки исключается.
func (s *LessonService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, in UpdateLessonInput) (*model.ScheduledLesson, error) {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.CanManage(lesson.TeacherID) {
		return nil, forbidden("lesson belongs to another teacher")
	}

	wasCancelled := lesson.IsCancelled()
	before := *lesson

	in.apply(lesson)
	if err := validateLesson(lesson); err != nil {
		return nil, err
	}

	moved := lesson.ScheduledDate != before.ScheduledDate ||
		lesson.ScheduledTime != before.ScheduledTime ||
		lesson.DurationMinutes != before.DurationMinutes
	restored := wasCancelled && !lesson.IsCancelled()

	if (moved || restored) && !lesson.IsCancelled() {
		slot, _ := lesson.Slot()
		if err := s.checkSlot(ctx, lesson, slot, lesson.ID, false); err != nil {
			return nil, err
		}
	}

	if err := s.lessonRepo.Update(ctx, lesson); err != nil {
		if errors.Is(err, model.ErrScheduleOverlap) {
			return nil, errScheduleConflict()
		}
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	s.logger.Info("Lesson updated",
		zap.String("lesson_id", lesson.ID.String()),
		zap.Bool("moved", moved),
		zap.String("status", string(lesson.Status)),
	)

	return lesson, nil
}

// Delete удаляет занятие вместе с записями, посещаемостью и отзывами
func (s *LessonService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	lesson, err := s.getLesson(ctx, id)
	if err != nil {
		return err
	}

	if !actor.CanManage(lesson.TeacherID) {
		return forbidden("lesson belongs to another teacher")
	}

	if err := s.lessonRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	s.logger.Info("Lesson deleted",
		zap.String("lesson_id", id.String()),
		zap.String("actor_id", actor.UserID.String()),
	)

	return nil
}

// Enroll записывает ученика на занятие с учётом вместимости.
// Записать другого ученика может только учитель этого занятия или админ.
// Повторная запись уже записанного ученика возвращает существующую запись.
func (s *LessonService) Enroll(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*model.LessonEnrollment, error) {
	if studentID == uuid.Nil {
		return nil, validationError("student_id is required")
	}

	lesson, err := s.getLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err := actForStudent(actor, studentID, lesson.TeacherID); err != nil {
		return nil, err
	}

	if lesson.Status == model.LessonStatusCancelled || lesson.Status == model.LessonStatusCompleted {
		return nil, newError(KindConflict, "lesson is %s", lesson.Status)
	}
	if lesson.Window(s.location).Flags(s.clock.Now()).HasEnded {
		return nil, newError(KindEnded, "lesson has already ended")
	}

	existing, err := s.enrollmentRepo.GetActive(ctx, lessonID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	count, err := s.enrollmentRepo.CountActive(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	if count >= lesson.MaxStudents {
		return nil, newError(KindConflict, "lesson is full")
	}

	enrollment := &model.LessonEnrollment{
		LessonID:  lessonID,
		StudentID: studentID,
		Status:    model.EnrollmentStatusActive,
	}
	if err := s.enrollmentRepo.Upsert(ctx, enrollment); err != nil {
		if errors.Is(err, model.ErrUnknownReference) {
			return nil, validationError("student %s does not exist", studentID)
		}
		return nil, fmt.Errorf("enroll student: %w", err)
	}

	s.logger.Info("Student enrolled",
		zap.String("lesson_id", lessonID.String()),
		zap.String("student_id", studentID.String()),
		zap.Int("enrolled", count+1),
		zap.Int("capacity", lesson.MaxStudents),
	)

	return enrollment, nil
}

// GenerateRecurringOccurrences создаёт недостающие повторения повторяющихся занятий
// на weeksAhead недель вперёд. Повторения с пересечением или вне рабочих часов пропускаются.
// Вызывается периодически планировщиком.
func (s *LessonService) GenerateRecurringOccurrences(ctx context.Context, weeksAhead int) (int, error) {
	templates, err := s.lessonRepo.ListRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("get recurring lessons: %w", err)
	}

	totalCount := 0
	for _, template := range templates {
		count, err := s.generateOccurrences(ctx, template, weeksAhead)
		if err != nil {
			s.logger.Error("Failed to generate occurrences for recurring lesson",
				zap.Error(err),
				zap.String("lesson_id", template.ID.String()),
			)
			continue
		}
		totalCount += count
	}

	s.logger.Info("Generated occurrences for recurring lessons",
		zap.Int("total_templates", len(templates)),
		zap.Int("total_lessons_created", totalCount),
	)

	return totalCount, nil
}

func (s *LessonService) generateOccurrences(ctx context.Context, template *model.ScheduledLesson, weeksAhead int) (int, error) {
	if template.RecurrencePattern == nil {
		return 0, nil
	}

	now := s.clock.Now().In(s.location)
	today := schedule.DateOf(now)
	dates := template.RecurrencePattern.Occurrences(
		template.ScheduledDate,
		template.RecurrenceEndDate,
		today,
		today.AddDays(weeksAhead*7),
	)

	count := 0
	for _, date := range dates {
		occurrence := template.Occurrence(date)
		log := s.logger.With(
			zap.String("parent_lesson_id", template.ID.String()),
			zap.Stringer("date", date),
		)

		// Пропускаем прошедшие
		if occurrence.Window(s.location).Start.Before(now) {
			continue
		}

		exists, err := s.lessonRepo.OccurrenceExists(ctx, template.ID, date)
		if err != nil {
			log.Warn("Failed to check occurrence existence", zap.Error(err))
			continue
		}
		if exists {
			log.Debug("Occurrence already exists, skipping")
			continue
		}

		slot, err := occurrence.Slot()
		if err != nil {
			return count, fmt.Errorf("recurring lesson window: %w", err)
		}
		if err := s.checkSlot(ctx, occurrence, slot, uuid.Nil, true); err != nil {
			log.Info("Occurrence skipped", zap.String("reason", err.Error()))
			continue
		}

		if err := s.lessonRepo.Create(ctx, occurrence); err != nil {
			log.Warn("Failed to create occurrence", zap.Error(err))
			continue
		}

		count++
	}

	return count, nil
}

// checkSlot сначала пересечения, потом доступность учителя
func (s *LessonService) checkSlot(ctx context.Context, lesson *model.ScheduledLesson, slot schedule.Slot, exclude uuid.UUID, checkAvailability bool) error {
	conflict, err := s.checker.CheckScheduleConflict(ctx, lesson.TeacherID, lesson.ScheduledDate, slot.Start, slot.End, exclude)
	if err != nil {
		return fmt.Errorf("check schedule conflict: %w", err)
	}
	if conflict {
		return errScheduleConflict()
	}

	if !checkAvailability {
		return nil
	}

	available, err := s.checker.CheckTeacherAvailability(ctx, lesson.TeacherID, lesson.ScheduledDate, lesson.ScheduledTime)
	if err != nil {
		return fmt.Errorf("check teacher availability: %w", err)
	}
	if !available {
		return newError(KindUnavailable, "teacher is not available on %s at %s", lesson.ScheduledDate, lesson.ScheduledTime)
	}

	return nil
}

func (s *LessonService) getLesson(ctx context.Context, id uuid.UUID) (*model.ScheduledLesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, notFound("lesson")
	}
	return lesson, nil
}

// actForStudent ученик действует только за себя; за другого может учитель занятия или админ
func actForStudent(actor model.Actor, studentID, teacherID uuid.UUID) error {
	if actor.UserID == studentID {
		return nil
	}
	if actor.IsStudent() || !actor.CanManage(teacherID) {
		return forbidden("cannot act for another student on this lesson")
	}
	return nil
}

func errScheduleConflict() error {
	return newError(KindConflict, "schedule conflict: teacher already has a lesson at this time")
}

// redact скрывает данные для входа от тех, кто не управляет занятием.
// Ученики получают их из Join.
func redact(l *model.ScheduledLesson, actor model.Actor) *model.ScheduledLesson {
	if actor.CanManage(l.TeacherID) {
		return l
	}
	c := *l
	c.MeetingLink = nil
	c.MeetingPassword = nil
	return &c
}

func (in CreateLessonInput) lesson() (*model.ScheduledLesson, error) {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if in.TeacherID == uuid.Nil {
		missing = append(missing, "teacher_id")
	}
	if in.ScheduledDate.IsZero() {
		missing = append(missing, "scheduled_date")
	}
	if in.ScheduledTime == nil {
		missing = append(missing, "scheduled_time")
	}
	if len(missing) > 0 {
		return nil, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}
	capacity := in.MaxStudents
	if capacity == 0 {
		capacity = defaultMaxStudents
	}

	lesson := &model.ScheduledLesson{
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		TeacherID:         in.TeacherID,
		LessonContentID:   in.LessonContentID,
		ScheduledDate:     in.ScheduledDate,
		ScheduledTime:     *in.ScheduledTime,
		DurationMinutes:   duration,
		MaxStudents:       capacity,
		Status:            model.LessonStatusScheduled,
		MeetingLink:       in.MeetingLink,
		MeetingPassword:   in.MeetingPassword,
		Requirements:      in.Requirements,
		Materials:         in.Materials,
		Notes:             in.Notes,
		IsRecurring:       in.IsRecurring,
		RecurrencePattern: in.RecurrencePattern,
		RecurrenceEndDate: in.RecurrenceEndDate,
	}

	if err := validateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (in UpdateLessonInput) apply(l *model.ScheduledLesson) {
	if in.Title != nil {
		l.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		l.Description = in.Description
	}
	if in.LessonContentID != nil {
		l.LessonContentID = in.LessonContentID
	}
	if in.ScheduledDate != nil {
		l.ScheduledDate = *in.ScheduledDate
	}
	if in.ScheduledTime != nil {
		l.ScheduledTime = *in.ScheduledTime
	}
	if in.DurationMinutes != nil {
		l.DurationMinutes = *in.DurationMinutes
	}
	if in.MaxStudents != nil {
		l.MaxStudents = *in.MaxStudents
	}
	if in.Status != nil {
		l.Status = *in.Status
	}
	if in.MeetingLink != nil {
		l.MeetingLink = in.MeetingLink
	}
	if in.MeetingPassword != nil {
		l.MeetingPassword = in.MeetingPassword
	}
	if in.Requirements != nil {
		l.Requirements = in.Requirements
	}
	if in.Materials != nil {
		l.Materials = in.Materials
	}
	if in.Notes != nil {
		l.Notes = in.Notes
	}
	if in.IsRecurring != nil {
		l.IsRecurring = *in.IsRecurring
	}
	if in.RecurrencePattern != nil {
		l.RecurrencePattern = in.RecurrencePattern
	}
	if in.RecurrenceEndDate != nil {
		l.RecurrenceEndDate = in.RecurrenceEndDate
	}
}

func validateLesson(l *model.ScheduledLesson) error {
	if l.Title == "" {
		return validationError("title must not be empty")
	}
	if l.ScheduledDate.IsZero() {
		return validationError("scheduled_date must not be empty")
	}
	if l.DurationMinutes <= 0 {
		return validationError("duration_minutes must be positive")
	}
	if l.MaxStudents < 1 {
		return validationError("max_students must be at least 1")
	}
	if !l.Status.Valid() {
		return validationError("unknown status %q", l.Status)
	}
	if _, err := l.Slot(); err != nil {
		return validationError("lesson must end by midnight: %s + %d min", l.ScheduledTime, l.DurationMinutes)
	}

	if l.IsRecurring {
		if l.RecurrencePattern == nil {
			return validationError("recurrence_pattern is required for recurring lessons")
		}
		if _, err := schedule.ParseRecurrence(string(*l.RecurrencePattern)); err != nil {
			return validationError("%s", err.Error())
		}
		if l.RecurrenceEndDate != nil && l.RecurrenceEndDate.Before(l.ScheduledDate) {
			return validationError("recurrence_end_date must not be before scheduled_date")
		}
	}

	return nil
}
