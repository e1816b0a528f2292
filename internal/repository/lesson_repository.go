package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/repository/base"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const lessonColumns = `
	id, title, description, teacher_id, lesson_content_id,
	scheduled_date, scheduled_time, duration_minutes, max_students, status,
	meeting_link, meeting_password, requirements, materials, notes,
	is_recurring, recurrence_pattern, recurrence_end_date, parent_lesson_id,
	created_at, updated_at`

type LessonRepository struct {
	*base.Repository
}

func NewLessonRepository(b *base.Repository) *LessonRepository {
	return &LessonRepository{Repository: b}
}

func scanLesson(row pgx.Row) (*model.ScheduledLesson, error) {
	var l model.ScheduledLesson
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.TeacherID,
		&l.LessonContentID,
		&l.ScheduledDate,
		&l.ScheduledTime,
		&l.DurationMinutes,
		&l.MaxStudents,
		&l.Status,
		&l.MeetingLink,
		&l.MeetingPassword,
		&l.Requirements,
		&l.Materials,
		&l.Notes,
		&l.IsRecurring,
		&l.RecurrencePattern,
		&l.RecurrenceEndDate,
		&l.ParentLessonID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLessons(rows pgx.Rows) ([]*model.ScheduledLesson, error) {
	defer rows.Close()

	var lessons []*model.ScheduledLesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return lessons, nil
}

// Create создаёт занятие; пересечение с другим занятием учителя отсекает exclusion-ограничение
func (r *LessonRepository) Create(ctx context.Context, l *model.ScheduledLesson) error {
	query := `
		INSERT INTO scheduled_lessons (
			title, description, teacher_id, lesson_content_id,
			scheduled_date, scheduled_time, duration_minutes, max_students, status,
			meeting_link, meeting_password, requirements, materials, notes,
			is_recurring, recurrence_pattern, recurrence_end_date, parent_lesson_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		l.Title,
		l.Description,
		l.TeacherID,
		l.LessonContentID,
		l.ScheduledDate,
		l.ScheduledTime,
		l.DurationMinutes,
		l.MaxStudents,
		l.Status,
		l.MeetingLink,
		l.MeetingPassword,
		l.Requirements,
		l.Materials,
		l.Notes,
		l.IsRecurring,
		l.RecurrencePattern,
		l.RecurrenceEndDate,
		l.ParentLessonID,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)

	if err != nil {
		return lessonWriteError("create lesson", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduledLesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM scheduled_lessons WHERE id = $1`

	l, err := scanLesson(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return l, nil
}

// List выборка занятий по фильтру и общее количество без учёта пагинации
func (r *LessonRepository) List(ctx context.Context, f model.LessonFilter) ([]*model.ScheduledLesson, int64, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.TeacherID != nil {
		add("teacher_id = $%d", *f.TeacherID)
	}
	if f.StudentID != nil {
		add(`EXISTS (
			SELECT 1 FROM lesson_enrollments e
			WHERE e.lesson_id = scheduled_lessons.id AND e.student_id = $%d AND e.status = 'active'
		)`, *f.StudentID)
	}
	if f.Date != nil {
		add("scheduled_date = $%d", *f.Date)
	}
	if f.DateFrom != nil {
		add("scheduled_date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("scheduled_date <= $%d", *f.DateTo)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM scheduled_lessons`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	query := `SELECT ` + lessonColumns + ` FROM scheduled_lessons` + where +
		` ORDER BY scheduled_date, scheduled_time, id`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	lessons, err := collectLessons(rows)
	if err != nil {
		return nil, 0, err
	}
	return lessons, total, nil
}

// Update сохраняет изменяемые поля занятия
func (r *LessonRepository) Update(ctx context.Context, l *model.ScheduledLesson) error {
	query := `
		UPDATE scheduled_lessons
		SET title = $1, description = $2, lesson_content_id = $3,
		    scheduled_date = $4, scheduled_time = $5, duration_minutes = $6,
		    max_students = $7, status = $8, meeting_link = $9, meeting_password = $10,
		    requirements = $11, materials = $12, notes = $13,
		    is_recurring = $14, recurrence_pattern = $15, recurrence_end_date = $16,
		    updated_at = NOW()
		WHERE id = $17
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		l.Title,
		l.Description,
		l.LessonContentID,
		l.ScheduledDate,
		l.ScheduledTime,
		l.DurationMinutes,
		l.MaxStudents,
		l.Status,
		l.MeetingLink,
		l.MeetingPassword,
		l.Requirements,
		l.Materials,
		l.Notes,
		l.IsRecurring,
		l.RecurrencePattern,
		l.RecurrenceEndDate,
		l.ID,
	).Scan(&l.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("lesson not found")
		}
		return lessonWriteError("update lesson", err)
	}

	return nil
}

// lessonWriteError exclusion-ограничение по окну занятия превращается в ErrScheduleOverlap
func lessonWriteError(op string, err error) error {
	if base.IsExclusionViolation(err) {
		return fmt.Errorf("%s: %w", op, model.ErrScheduleOverlap)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// UpdateStatus обновляет статус занятия
func (r *LessonRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LessonStatus) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE scheduled_lessons SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update lesson status: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("lesson not found")
	}

	return nil
}

// Delete удаляет занятие (записи, посещаемость и отзывы удалятся каскадом)
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM scheduled_lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("lesson not found")
	}

	return nil
}

// ListByTeacherAndDate неотменённые занятия учителя в указанный день
func (r *LessonRepository) ListByTeacherAndDate(ctx context.Context, teacherID uuid.UUID, date schedule.Date) ([]*model.ScheduledLesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM scheduled_lessons
		WHERE teacher_id = $1 AND scheduled_date = $2 AND status <> 'cancelled'
		ORDER BY scheduled_time`

	rows, err := r.Query(ctx, query, teacherID, date)
	if err != nil {
		return nil, fmt.Errorf("get lessons by teacher and date: %w", err)
	}

	return collectLessons(rows)
}

// ListRecurringTemplates исходные повторяющиеся занятия, по которым генерируются повторения
func (r *LessonRepository) ListRecurringTemplates(ctx context.Context) ([]*model.ScheduledLesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM scheduled_lessons
		WHERE is_recurring = TRUE
		  AND recurrence_pattern IS NOT NULL
		  AND parent_lesson_id IS NULL
		  AND status <> 'cancelled'
		ORDER BY created_at`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get recurring lessons: %w", err)
	}

	return collectLessons(rows)
}

// OccurrenceExists есть ли уже повторение шаблона на эту дату
func (r *LessonRepository) OccurrenceExists(ctx context.Context, parentID uuid.UUID, date schedule.Date) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM scheduled_lessons
			WHERE parent_lesson_id = $1 AND scheduled_date = $2
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, parentID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("check occurrence exists: %w", err)
	}

	return exists, nil
}

// GetStats агрегаты по записям, посещаемости и отзывам занятия
func (r *LessonRepository) GetStats(ctx context.Context, id uuid.UUID) (*model.LessonStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM lesson_enrollments WHERE lesson_id = $1 AND status = 'active'),
			(SELECT COUNT(*) FROM lesson_attendance WHERE lesson_id = $1),
			(SELECT COUNT(*) FROM lesson_feedback WHERE lesson_id = $1),
			(SELECT COALESCE(AVG(rating), 0)::float8 FROM lesson_feedback WHERE lesson_id = $1)
	`

	var stats model.LessonStats
	err := r.QueryRow(ctx, query, id).Scan(
		&stats.EnrolledCount,
		&stats.AttendedCount,
		&stats.FeedbackCount,
		&stats.AverageRating,
	)
	if err != nil {
		return nil, fmt.Errorf("get lesson stats: %w", err)
	}

	return &stats, nil
}
