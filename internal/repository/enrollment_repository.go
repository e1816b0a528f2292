package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const enrollmentColumns = `id, lesson_id, student_id, enrolled_at, status, payment_status, payment_amount`

type EnrollmentRepository struct {
	*base.Repository
}

func NewEnrollmentRepository(b *base.Repository) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: b}
}

func scanEnrollment(row pgx.Row) (*model.LessonEnrollment, error) {
	var e model.LessonEnrollment
	err := row.Scan(
		&e.ID,
		&e.LessonID,
		&e.StudentID,
		&e.EnrolledAt,
		&e.Status,
		&e.PaymentStatus,
		&e.PaymentAmount,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert создаёт запись ученика на занятие или реактивирует отменённую
func (r *EnrollmentRepository) Upsert(ctx context.Context, e *model.LessonEnrollment) error {
	query := `
		INSERT INTO lesson_enrollments (lesson_id, student_id, status, payment_status, payment_amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lesson_id, student_id) DO UPDATE
		SET status = EXCLUDED.status, enrolled_at = NOW()
		RETURNING id, enrolled_at
	`

	err := r.QueryRow(
		ctx, query,
		e.LessonID,
		e.StudentID,
		e.Status,
		e.PaymentStatus,
		e.PaymentAmount,
	).Scan(&e.ID, &e.EnrolledAt)

	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return fmt.Errorf("upsert enrollment: %w", model.ErrUnknownReference)
		}
		return fmt.Errorf("upsert enrollment: %w", err)
	}

	return nil
}

// GetActive активная запись ученика на занятие
func (r *EnrollmentRepository) GetActive(ctx context.Context, lessonID, studentID uuid.UUID) (*model.LessonEnrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
		FROM lesson_enrollments
		WHERE lesson_id = $1 AND student_id = $2 AND status = 'active'`

	e, err := scanEnrollment(r.QueryRow(ctx, query, lessonID, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active enrollment: %w", err)
	}

	return e, nil
}

// CountActive количество активных записей на занятие
func (r *EnrollmentRepository) CountActive(ctx context.Context, lessonID uuid.UUID) (int, error) {
	var count int
	err := r.QueryRow(ctx,
		`SELECT COUNT(*) FROM lesson_enrollments WHERE lesson_id = $1 AND status = 'active'`,
		lessonID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}
