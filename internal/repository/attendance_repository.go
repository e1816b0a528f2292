package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/repository/base"
	"github.com/google/uuid"
)

type AttendanceRepository struct {
	*base.Repository
}

func NewAttendanceRepository(b *base.Repository) *AttendanceRepository {
	return &AttendanceRepository{Repository: b}
}

// UpsertJoin фиксирует вход ученика. Повторный вход перезаписывает joined_at и статус,
// left_at и длительность остаются от прошлого выхода.
func (r *AttendanceRepository) UpsertJoin(ctx context.Context, a *model.LessonAttendance) error {
	query := `
		INSERT INTO lesson_attendance (lesson_id, student_id, joined_at, attendance_status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lesson_id, student_id) DO UPDATE
		SET joined_at = EXCLUDED.joined_at, attendance_status = EXCLUDED.attendance_status
		RETURNING id, left_at, duration_minutes, participation_score, teacher_notes
	`

	err := r.QueryRow(
		ctx, query,
		a.LessonID,
		a.StudentID,
		a.JoinedAt,
		a.AttendanceStatus,
	).Scan(&a.ID, &a.LeftAt, &a.DurationMinutes, &a.ParticipationScore, &a.TeacherNotes)

	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}

	return nil
}

// Get запись посещаемости ученика на занятии
func (r *AttendanceRepository) Get(ctx context.Context, lessonID, studentID uuid.UUID) (*model.LessonAttendance, error) {
	query := `
		SELECT id, lesson_id, student_id, joined_at, left_at, duration_minutes,
		       attendance_status, participation_score, teacher_notes
		FROM lesson_attendance
		WHERE lesson_id = $1 AND student_id = $2
	`

	var a model.LessonAttendance
	err := r.QueryRow(ctx, query, lessonID, studentID).Scan(
		&a.ID,
		&a.LessonID,
		&a.StudentID,
		&a.JoinedAt,
		&a.LeftAt,
		&a.DurationMinutes,
		&a.AttendanceStatus,
		&a.ParticipationScore,
		&a.TeacherNotes,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}

	return &a, nil
}

// UpdateLeave сохраняет время выхода и посчитанную длительность
func (r *AttendanceRepository) UpdateLeave(ctx context.Context, a *model.LessonAttendance) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE lesson_attendance SET left_at = $1, duration_minutes = $2 WHERE id = $3`,
		a.LeftAt, a.DurationMinutes, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("attendance not found")
	}

	return nil
}
