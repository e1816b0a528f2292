package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/repository/base"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(b *base.Repository) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: b}
}

// ListWindows рабочие часы учителя по дням недели
func (r *AvailabilityRepository) ListWindows(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, teacher_id, weekday, start_time, end_time
		FROM teacher_availability
		WHERE teacher_id = $1
		ORDER BY weekday, start_time
	`

	rows, err := r.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get availability windows: %w", err)
	}
	defer rows.Close()

	var windows []*model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.ID, &w.TeacherID, &w.Weekday, &w.StartTime, &w.EndTime); err != nil {
			return nil, fmt.Errorf("scan availability window: %w", err)
		}
		windows = append(windows, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate availability windows: %w", err)
	}

	return windows, nil
}

// ReplaceWindows заменяет все рабочие часы учителя одним набором
func (r *AvailabilityRepository) ReplaceWindows(ctx context.Context, teacherID uuid.UUID, windows []*model.AvailabilityWindow) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM teacher_availability WHERE teacher_id = $1`, teacherID); err != nil {
			return fmt.Errorf("clear availability windows: %w", err)
		}

		for _, w := range windows {
			err := tx.QueryRow(ctx, `
				INSERT INTO teacher_availability (teacher_id, weekday, start_time, end_time)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				teacherID, w.Weekday, w.StartTime, w.EndTime,
			).Scan(&w.ID)
			if err != nil {
				return fmt.Errorf("insert availability window: %w", err)
			}
			w.TeacherID = teacherID
		}

		return nil
	})
}

// ListBlackouts выходные дни учителя начиная с from
func (r *AvailabilityRepository) ListBlackouts(ctx context.Context, teacherID uuid.UUID, from schedule.Date) ([]*model.BlackoutDate, error) {
	query := `
		SELECT id, teacher_id, blackout_date, reason
		FROM teacher_blackout_dates
		WHERE teacher_id = $1 AND blackout_date >= $2
		ORDER BY blackout_date
	`

	rows, err := r.Query(ctx, query, teacherID, from)
	if err != nil {
		return nil, fmt.Errorf("get blackout dates: %w", err)
	}
	defer rows.Close()

	var blackouts []*model.BlackoutDate
	for rows.Next() {
		var b model.BlackoutDate
		if err := rows.Scan(&b.ID, &b.TeacherID, &b.Date, &b.Reason); err != nil {
			return nil, fmt.Errorf("scan blackout date: %w", err)
		}
		blackouts = append(blackouts, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blackout dates: %w", err)
	}

	return blackouts, nil
}

// IsBlackout выходной ли у учителя в эту дату
func (r *AvailabilityRepository) IsBlackout(ctx context.Context, teacherID uuid.UUID, date schedule.Date) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM teacher_blackout_dates WHERE teacher_id = $1 AND blackout_date = $2)`,
		teacherID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blackout date: %w", err)
	}
	return exists, nil
}

// AddBlackout добавляет выходной день
func (r *AvailabilityRepository) AddBlackout(ctx context.Context, b *model.BlackoutDate) error {
	query := `
		INSERT INTO teacher_blackout_dates (teacher_id, blackout_date, reason)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	if err := r.QueryRow(ctx, query, b.TeacherID, b.Date, b.Reason).Scan(&b.ID); err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("add blackout date: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("add blackout date: %w", err)
	}

	return nil
}

// DeleteBlackout удаляет выходной день учителя
func (r *AvailabilityRepository) DeleteBlackout(ctx context.Context, teacherID, id uuid.UUID) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`DELETE FROM teacher_blackout_dates WHERE id = $1 AND teacher_id = $2`,
		id, teacherID,
	)
	if err != nil {
		return false, fmt.Errorf("delete blackout date: %w", err)
	}
	return affected > 0, nil
}
