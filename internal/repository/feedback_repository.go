package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/repository/base"
)

type FeedbackRepository struct {
	*base.Repository
}

func NewFeedbackRepository(b *base.Repository) *FeedbackRepository {
	return &FeedbackRepository{Repository: b}
}

// Upsert один отзыв на пару (lesson, student), повторная отправка заменяет оценку
func (r *FeedbackRepository) Upsert(ctx context.Context, f *model.LessonFeedback) error {
	query := `
		INSERT INTO lesson_feedback (lesson_id, student_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lesson_id, student_id) DO UPDATE
		SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, created_at = NOW()
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, f.LessonID, f.StudentID, f.Rating, f.Comment).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert feedback: %w", err)
	}

	return nil
}
