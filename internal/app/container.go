package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/config"
	"github.com/Freeeeeet/musicschool/internal/repository"
	"github.com/Freeeeeet/musicschool/internal/repository/base"
	"github.com/Freeeeeet/musicschool/internal/service"
)

// Container пул соединений и собранные поверх него сервисы
type Container struct {
	Pool *pgxpool.Pool

	Users        *service.UserService
	Lessons      *service.LessonService
	Attendance   *service.AttendanceService
	Feedback     *service.FeedbackService
	Availability *service.AvailabilityService
}

// NewPool подключается к PostgreSQL и проверяет соединение
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewContainer собирает репозитории и сервисы
func NewContainer(pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) *Container {
	b := base.NewRepository(pool)

	userRepo := repository.NewUserRepository(b)
	lessonRepo := repository.NewLessonRepository(b)
	enrollmentRepo := repository.NewEnrollmentRepository(b)
	attendanceRepo := repository.NewAttendanceRepository(b)
	feedbackRepo := repository.NewFeedbackRepository(b)
	availabilityRepo := repository.NewAvailabilityRepository(b)
	scheduleRepo := repository.NewScheduleRepository(lessonRepo, availabilityRepo)

	clock := service.SystemClock{}
	loc := cfg.Location()

	return &Container{
		Pool:         pool,
		Users:        service.NewUserService(userRepo, logger.Named("users")),
		Lessons:      service.NewLessonService(lessonRepo, enrollmentRepo, userRepo, scheduleRepo, clock, loc, logger.Named("lessons")),
		Attendance:   service.NewAttendanceService(lessonRepo, enrollmentRepo, attendanceRepo, clock, loc, logger.Named("attendance")),
		Feedback:     service.NewFeedbackService(lessonRepo, enrollmentRepo, feedbackRepo, clock, loc, logger.Named("feedback")),
		Availability: service.NewAvailabilityService(availabilityRepo, userRepo, clock, loc, logger.Named("availability")),
	}
}

// Close закрывает пул
func (c *Container) Close() {
	c.Pool.Close()
}
