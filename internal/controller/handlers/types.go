package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/service"
)

// Sender часть *bot.Bot, через которую обработчики отвечают пользователю
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type UserService interface {
	RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type LessonService interface {
	List(ctx context.Context, actor model.Actor, filter model.LessonFilter) ([]model.LessonView, int64, error)
}

type AttendanceService interface {
	Join(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*service.JoinResult, error)
	Leave(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*service.LeaveResult, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService       UserService
	lessonService     LessonService
	attendanceService AttendanceService
	location          *time.Location
	now               func() time.Time
	logger            *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService UserService,
	lessonService LessonService,
	attendanceService AttendanceService,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	if location == nil {
		location = time.Local
	}
	return &Handlers{
		userService:       userService,
		lessonService:     lessonService,
		attendanceService: attendanceService,
		location:          location,
		now:               time.Now,
		logger:            logger,
	}
}
