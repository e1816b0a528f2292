package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo UserStore
	logger   *zap.Logger
}

func NewUserService(userRepo UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя из Telegram
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	// Проверяем существует ли пользователь
	existingUser, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName

		err = s.userRepo.Update(ctx, existingUser)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Debug("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)

		return existingUser, nil
	}

	// Создаём нового пользователя
	user := &model.User{
		TelegramID: &telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       model.RoleStudent, // По умолчанию ученик
	}

	err = s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.String("user_id", user.ID.String()),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// SetRole меняет роль пользователя; доступно только администратору
func (s *UserService) SetRole(ctx context.Context, actor model.Actor, userID uuid.UUID, role model.Role) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("only an admin can change roles")
	}

	switch role {
	case model.RoleStudent, model.RoleTeacher, model.RoleAdmin:
	default:
		return nil, validationError("unknown role %q", role)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user")
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
		zap.String("actor_id", actor.UserID.String()),
	)

	return user, nil
}
