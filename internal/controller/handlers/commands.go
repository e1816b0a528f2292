package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
)

const lessonsPerMessage = 10

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, s Sender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
	)

	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, s, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Это расписание музыкальной школы.\n\n"+
			"Доступные команды:\n"+
			"/lessons - Ближайшие занятия\n"+
			"/join <id> - Войти на занятие\n"+
			"/leave <id> - Выйти с занятия\n"+
			"/help - Справка",
		registeredUser.FirstName,
	)

	h.sendMessage(ctx, s, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, s Sender, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Начать работу с ботом\n" +
		"/lessons - Ближайшие занятия\n" +
		"/join <id> - Войти на занятие (за 15 минут до начала и до конца)\n" +
		"/leave <id> - Выйти с занятия, время присутствия сохранится\n" +
		"/help - Показать эту справку"

	h.sendMessage(ctx, s, update.Message.Chat.ID, helpText)
}

// HandleLessons обрабатывает команду /lessons: занятия с сегодняшнего дня
func (h *Handlers) HandleLessons(ctx context.Context, s Sender, update *models.Update) {
	user, ok := h.requireUser(ctx, s, update)
	if !ok {
		return
	}

	today := schedule.DateOf(h.now().In(h.location))
	filter := model.LessonFilter{DateFrom: &today, Limit: lessonsPerMessage}
	switch user.Role {
	case model.RoleStudent:
		filter.StudentID = &user.ID
	case model.RoleTeacher:
		filter.TeacherID = &user.ID
	}

	lessons, total, err := h.lessonService.List(ctx, actorOf(user), filter)
	if err != nil {
		h.logger.Error("Failed to list lessons",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		h.sendMessage(ctx, s, update.Message.Chat.ID, ErrorMessage(err))
		return
	}

	if len(lessons) == 0 {
		h.sendMessage(ctx, s, update.Message.Chat.ID, "📭 Ближайших занятий нет")
		return
	}

	parts := make([]string, 0, len(lessons))
	for _, l := range lessons {
		parts = append(parts, FormatLesson(l))
	}

	text := "🗓 Ближайшие занятия\n\n" + strings.Join(parts, "\n\n")
	if total > int64(len(lessons)) {
		text += fmt.Sprintf("\n\n…и ещё %d", total-int64(len(lessons)))
	}

	h.sendMessage(ctx, s, update.Message.Chat.ID, text)
}

// HandleJoin обрабатывает команду /join <id>
func (h *Handlers) HandleJoin(ctx context.Context, s Sender, update *models.Update) {
	user, ok := h.requireStudent(ctx, s, update)
	if !ok {
		return
	}

	lessonID, err := commandArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, s, update.Message.Chat.ID, ErrorMessage(err))
		return
	}

	result, err := h.attendanceService.Join(ctx, actorOf(user), lessonID, user.ID)
	if err != nil {
		h.logger.Info("Join rejected",
			zap.String("lesson_id", lessonID.String()),
			zap.String("student_id", user.ID.String()),
			zap.Error(err))
		h.sendMessage(ctx, s, update.Message.Chat.ID, ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, s, update.Message.Chat.ID, FormatJoin(result))
}

// HandleLeave обрабатывает команду /leave <id>
func (h *Handlers) HandleLeave(ctx context.Context, s Sender, update *models.Update) {
	user, ok := h.requireStudent(ctx, s, update)
	if !ok {
		return
	}

	lessonID, err := commandArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, s, update.Message.Chat.ID, ErrorMessage(err))
		return
	}

	result, err := h.attendanceService.Leave(ctx, actorOf(user), lessonID, user.ID)
	if err != nil {
		h.sendMessage(ctx, s, update.Message.Chat.ID, ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, s, update.Message.Chat.ID,
		fmt.Sprintf("👋 Вы вышли с занятия. Время на занятии: %s", FormatDuration(result.DurationMinutes)))
}

// requireStudent join/leave доступны только ученикам
func (h *Handlers) requireStudent(ctx context.Context, s Sender, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, s, update)
	if !ok {
		return nil, false
	}

	if user.Role != model.RoleStudent {
		h.sendMessage(ctx, s, update.Message.Chat.ID, ErrorMessage(ErrNotAStudent))
		return nil, false
	}

	return user, true
}
