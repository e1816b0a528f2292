package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/service"
)

// Ошибки разбора команд
var (
	ErrNoArgument  = errors.New("command argument is missing")
	ErrInvalidID   = errors.New("invalid lesson id")
	ErrNotAStudent = errors.New("user is not a student")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoArgument):
		return "❌ Укажите id занятия, например: /join 3f2b...\n\nСписок занятий: /lessons"
	case errors.Is(err, ErrInvalidID):
		return "❌ Неверный id занятия"
	case errors.Is(err, ErrNotAStudent):
		return "❌ Эта команда доступна только ученикам"
	}

	var tooEarly *service.TooEarlyError
	if errors.As(err, &tooEarly) {
		return fmt.Sprintf("⏳ Вход откроется через %s, в %s",
			FormatDuration(tooEarly.MinutesUntilJoin),
			tooEarly.JoinAllowedAt.Format("15:04"))
	}

	switch service.KindOf(err) {
	case service.KindNotFound:
		return "❌ Занятие не найдено"
	case service.KindForbidden:
		return "❌ Вы не записаны на это занятие"
	case service.KindEnded:
		return "⚫️ Занятие уже закончилось или отменено"
	case service.KindValidation:
		return "❌ " + err.Error()
	default:
		return "❌ Произошла ошибка"
	}
}

// commandArg первый аргумент команды: "/join <id>" -> id
func commandArg(text string) (uuid.UUID, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return uuid.Nil, ErrNoArgument
	}
	id, err := uuid.Parse(fields[1])
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// LessonStatusDisplay представляет отображение статуса занятия
type LessonStatusDisplay struct {
	Emoji string
	Text  string
}

// GetLessonStatusDisplay возвращает emoji и текст для статуса занятия
func GetLessonStatusDisplay(status model.LessonStatus) LessonStatusDisplay {
	displays := map[model.LessonStatus]LessonStatusDisplay{
		model.LessonStatusScheduled:  {"🗓", "Запланировано"},
		model.LessonStatusInProgress: {"🟢", "Идёт"},
		model.LessonStatusCompleted:  {"✔️", "Завершено"},
		model.LessonStatusCancelled:  {"❌", "Отменено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return LessonStatusDisplay{"❓", "Неизвестно"}
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// FormatLesson строка занятия в списке /lessons
func FormatLesson(v model.LessonView) string {
	display := GetLessonStatusDisplay(v.Status)
	if v.IsLive {
		display = LessonStatusDisplay{"🟢", "Идёт сейчас"}
	}

	text := fmt.Sprintf(
		"%s %s\n📅 %s %s-%s (%s)\n📊 %s\n🆔 %s",
		display.Emoji,
		v.Title,
		v.StartsAt.Format("02.01.2006"),
		v.StartsAt.Format("15:04"),
		v.EndsAt.Format("15:04"),
		FormatDuration(v.DurationMinutes),
		display.Text,
		v.ID,
	)
	if v.CanJoin && !v.HasEnded && !v.IsCancelled() {
		text += fmt.Sprintf("\n👉 /join %s", v.ID)
	}
	return text
}

// FormatJoin ответ на успешный вход
func FormatJoin(r *service.JoinResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Вы на занятии «%s»\n", r.Title)
	if r.MeetingLink != nil {
		fmt.Fprintf(&b, "\n🔗 %s", *r.MeetingLink)
	}
	if r.MeetingPassword != nil {
		fmt.Fprintf(&b, "\n🔑 Пароль: %s", *r.MeetingPassword)
	}
	if r.Materials != nil {
		fmt.Fprintf(&b, "\n📎 Материалы: %s", *r.Materials)
	}
	fmt.Fprintf(&b, "\n\nКогда закончите: /leave %s", r.LessonID)
	return b.String()
}
