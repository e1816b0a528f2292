package service

import (
	"errors"
	"fmt"
	"time"
)

// Kind класс бизнес-ошибки; по нему транспорт выбирает ответ
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
	KindTooEarly    Kind = "too_early"
	KindEnded       Kind = "ended"
	KindInternal    Kind = "internal"
)

// Error ошибка бизнес-правила с сообщением для пользователя
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is позволяет сравнивать с шаблонами вида &Error{Kind: KindConflict}
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// TooEarlyError вход раньше чем за 15 минут до начала
type TooEarlyError struct {
	MinutesUntilJoin int
	JoinAllowedAt    time.Time
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("lesson can be joined in %d min (at %s)", e.MinutesUntilJoin, e.JoinAllowedAt.Format(time.RFC3339))
}

// Шаблоны для errors.Is
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrForbidden   = &Error{Kind: KindForbidden}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrUnavailable = &Error{Kind: KindUnavailable}
	ErrEnded       = &Error{Kind: KindEnded}
)

func newError(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

func notFound(what string) error {
	return newError(KindNotFound, "%s not found", what)
}

func forbidden(format string, args ...interface{}) error {
	return newError(KindForbidden, format, args...)
}

// KindOf классифицирует любую ошибку; всё неизвестное считается внутренней
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var tooEarly *TooEarlyError
	if errors.As(err, &tooEarly) {
		return KindTooEarly
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}
