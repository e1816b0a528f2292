package api

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/Freeeeeet/musicschool/internal/service"
)

type LessonService interface {
	List(ctx context.Context, actor model.Actor, filter model.LessonFilter) ([]model.LessonView, int64, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.LessonDetails, error)
	Create(ctx context.Context, actor model.Actor, in service.CreateLessonInput) (*model.ScheduledLesson, error)
	Update(ctx context.Context, actor model.Actor, id uuid.UUID, in service.UpdateLessonInput) (*model.ScheduledLesson, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	Enroll(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*model.LessonEnrollment, error)
}

type AttendanceService interface {
	Join(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*service.JoinResult, error)
	Leave(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID) (*service.LeaveResult, error)
}

type FeedbackService interface {
	Submit(ctx context.Context, actor model.Actor, lessonID, studentID uuid.UUID, rating int, comment *string) (*model.LessonFeedback, error)
}

type AvailabilityService interface {
	Get(ctx context.Context, teacherID uuid.UUID) (*service.Availability, error)
	SetWindows(ctx context.Context, actor model.Actor, teacherID uuid.UUID, in []service.WindowInput) ([]*model.AvailabilityWindow, error)
	AddBlackout(ctx context.Context, actor model.Actor, teacherID uuid.UUID, date schedule.Date, reason *string) (*model.BlackoutDate, error)
	DeleteBlackout(ctx context.Context, actor model.Actor, teacherID, blackoutID uuid.UUID) error
}

type UserService interface {
	SetRole(ctx context.Context, actor model.Actor, userID uuid.UUID, role model.Role) (*model.User, error)
}

// Services зависимости HTTP-слоя
type Services struct {
	Lessons      LessonService
	Attendance   AttendanceService
	Feedback     FeedbackService
	Availability AvailabilityService
	Users        UserService
}

var validate = newValidator()

// newValidator ошибки по полям называются так же, как в JSON
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

type handler struct {
	svc    Services
	logger *zap.Logger
}

// bind разбирает и валидирует JSON-тело. Пустое тело допустимо, если allowEmpty.
func bind(c *fiber.Ctx, dst interface{}, allowEmpty bool) error {
	if len(c.Body()) == 0 {
		if !allowEmpty {
			return errEmptyBody
		}
	} else if err := c.BodyParser(dst); err != nil {
		return errInvalidBody
	}
	return validate.Struct(dst)
}

func pathUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// resolveStudentID ученик действует только от своего имени; учитель и админ передают student_id явно.
// Право учителя на конкретное занятие проверяет сервис.
func resolveStudentID(actor model.Actor, raw *string) (uuid.UUID, error) {
	if raw == nil || *raw == "" {
		if actor.IsStudent() {
			return actor.UserID, nil
		}
		return uuid.Nil, &service.Error{Kind: service.KindValidation, Message: "student_id is required"}
	}

	id, err := uuid.Parse(*raw)
	if err != nil {
		return uuid.Nil, &service.Error{Kind: service.KindValidation, Message: "student_id must be a valid uuid"}
	}
	if actor.IsStudent() && id != actor.UserID {
		return uuid.Nil, &service.Error{Kind: service.KindForbidden, Message: "students can act only on their own behalf"}
	}
	return id, nil
}

var (
	errEmptyBody   = errors.New("request body is required")
	errInvalidBody = errors.New("request body must be valid JSON")
)
