package api

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/Freeeeeet/musicschool/internal/service"
)

type createLessonRequest struct {
	Title             string  `json:"title" validate:"required,max=200"`
	Description       *string `json:"description" validate:"omitempty,max=5000"`
	TeacherID         string  `json:"teacher_id" validate:"omitempty,uuid"`
	LessonContentID   *string `json:"lesson_content_id" validate:"omitempty,uuid"`
	ScheduledDate     string  `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime     string  `json:"scheduled_time" validate:"required"`
	DurationMinutes   int     `json:"duration_minutes" validate:"omitempty,min=1,max=720"`
	MaxStudents       int     `json:"max_students" validate:"omitempty,min=1,max=500"`
	MeetingLink       *string `json:"meeting_link" validate:"omitempty,url"`
	MeetingPassword   *string `json:"meeting_password" validate:"omitempty,max=100"`
	Requirements      *string `json:"requirements"`
	Materials         *string `json:"materials"`
	Notes             *string `json:"notes"`
	IsRecurring       bool    `json:"is_recurring"`
	RecurrencePattern *string `json:"recurrence_pattern" validate:"omitempty,oneof=daily weekly monthly"`
	RecurrenceEndDate *string `json:"recurrence_end_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r createLessonRequest) input(actor model.Actor) (service.CreateLessonInput, error) {
	in := service.CreateLessonInput{
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		MaxStudents:     r.MaxStudents,
		MeetingLink:     r.MeetingLink,
		MeetingPassword: r.MeetingPassword,
		Requirements:    r.Requirements,
		Materials:       r.Materials,
		Notes:           r.Notes,
		IsRecurring:     r.IsRecurring,
	}

	// учитель по умолчанию ставит занятие себе
	switch {
	case r.TeacherID != "":
		in.TeacherID = uuid.MustParse(r.TeacherID)
	case actor.Role == model.RoleTeacher:
		in.TeacherID = actor.UserID
	}

	var err error
	if in.LessonContentID, err = parseOptionalUUID(r.LessonContentID); err != nil {
		return in, err
	}
	if in.ScheduledDate, err = schedule.ParseDate(r.ScheduledDate); err != nil {
		return in, err
	}
	start, err := schedule.ParseTimeOfDay(r.ScheduledTime)
	if err != nil {
		return in, err
	}
	in.ScheduledTime = &start

	if in.RecurrencePattern, err = parseOptionalRecurrence(r.RecurrencePattern); err != nil {
		return in, err
	}
	if in.RecurrenceEndDate, err = parseOptionalDate(r.RecurrenceEndDate); err != nil {
		return in, err
	}

	return in, nil
}

type updateLessonRequest struct {
	Title             *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description       *string `json:"description" validate:"omitempty,max=5000"`
	LessonContentID   *string `json:"lesson_content_id" validate:"omitempty,uuid"`
	ScheduledDate     *string `json:"scheduled_date" validate:"omitempty,datetime=2006-01-02"`
	ScheduledTime     *string `json:"scheduled_time"`
	DurationMinutes   *int    `json:"duration_minutes" validate:"omitempty,min=1,max=720"`
	MaxStudents       *int    `json:"max_students" validate:"omitempty,min=1,max=500"`
	Status            *string `json:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	MeetingLink       *string `json:"meeting_link" validate:"omitempty,url"`
	MeetingPassword   *string `json:"meeting_password" validate:"omitempty,max=100"`
	Requirements      *string `json:"requirements"`
	Materials         *string `json:"materials"`
	Notes             *string `json:"notes"`
	IsRecurring       *bool   `json:"is_recurring"`
	RecurrencePattern *string `json:"recurrence_pattern" validate:"omitempty,oneof=daily weekly monthly"`
	RecurrenceEndDate *string `json:"recurrence_end_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r updateLessonRequest) input() (service.UpdateLessonInput, error) {
	in := service.UpdateLessonInput{
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		MaxStudents:     r.MaxStudents,
		MeetingLink:     r.MeetingLink,
		MeetingPassword: r.MeetingPassword,
		Requirements:    r.Requirements,
		Materials:       r.Materials,
		Notes:           r.Notes,
		IsRecurring:     r.IsRecurring,
	}

	var err error
	if in.LessonContentID, err = parseOptionalUUID(r.LessonContentID); err != nil {
		return in, err
	}
	if in.ScheduledDate, err = parseOptionalDate(r.ScheduledDate); err != nil {
		return in, err
	}
	if r.ScheduledTime != nil {
		start, err := schedule.ParseTimeOfDay(*r.ScheduledTime)
		if err != nil {
			return in, err
		}
		in.ScheduledTime = &start
	}
	if r.Status != nil {
		status := model.LessonStatus(*r.Status)
		in.Status = &status
	}
	if in.RecurrencePattern, err = parseOptionalRecurrence(r.RecurrencePattern); err != nil {
		return in, err
	}
	if in.RecurrenceEndDate, err = parseOptionalDate(r.RecurrenceEndDate); err != nil {
		return in, err
	}

	return in, nil
}

// listLessonsQuery фильтры GET /lessons
type listLessonsQuery struct {
	TeacherID string `query:"teacher_id" validate:"omitempty,uuid"`
	StudentID string `query:"student_id" validate:"omitempty,uuid"`
	Date      string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	DateFrom  string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Status    string `query:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
}

func (q listLessonsQuery) filter(p Paging) (model.LessonFilter, error) {
	f := model.LessonFilter{Limit: p.PerPage, Offset: p.Offset}

	var err error
	if f.TeacherID, err = parseOptionalUUID(optional(q.TeacherID)); err != nil {
		return f, err
	}
	if f.StudentID, err = parseOptionalUUID(optional(q.StudentID)); err != nil {
		return f, err
	}
	if f.Date, err = parseOptionalDate(optional(q.Date)); err != nil {
		return f, err
	}
	if f.DateFrom, err = parseOptionalDate(optional(q.DateFrom)); err != nil {
		return f, err
	}
	if f.DateTo, err = parseOptionalDate(optional(q.DateTo)); err != nil {
		return f, err
	}
	if q.Status != "" {
		status := model.LessonStatus(q.Status)
		f.Status = &status
	}
	return f, nil
}

// studentRequest тело join/leave/enroll; ученик может не указывать свой id
type studentRequest struct {
	StudentID *string `json:"student_id" validate:"omitempty,uuid"`
}

type feedbackRequest struct {
	StudentID *string `json:"student_id" validate:"omitempty,uuid"`
	Rating    int     `json:"rating" validate:"required,min=1,max=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

type windowRequest struct {
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type setWindowsRequest struct {
	Windows []windowRequest `json:"windows" validate:"dive"`
}

func (r setWindowsRequest) input() ([]service.WindowInput, error) {
	out := make([]service.WindowInput, 0, len(r.Windows))
	for i, w := range r.Windows {
		start, err := schedule.ParseTimeOfDay(w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("windows[%d].start_time: %w", i, err)
		}
		end, err := parseEndOfWindow(w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("windows[%d].end_time: %w", i, err)
		}
		out = append(out, service.WindowInput{Weekday: w.Weekday, StartTime: start, EndTime: end})
	}
	return out, nil
}

type blackoutRequest struct {
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}

// parseEndOfWindow как ParseTimeOfDay, но принимает 24:00 как конец дня
func parseEndOfWindow(s string) (schedule.TimeOfDay, error) {
	if v := strings.TrimSpace(s); v == "24:00" || v == "24:00:00" {
		return schedule.MustTimeOfDay("00:00").AddMinutes(24 * 60)
	}
	return schedule.ParseTimeOfDay(s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q", *s)
	}
	return &id, nil
}

func parseOptionalDate(s *string) (*schedule.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := schedule.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalRecurrence(s *string) (*schedule.Recurrence, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	r, err := schedule.ParseRecurrence(*s)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
