package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/Freeeeeet/musicschool/internal/service"
)

func TestCreateLessonValidation(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	actor := actorOf(teacher)
	ctx := context.Background()

	cases := []struct {
		name string
		in   service.CreateLessonInput
	}{
		{"missing everything", service.CreateLessonInput{}},
		{"missing time", service.CreateLessonInput{Title: "Scales", TeacherID: teacher.ID, ScheduledDate: mustDate(t, "2025-03-10")}},
		{"missing title", service.CreateLessonInput{TeacherID: teacher.ID, ScheduledDate: mustDate(t, "2025-03-10"), ScheduledTime: tod("10:00")}},
		{"negative duration", service.CreateLessonInput{Title: "Scales", TeacherID: teacher.ID, ScheduledDate: mustDate(t, "2025-03-10"), ScheduledTime: tod("10:00"), DurationMinutes: -30}},
		{"crosses midnight", service.CreateLessonInput{Title: "Late jam", TeacherID: teacher.ID, ScheduledDate: mustDate(t, "2025-03-10"), ScheduledTime: tod("23:30"), DurationMinutes: 60}},
		{"recurring without pattern", service.CreateLessonInput{Title: "Scales", TeacherID: teacher.ID, ScheduledDate: mustDate(t, "2025-03-10"), ScheduledTime: tod("10:00"), IsRecurring: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.lessonSvc.Create(ctx, actor, tc.in)
			require.Error(t, err)
			assert.Equal(t, service.KindValidation, service.KindOf(err))
		})
	}

	assert.Equal(t, 0, e.lessons.count())
}

func TestCreateLessonDefaultsAndStatus(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)

	l, err := e.lessonSvc.Create(context.Background(), actorOf(teacher), service.CreateLessonInput{
		Title:         "  Guitar  ",
		TeacherID:     teacher.ID,
		ScheduledDate: mustDate(t, "2025-03-10"),
		ScheduledTime: tod("00:00"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, l.ID)
	assert.Equal(t, "Guitar", l.Title)
	assert.Equal(t, model.LessonStatusScheduled, l.Status)
	assert.Equal(t, 60, l.DurationMinutes)
	assert.Equal(t, 1, l.MaxStudents)
}

func TestCreateLessonTeacherAndPermissions(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	otherTeacher := e.users.add(model.RoleTeacher)
	student := e.users.add(model.RoleStudent)
	admin := e.users.add(model.RoleAdmin)
	ctx := context.Background()

	in := func(teacherID uuid.UUID) service.CreateLessonInput {
		return service.CreateLessonInput{
			Title:           "Violin",
			TeacherID:       teacherID,
			ScheduledDate:   mustDate(t, "2025-03-10"),
			ScheduledTime:   tod("10:00"),
			DurationMinutes: 45,
		}
	}

	_, err := e.lessonSvc.Create(ctx, actorOf(admin), in(uuid.New()))
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	_, err = e.lessonSvc.Create(ctx, actorOf(admin), in(student.ID))
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	_, err = e.lessonSvc.Create(ctx, actorOf(otherTeacher), in(teacher.ID))
	assert.Equal(t, service.KindForbidden, service.KindOf(err))

	_, err = e.lessonSvc.Create(ctx, actorOf(student), in(teacher.ID))
	assert.Equal(t, service.KindForbidden, service.KindOf(err))

	_, err = e.lessonSvc.Create(ctx, actorOf(admin), in(teacher.ID))
	assert.NoError(t, err)
}

func TestCreateLessonConflicts(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	other := e.users.add(model.RoleTeacher)
	e.createLesson(t, teacher, "2025-03-10", "09:00", 60, 1)
	ctx := context.Background()

	create := func(u *model.User, start string) error {
		_, err := e.lessonSvc.Create(ctx, actorOf(u), service.CreateLessonInput{
			Title:           "Theory",
			TeacherID:       u.ID,
			ScheduledDate:   mustDate(t, "2025-03-10"),
			ScheduledTime:   tod(start),
			DurationMinutes: 60,
		})
		return err
	}

	err := create(teacher, "09:30")
	require.Error(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
	assert.ErrorIs(t, err, service.ErrConflict)

	// касание концами не пересечение
	assert.NoError(t, create(teacher, "10:00"))
	assert.NoError(t, create(teacher, "08:00"))

	// у другого учителя своё расписание
	assert.NoError(t, create(other, "09:30"))
}

func TestCreateLessonAvailability(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	ctx := context.Background()
	monday := mustDate(t, "2025-03-10")

	_, err := e.availabilitySvc.SetWindows(ctx, actorOf(teacher), teacher.ID, []service.WindowInput{
		{Weekday: int(time.Monday), StartTime: schedule.MustTimeOfDay("09:00"), EndTime: schedule.MustTimeOfDay("12:00")},
	})
	require.NoError(t, err)

	e.createLesson(t, teacher, "2025-03-10", "09:00", 60, 1)

	create := func(date schedule.Date, start string) error {
		_, err := e.lessonSvc.Create(ctx, actorOf(teacher), service.CreateLessonInput{
			Title:           "Solfeggio",
			TeacherID:       teacher.ID,
			ScheduledDate:   date,
			ScheduledTime:   tod(start),
			DurationMinutes: 30,
		})
		return err
	}

	assert.Equal(t, service.KindUnavailable, service.KindOf(create(monday, "13:00")))
	assert.Equal(t, service.KindUnavailable, service.KindOf(create(mustDate(t, "2025-03-11"), "10:00")))

	// пересечение проверяется раньше доступности
	e.availability.windows[teacher.ID] = nil
	_, err = e.availabilitySvc.AddBlackout(ctx, actorOf(teacher), teacher.ID, monday, nil)
	require.NoError(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(create(monday, "09:30")))
	assert.Equal(t, service.KindUnavailable, service.KindOf(create(monday, "11:00")))
}

func TestUpdateLessonExcludesItself(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	actor := actorOf(teacher)
	ctx := context.Background()

	lesson := e.createLesson(t, teacher, "2025-03-10", "09:00", 60, 1)
	e.createLesson(t, teacher, "2025-03-10", "11:00", 60, 1)
	e.checker.conflictArgs = nil

	t.Run("same values", func(t *testing.T) {
		date := lesson.ScheduledDate
		minutes := lesson.DurationMinutes
		updated, err := e.lessonSvc.Update(ctx, actor, lesson.ID, service.UpdateLessonInput{
			ScheduledDate:   &date,
			ScheduledTime:   tod("09:00"),
			DurationMinutes: &minutes,
		})
		require.NoError(t, err)
		assert.Equal(t, "09:00", updated.ScheduledTime.String())
	})

	t.Run("shift inside own window", func(t *testing.T) {
		updated, err := e.lessonSvc.Update(ctx, actor, lesson.ID, service.UpdateLessonInput{
			ScheduledTime: tod("09:30"),
		})
		require.NoError(t, err)
		assert.Equal(t, "09:30", updated.ScheduledTime.String())
		require.NotEmpty(t, e.checker.conflictArgs)
		assert.Equal(t, lesson.ID, e.checker.conflictArgs[len(e.checker.conflictArgs)-1])
	})

	t.Run("overlap with another lesson", func(t *testing.T) {
		minutes := 120
		_, err := e.lessonSvc.Update(ctx, actor, lesson.ID, service.UpdateLessonInput{
			DurationMinutes: &minutes,
		})
		assert.Equal(t, service.KindConflict, service.KindOf(err))

		stored, _ := e.lessons.GetByID(ctx, lesson.ID)
		assert.Equal(t, 60, stored.DurationMinutes)
	})

	t.Run("title only skips checks", func(t *testing.T) {
		before := len(e.checker.conflictArgs)
		title := "Piano advanced"
		updated, err := e.lessonSvc.Update(ctx, actor, lesson.ID, service.UpdateLessonInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Len(t, e.checker.conflictArgs, before)
	})
}

func TestUpdateAndDeletePermissions(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	stranger := e.users.add(model.RoleTeacher)
	admin := e.users.add(model.RoleAdmin)
	ctx := context.Background()

	lesson := e.createLesson(t, teacher, "2025-03-10", "09:00", 60, 1)

	title := "Hijacked"
	_, err := e.lessonSvc.Update(ctx, actorOf(stranger), lesson.ID, service.UpdateLessonInput{Title: &title})
	assert.Equal(t, service.KindForbidden, service.KindOf(err))

	_, err = e.lessonSvc.Update(ctx, actorOf(teacher), uuid.New(), service.UpdateLessonInput{Title: &title})
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	bad := model.LessonStatus("paused")
	_, err = e.lessonSvc.Update(ctx, actorOf(teacher), lesson.ID, service.UpdateLessonInput{Status: &bad})
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	assert.Equal(t, service.KindForbidden, service.KindOf(e.lessonSvc.Delete(ctx, actorOf(stranger), lesson.ID)))
	require.NoError(t, e.lessonSvc.Delete(ctx, actorOf(admin), lesson.ID))
	assert.Equal(t, service.KindNotFound, service.KindOf(e.lessonSvc.Delete(ctx, actorOf(admin), lesson.ID)))
}

func TestCancelledLessonFreesSlot(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	actor := actorOf(teacher)
	ctx := context.Background()

	first := e.createLesson(t, teacher, "2025-03-10", "09:00", 60, 1)

	cancelled := model.LessonStatusCancelled
	_, err := e.lessonSvc.Update(ctx, actor, first.ID, service.UpdateLessonInput{Status: &cancelled})
	require.NoError(t, err)

	e.createLesson(t, teacher, "2025-03-10", "09:00", 60, 1)

	// вернуть отменённое занятие на занятое место нельзя
	scheduled := model.LessonStatusScheduled
	_, err = e.lessonSvc.Update(ctx, actor, first.ID, service.UpdateLessonInput{Status: &scheduled})
	assert.Equal(t, service.KindConflict, service.KindOf(err))
}

func TestListAndGetDerivedFlags(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	student := e.users.add(model.RoleStudent)
	ctx := context.Background()

	link := "https://meet.example.com/piano"
	lesson, err := e.lessonSvc.Create(ctx, actorOf(teacher), service.CreateLessonInput{
		Title:           "Piano",
		TeacherID:       teacher.ID,
		ScheduledDate:   mustDate(t, "2025-03-10"),
		ScheduledTime:   tod("14:00"),
		DurationMinutes: 60,
		MeetingLink:     &link,
	})
	require.NoError(t, err)

	e.clock.Set(t, "2025-03-10T14:10:00")

	views, total, err := e.lessonSvc.List(ctx, actorOf(student), model.LessonFilter{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.EqualValues(t, 1, total)
	assert.True(t, views[0].IsToday)
	assert.True(t, views[0].IsLive)
	assert.True(t, views[0].CanJoin)
	assert.False(t, views[0].HasEnded)
	assert.Nil(t, views[0].MeetingLink)

	details, err := e.lessonSvc.Get(ctx, actorOf(teacher), lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, details.MeetingLink)
	assert.Equal(t, link, *details.MeetingLink)
	assert.Equal(t, time.Date(2025, 3, 10, 13, 45, 0, 0, time.UTC), details.CanJoinFrom)

	// редактирование для ученика не портит исходную запись
	stored, _ := e.lessons.GetByID(ctx, lesson.ID)
	assert.NotNil(t, stored.MeetingLink)

	_, err = e.lessonSvc.Get(ctx, actorOf(student), uuid.New())
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	empty, total, err := e.lessonSvc.List(ctx, actorOf(student), model.LessonFilter{TeacherID: &student.ID})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, total)
}

func TestListByStudentRestrictedToSelf(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	lesson, student := enrolledLesson(t, e)
	classmate := e.users.add(model.RoleStudent)

	_, _, err := e.lessonSvc.List(ctx, actorOf(classmate), model.LessonFilter{StudentID: &student.ID})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, _, err = e.lessonSvc.List(ctx, actorOf(student), model.LessonFilter{StudentID: &student.ID})
	assert.NoError(t, err)

	owner, _ := e.users.GetByID(ctx, lesson.TeacherID)
	_, _, err = e.lessonSvc.List(ctx, actorOf(owner), model.LessonFilter{StudentID: &student.ID})
	assert.NoError(t, err)
}

func TestEnrollCapacity(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	s1 := e.users.add(model.RoleStudent)
	s2 := e.users.add(model.RoleStudent)
	ctx := context.Background()

	lesson := e.createLesson(t, teacher, "2025-03-10", "14:00", 60, 1)

	first, err := e.lessonSvc.Enroll(ctx, actorOf(s1), lesson.ID, s1.ID)
	require.NoError(t, err)

	again, err := e.lessonSvc.Enroll(ctx, actorOf(s1), lesson.ID, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = e.lessonSvc.Enroll(ctx, actorOf(s2), lesson.ID, s2.ID)
	assert.Equal(t, service.KindConflict, service.KindOf(err))

	_, err = e.lessonSvc.Enroll(ctx, actorOf(teacher), lesson.ID, uuid.Nil)
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	_, err = e.lessonSvc.Enroll(ctx, actorOf(s2), uuid.New(), s2.ID)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	e.clock.Set(t, "2025-03-10T16:00:00")
	late := e.createLesson(t, teacher, "2025-03-10", "15:00", 30, 5)
	_, err = e.lessonSvc.Enroll(ctx, actorOf(s2), late.ID, s2.ID)
	assert.Equal(t, service.KindEnded, service.KindOf(err))
}

func TestGenerateRecurringOccurrences(t *testing.T) {
	e := newEnv(t)
	teacher := e.users.add(model.RoleTeacher)
	ctx := context.Background()

	weekly := schedule.RecurrenceWeekly
	template, err := e.lessonSvc.Create(ctx, actorOf(teacher), service.CreateLessonInput{
		Title:             "Weekly ensemble",
		TeacherID:         teacher.ID,
		ScheduledDate:     mustDate(t, "2025-03-03"),
		ScheduledTime:     tod("10:00"),
		DurationMinutes:   60,
		MaxStudents:       4,
		IsRecurring:       true,
		RecurrencePattern: &weekly,
	})
	require.NoError(t, err)

	// 17 марта уже занято другим занятием
	e.createLesson(t, teacher, "2025-03-17", "10:30", 30, 1)

	created, err := e.lessonSvc.GenerateRecurringOccurrences(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	exists, _ := e.lessons.OccurrenceExists(ctx, template.ID, mustDate(t, "2025-03-10"))
	assert.True(t, exists)
	exists, _ = e.lessons.OccurrenceExists(ctx, template.ID, mustDate(t, "2025-03-17"))
	assert.False(t, exists)

	// повторный запуск ничего не дублирует
	created, err = e.lessonSvc.GenerateRecurringOccurrences(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, created)
}
