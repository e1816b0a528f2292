package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/musicschool/internal/model"
	"github.com/Freeeeeet/musicschool/internal/repository"
	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/Freeeeeet/musicschool/internal/service"
)

type pairKey struct {
	lessonID  uuid.UUID
	studentID uuid.UUID
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Set(t *testing.T, s string) {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	require.NoError(t, err)
	c.now = ts
}

// fakeLessons in-memory хранилище занятий
type fakeLessons struct {
	mu              sync.Mutex
	rows            map[uuid.UUID]*model.ScheduledLesson
	updateStatusErr error
	statusUpdates   int
}

func newFakeLessons() *fakeLessons {
	return &fakeLessons{rows: map[uuid.UUID]*model.ScheduledLesson{}}
}

func (f *fakeLessons) Create(_ context.Context, l *model.ScheduledLesson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	c := *l
	f.rows[l.ID] = &c
	return nil
}

func (f *fakeLessons) GetByID(_ context.Context, id uuid.UUID) (*model.ScheduledLesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (f *fakeLessons) List(_ context.Context, filter model.LessonFilter) ([]*model.ScheduledLesson, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ScheduledLesson
	for _, l := range f.rows {
		if filter.TeacherID != nil && l.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.Date != nil && l.ScheduledDate != *filter.Date {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out, int64(len(out)), nil
}

func (f *fakeLessons) Update(_ context.Context, l *model.ScheduledLesson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[l.ID]; !ok {
		return errors.New("lesson not found")
	}
	c := *l
	f.rows[l.ID] = &c
	return nil
}

func (f *fakeLessons) UpdateStatus(_ context.Context, id uuid.UUID, status model.LessonStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates++
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	l, ok := f.rows[id]
	if !ok {
		return errors.New("lesson not found")
	}
	l.Status = status
	return nil
}

func (f *fakeLessons) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeLessons) ListRecurringTemplates(_ context.Context) ([]*model.ScheduledLesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ScheduledLesson
	for _, l := range f.rows {
		if l.IsRecurring && l.RecurrencePattern != nil && l.ParentLessonID == nil && !l.IsCancelled() {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeLessons) OccurrenceExists(_ context.Context, parentID uuid.UUID, date schedule.Date) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.rows {
		if l.ParentLessonID != nil && *l.ParentLessonID == parentID && l.ScheduledDate == date {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLessons) GetStats(_ context.Context, _ uuid.UUID) (*model.LessonStats, error) {
	return &model.LessonStats{}, nil
}

func (f *fakeLessons) ListByTeacherAndDate(_ context.Context, teacherID uuid.UUID, date schedule.Date) ([]*model.ScheduledLesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ScheduledLesson
	for _, l := range f.rows {
		if l.TeacherID == teacherID && l.ScheduledDate == date && !l.IsCancelled() {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeLessons) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeEnrollments struct {
	mu   sync.Mutex
	rows map[pairKey]*model.LessonEnrollment
}

func newFakeEnrollments() *fakeEnrollments {
	return &fakeEnrollments{rows: map[pairKey]*model.LessonEnrollment{}}
}

func (f *fakeEnrollments) Upsert(_ context.Context, e *model.LessonEnrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{e.LessonID, e.StudentID}
	if existing, ok := f.rows[key]; ok {
		e.ID = existing.ID
	} else {
		e.ID = uuid.New()
	}
	e.EnrolledAt = time.Now()
	c := *e
	f.rows[key] = &c
	return nil
}

func (f *fakeEnrollments) GetActive(_ context.Context, lessonID, studentID uuid.UUID) (*model.LessonEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[pairKey{lessonID, studentID}]
	if !ok || !e.IsActive() {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (f *fakeEnrollments) CountActive(_ context.Context, lessonID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k, e := range f.rows {
		if k.lessonID == lessonID && e.IsActive() {
			n++
		}
	}
	return n, nil
}

type fakeAttendance struct {
	mu   sync.Mutex
	rows map[pairKey]*model.LessonAttendance
}

func newFakeAttendance() *fakeAttendance {
	return &fakeAttendance{rows: map[pairKey]*model.LessonAttendance{}}
}

func (f *fakeAttendance) UpsertJoin(_ context.Context, a *model.LessonAttendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{a.LessonID, a.StudentID}
	if existing, ok := f.rows[key]; ok {
		existing.JoinedAt = a.JoinedAt
		existing.AttendanceStatus = a.AttendanceStatus
		a.ID = existing.ID
		a.LeftAt = existing.LeftAt
		a.DurationMinutes = existing.DurationMinutes
		return nil
	}
	a.ID = uuid.New()
	c := *a
	f.rows[key] = &c
	return nil
}

func (f *fakeAttendance) Get(_ context.Context, lessonID, studentID uuid.UUID) (*model.LessonAttendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[pairKey{lessonID, studentID}]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (f *fakeAttendance) UpdateLeave(_ context.Context, a *model.LessonAttendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == a.ID {
			row.LeftAt = a.LeftAt
			row.DurationMinutes = a.DurationMinutes
			return nil
		}
	}
	return errors.New("attendance not found")
}

func (f *fakeAttendance) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeFeedback struct {
	rows map[pairKey]*model.LessonFeedback
}

func (f *fakeFeedback) Upsert(_ context.Context, fb *model.LessonFeedback) error {
	if f.rows == nil {
		f.rows = map[pairKey]*model.LessonFeedback{}
	}
	fb.ID = uuid.New()
	fb.CreatedAt = time.Now()
	c := *fb
	f.rows[pairKey{fb.LessonID, fb.StudentID}] = &c
	return nil
}

type fakeUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[uuid.UUID]*model.User{}}
}

func (f *fakeUsers) add(role model.Role) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &model.User{ID: uuid.New(), Role: role, FirstName: string(role)}
	f.rows[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uuid.New()
	c := *u
	f.rows[u.ID] = &c
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[u.ID]; !ok {
		return errors.New("user not found")
	}
	c := *u
	f.rows[u.ID] = &c
	return nil
}

func (f *fakeUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

type fakeAvailability struct {
	mu        sync.Mutex
	windows   map[uuid.UUID][]*model.AvailabilityWindow
	blackouts map[uuid.UUID][]*model.BlackoutDate
}

func newFakeAvailability() *fakeAvailability {
	return &fakeAvailability{
		windows:   map[uuid.UUID][]*model.AvailabilityWindow{},
		blackouts: map[uuid.UUID][]*model.BlackoutDate{},
	}
}

func (f *fakeAvailability) ListWindows(_ context.Context, teacherID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[teacherID], nil
}

func (f *fakeAvailability) ReplaceWindows(_ context.Context, teacherID uuid.UUID, windows []*model.AvailabilityWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range windows {
		w.ID = uuid.New()
	}
	f.windows[teacherID] = windows
	return nil
}

func (f *fakeAvailability) ListBlackouts(_ context.Context, teacherID uuid.UUID, from schedule.Date) ([]*model.BlackoutDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BlackoutDate
	for _, b := range f.blackouts[teacherID] {
		if !b.Date.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeAvailability) AddBlackout(_ context.Context, b *model.BlackoutDate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.blackouts[b.TeacherID] {
		if existing.Date == b.Date {
			return model.ErrAlreadyExists
		}
	}
	b.ID = uuid.New()
	f.blackouts[b.TeacherID] = append(f.blackouts[b.TeacherID], b)
	return nil
}

func (f *fakeAvailability) DeleteBlackout(_ context.Context, teacherID, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.blackouts[teacherID]
	for i, b := range list {
		if b.ID == id {
			f.blackouts[teacherID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAvailability) IsBlackout(_ context.Context, teacherID uuid.UUID, date schedule.Date) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.blackouts[teacherID] {
		if b.Date == date {
			return true, nil
		}
	}
	return false, nil
}

// recordingChecker настоящая проверка расписания поверх fake-хранилищ; запоминает исключаемые id
type recordingChecker struct {
	*repository.ScheduleRepository
	conflictArgs []uuid.UUID
}

func (c *recordingChecker) CheckScheduleConflict(ctx context.Context, teacherID uuid.UUID, date schedule.Date, start, end schedule.TimeOfDay, exclude uuid.UUID) (bool, error) {
	c.conflictArgs = append(c.conflictArgs, exclude)
	return c.ScheduleRepository.CheckScheduleConflict(ctx, teacherID, date, start, end, exclude)
}

// env собранные сервисы поверх fake-хранилищ
type env struct {
	clock        *fakeClock
	lessons      *fakeLessons
	enrollments  *fakeEnrollments
	attendance   *fakeAttendance
	feedback     *fakeFeedback
	users        *fakeUsers
	availability *fakeAvailability
	checker      *recordingChecker

	lessonSvc       *service.LessonService
	attendanceSvc   *service.AttendanceService
	feedbackSvc     *service.FeedbackService
	availabilitySvc *service.AvailabilityService
	userSvc         *service.UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zaptest.NewLogger(t)

	e := &env{
		clock:        &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		lessons:      newFakeLessons(),
		enrollments:  newFakeEnrollments(),
		attendance:   newFakeAttendance(),
		feedback:     &fakeFeedback{},
		users:        newFakeUsers(),
		availability: newFakeAvailability(),
	}
	e.checker = &recordingChecker{ScheduleRepository: repository.NewScheduleRepository(e.lessons, e.availability)}

	e.lessonSvc = service.NewLessonService(e.lessons, e.enrollments, e.users, e.checker, e.clock, time.UTC, logger)
	e.attendanceSvc = service.NewAttendanceService(e.lessons, e.enrollments, e.attendance, e.clock, time.UTC, logger)
	e.feedbackSvc = service.NewFeedbackService(e.lessons, e.enrollments, e.feedback, e.clock, time.UTC, logger)
	e.availabilitySvc = service.NewAvailabilityService(e.availability, e.users, e.clock, time.UTC, logger)
	e.userSvc = service.NewUserService(e.users, logger)
	return e
}

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func tod(s string) *schedule.TimeOfDay {
	t := schedule.MustTimeOfDay(s)
	return &t
}

func actorOf(u *model.User) model.Actor {
	return model.Actor{UserID: u.ID, Role: u.Role}
}

// createLesson создаёт занятие от имени учителя и падает при ошибке
func (e *env) createLesson(t *testing.T, teacher *model.User, date, start string, minutes, capacity int) *model.ScheduledLesson {
	t.Helper()
	l, err := e.lessonSvc.Create(context.Background(), actorOf(teacher), service.CreateLessonInput{
		Title:           "Piano basics",
		TeacherID:       teacher.ID,
		ScheduledDate:   mustDate(t, date),
		ScheduledTime:   tod(start),
		DurationMinutes: minutes,
		MaxStudents:     capacity,
	})
	require.NoError(t, err)
	return l
}
