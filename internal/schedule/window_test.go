package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/musicschool/internal/schedule"
)

func mustDate(t *testing.T, s string) schedule.Date {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	require.NoError(t, err)
	return ts
}

func TestWindowBounds(t *testing.T) {
	w := schedule.NewWindow(mustDate(t, "2025-03-10"), schedule.MustTimeOfDay("14:00"), 60, time.UTC)

	assert.Equal(t, at(t, "2025-03-10T14:00:00"), w.Start)
	assert.Equal(t, at(t, "2025-03-10T15:00:00"), w.End)
	assert.Equal(t, at(t, "2025-03-10T13:45:00"), w.CanJoinFrom)
}

func TestWindowFlags(t *testing.T) {
	w := schedule.NewWindow(mustDate(t, "2025-03-10"), schedule.MustTimeOfDay("14:00"), 60, time.UTC)

	cases := []struct {
		name string
		now  string
		want schedule.Flags
	}{
		{"day before", "2025-03-09T14:00:00", schedule.Flags{}},
		{"before pre-join window", "2025-03-10T13:44:59", schedule.Flags{IsToday: true}},
		{"pre-join window opens", "2025-03-10T13:45:00", schedule.Flags{IsToday: true, CanJoin: true}},
		{"inside pre-join window", "2025-03-10T13:59:59", schedule.Flags{IsToday: true, CanJoin: true}},
		{"start", "2025-03-10T14:00:00", schedule.Flags{IsToday: true, IsLive: true, CanJoin: true}},
		{"middle", "2025-03-10T14:30:00", schedule.Flags{IsToday: true, IsLive: true, CanJoin: true}},
		{"exact end is still live", "2025-03-10T15:00:00", schedule.Flags{IsToday: true, IsLive: true, CanJoin: true}},
		{"after end", "2025-03-10T15:00:01", schedule.Flags{IsToday: true, CanJoin: true, HasEnded: true}},
		{"next day", "2025-03-11T09:00:00", schedule.Flags{CanJoin: true, HasEnded: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Flags(at(t, tc.now)))
		})
	}
}

func TestFlagsUseWindowLocation(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	w := schedule.NewWindow(mustDate(t, "2025-03-10"), schedule.MustTimeOfDay("01:00"), 30, loc)

	// 22:30 UTC 9 марта = 01:30 EAT 10 марта
	flags := w.Flags(at(t, "2025-03-09T22:30:00"))
	assert.True(t, flags.IsToday)
	assert.True(t, flags.IsLive)
}

func TestMinutesUntilJoin(t *testing.T) {
	w := schedule.NewWindow(mustDate(t, "2025-03-10"), schedule.MustTimeOfDay("14:00"), 60, time.UTC)

	cases := []struct {
		now  string
		want int
	}{
		{"2025-03-10T13:00:00", 45},
		{"2025-03-10T13:00:01", 45},
		{"2025-03-10T12:59:59", 46},
		{"2025-03-10T13:44:30", 1},
		{"2025-03-10T13:45:00", 0},
		{"2025-03-10T14:10:00", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, w.MinutesUntilJoin(at(t, tc.now)), tc.now)
	}
}

func TestAttendedMinutesRoundsToNearest(t *testing.T) {
	joined := at(t, "2025-03-10T14:00:00")

	cases := []struct {
		after time.Duration
		want  int
	}{
		{37*time.Minute + 24*time.Second, 37}, // 37.4
		{37*time.Minute + 30*time.Second, 38}, // 37.5
		{37*time.Minute + 36*time.Second, 38}, // 37.6
		{29 * time.Second, 0},
		{30 * time.Second, 1},
		{0, 0},
		{-5 * time.Minute, 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, schedule.AttendedMinutes(joined, joined.Add(tc.after)), tc.after.String())
	}
}
