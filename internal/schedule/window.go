package schedule

import (
	"math"
	"time"
)

// JoinLeadTime за сколько до начала можно подключиться к занятию
const JoinLeadTime = 15 * time.Minute

// Window временное окно конкретного занятия
type Window struct {
	Date        Date
	Start       time.Time
	End         time.Time
	CanJoinFrom time.Time
}

// Flags производные признаки окна относительно текущего времени.
// Не сохраняются в БД, пересчитываются при каждом чтении.
type Flags struct {
	IsToday  bool `json:"is_today"`
	IsLive   bool `json:"is_live"`
	CanJoin  bool `json:"can_join"`
	HasEnded bool `json:"has_ended"`
}

// NewWindow собирает окно из даты, времени начала и длительности
func NewWindow(date Date, start TimeOfDay, durationMinutes int, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	startAt := time.Date(date.Year, date.Month, date.Day, start.Hour(), start.Minute(), 0, 0, loc)
	return Window{
		Date:        date,
		Start:       startAt,
		End:         startAt.Add(time.Duration(durationMinutes) * time.Minute),
		CanJoinFrom: startAt.Add(-JoinLeadTime),
	}
}

// Flags считает признаки на момент now.
// CanJoin сверху не ограничен концом занятия: отказ после окончания делает Join.
func (w Window) Flags(now time.Time) Flags {
	now = now.In(w.Start.Location())
	return Flags{
		IsToday:  DateOf(now) == w.Date,
		IsLive:   !now.Before(w.Start) && !now.After(w.End),
		CanJoin:  !now.Before(w.CanJoinFrom),
		HasEnded: now.After(w.End),
	}
}

// MinutesUntilJoin сколько целых минут (с округлением вверх) осталось до открытия входа
func (w Window) MinutesUntilJoin(now time.Time) int {
	wait := w.CanJoinFrom.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int((wait + time.Minute - 1) / time.Minute)
}

// AttendedMinutes длительность присутствия, округлённая до ближайшей минуты (половина вверх)
func AttendedMinutes(joinedAt, leftAt time.Time) int {
	span := leftAt.Sub(joinedAt)
	if span <= 0 {
		return 0
	}
	return int(math.Floor(span.Minutes() + 0.5))
}
