package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// ErrCrossesMidnight окно занятия выходит за пределы суток
var ErrCrossesMidnight = errors.New("lesson window crosses midnight")

// TimeOfDay время суток с точностью до минуты
type TimeOfDay struct {
	minutes int // от полуночи, 0..1440
}

// NewTimeOfDay собирает время из часов и минут
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %02d:%02d out of range", hour, minute)
	}
	return TimeOfDay{minutes: hour*60 + minute}, nil
}

// MustTimeOfDay как ParseTimeOfDay, но паникует; для констант и тестов
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay разбирает "HH:MM" или "HH:MM:SS" (секунды отбрасываются)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if len(s) > 5 {
		layout = "15:04:05"
		// Postgres может вернуть дробные секунды
		if i := strings.IndexByte(s, '.'); i > 0 {
			s = s[:i]
		}
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int    { return t.minutes / 60 }
func (t TimeOfDay) Minute() int  { return t.minutes % 60 }
func (t TimeOfDay) Minutes() int { return t.minutes }

func (t TimeOfDay) Before(other TimeOfDay) bool { return t.minutes < other.minutes }

// AddMinutes прибавляет минуты; 24:00 допустимо как правая граница окна
func (t TimeOfDay) AddMinutes(minutes int) (TimeOfDay, error) {
	end := t.minutes + minutes
	if end > minutesPerDay {
		return TimeOfDay{}, ErrCrossesMidnight
	}
	return TimeOfDay{minutes: end}, nil
}

// String форматирует как HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t *TimeOfDay) Scan(v any) error {
	switch x := v.(type) {
	case string:
		if strings.HasPrefix(x, "24:00") {
			*t = TimeOfDay{minutes: minutesPerDay}
			return nil
		}
		parsed, err := ParseTimeOfDay(x)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(x))
	case time.Time:
		*t = TimeOfDay{minutes: x.Hour()*60 + x.Minute()}
		return nil
	case nil:
		*t = TimeOfDay{}
		return nil
	default:
		return fmt.Errorf("time of day: unsupported Scan type %T", v)
	}
}

// Value отдаёт "HH:MM:SS", Postgres TIME понимает этот формат
func (t TimeOfDay) Value() (driver.Value, error) {
	if t.minutes == minutesPerDay {
		return "24:00:00", nil
	}
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
