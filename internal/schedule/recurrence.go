package schedule

import (
	"fmt"
	"time"
)

// Recurrence шаблон повторения занятия
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// ParseRecurrence проверяет что шаблон известен
func ParseRecurrence(s string) (Recurrence, error) {
	switch r := Recurrence(s); r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return r, nil
	default:
		return "", fmt.Errorf("unknown recurrence pattern %q", s)
	}
}

// Occurrences даты повторений после first, попадающие в [from, to] и не позже until.
// Для monthly сохраняется число месяца; месяцы без такого числа пропускаются.
func (r Recurrence) Occurrences(first Date, until *Date, from, to Date) []Date {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
	default:
		return nil
	}

	var dates []Date

	last := to
	if until != nil && until.Before(last) {
		last = *until
	}

	for i := 1; ; i++ {
		next, ok := r.nth(first, i)
		if !ok {
			continue
		}
		if next.After(last) {
			break
		}
		if next.Before(from) {
			continue
		}
		dates = append(dates, next)
	}

	return dates
}

// nth i-е повторение; ok=false если такой даты нет (31-е в коротком месяце)
func (r Recurrence) nth(first Date, i int) (Date, bool) {
	switch r {
	case RecurrenceDaily:
		return first.AddDays(i), true
	case RecurrenceWeekly:
		return first.AddDays(7 * i), true
	case RecurrenceMonthly:
		month := int(first.Month) - 1 + i
		year := first.Year + month/12
		candidate := DateOf(time.Date(year, time.Month(month%12+1), first.Day, 0, 0, 0, 0, time.UTC))
		if candidate.Day != first.Day {
			return Date{}, false
		}
		return candidate, true
	default:
		return Date{}, false
	}
}
