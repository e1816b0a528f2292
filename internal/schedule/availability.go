package schedule

import "time"

// WeeklyWindow рабочие часы учителя в конкретный день недели, [Start, End)
type WeeklyWindow struct {
	Weekday time.Weekday
	Start   TimeOfDay
	End     TimeOfDay
}

// AvailabilityRules правила доступности учителя независимо от его занятий
type AvailabilityRules struct {
	Weekly    []WeeklyWindow
	Blackouts []Date
}

// Allows можно ли ставить занятие на эту дату и время.
// В выходной (blackout) нельзя никогда. Если рабочие часы не заданы, учитель доступен всегда.
func (r AvailabilityRules) Allows(date Date, at TimeOfDay) bool {
	for _, blackout := range r.Blackouts {
		if blackout == date {
			return false
		}
	}

	if len(r.Weekly) == 0 {
		return true
	}

	weekday := date.Weekday()
	for _, w := range r.Weekly {
		if w.Weekday != weekday {
			continue
		}
		if !at.Before(w.Start) && at.Before(w.End) {
			return true
		}
	}
	return false
}
