package model

import (
	"time"

	"github.com/Freeeeeet/musicschool/internal/schedule"
	"github.com/google/uuid"
)

// AvailabilityWindow рабочие часы учителя в день недели
type AvailabilityWindow struct {
	ID        uuid.UUID          `json:"id"`
	TeacherID uuid.UUID          `json:"teacher_id"`
	Weekday   int                `json:"weekday"` // 0 = Sunday, 6 = Saturday
	StartTime schedule.TimeOfDay `json:"start_time"`
	EndTime   schedule.TimeOfDay `json:"end_time"`
}

// BlackoutDate день, когда учитель не ведёт занятий
type BlackoutDate struct {
	ID        uuid.UUID     `json:"id"`
	TeacherID uuid.UUID     `json:"teacher_id"`
	Date      schedule.Date `json:"date"`
	Reason    *string       `json:"reason,omitempty"`
}

// AvailabilityRules переводит строки из БД в правила для проверки
func AvailabilityRules(windows []*AvailabilityWindow, blackouts []*BlackoutDate) schedule.AvailabilityRules {
	rules := schedule.AvailabilityRules{}
	for _, w := range windows {
		rules.Weekly = append(rules.Weekly, schedule.WeeklyWindow{
			Weekday: time.Weekday(w.Weekday),
			Start:   w.StartTime,
			End:     w.EndTime,
		})
	}
	for _, b := range blackouts {
		rules.Blackouts = append(rules.Blackouts, b.Date)
	}
	return rules
}
