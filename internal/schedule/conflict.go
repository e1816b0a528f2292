package schedule

import "github.com/google/uuid"

// Slot занятое учителем окно внутри одного дня, полуинтервал [Start, End)
type Slot struct {
	LessonID uuid.UUID
	Start    TimeOfDay
	End      TimeOfDay
}

// NewSlot строит окно по времени начала и длительности
func NewSlot(lessonID uuid.UUID, start TimeOfDay, durationMinutes int) (Slot, error) {
	end, err := start.AddMinutes(durationMinutes)
	if err != nil {
		return Slot{}, err
	}
	return Slot{LessonID: lessonID, Start: start, End: end}, nil
}

// Overlaps пересекаются ли два полуинтервала; соприкосновение не считается пересечением
func Overlaps(a, b Slot) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FindConflicts возвращает окна из existing, пересекающиеся с candidate.
// Окно с LessonID == exclude пропускается, чтобы занятие не конфликтовало само с собой.
func FindConflicts(candidate Slot, existing []Slot, exclude uuid.UUID) []Slot {
	var conflicts []Slot
	for _, slot := range existing {
		if exclude != uuid.Nil && slot.LessonID == exclude {
			continue
		}
		if Overlaps(candidate, slot) {
			conflicts = append(conflicts, slot)
		}
	}
	return conflicts
}

// HasConflict есть ли хотя бы одно пересечение
func HasConflict(candidate Slot, existing []Slot, exclude uuid.UUID) bool {
	return len(FindConflicts(candidate, existing, exclude)) > 0
}
