package model

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// LessonEnrollment запись ученика на занятие
type LessonEnrollment struct {
	ID            uuid.UUID        `json:"id"`
	LessonID      uuid.UUID        `json:"lesson_id"`
	StudentID     uuid.UUID        `json:"student_id"`
	EnrolledAt    time.Time        `json:"enrolled_at"`
	Status        EnrollmentStatus `json:"status"`
	PaymentStatus *string          `json:"payment_status,omitempty"`
	PaymentAmount *int             `json:"payment_amount,omitempty"` // в копейках/центах
}

// IsActive активна ли запись
func (e *LessonEnrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}
