package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID         uuid.UUID `json:"id"`
	TelegramID *int64    `json:"telegram_id,omitempty"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsTeacher может ли пользователь вести занятия
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

// Actor кто выполняет операцию; приходит из слоя API вместе с запросом
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }

// CanManage может ли actor менять занятия этого учителя
func (a Actor) CanManage(teacherID uuid.UUID) bool {
	return a.IsAdmin() || (a.Role == RoleTeacher && a.UserID == teacherID)
}
