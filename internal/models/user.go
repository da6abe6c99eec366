// Package models содержит доменные структуры маркетплейса NESI:
// пользователей, задачи, уведомления и справочник категорий.
package models

import "time"

// Role роль пользователя на площадке.
type Role string

const (
	// RoleCustomer заказчик, публикует задачи и нанимает исполнителей.
	RoleCustomer Role = "customer"
	// RoleExecutor исполнитель, откликается на задачи.
	RoleExecutor Role = "executor"
	// RoleAdmin модератор площадки.
	RoleAdmin Role = "admin"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleExecutor, RoleAdmin:
		return true
	}
	return false
}

// DefaultLevel уровень исполнителя без истории.
const DefaultLevel = 1

// User представляет зарегистрированного пользователя площадки.
type User struct {
	UUID           string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	Level          int       `json:"level"`
	Balance        int64     `json:"balance"`        // в копейках
	FrozenBalance  int64     `json:"frozen_balance"` // средства в эскроу
	Blocked        bool      `json:"blocked"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
