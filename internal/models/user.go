// Package models содержит доменные модели MiniGestor: учётную запись,
// профиль с флагами тарифа, намерение оплаты и записи учёта финансов.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    `json:"uid"`      // Уникальный идентификатор пользователя
	Email        string    `json:"email"`    // Электронная почта
	Username     string    `json:"username"` // Имя пользователя (уникальное)
	PasswordHash string    `json:"-"`        // Хэш пароля пользователя
	Role         string    `json:"role"`     // Роль пользователя, admin или user
	CreatedAt    time.Time `json:"created_at"`
}

// TrialReminder сообщение планировщика о скором окончании пробного периода.
type TrialReminder struct {
	UserUID       string    `json:"user_uid"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	TrialEnd      time.Time `json:"trial_end"`
	DaysRemaining int       `json:"days_remaining"`
}
