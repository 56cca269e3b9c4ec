// Package models содержит доменные структуры планировщика рассылок:
// пользователя, кампанию, запись журнала попыток и найденный профиль.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Статусы подписки пользователя.
const (
	SubscriptionFree  = "free"
	SubscriptionTrial = "trial"
	SubscriptionPaid  = "paid"
)

// User представляет пользователя, вошедшего по электронной почте.
type User struct {
	UID                string    // Уникальный идентификатор пользователя
	Email              string    // Электронная почта (уникальная)
	AccessToken        *string   // Токен доступа к внешнему провайдеру, nil до авторизации
	SubscriptionStatus string    // free, trial или paid
	CreatedAt          time.Time // Дата создания
}

// HasCredential сообщает, есть ли у пользователя непустой токен провайдера.
func (u *User) HasCredential() bool {
	return u.AccessToken != nil && *u.AccessToken != ""
}
