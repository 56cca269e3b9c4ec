package models

import "time"

// Статусы попытки отправки запроса на подключение.
const (
	LogPending  = "pending"
	LogSent     = "sent"
	LogAccepted = "accepted"
	LogRejected = "rejected"
	LogFailed   = "failed"
)

// ConnectionLogEntry фиксирует одну попытку отправки в рамках запуска кампании.
// После записи не изменяется.
type ConnectionLogEntry struct {
	ID          int64      `json:"-"`
	CampaignID  int64      `json:"campaign_id"`
	ProfileURL  string     `json:"profile_url"`
	MessageSent string     `json:"message"`
	Status      string     `json:"status"`
	SentAt      *time.Time `json:"sent_at"`
}
