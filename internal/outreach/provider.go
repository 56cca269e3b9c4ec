// Package outreach описывает внешнего провайдера поиска профилей и отправки
// запросов на подключение. Ядро зависит только от интерфейсов Provider и Factory;
// Client ходит в сеть, Fake детерминирован и используется в тестах и локально.
package outreach

import (
	"context"
	"errors"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// ErrUnauthorized возвращается, когда провайдер отклонил токен доступа.
var ErrUnauthorized = errors.New("outreach: access token rejected")

// Provider — дескриптор провайдера, привязанный к токену одного пользователя.
type Provider interface {
	// SearchCandidates возвращает не более limit профилей по запросу.
	// Пустой результат не является ошибкой.
	SearchCandidates(ctx context.Context, query string, limit int) ([]models.Candidate, error)
	// SendConnectionRequest отправляет запрос на подключение и сообщает,
	// подтвердил ли провайдер отправку.
	SendConnectionRequest(ctx context.Context, candidateID, message string) (bool, error)
}

// Factory создаёт Provider для токена пользователя.
type Factory interface {
	New(accessToken string) Provider
}

// ConnectionStats — статистика подключений пользователя у провайдера.
type ConnectionStats struct {
	TotalConnections  int     `json:"total_connections"`
	RequestsSentToday int     `json:"requests_sent_today"`
	AcceptanceRate    float64 `json:"acceptance_rate"`
}
