package outreach

import (
	"context"
	"fmt"
	"sync"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// StatsReporter реализуется провайдерами, умеющими отдавать статистику подключений.
type StatsReporter interface {
	Stats(ctx context.Context) (*ConnectionStats, error)
}

// SentRequest — запрос, принятый Fake.
type SentRequest struct {
	AccessToken string
	CandidateID string
	Message     string
}

// Fake — детерминированный провайдер без сетевых вызовов.
//
// Без настроек возвращает limit синтетических профилей и подтверждает каждую отправку.
// Поля настраиваются до первого использования.
type Fake struct {
	Candidates []models.Candidate // если задано, возвращается вместо синтетических профилей
	SearchErr  error              // ошибка поиска
	SendErr    error              // ошибка отправки, см. FailSendAt
	FailSendAt int                // номер вызова отправки (с 1), на котором вернуть SendErr; 0 — на каждом
	Refuse     map[string]bool    // кандидаты, для которых провайдер вернёт false

	mu       sync.Mutex
	sendCall int
	sent     []SentRequest
	tokens   []string
}

// New реализует Factory: все дескрипторы разделяют состояние Fake.
func (f *Fake) New(accessToken string) Provider {
	f.mu.Lock()
	f.tokens = append(f.tokens, accessToken)
	f.mu.Unlock()
	return &fakeHandle{fake: f, token: accessToken}
}

// Sent возвращает копию принятых запросов.
func (f *Fake) Sent() []SentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentRequest, len(f.sent))
	copy(out, f.sent)
	return out
}

// Tokens возвращает токены, для которых создавались дескрипторы.
func (f *Fake) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.tokens))
	copy(out, f.tokens)
	return out
}

func (f *Fake) search(query string, limit int) ([]models.Candidate, error) {
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if f.Candidates != nil {
		out := make([]models.Candidate, len(f.Candidates))
		copy(out, f.Candidates)
		return out, nil
	}
	out := make([]models.Candidate, 0, limit)
	for i := range limit {
		out = append(out, models.Candidate{
			ID:         fmt.Sprintf("mock_%d", i),
			FirstName:  "User",
			LastName:   fmt.Sprintf("Test%d", i),
			Headline:   query + " professional",
			ProfileURL: fmt.Sprintf("https://linkedin.com/in/test%d", i),
		})
	}
	return out, nil
}

func (f *Fake) send(token, candidateID, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCall++
	if f.SendErr != nil && (f.FailSendAt == 0 || f.FailSendAt == f.sendCall) {
		return false, f.SendErr
	}
	f.sent = append(f.sent, SentRequest{AccessToken: token, CandidateID: candidateID, Message: message})
	if f.Refuse[candidateID] {
		return false, nil
	}
	return true, nil
}

type fakeHandle struct {
	fake  *Fake
	token string
}

func (h *fakeHandle) SearchCandidates(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.fake.search(query, limit)
}

func (h *fakeHandle) SendConnectionRequest(ctx context.Context, candidateID, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return h.fake.send(h.token, candidateID, message)
}

func (h *fakeHandle) Stats(_ context.Context) (*ConnectionStats, error) {
	h.fake.mu.Lock()
	defer h.fake.mu.Unlock()
	var sent int
	for _, r := range h.fake.sent {
		if r.AccessToken == h.token {
			sent++
		}
	}
	return &ConnectionStats{RequestsSentToday: sent}, nil
}
