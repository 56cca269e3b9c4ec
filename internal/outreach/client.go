package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/outreach-scheduler/internal/models"
)

// ClientConfig содержит параметры сетевого клиента провайдера.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	SendInterval time.Duration // минимальный интервал между отправками
}

// HTTPFactory создаёт сетевые клиенты с общим http.Client.
type HTTPFactory struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewHTTPFactory создаёт фабрику сетевых клиентов.
func NewHTTPFactory(cfg ClientConfig) *HTTPFactory {
	return &HTTPFactory{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// New возвращает Client, привязанный к токену пользователя.
func (f *HTTPFactory) New(accessToken string) Provider {
	return newClient(f.cfg, f.httpClient, accessToken)
}

// Client — сетевой клиент провайдера с авторизацией по Bearer токену.
type Client struct {
	accessToken string
	apiURL      string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient создаёт клиента провайдера для одного токена.
func NewClient(cfg ClientConfig, accessToken string) *Client {
	return newClient(cfg, &http.Client{Timeout: cfg.Timeout}, accessToken)
}

func newClient(cfg ClientConfig, httpClient *http.Client, accessToken string) *Client {
	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}
	return &Client{
		accessToken: accessToken,
		apiURL:      cfg.BaseURL,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

type searchResponse struct {
	Elements []models.Candidate `json:"elements"`
}

type invitationRequest struct {
	Invitee string `json:"invitee"`
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// SearchCandidates ищет профили по запросу.
func (c *Client) SearchCandidates(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	const op = "outreach.SearchCandidates"
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, "/people/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(result.Elements) > limit {
		result.Elements = result.Elements[:limit]
	}
	return result.Elements, nil
}

// SendConnectionRequest отправляет приглашение. Отказ провайдера (4xx)
// возвращается как false без ошибки, сбой транспорта или 5xx — как ошибка.
func (c *Client) SendConnectionRequest(ctx context.Context, candidateID, message string) (bool, error) {
	const op = "outreach.SendConnectionRequest"
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/invitations", invitationRequest{
		Invitee: candidateID,
		Message: message,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return false, nil
	default:
		return false, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
}

// Stats возвращает статистику подключений пользователя.
func (c *Client) Stats(ctx context.Context) (*ConnectionStats, error) {
	const op = "outreach.Stats"
	req, err := c.newRequest(ctx, http.MethodGet, "/me/connections/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	var stats ConnectionStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}
