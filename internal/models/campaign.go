package models

import "time"

// Статусы кампании. Ядро только читает статус, переходы выполняются извне.
const (
	CampaignActive    = "active"
	CampaignPaused    = "paused"
	CampaignCompleted = "completed"
)

// DefaultDailyLimit — лимит отправок в день для новой кампании.
const DefaultDailyLimit = 20

// Campaign описывает пользовательскую кампанию рассылки запросов на подключение.
type Campaign struct {
	ID              int64     `json:"id"`               // Идентификатор кампании
	UserUID         string    `json:"user_uid"`         // Владелец кампании
	Name            string    `json:"name"`             // Название
	SearchQuery     string    `json:"search_query"`     // Поисковый запрос, например "recruiter python Nigeria"
	MessageTemplate string    `json:"message_template"` // Шаблон сообщения с подстановками {firstName}, {headline}
	DailyLimit      int       `json:"daily_limit"`      // Максимум попыток за один запуск
	Status          string    `json:"status"`           // active, paused или completed
	Schedule        string    `json:"schedule"`         // Расписание в формате cron
	CreatedAt       time.Time `json:"created_at"`       // Дата создания
}

// IsActive сообщает, должна ли кампания выполнять работу при срабатывании.
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignActive
}

// CampaignRequest используется для приёма данных кампании из JSON-запроса.
type CampaignRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	SearchQuery     string `json:"search_query" validate:"required"`
	MessageTemplate string `json:"message_template" validate:"required"`
	DailyLimit      int    `json:"daily_limit" validate:"omitempty,gt=0,lte=500"`
	Schedule        string `json:"schedule"`
}

// ActiveCampaign — пара кампания/владелец для восстановления расписания при старте.
type ActiveCampaign struct {
	Campaign *Campaign
	UserUID  string
}

// Stats — агрегированная статистика пользователя.
type Stats struct {
	CampaignsCount  int `json:"campaigns_count"`
	TotalRequests   int `json:"total_requests"`
	ActiveCampaigns int `json:"active_campaigns"`
}
