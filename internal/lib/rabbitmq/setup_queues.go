package rabbitmq

// Exchange — обменник событий кампаний.
const Exchange = "campaigns"

// RoutingRunCompleted — ключ маршрутизации события завершения запуска.
const RoutingRunCompleted = "run.completed"

// QueueConfig описывает очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetCampaignQueues возвращает очереди, которые объявляются при старте.
func GetCampaignQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "campaigns.run_completed", RoutingKey: RoutingRunCompleted},
	}
}
