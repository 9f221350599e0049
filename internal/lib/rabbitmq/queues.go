package rabbitmq

// QueueConfig очередь и ключ маршрутизации, с которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очереди и ключи маршрутизации событий.
const (
	TrialExpiringQueue      = "trial.expiring"
	TrialExpiringRoutingKey = "trial_expiring"

	ReconciliationQueue      = "billing.reconciliation"
	ReconciliationRoutingKey = "reconciliation"
)

// TrialQueues очереди планировщика напоминаний.
func TrialQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: TrialExpiringQueue, RoutingKey: TrialExpiringRoutingKey},
	}
}

// BillingQueues очереди сверки платежей.
func BillingQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ReconciliationQueue, RoutingKey: ReconciliationRoutingKey},
	}
}

// AllQueues все очереди, которые слушает сервис рассылки.
func AllQueues() []QueueConfig {
	return append(TrialQueues(), BillingQueues()...)
}
