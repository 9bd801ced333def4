package realtime

import (
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/mqtt"
)

// JSONPublisher is the MQTT capability the relay needs.
type JSONPublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// StartRelay forwards every change on b to MQTT. Publish failures are
// logged and the change is not retried. Close the returned subscription
// to stop relaying.
func StartRelay(b *Broker, pub JSONPublisher, logger Logger) (*Subscription, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	topics := mqtt.Topics{}
	return b.Subscribe(AllTables, Filter{}, AllEvents, func(c Change) {
		if err := pub.PublishJSON(topics.CoreChange(c.Table), c, false); err != nil {
			logger.Warn("relaying change to MQTT failed", "table", c.Table, "error", err)
		}
	})
}
