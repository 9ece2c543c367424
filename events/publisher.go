package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/carbonex/carbonex/config"
)

// Publisher pushes public venue events (trades, cancels, settlements,
// price snapshots) to NATS for external consumers such as the dashboard.
// A nil Publisher or a missing connection drops events silently: the
// trading path never blocks on notification delivery.
type Publisher struct {
	Conn *nats.Conn
}

func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{Conn: conn}
}

func (p *Publisher) Publish(subject string, payload interface{}) {
	if p == nil || p.Conn == nil {
		return
	}

	message, err := json.Marshal(payload)
	if err != nil {
		config.Logger.Errorf("[events.publisher] marshal failed for %s: %s", subject, err.Error())
		return
	}

	if err := p.Conn.Publish(subject, message); err != nil {
		config.Logger.Errorf("[events.publisher] publish failed for %s: %s", subject, err.Error())
	}
}
