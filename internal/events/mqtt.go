package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type mqttPublisher interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher writes each event to <prefix>/computers/<asset tag>/<type>,
// or <prefix>/users/<user id>/<type> for account events.
type MQTTPublisher struct {
	client mqttPublisher
	prefix string
}

func NewMQTTPublisher(client mqttPublisher, prefix string) *MQTTPublisher {
	return &MQTTPublisher{client: client, prefix: strings.Trim(prefix, "/")}
}

func (p *MQTTPublisher) Topic(e Event) string {
	if e.AssetTag != "" {
		return fmt.Sprintf("%s/computers/%s/%s", p.prefix, e.AssetTag, e.Type)
	}
	return fmt.Sprintf("%s/users/%s/%s", p.prefix, e.UserID, e.Type)
}

func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.client.Publish(ctx, p.Topic(e), 1, false, payload)
}
