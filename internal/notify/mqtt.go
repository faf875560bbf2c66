package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mustafadnc15/ezan-saati-pro/internal/prayer"
)

// DefaultTopic is the topic prefix used when none is configured.
const DefaultTopic = "ezan-saati"

const publishTimeout = 5 * time.Second

// MQTTScheduler publishes reminders to an MQTT broker. Daily reminders are
// retained on <topic>/reminders/<prayer> so a device subscribing later still
// receives the current schedule; one-off notifications go to <topic>/now.
type MQTTScheduler struct {
	client mqtt.Client
	topic  string

	mu sync.Mutex
}

// DialMQTT connects to broker with a random client ID.
func DialMQTT(broker, topic string) (*MQTTScheduler, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("ezan-saati-" + uuid.NewString())
	opts.SetConnectTimeout(publishTimeout)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Debug().Str("broker", broker).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}
	return NewMQTT(client, topic), nil
}

// NewMQTT wraps an already connected client.
func NewMQTT(client mqtt.Client, topic string) *MQTTScheduler {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTScheduler{client: client, topic: topic}
}

func (s *MQTTScheduler) reminderTopic(n prayer.Name) string {
	return fmt.Sprintf("%s/reminders/%s", s.topic, n)
}

func (s *MQTTScheduler) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := s.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Schedule cancels every reminder and then publishes the new ones.
func (s *MQTTScheduler) Schedule(ctx context.Context, reminders []Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cancel(ctx); err != nil {
		return err
	}
	for _, r := range reminders {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal reminder: %w", err)
		}
		if err := s.publish(ctx, s.reminderTopic(r.Prayer), true, payload); err != nil {
			return err
		}
	}
	log.Debug().Int("count", len(reminders)).Str("topic", s.topic).Msg("reminders scheduled")
	return nil
}

// Send publishes a one-off notification.
func (s *MQTTScheduler) Send(ctx context.Context, r Reminder) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder: %w", err)
	}
	return s.publish(ctx, s.topic+"/now", false, payload)
}

// Cancel clears the retained reminder of every canonical prayer.
func (s *MQTTScheduler) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel(ctx)
}

func (s *MQTTScheduler) cancel(ctx context.Context) error {
	for _, n := range prayer.Canonical {
		// An empty retained message removes the retained one.
		if err := s.publish(ctx, s.reminderTopic(n), true, nil); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTScheduler) Close() error {
	s.client.Disconnect(250)
	return nil
}
