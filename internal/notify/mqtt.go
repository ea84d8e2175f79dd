// Package notify forwards monitor events to an MQTT broker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/ayusman/vigil/internal/event"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Config holds broker connection options.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Username    string
	Password    string
}

// publisher is the subset of mqtt.Client used to send messages.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// MQTTNotifier publishes alarm transitions and monitor state changes as JSON.
// It implements event.Listener.
type MQTTNotifier struct {
	cfg    Config
	client publisher
	log    zerolog.Logger

	mu        sync.RWMutex
	connected bool
	published map[string]uint64
	errors    uint64
}

// NewMQTTNotifier creates a notifier. Call Connect before events arrive.
func NewMQTTNotifier(cfg Config, log zerolog.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		cfg:       cfg,
		log:       log.With().Str("component", "mqtt").Logger(),
		published: make(map[string]uint64),
	}
}

// BrokerURL returns broker with a tcp:// scheme when none is given.
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Connect establishes the broker connection. The client reconnects on its own
// after a lost connection.
func (n *MQTTNotifier) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(n.cfg.Broker))
	opts.SetClientID(n.cfg.ClientID)
	if n.cfg.Username != "" {
		opts.SetUsername(n.cfg.Username)
		opts.SetPassword(n.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		n.setConnected(true)
		n.log.Info().Str("broker", n.cfg.Broker).Str("client_id", n.cfg.ClientID).Msg("mqtt connection established")
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		n.setConnected(false)
		n.log.Warn().Err(err).Str("broker", n.cfg.Broker).Msg("mqtt connection lost, will auto-reconnect")
	}

	client := mqtt.NewClient(opts)
	n.client = client

	n.log.Info().Str("broker", n.cfg.Broker).Msg("connecting to mqtt broker")

	token := client.Connect()
	timeout := connectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	n.setConnected(true)
	return nil
}

// Topic returns the topic an event of type t is published to, or "" when the
// type is not forwarded.
func (n *MQTTNotifier) Topic(t event.Type) string {
	var leaf string
	switch t {
	case event.AlarmStart, event.AlarmStop:
		leaf = "alarm"
	case event.MonitorPaused, event.MonitorResumed:
		leaf = "monitor"
	case event.SessionStarted, event.SessionEnded:
		leaf = "session"
	default:
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", n.cfg.TopicPrefix, n.cfg.ClientID, leaf)
}

// HandleEvent publishes e. Failures are logged and counted.
func (n *MQTTNotifier) HandleEvent(e event.Event) {
	if err := n.Publish(e); err != nil {
		n.log.Warn().Err(err).Str("type", string(e.Type)).Msg("mqtt publish failed")
	}
}

// Publish sends e to its topic and waits for the broker acknowledgement.
func (n *MQTTNotifier) Publish(e event.Event) error {
	topic := n.Topic(e.Type)
	if topic == "" {
		return nil
	}

	if !n.isConnected() {
		n.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(e)
	if err != nil {
		n.countError()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := n.client.Publish(topic, n.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		n.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		n.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	n.mu.Lock()
	n.published[topic]++
	n.mu.Unlock()

	n.log.Debug().Str("topic", topic).Uint8("qos", n.cfg.QoS).Int("size", len(payload)).Msg("event published")
	return nil
}

// Disconnect closes the broker connection.
func (n *MQTTNotifier) Disconnect() error {
	if n.client != nil && n.client.IsConnected() {
		n.client.Disconnect(250)
		n.log.Info().Msg("mqtt disconnected")
	}
	n.setConnected(false)
	return nil
}

// Stats contains notifier statistics.
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

// Stats returns a snapshot of the notifier statistics.
func (n *MQTTNotifier) Stats() Stats {
	n.mu.RLock()
	defer n.mu.RUnlock()

	published := make(map[string]uint64, len(n.published))
	for k, v := range n.published {
		published[k] = v
	}
	return Stats{
		Connected: n.connected,
		Published: published,
		Errors:    n.errors,
	}
}

func (n *MQTTNotifier) setConnected(v bool) {
	n.mu.Lock()
	n.connected = v
	n.mu.Unlock()
}

func (n *MQTTNotifier) isConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

func (n *MQTTNotifier) countError() {
	n.mu.Lock()
	n.errors++
	n.mu.Unlock()
}
