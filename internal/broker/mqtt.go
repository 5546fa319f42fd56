package broker

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/google/uuid"

	"fleetstream/internal/config"
	"fleetstream/internal/constants"
	"fleetstream/internal/logger"
	"fleetstream/pkg/errors"
	"fleetstream/pkg/retry"
)

// MQTTSubscriber reads the inbound device topics and pushes raw messages into
// a bounded channel. When the channel is full the message is dropped rather
// than blocking the broker client's delivery goroutine.
type MQTTSubscriber struct {
	client   mqtt.Client
	cfg      config.MQTTConfig
	logger   logger.Logger
	messages chan InboundMessage
}

func NewMQTTSubscriber(cfg config.MQTTConfig, log logger.Logger) *MQTTSubscriber {
	s := &MQTTSubscriber{
		cfg:      cfg,
		logger:   log,
		messages: make(chan InboundMessage, cfg.QueueLength),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetConnectionLostHandler(s.onConnectionLost).
		SetOnConnectHandler(s.onConnect)

	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects with backoff and returns the inbound message channel.
// Subscriptions are (re)established in the OnConnect handler so they survive
// automatic reconnects.
func (s *MQTTSubscriber) Start(ctx context.Context) (<-chan InboundMessage, error) {
	policy := retry.Policy{
		MaxAttempts:     10,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}

	err := retry.RetryWithCallback(ctx, policy, func() error {
		token := s.client.Connect()
		token.Wait()
		return classifyConnectError(token.Error())
	}, func(attempt int, err error, nextDelay time.Duration) {
		s.logger.Warnw("mqtt connect failed, retrying",
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", s.cfg.BrokerURL, err)
	}

	return s.messages, nil
}

// classifyConnectError marks broker refusals that retrying cannot fix (bad
// credentials, rejected client id) as fatal so the connect loop stops
// immediately instead of burning through its attempts.
func classifyConnectError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		stderrors.Is(err, packets.ErrorRefusedNotAuthorised),
		stderrors.Is(err, packets.ErrorRefusedIDRejected):
		return errors.NewFatalError(err)
	}
	return err
}

func (s *MQTTSubscriber) onConnect(client mqtt.Client) {
	filters := map[string]byte{
		constants.MQTTTelemetryFilter: byte(s.cfg.QoS),
		constants.MQTTEventsFilter:    byte(s.cfg.QoS),
		constants.MQTTV2XFilter:       byte(s.cfg.QoS),
	}

	token := client.SubscribeMultiple(filters, s.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Errorw("mqtt subscribe failed", "error", err)
		return
	}

	s.logger.Infow("mqtt subscriptions established", "filters", len(filters))
}

func (s *MQTTSubscriber) onMessage(_ mqtt.Client, msg mqtt.Message) {
	select {
	case s.messages <- InboundMessage{Topic: msg.Topic(), Payload: msg.Payload()}:
	default:
		s.logger.Warnw("inbound queue full, dropping message", "topic", msg.Topic())
	}
}

func (s *MQTTSubscriber) onConnectionLost(_ mqtt.Client, err error) {
	s.logger.Warnw("mqtt connection lost, reconnecting", "error", err)
}

// Close disconnects the client. The messages channel is left open: paho may
// still be draining delivery callbacks into it, and the listener stops on
// context cancellation rather than channel close.
func (s *MQTTSubscriber) Close() error {
	s.client.Disconnect(250)
	return nil
}
