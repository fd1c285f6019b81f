package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected   = errors.New("channel not connected")
	ErrConnectTimeout = errors.New("channel connect timed out")
	ErrPublishTimeout = errors.New("publish timed out")
)

const (
	DefaultRetryDelay     = 5 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultQueueSize      = 16
)

// NetworkLink is the underlying network association the channel rides on
type NetworkLink interface {
	Up() bool
	Associate(ctx context.Context) error
}

// Handler receives inbound messages while the inbound queue is drained
type Handler func(topic string, payload []byte)

type message struct {
	topic   string
	payload []byte
}

type Options struct {
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
	QueueSize      int
}

// Link owns the connection lifecycle of the pub/sub channel. Inbound
// messages are buffered in a bounded queue and only handed to the caller
// when it calls Drain, so all state changes happen on the caller's goroutine.
type Link struct {
	client  mqtt.Client
	network NetworkLink
	logger  zerolog.Logger

	retryDelay     time.Duration
	connectTimeout time.Duration

	subscriptions []string
	inbound       chan message

	sleep func(ctx context.Context, d time.Duration) error
}

func NewLink(client mqtt.Client, network NetworkLink, opts Options, logger zerolog.Logger) *Link {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	return &Link{
		client:  client,
		network: network,
		logger:  logger.With().Str("component", "Link").Logger(),

		retryDelay:     opts.RetryDelay,
		connectTimeout: opts.ConnectTimeout,

		subscriptions: []string{},
		inbound:       make(chan message, opts.QueueSize),

		sleep: sleepCtx,
	}
}

// NewClientOptions configures a paho client for the link. Reconnection is
// driven by EnsureConnected, so paho's own reconnect logic is disabled.
// An empty clientID is replaced with a random one.
func NewClientOptions(endpoint, clientID string, tlsConfig *tls.Config, keepAlive, connectTimeout time.Duration) *mqtt.ClientOptions {
	if clientID == "" {
		// AWS IoT and MQTT 3.1 brokers limit client IDs to 23 bytes
		clientID = uuid.New().String()[:22]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(endpoint)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectTimeout(connectTimeout)

	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}

// EnsureConnected blocks until both the network link and the channel are up.
// Failed channel connects are retried after a fixed delay; the network link
// is re-verified before every attempt. Subscriptions are restated after every
// successful connect. Only context cancellation ends the loop early.
func (l *Link) EnsureConnected(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		if err := l.ensureNetwork(ctx); err != nil {
			return err
		}

		if l.client.IsConnected() {
			return nil
		}

		l.logger.Info().Int("attempt", attempt).Msg("Starting MQTT connection")

		if err := l.connect(); err != nil {
			l.logger.Warn().
				Err(err).
				Dur("retry_in", l.retryDelay).
				Msg("MQTT connection failed, retrying")

			if err := l.sleep(ctx, l.retryDelay); err != nil {
				return err
			}

			continue
		}

		l.logger.Info().Int("attempt", attempt).Msg("Connected to broker")

		l.restateSubscriptions()

		return nil
	}
}

func (l *Link) ensureNetwork(ctx context.Context) error {
	if l.network.Up() {
		return nil
	}

	l.logger.Warn().Msg("Network link down, reassociating")

	return l.network.Associate(ctx)
}

func (l *Link) connect() error {
	token := l.client.Connect()
	if !token.WaitTimeout(l.connectTimeout) {
		return ErrConnectTimeout
	}

	return token.Error()
}

func (l *Link) restateSubscriptions() {
	for _, topic := range l.subscriptions {
		if err := l.subscribe(topic); err != nil {
			l.logger.Warn().Err(err).Str("topic", topic).Msg("Could not subscribe")

			continue
		}

		l.logger.Info().Str("topic", topic).Msg("Subscribed")
	}
}

func (l *Link) subscribe(topic string) error {
	token := l.client.Subscribe(topic, 0, l.enqueue)
	if !token.WaitTimeout(l.connectTimeout) {
		return ErrConnectTimeout
	}

	return token.Error()
}

// Subscribe registers interest in a topic. It is idempotent. If the channel is
// down, the subscription is issued on the next successful connect.
func (l *Link) Subscribe(topic string) error {
	for _, candidate := range l.subscriptions {
		if candidate == topic {
			return nil
		}
	}

	l.subscriptions = append(l.subscriptions, topic)

	if !l.client.IsConnected() {
		return nil
	}

	return l.subscribe(topic)
}

// Publish sends a message with QoS 0. There is no delivery confirmation and
// nothing is queued if the channel is down.
func (l *Link) Publish(topic string, payload []byte, retain bool) error {
	if !l.client.IsConnected() {
		return ErrNotConnected
	}

	token := l.client.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(l.connectTimeout) {
		return ErrPublishTimeout
	}

	return token.Error()
}

// Connected reports whether the channel is currently up.
func (l *Link) Connected() bool {
	return l.client.IsConnected()
}

func (l *Link) State() ConnectionState {
	if !l.network.Up() {
		return Disconnected
	}

	if !l.client.IsConnected() {
		return LinkUp
	}

	return ChannelUp
}

// enqueue runs on paho's goroutine. If the queue is full the message is dropped.
func (l *Link) enqueue(_ mqtt.Client, msg mqtt.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case l.inbound <- message{topic: msg.Topic(), payload: payload}:
	default:
		l.logger.Warn().Str("topic", msg.Topic()).Msg("Inbound queue full, message dropped")
	}
}

// Drain hands every message queued at the time of the call to handler,
// in arrival order, and returns how many were handled.
func (l *Link) Drain(handler Handler) int {
	pending := len(l.inbound)

	for i := 0; i < pending; i++ {
		select {
		case msg := <-l.inbound:
			handler(msg.topic, msg.payload)
		default:
			return i
		}
	}

	return pending
}

// Close disconnects from the broker, waiting up to 250ms for in-flight work.
func (l *Link) Close() {
	if l.client.IsConnected() {
		l.client.Disconnect(250)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
