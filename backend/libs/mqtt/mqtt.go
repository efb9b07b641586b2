package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultRetryInterval  = 5 * time.Second
	defaultQuiesce        = 250
)

// Options configures the broker connection.
type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Handler receives inbound messages for a subscription.
type Handler = func(topic string, payload []byte)

type subscription struct {
	qos     byte
	handler Handler
}

// Client wraps a paho client and restores subscriptions after every (re)connect.
type Client struct {
	client  paho.Client
	logger  *zap.Logger
	timeout time.Duration

	mu   sync.RWMutex
	subs map[string]subscription
}

// NewClient connects to the broker and blocks until the first connection succeeds or times out.
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	broker, err := brokerURL(opts.Broker)
	if err != nil {
		return nil, err
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("evtelemetry-%d", time.Now().UnixNano())
	}

	c := &Client{
		logger:  logger,
		timeout: timeout,
		subs:    make(map[string]subscription),
	}

	pahoOpts := paho.NewClientOptions()
	pahoOpts.AddBroker(broker)
	pahoOpts.SetClientID(clientID)
	pahoOpts.SetUsername(opts.Username)
	pahoOpts.SetPassword(opts.Password)
	pahoOpts.SetAutoReconnect(true)
	pahoOpts.SetConnectRetryInterval(defaultRetryInterval)
	pahoOpts.SetConnectTimeout(timeout)
	pahoOpts.SetOrderMatters(false)
	pahoOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	})
	pahoOpts.SetOnConnectHandler(func(client paho.Client) {
		logger.Info("connected to mqtt broker", zap.String("broker", broker))
		c.resubscribe(client)
	})

	c.client = paho.NewClient(pahoOpts)

	token := c.client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, err)
	}

	return c, nil
}

// brokerURL defaults the scheme to tcp.
func brokerURL(raw string) (string, error) {
	broker := strings.TrimSpace(raw)
	if broker == "" {
		return "", errors.New("mqtt: broker is empty")
	}
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	return broker, nil
}

// Publish sends payload to topic and waits for the broker handshake required by qos.
func (c *Client) Publish(ctx context.Context, topic string, qos byte, retain bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retain, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers handler for a topic filter; the subscription survives reconnects.
func (c *Client) Subscribe(filter string, qos byte, handler Handler) error {
	c.mu.Lock()
	c.subs[filter] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil
	}
	return c.subscribe(c.client, filter, subscription{qos: qos, handler: handler})
}

// Close disconnects from the broker.
func (c *Client) Close() {
	if c.client.IsConnected() {
		c.client.Disconnect(defaultQuiesce)
		c.logger.Info("disconnected from mqtt broker")
	}
}

func (c *Client) resubscribe(client paho.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for filter, sub := range c.subs {
		if err := c.subscribe(client, filter, sub); err != nil {
			c.logger.Error("mqtt resubscribe failed", zap.String("topic", filter), zap.Error(err))
		}
	}
}

func (c *Client) subscribe(client paho.Client, filter string, sub subscription) error {
	token := client.Subscribe(filter, sub.qos, func(_ paho.Client, msg paho.Message) {
		sub.handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("mqtt: subscribe %s timed out", filter)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", filter, err)
	}
	c.logger.Info("subscribed to mqtt topic", zap.String("topic", filter))
	return nil
}
