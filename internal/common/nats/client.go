// filename: internal/common/nats/client.go
package nats

import (
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"

	"github.com/novasec/engine/internal/common/logging"
)

// Client клиент NATS для потока событий
type Client struct {
	conn   *nats.Conn
	config Config
	logger *logging.Logger

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// Config конфигурация NATS
type Config struct {
	URLs        []string      `mapstructure:"urls"`
	ClientID    string        `mapstructure:"client_id"`
	Credentials string        `mapstructure:"credentials"`
	JWT         string        `mapstructure:"jwt"`
	NKeySeed    string        `mapstructure:"nkey_seed"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// TLS заполняется из секции tls
	TLS *tls.Config `mapstructure:"-"`
}

// Options собирает опции подключения с учетом аутентификации // v1.0
func (c Config) Options(logger *logging.Logger) ([]nats.Option, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	opts := []nats.Option{
		nats.Name(c.ClientID),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}
	if c.Timeout > 0 {
		opts = append(opts, nats.Timeout(c.Timeout))
	}
	if c.TLS != nil {
		opts = append(opts, nats.Secure(c.TLS))
	}

	switch {
	case c.Credentials != "":
		opts = append(opts, nats.UserCredentials(c.Credentials))
	case c.JWT != "" && c.NKeySeed != "":
		opts = append(opts, nats.UserJWTAndSeed(c.JWT, c.NKeySeed))
	case c.NKeySeed != "":
		opt, err := nkeyOption(c.NKeySeed)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// nkeyOption аутентификация по пользовательскому seed без JWT
func nkeyOption(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	public, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nats.Nkey(public, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

// NewClient подключается к первому доступному серверу из списка // v1.0
func NewClient(config Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if len(config.URLs) == 0 {
		return nil, fmt.Errorf("at least one NATS URL is required")
	}

	opts, err := config.Options(logger)
	if err != nil {
		return nil, err
	}

	servers := config.URLs[0]
	for _, url := range config.URLs[1:] {
		servers += "," + url
	}

	conn, err := nats.Connect(servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{
		conn:   conn,
		config: config,
		logger: logger,
		subs:   make(map[string]*nats.Subscription),
	}, nil
}

// Publish публикует сырые данные в субъект // v1.0
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// QueueSubscribe подписка в группе очереди: каждое сообщение получает
// один участник группы // v1.0
func (c *Client) QueueSubscribe(subject, queue string, handler func([]byte)) error {
	sub, err := c.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s with queue %s: %w", subject, queue, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()
	return nil
}

// Unsubscribe отписывается от субъекта // v1.0
func (c *Client) Unsubscribe(subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sub, exists := c.subs[subject]; exists {
		if err := sub.Unsubscribe(); err != nil {
			return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
		}
		delete(c.subs, subject)
	}
	return nil
}

// Close дожидается доставки буферов и закрывает соединение // v1.0
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}

// IsConnected проверяет, подключен ли клиент
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// GetConnectionInfo возвращает информацию о соединении // v1.0
func (c *Client) GetConnectionInfo() map[string]interface{} {
	if c.conn == nil {
		return nil
	}
	stats := c.conn.Stats()
	return map[string]interface{}{
		"connected": c.conn.IsConnected(),
		"url":       c.conn.ConnectedUrl(),
		"in_msgs":   stats.InMsgs,
		"out_msgs":  stats.OutMsgs,
	}
}
