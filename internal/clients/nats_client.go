package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"ghost-backend/internal/config"
	"ghost-backend/internal/metrics"
)

// NATSClient publishes protocol events to the bus. The ledger's public
// notifications (commitment inserted, root updated, ghost, redeem) go
// through here.
type NATSClient struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNATSClient connects to NATS and ensures the event stream exists.
func NewNATSClient(url string) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	reconnectWait := 5 * time.Second
	maxReconnects := -1
	if config.AppConfig != nil {
		if config.AppConfig.NATS.Timeout > 0 {
			connectTimeout = time.Duration(config.AppConfig.NATS.Timeout) * time.Second
		}
		if config.AppConfig.NATS.ReconnectWait > 0 {
			reconnectWait = time.Duration(config.AppConfig.NATS.ReconnectWait) * time.Second
		}
		if config.AppConfig.NATS.MaxReconnects != 0 {
			maxReconnects = config.AppConfig.NATS.MaxReconnects
		}
	}

	conn, err := nats.Connect(url,
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.WithError(err).Warn("NATS disconnected")
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Info("NATS reconnected")
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c := &NATSClient{conn: conn, js: js}
	if err := c.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	metrics.NATSConnectionStatus.Set(1)
	return c, nil
}

func (c *NATSClient) ensureStream() error {
	streamName := "GHOST_EVENTS"
	if config.AppConfig != nil && config.AppConfig.NATS.StreamName != "" {
		streamName = config.AppConfig.NATS.StreamName
	}

	if _, err := c.js.StreamInfo(streamName); err == nil {
		return nil
	}

	_, err := c.js.AddStream(&nats.StreamConfig{
		Name: streamName,
		Subjects: []string{
			"ghost.*.Ledger.*",
			"ghost.*.Registry.*",
			"ghost.*.Vault.*",
		},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}
	return nil
}

// Publish marshals the payload and publishes it on the subject.
func (c *NATSClient) Publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	if _, err := c.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
