package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/logger"
	pkgmqtt "marketlive/pkg/mqtt"

	"go.uber.org/zap"
)

const feedQoS byte = 1

// Broker is the part of the MQTT client the feed uses.
type Broker interface {
	Connect() error
	Subscribe(topic string, qos byte, handler pkgmqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	Disconnect()
}

// FeedClient subscribes to the carrier tracking topic and hands messages to a Processor.
type FeedClient struct {
	broker    Broker
	topic     string
	processor *Processor

	mu         sync.Mutex
	subscribed bool
}

// NewMQTTBroker builds the paho-backed broker. resubscribe runs after every reconnect.
func NewMQTTBroker(cfg config.MQTTConfig, resubscribe func()) *pkgmqtt.Client {
	return pkgmqtt.NewClient(&pkgmqtt.Config{
		Broker:               cfg.Broker,
		ClientID:             cfg.ClientID,
		Username:             cfg.Username,
		Password:             cfg.Password,
		CleanSession:         true,
		KeepAlive:            30,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
		OnConnect:            resubscribe,
		Logger:               logger.Named("mqtt"),
	})
}

// NewFeedClient wires an MQTT connection for cfg to processor.
func NewFeedClient(cfg config.MQTTConfig, processor *Processor) (*FeedClient, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is not configured")
	}
	fc := &FeedClient{topic: cfg.TrackingTopic, processor: processor}
	fc.broker = NewMQTTBroker(cfg, fc.resubscribe)
	return fc, nil
}

func newFeedClient(broker Broker, topic string, processor *Processor) *FeedClient {
	return &FeedClient{broker: broker, topic: topic, processor: processor}
}

// Run connects, subscribes and blocks until ctx is cancelled.
func (c *FeedClient) Run(ctx context.Context) error {
	if err := c.broker.Connect(); err != nil {
		return err
	}
	if err := c.subscribe(); err != nil {
		c.broker.Disconnect()
		return err
	}

	<-ctx.Done()
	c.stop()
	return nil
}

func (c *FeedClient) subscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.broker.Subscribe(c.topic, feedQoS, c.processor.HandleMessage); err != nil {
		return fmt.Errorf("subscribe failed for topic %s: %w", c.topic, err)
	}
	c.subscribed = true
	logger.Info("Listening for carrier tracking updates", zap.String("topic", c.topic))
	return nil
}

// resubscribe restores the subscription after the broker dropped the session.
func (c *FeedClient) resubscribe() {
	c.mu.Lock()
	was := c.subscribed
	c.mu.Unlock()
	if !was {
		return
	}
	if err := c.subscribe(); err != nil {
		logger.Error("Carrier feed resubscribe failed", zap.String("topic", c.topic), zap.Error(err))
	}
}

func (c *FeedClient) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscribed {
		if err := c.broker.Unsubscribe(c.topic); err != nil {
			logger.Warn("Failed to unsubscribe from carrier feed", zap.Error(err))
		}
		c.subscribed = false
	}
	c.broker.Disconnect()
}
