package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"procodus.dev/river-monitor/internal/store"
	"procodus.dev/river-monitor/pkg/metrics"
	"procodus.dev/river-monitor/pkg/mq"
)

// Consumer consumes telemetry messages from RabbitMQ and appends them to
// the reading log, optionally mirroring each reading to the database
// archive.
type Consumer struct {
	logger   *slog.Logger
	log      *store.Log
	archive  *store.Archive // nil when archiving is disabled
	mqClient *mq.Client
	metrics  *metrics.IngestMetrics // Optional metrics
	done     chan struct{}
}

// ConsumerConfig holds the configuration for the Consumer.
type ConsumerConfig struct {
	Logger      *slog.Logger
	Log         *store.Log
	Archive     *store.Archive
	RabbitMQURL string
	QueueName   string

	// MQMetrics is the optional Prometheus metrics collector for MQ operations
	MQMetrics *metrics.MQMetrics
}

// NewConsumer creates a new Consumer instance.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil {
		return nil, errors.New("consumer config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Log == nil {
		return nil, errors.New("reading log cannot be nil")
	}

	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq URL cannot be empty")
	}

	if cfg.QueueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	mqClient := mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger)
	if cfg.MQMetrics != nil {
		mqClient.SetMetrics(cfg.MQMetrics)
	}

	return &Consumer{
		logger:   cfg.Logger,
		log:      cfg.Log,
		archive:  cfg.Archive,
		mqClient: mqClient,
		done:     make(chan struct{}),
	}, nil
}

// SetMetrics sets the metrics collector for this consumer.
// This should be called before Start.
func (c *Consumer) SetMetrics(m *metrics.IngestMetrics) {
	c.metrics = m
}

// Start begins consuming messages from RabbitMQ.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting consumer")

	// Wait for MQ client to be ready
	time.Sleep(2 * time.Second)

	deliveries, err := c.mqClient.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer started, waiting for messages")

	go c.processMessages(ctx, deliveries)

	return nil
}

// processMessages processes incoming messages from the deliveries channel.
func (c *Consumer) processMessages(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context canceled, stopping message processing")
			close(c.done)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed")
				close(c.done)
				return
			}

			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery processes a single message delivery.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var timer *prometheus.Timer
	if c.metrics != nil {
		timer = prometheus.NewTimer(c.metrics.HandleDuration)
		defer timer.ObserveDuration()
	}

	reading, err := ParseMessage(delivery.Body, time.Now())
	if err != nil {
		c.logger.Error("dropping malformed message", "error", err)
		if c.metrics != nil {
			c.metrics.MalformedMessages.WithLabelValues("parse_error").Inc()
		}
		// Acknowledge so the broker does not redeliver garbage.
		if ackErr := delivery.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack message", "error", ackErr)
		}
		return
	}

	c.logger.Info("received reading",
		"timestamp", reading.Timestamp,
		"water_level_cm", reading.WaterLevelCM,
		"temperature_c", reading.TemperatureC,
		"rain_level", reading.RainLevel,
	)

	if err := c.log.Append(reading); err != nil {
		c.logger.Error("failed to append reading", "error", err)
		if c.metrics != nil {
			c.metrics.AppendFailures.Inc()
		}
		// Nack the message so it can be reprocessed
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		return
	}

	if c.metrics != nil {
		c.metrics.ReadingsIngested.Inc()
	}

	// The CSV log is canonical; an archive failure is logged and counted
	// but never blocks the append or the ack.
	if c.archive != nil {
		if err := c.archive.Save(ctx, reading); err != nil {
			c.logger.Error("failed to archive reading", "error", err)
			if c.metrics != nil {
				c.metrics.ArchiveFailures.Inc()
			}
		} else if c.metrics != nil {
			c.metrics.ReadingsArchived.Inc()
		}
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
		return
	}

	c.logger.Debug("reading appended", "timestamp", reading.Timestamp)
}

// Stop stops the consumer and closes the MQ client.
func (c *Consumer) Stop() error {
	c.logger.Info("stopping consumer")

	if err := c.mqClient.Close(); err != nil {
		return fmt.Errorf("failed to close mq client: %w", err)
	}

	// Wait for message processing to complete
	<-c.done

	c.logger.Info("consumer stopped")
	return nil
}
