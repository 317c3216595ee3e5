package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes to and consumes from queues named after the
// channel, through the default exchange.
type RabbitMQClient struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	cfg  config.RabbitMQConfig
}

func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	return &RabbitMQClient{conn: conn, ch: ch, cfg: cfg}, nil
}

func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.ensureQueue(channel); err != nil {
		return "", err
	}
	msg := r.publishing(data, attrs)
	if err := r.ch.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", channel, err)
	}
	return msg.MessageId, nil
}

// Subscribe acks handled deliveries. A failed delivery is requeued once and
// dropped if it fails again.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.ensureQueue(channel); err != nil {
		return err
	}

	tag := "portal-" + uuid.NewString()
	deliveries, err := r.ch.Consume(channel, tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", channel, err)
	}
	defer func() { _ = r.ch.Cancel(tag, false) }()

	for {
		var d amqp.Delivery
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-deliveries:
		}
		if !ok {
			return errors.New("rabbitmq delivery channel closed")
		}

		msg := Message{ID: d.MessageId, Data: d.Body, Attributes: stringHeaders(d.Headers)}
		if err := handler(ctx, msg); err != nil {
			_ = d.Nack(false, !d.Redelivered)
			continue
		}
		_ = d.Ack(false)
	}
}

func (r *RabbitMQClient) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *RabbitMQClient) ensureQueue(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rabbitmq channel is required")
	}
	_, err := r.ch.QueueDeclare(name, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

func (r *RabbitMQClient) publishing(data []byte, attrs map[string]string) amqp.Publishing {
	headers := make(amqp.Table, len(attrs))
	for k, v := range attrs {
		headers[k] = v
	}
	mode := amqp.Transient
	if r.cfg.QueueDurable {
		mode = amqp.Persistent
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		MessageId:    newMessageID(),
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         data,
	}
}

func stringHeaders(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		switch s := v.(type) {
		case string:
			out[k] = s
		case []byte:
			out[k] = string(s)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func newMessageID() string {
	return uuid.NewString()
}
