// Package mq carries registration events over RabbitMQ, Pub/Sub or an
// in-process queue.
package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/types"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// NewFromConfig connects the configured broker. It returns nil, nil when no
// backend is configured, in which case events are not published.
func NewFromConfig(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		return New(NewMemory()), nil
	case config.BackendRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return New(client), nil
	case config.BackendPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unsupported MQ_BACKEND %q", cfg.Backend)
	}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// SubscribeRegistrations decodes each message as a UserRegistered event.
// Undecodable messages are acknowledged and reported through onError.
func (m *MQ) SubscribeRegistrations(ctx context.Context, channel string, fn func(context.Context, types.UserRegistered) error, onError func(Message, error)) error {
	return m.Subscribe(ctx, channel, func(ctx context.Context, msg Message) error {
		var event types.UserRegistered
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			if onError != nil {
				onError(msg, err)
			}
			return nil
		}
		return fn(ctx, event)
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
