package mq

import (
	"context"
	"errors"
	"strings"
	"sync"
)

const memoryBuffer = 64

// Memory is an in-process backend for development and tests. Each channel is
// a single buffered queue; a nacked message is redelivered once and then
// dropped, as RabbitMQ does.
type Memory struct {
	mu     sync.Mutex
	queues map[string]chan delivery
	closed bool
}

type delivery struct {
	msg         Message
	redelivered bool
}

func NewMemory() *Memory {
	return &Memory{queues: make(map[string]chan delivery)}
}

// queue returns the buffer for channel, creating it on first use. Callers
// must hold m.mu.
func (m *Memory) queue(channel string) (chan delivery, error) {
	if m.closed {
		return nil, errors.New("memory broker closed")
	}
	q, ok := m.queues[channel]
	if !ok {
		q = make(chan delivery, memoryBuffer)
		m.queues[channel] = q
	}
	return q, nil
}

func (m *Memory) offer(channel string, d delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.queue(channel)
	if err != nil {
		return err
	}
	select {
	case q <- d:
		return nil
	default:
		return errors.New("memory queue full")
	}
}

func (m *Memory) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}
	msg := Message{ID: newMessageID(), Data: append([]byte(nil), data...), Attributes: attrs}
	if err := m.offer(channel, delivery{msg: msg}); err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}
	m.mu.Lock()
	q, err := m.queue(channel)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-q:
			if !ok {
				return errors.New("memory channel closed")
			}
			if err := handler(ctx, d.msg); err != nil && !d.redelivered {
				_ = m.offer(channel, delivery{msg: d.msg, redelivered: true})
			}
		}
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, q := range m.queues {
		close(q)
	}
	return nil
}
