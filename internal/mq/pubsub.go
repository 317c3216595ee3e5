package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/academic-portal/apiserver/config"
	"google.golang.org/api/option"
)

// Past this many attempts a failing message is acked and dropped. Only
// subscriptions with a dead-letter policy report attempts.
const maxDeliveryAttempts = 5

// PubSubClient maps a channel onto a topic of the same name and a
// subscription named "<channel><suffix>". Both are created on first use.
type PubSubClient struct {
	client *pubsub.Client
	suffix string
}

func NewPubSubClient(ctx context.Context, cfg config.PubSubConfig) (*PubSubClient, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	suffix := cfg.SubscriptionSuffix
	if suffix == "" {
		suffix = "-sub"
	}
	return &PubSubClient{client: client, suffix: suffix}, nil
}

func (p *PubSubClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return "", err
	}
	defer topic.Stop()

	id, err := topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("pubsub publish to %s: %w", channel, err)
	}
	return id, nil
}

func (p *PubSubClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	topic, err := p.topic(ctx, channel)
	if err != nil {
		return err
	}
	sub, err := p.subscription(ctx, channel+p.suffix, topic)
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		err := handler(ctx, Message{ID: m.ID, Data: m.Data, Attributes: m.Attributes})
		if err == nil || exhausted(m) {
			m.Ack()
			return
		}
		m.Nack()
	})
}

func (p *PubSubClient) Close() error {
	return p.client.Close()
}

func (p *PubSubClient) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("pubsub channel is required")
	}
	t := p.client.Topic(name)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup topic %s: %w", name, err)
	}
	if ok {
		return t, nil
	}
	return p.client.CreateTopic(ctx, name)
}

func (p *PubSubClient) subscription(ctx context.Context, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	s := p.client.Subscription(name)
	ok, err := s.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup subscription %s: %w", name, err)
	}
	if ok {
		return s, nil
	}
	return p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{Topic: topic})
}

func exhausted(m *pubsub.Message) bool {
	return m.DeliveryAttempt != nil && *m.DeliveryAttempt >= maxDeliveryAttempts
}
