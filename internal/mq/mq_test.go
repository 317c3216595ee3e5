package mq_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/mq"
	"github.com/academic-portal/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigWithoutBackend(t *testing.T) {
	q, err := mq.NewFromConfig(context.Background(), config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestNewFromConfigRejectsUnknownBackend(t *testing.T) {
	_, err := mq.NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	require.Error(t, err)
}

func TestNewFromConfigRequiresRabbitURL(t *testing.T) {
	_, err := mq.NewFromConfig(context.Background(), config.MQConfig{Backend: config.BackendRabbitMQ})
	require.Error(t, err)
}

func TestMemoryRoundTrip(t *testing.T) {
	q, err := mq.NewFromConfig(context.Background(), config.MQConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	defer q.Close()

	event := types.UserRegistered{UserID: "u1", Email: "a@x.com", Name: "Ann", CourseIDs: []string{"EEE.7-3.1"}}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	id, err := q.Publish(context.Background(), "user.registered", data, map[string]string{"type": "user.registered"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got types.UserRegistered
	err = q.SubscribeRegistrations(ctx, "user.registered", func(_ context.Context, e types.UserRegistered) error {
		got = e
		cancel()
		return nil
	}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, event.UserID, got.UserID)
	assert.Equal(t, event.CourseIDs, got.CourseIDs)
}

func TestMemoryRedeliversOnHandlerError(t *testing.T) {
	broker := mq.NewMemory()
	defer broker.Close()

	_, err := broker.Publish(context.Background(), "c", []byte("x"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	attempts := 0
	err = broker.Subscribe(ctx, "c", func(context.Context, mq.Message) error {
		attempts++
		if attempts == 1 {
			return errors.New("try again")
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestMemoryDropsAfterSecondFailure(t *testing.T) {
	broker := mq.NewMemory()
	defer broker.Close()

	_, err := broker.Publish(context.Background(), "c", []byte("x"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	attempts := 0
	err = broker.Subscribe(ctx, "c", func(context.Context, mq.Message) error {
		attempts++
		return errors.New("always fails")
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, attempts)
}

func TestSubscribeRegistrationsSkipsMalformed(t *testing.T) {
	q := mq.New(mq.NewMemory())
	defer q.Close()

	_, err := q.Publish(context.Background(), "c", []byte("not json"), nil)
	require.NoError(t, err)
	_, err = q.Publish(context.Background(), "c", []byte(`{"userId":"u2"}`), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var bad int
	var seen []string
	err = q.SubscribeRegistrations(ctx, "c", func(_ context.Context, e types.UserRegistered) error {
		seen = append(seen, e.UserID)
		cancel()
		return nil
	}, func(mq.Message, error) { bad++ })
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, bad)
	assert.Equal(t, []string{"u2"}, seen)
}

func TestMemoryClosedRejectsPublish(t *testing.T) {
	broker := mq.NewMemory()
	require.NoError(t, broker.Close())
	_, err := broker.Publish(context.Background(), "c", []byte("x"), nil)
	require.Error(t, err)
}
