package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/linkrelay/linkrelay/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closed     bool
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return m.closeErr
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes marshaled event to topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[testEvent](mock, "test.topic")

		err := publish(&testEvent{ID: "1", Name: "hello"})

		require.NoError(t, err)
		assert.Equal(t, "test.topic", mock.topic)
		require.Len(t, mock.messages, 1)

		var got testEvent
		require.NoError(t, json.Unmarshal(mock.messages[0].Payload, &got))
		assert.Equal(t, "hello", got.Name)
	})

	t.Run("returns publisher error", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("broker down")}
		publish := messaging.NewPublishFunc[testEvent](mock, "test.topic")

		err := publish(&testEvent{ID: "1"})

		assert.Error(t, err)
	})
}

func TestNoopPublish(t *testing.T) {
	publish := messaging.NoopPublish[testEvent]()

	assert.NoError(t, publish(&testEvent{ID: "1"}))
}

func TestPublisherGroup(t *testing.T) {
	t.Run("shutdown closes the publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Same(t, message.Publisher(mock), group.Publisher())
		require.NoError(t, group.Shutdown())
		assert.True(t, mock.closed)
	})
}

type mockRunnable struct {
	started  bool
	stopped  bool
	startErr error
}

func (m *mockRunnable) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.stopped = true

	return nil
}

type mockSubscriber struct {
	closed bool
}

func (m *mockSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, errors.New("not used")
}

func (m *mockSubscriber) Close() error {
	m.closed = true

	return nil
}

func TestConsumerGroup(t *testing.T) {
	t.Run("starts and stops all members", func(t *testing.T) {
		sub := &mockSubscriber{}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())

		first := &mockRunnable{}
		second := &mockRunnable{}
		group.Add(first)
		group.Add(second)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, first.started)
		assert.True(t, second.started)

		require.NoError(t, group.Shutdown())
		assert.True(t, first.stopped)
		assert.True(t, second.stopped)
		assert.True(t, sub.closed)
	})

	t.Run("start failure rolls back started members", func(t *testing.T) {
		group := messaging.NewConsumerGroup(nil, zap.NewNop())

		first := &mockRunnable{}
		failing := &mockRunnable{startErr: errors.New("boom")}
		group.Add(first)
		group.Add(failing)

		err := group.Start(context.Background())

		assert.Error(t, err)
		assert.True(t, first.stopped)
	})

	t.Run("nil subscriber is allowed", func(t *testing.T) {
		group := messaging.NewConsumerGroup(nil, zap.NewNop())
		group.Add(&mockRunnable{})

		require.NoError(t, group.Start(context.Background()))
		assert.NoError(t, group.Shutdown())
	})
}
