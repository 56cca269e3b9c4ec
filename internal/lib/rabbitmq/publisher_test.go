package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishMessage(t *testing.T) {
	type testMsg struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	t.Run("success", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", Exchange, RoutingRunCompleted, false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			var got testMsg
			if err := json.Unmarshal(p.Body, &got); err != nil {
				return false
			}
			return got == testMsg{ID: 1, Name: "Hello"} &&
				p.ContentType == "application/json" &&
				p.DeliveryMode == amqp.Persistent
		})).Return(nil).Once()

		err := PublishMessage(ch, Exchange, RoutingRunCompleted, testMsg{ID: 1, Name: "Hello"})
		require.NoError(t, err)
		ch.AssertExpectations(t)
	})

	t.Run("marshal error", func(t *testing.T) {
		ch := new(MockChannel)
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)}

		err := PublishMessage(ch, Exchange, RoutingRunCompleted, badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publish error", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).
			Return(errors.New("channel closed")).Once()

		err := PublishMessage(ch, Exchange, RoutingRunCompleted, map[string]int{"a": 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "channel closed")
	})
}

func TestPublisher_Publish(t *testing.T) {
	ch := new(MockChannel)
	ch.On("Publish", Exchange, RoutingRunCompleted, false, false, mock.Anything).Return(nil).Once()

	p := NewPublisher(ch)
	require.NoError(t, p.Publish(context.Background(), RoutingRunCompleted, map[string]int{"sent": 2}))
	ch.AssertExpectations(t)
}

func TestPublisher_PublishCanceledContext(t *testing.T) {
	ch := new(MockChannel)
	p := NewPublisher(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, RoutingRunCompleted, map[string]int{"sent": 2})
	require.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
