package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}
func (a *fakeAck) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) HandleStageChanged(ctx context.Context, e usecase.StageChangedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func sampleEvent() usecase.StageChangedEvent {
	return usecase.StageChangedEvent{
		LeadID:    "42",
		LeadName:  "Acme",
		FromStage: "new",
		ToStage:   "won",
		DealValue: 1200,
		ChangedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProducer_PublishStageChanged(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub)

	require.NoError(t, p.PublishStageChanged(context.Background(), sampleEvent()))

	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "application/json", pub.msg.ContentType)

	var got usecase.StageChangedEvent
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, sampleEvent(), got)
}

func TestProducer_WrapsError(t *testing.T) {
	p := NewProducer(&fakePublisher{err: errors.New("channel closed")})
	err := p.PublishStageChanged(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "channel closed")
}

func TestWorker_Handle(t *testing.T) {
	body, _ := json.Marshal(sampleEvent())

	t.Run("acks on success", func(t *testing.T) {
		h := new(MockHandler)
		h.On("HandleStageChanged", mock.Anything, sampleEvent()).Return(nil).Once()
		ack := &fakeAck{}

		NewWorker(nil, h, nil).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		h.AssertExpectations(t)
	})

	t.Run("dead-letters on handler failure", func(t *testing.T) {
		h := new(MockHandler)
		h.On("HandleStageChanged", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
		ack := &fakeAck{}

		NewWorker(nil, h, nil).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeued)
	})

	t.Run("dead-letters malformed payloads", func(t *testing.T) {
		h := new(MockHandler)
		ack := &fakeAck{}

		NewWorker(nil, h, nil).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

		assert.True(t, ack.nacked)
		h.AssertNotCalled(t, "HandleStageChanged", mock.Anything, mock.Anything)
	})
}

type fakeConsumer struct {
	ch chan amqp.Delivery
}

func (f *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.ch, nil
}

func TestWorker_StartStopsOnContext(t *testing.T) {
	body, _ := json.Marshal(sampleEvent())
	h := new(MockHandler)
	called := make(chan struct{}, 1)
	h.On("HandleStageChanged", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		called <- struct{}{}
	})

	cons := &fakeConsumer{ch: make(chan amqp.Delivery, 1)}
	ack := &fakeAck{}
	cons.ch <- amqp.Delivery{Acknowledger: ack, Body: body}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(cons, h, nil).Start(ctx, QueueName) }()

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("delivery not handled")
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
