package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/guregu/null.v4"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key = exchange, key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishSendsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	q := &RMQueue{channel: ch, queueName: "lot_events"}

	event := domain.LotEvent{
		ID:          "evt-1",
		Type:        domain.LotEventCheckIn,
		LotID:       null.IntFrom(2),
		PlateNumber: "กข1234",
		OccurredAt:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := q.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if ch.exchange != "" || ch.key != "lot_events" {
		t.Errorf("expected default exchange and queue key, got %q/%q", ch.exchange, ch.key)
	}
	msg := ch.msgs[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" || msg.MessageId != "evt-1" {
		t.Errorf("unexpected message properties %+v", msg)
	}
	var decoded domain.LotEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if decoded.PlateNumber != "กข1234" || decoded.LotID.Int64 != 2 {
		t.Errorf("unexpected body %+v", decoded)
	}
}

func TestPublishReturnsChannelError(t *testing.T) {
	boom := errors.New("channel closed")
	q := &RMQueue{channel: &fakeChannel{err: boom}, queueName: "lot_events"}

	if err := q.Publish(context.Background(), domain.LotEvent{ID: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected channel error, got %v", err)
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	q := &RMQueue{channel: ch}
	q.Close()
	if !ch.closed {
		t.Error("expected channel to be closed")
	}
}
