package iot

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

type fakeSQS struct {
	messages []types.Message
	deleted  []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	msgs := f.messages
	f.messages = nil
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeGateService struct {
	calls []string
	err   error
}

func (f *fakeGateService) CheckIn(ctx context.Context, lotID int, plateNumber string) error {
	f.calls = append(f.calls, "checkin:"+plateNumber)
	return f.err
}

func (f *fakeGateService) CheckOut(ctx context.Context, lotID int, plateNumber string, parkingFee int) error {
	f.calls = append(f.calls, "checkout:"+plateNumber)
	return f.err
}

func (f *fakeGateService) UpdatePayment(ctx context.Context, plateNumber string, paid bool) error {
	f.calls = append(f.calls, "payment:"+plateNumber)
	return f.err
}

func message(handle, body string) types.Message {
	return types.Message{MessageId: aws.String(handle), ReceiptHandle: aws.String(handle), Body: aws.String(body)}
}

func TestHandleMessageDispatchesByAction(t *testing.T) {
	svc := &fakeGateService{}
	c := NewSQSConsumer(&fakeSQS{}, "queue", svc, zap.NewNop())
	ctx := context.Background()

	bodies := []string{
		`{"action":"checkin","lot_id":1,"plate_number":"AA1"}`,
		`{"action":"checkout","lot_id":0,"plate_number":"BB2","parking_fee":40}`,
		`{"action":"payment","plate_number":"CC3","paid":false}`,
	}
	for _, body := range bodies {
		if err := c.HandleMessage(ctx, body); err != nil {
			t.Fatalf("HandleMessage(%s) failed: %v", body, err)
		}
	}

	want := []string{"checkin:AA1", "checkout:BB2", "payment:CC3"}
	if len(svc.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, svc.calls)
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], svc.calls[i])
		}
	}
}

func TestHandleMessageAcceptsEmptyPlate(t *testing.T) {
	svc := &fakeGateService{}
	c := NewSQSConsumer(&fakeSQS{}, "queue", svc, zap.NewNop())

	if err := c.HandleMessage(context.Background(), `{"action":"checkin","lot_id":2,"plate_number":""}`); err != nil {
		t.Fatalf("empty plate should be dispatched, got %v", err)
	}
	if len(svc.calls) != 1 || svc.calls[0] != "checkin:" {
		t.Fatalf("expected one checkin with an empty plate, got %v", svc.calls)
	}
}

func TestHandleMessageRejectsInvalidPayloads(t *testing.T) {
	c := NewSQSConsumer(&fakeSQS{}, "queue", &fakeGateService{}, zap.NewNop())

	cases := map[string]string{
		"empty":           "  ",
		"not json":        "{",
		"unknown action":  `{"action":"open_barrier","lot_id":1,"plate_number":"AA1"}`,
		"missing plate":   `{"action":"checkin","lot_id":1}`,
		"null plate":      `{"action":"checkin","lot_id":1,"plate_number":null}`,
		"missing lot":     `{"action":"checkin","plate_number":"AA1"}`,
		"checkout no fee": `{"action":"checkout","lot_id":1,"plate_number":"AA1"}`,
		"payment no paid": `{"action":"payment","plate_number":"AA1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if err := c.HandleMessage(context.Background(), body); !errors.Is(err, ErrInvalidGateMessage) {
				t.Fatalf("expected ErrInvalidGateMessage, got %v", err)
			}
		})
	}
}

func TestPollDeletesProcessedAndInvalidMessages(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{
		message("ok", `{"action":"checkin","lot_id":1,"plate_number":"AA1"}`),
		message("bad", `not json`),
	}}
	c := NewSQSConsumer(client, "queue", &fakeGateService{}, zap.NewNop())

	if err := c.poll(context.Background()); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(client.deleted) != 2 || client.deleted[0] != "ok" || client.deleted[1] != "bad" {
		t.Errorf("expected both messages deleted, got %v", client.deleted)
	}
}

func TestPollKeepsFailedMessagesForRedelivery(t *testing.T) {
	client := &fakeSQS{messages: []types.Message{
		message("retry", `{"action":"checkin","lot_id":1,"plate_number":"AA1"}`),
	}}
	svc := &fakeGateService{err: errors.New("store unavailable")}
	c := NewSQSConsumer(client, "queue", svc, zap.NewNop())

	if err := c.poll(context.Background()); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(client.deleted) != 0 {
		t.Errorf("expected failed message to stay on the queue, deleted %v", client.deleted)
	}
}

func TestStartStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewSQSConsumer(&fakeSQS{}, "queue", &fakeGateService{}, zap.NewNop()).Start(ctx)
		close(done)
	}()
	<-done
}
