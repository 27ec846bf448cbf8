// Package iot connects the service to gate devices through AWS: gate messages
// arrive on SQS and lot events leave through IoT Core topics.
package iot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/metrics"
)

var ErrInvalidGateMessage = errors.New("invalid gate message")

type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// GateService is the subset of the parking service gate messages drive.
type GateService interface {
	CheckIn(ctx context.Context, lotID int, plateNumber string) error
	CheckOut(ctx context.Context, lotID int, plateNumber string, parkingFee int) error
	UpdatePayment(ctx context.Context, plateNumber string, paid bool) error
}

type SQSConsumer struct {
	sqsClient  SQSAPI
	queueURL   string
	service    GateService
	logger     *zap.Logger
	retryDelay time.Duration
}

func NewSQSConsumer(client SQSAPI, queueURL string, service GateService, logger *zap.Logger) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:  client,
		queueURL:   queueURL,
		service:    service,
		logger:     logger.With(zap.String("queue", queueURL)),
		retryDelay: 5 * time.Second,
	}
}

// Start long-polls the queue until ctx is cancelled.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("SQS consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("SQS consumer stopped")
			return
		default:
		}

		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("SQS consumer stopped")
				return
			}
			c.logger.Error("failed to receive gate messages", zap.Error(err))
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				c.logger.Info("SQS consumer stopped while waiting for retry")
				return
			}
		}
	}
}

func (c *SQSConsumer) poll(ctx context.Context) error {
	result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   60,
	})
	if err != nil {
		return err
	}

	for _, message := range result.Messages {
		messageID := aws.ToString(message.MessageId)
		err := c.HandleMessage(ctx, aws.ToString(message.Body))
		switch {
		case err == nil:
			c.deleteMessage(ctx, message.ReceiptHandle)
		case errors.Is(err, ErrInvalidGateMessage):
			c.logger.Warn("discarding invalid gate message", zap.String("message_id", messageID), zap.Error(err))
			c.deleteMessage(ctx, message.ReceiptHandle)
		default:
			c.logger.Error("failed to process gate message, leaving it for redelivery",
				zap.String("message_id", messageID), zap.Error(err))
		}
	}
	return nil
}

// HandleMessage decodes one gate message and runs the matching operation.
// Errors wrapping ErrInvalidGateMessage will never succeed on redelivery.
func (c *SQSConsumer) HandleMessage(ctx context.Context, body string) error {
	msg, err := decodeGateMessage(body)
	if err != nil {
		metrics.GateMessages.WithLabelValues("unknown", "invalid").Inc()
		return err
	}

	plate := *msg.PlateNumber
	switch msg.Action {
	case domain.GateActionCheckIn:
		err = c.service.CheckIn(ctx, *msg.LotID, plate)
	case domain.GateActionCheckOut:
		err = c.service.CheckOut(ctx, *msg.LotID, plate, *msg.ParkingFee)
	case domain.GateActionPayment:
		err = c.service.UpdatePayment(ctx, plate, *msg.Paid)
	}
	metrics.GateMessages.WithLabelValues(string(msg.Action), metrics.Result(err)).Inc()
	if err == nil {
		c.logger.Info("gate message processed",
			zap.String("action", string(msg.Action)),
			zap.String("plate_number", plate),
			zap.String("device_id", msg.DeviceID))
	}
	return err
}

func decodeGateMessage(body string) (*domain.GateMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidGateMessage)
	}
	var msg domain.GateMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGateMessage, err)
	}
	if msg.PlateNumber == nil {
		return nil, fmt.Errorf("%w: plate_number is required", ErrInvalidGateMessage)
	}

	switch msg.Action {
	case domain.GateActionCheckIn:
		if msg.LotID == nil {
			return nil, fmt.Errorf("%w: lot_id is required", ErrInvalidGateMessage)
		}
	case domain.GateActionCheckOut:
		if msg.LotID == nil || msg.ParkingFee == nil {
			return nil, fmt.Errorf("%w: lot_id and parking_fee are required", ErrInvalidGateMessage)
		}
	case domain.GateActionPayment:
		if msg.Paid == nil {
			return nil, fmt.Errorf("%w: paid is required", ErrInvalidGateMessage)
		}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidGateMessage, msg.Action)
	}
	return &msg, nil
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		c.logger.Warn("gate message has no receipt handle, cannot delete")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete gate message", zap.Error(err))
	}
}
