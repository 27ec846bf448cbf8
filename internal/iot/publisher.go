package iot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
)

type DataPlaneAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// TopicPublisher pushes lot events to MQTT topics through AWS IoT Core.
type TopicPublisher struct {
	client      DataPlaneAPI
	topicPrefix string
}

func NewTopicPublisher(client DataPlaneAPI, topicPrefix string) *TopicPublisher {
	return &TopicPublisher{client: client, topicPrefix: strings.Trim(topicPrefix, "/")}
}

// Topic is <prefix>/lots/<lot_id>/events. Payment events carry no lot and go
// to <prefix>/payments.
func (p *TopicPublisher) Topic(event domain.LotEvent) string {
	if !event.LotID.Valid {
		return p.topicPrefix + "/payments"
	}
	return fmt.Sprintf("%s/lots/%d/events", p.topicPrefix, event.LotID.Int64)
}

func (p *TopicPublisher) Publish(ctx context.Context, event domain.LotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(p.Topic(event)),
		Payload: payload,
		Qos:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to IoT topic: %w", err)
	}
	return nil
}
