package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"aurorawatch/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AlertMessage is the queue payload for a firing verdict. Downstream
// delivery workers (email, push) consume these.
type AlertMessage struct {
	MessageID  string             `json:"message_id"`
	Channel    types.AlertChannel `json:"channel"`
	Urgency    types.Urgency      `json:"urgency"`
	IndexValue float64            `json:"index_value"`
	PeakTime   *time.Time         `json:"peak_time,omitempty"`
	Witness    *types.WindowMatch `json:"witness,omitempty"`
	Reason     string             `json:"reason"`
	IssuedAt   time.Time          `json:"issued_at"`
}

// SQSPublisher sends firing verdicts to a single notification queue.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
	clock    types.Clock
	logger   *slog.Logger
}

// NewSQSPublisher creates a publisher for the given queue URL.
func NewSQSPublisher(client SQSSender, queueURL string, clock types.Clock, logger *slog.Logger) *SQSPublisher {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSPublisher{client: client, queueURL: queueURL, clock: clock, logger: logger}
}

// Notify serializes the verdict as an AlertMessage and dispatches it.
// Callers commit alert state before invoking this, so delivery failure here
// surfaces as an error without re-opening the cooldown window.
func (p *SQSPublisher) Notify(ctx context.Context, v types.Verdict) error {
	msg := AlertMessage{
		MessageID:  uuid.New().String(),
		Channel:    v.Channel,
		Urgency:    v.Urgency,
		IndexValue: v.IndexValue,
		PeakTime:   v.PeakTime,
		Witness:    v.Witness,
		Reason:     v.Reason,
		IssuedAt:   p.clock.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal AlertMessage: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"channel": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(v.Channel)),
			},
			"urgency": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(v.Urgency)),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("notify: failed to send AlertMessage to %s: %w", p.queueURL, err)
	}

	p.logger.InfoContext(ctx, "alert message sent",
		"queue_url", p.queueURL,
		"message_id", msg.MessageID,
		"channel", string(v.Channel),
		"urgency", string(v.Urgency),
		"index_value", v.IndexValue,
	)
	return nil
}
