package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cyphera/cyphera-agent/internal/types/business"
)

// SQSAPI is the part of the SQS client used here.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ActivityQueue publishes redemption activity records to an SQS queue.
type ActivityQueue struct {
	api      SQSAPI
	queueURL string
}

// NewActivityQueue creates an activity sink for queueURL.
func NewActivityQueue(cfg aws.Config, queueURL string) *ActivityQueue {
	return NewActivityQueueWithAPI(sqs.NewFromConfig(cfg), queueURL)
}

// NewActivityQueueWithAPI wraps an existing API implementation.
func NewActivityQueueWithAPI(api SQSAPI, queueURL string) *ActivityQueue {
	return &ActivityQueue{api: api, queueURL: queueURL}
}

func (q *ActivityQueue) Name() string { return "sqs" }

// Emit sends record as a JSON message grouped by grant.
func (q *ActivityQueue) Emit(ctx context.Context, record business.ActivityRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal activity record: %w", err)
	}

	_, err = q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"status": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(record.Status)),
			},
			"grant_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(record.GrantID.String()),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send activity record: %w", err)
	}
	return nil
}
