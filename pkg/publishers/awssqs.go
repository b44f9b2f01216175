package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// sqsClient defines the minimal subset of the SQS client used by the AWS sender.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// awsSQSSender implements queueSender for AWS SQS.
type awsSQSSender struct {
	queueURL string
	client   sqsClient
	log      logger.Logger
}

// loadAWSConfig resolves region and credentials, preferring static keys
// when configured.
func loadAWSConfig(ctx context.Context, region string, creds AWSCredentials) (aws.Config, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(region)}
	if creds.static() {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

func newAWSSQSSender(ctx context.Context, cfg *AWSSQSPublisherConfig, log logger.Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("aws sqs configuration is missing")
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.Region, cfg.AWSCredentials)
	if err != nil {
		return nil, err
	}

	return &awsSQSSender{
		queueURL: cfg.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      log,
	}, nil
}

// Send publishes the event to the configured SQS queue.
func (s *awsSQSSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	attrs := make(map[string]types.MessageAttributeValue)
	for k, v := range eventAttributes(evt) {
		if v == "" {
			continue
		}
		attrs[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}

	resp, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: attrs,
	})
	if err != nil {
		s.log.ErrorObj("sqs publisher send failed", "publisher_sqs_error", map[string]any{
			"event_id": evt.ID,
			"error":    err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs publisher delivered event", "publisher_sqs_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": aws.ToString(resp.MessageId),
	})
	return nil
}

func (s *awsSQSSender) Close() error { return nil }
