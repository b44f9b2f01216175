package publishers

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// queueSender abstracts provider-specific queue senders.
type queueSender interface {
	Send(ctx context.Context, evt Event) error
	Close() error
}

// queuePublisher dispatches events to a cloud queue provider.
type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
}

// newQueuePublisher creates a queue publisher for the configured provider.
func newQueuePublisher(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	var (
		sender queueSender
		err    error
	)

	switch cfg.Queue.Provider {
	case QueueProviderAWSSQS:
		sender, err = newAWSSQSSender(ctx, cfg.Queue.SQS, log)
	case QueueProviderAWSSNS:
		sender, err = newAWSSNSSender(ctx, cfg.Queue.SNS, log)
	case QueueProviderGCP:
		sender, err = newGCPPubSubSender(ctx, cfg.Queue.GCP, log)
	default:
		err = fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &queuePublisher{
		id:       cfg.ID,
		provider: cfg.Queue.Provider,
		sender:   sender,
	}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }

// Publish forwards the event to the configured queue provider.
func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("queue provider %s send failed: %w", p.provider, err)
	}
	return nil
}

func (p *queuePublisher) Close() error {
	return p.sender.Close()
}

// eventAttributes are the message attributes every queue message carries so
// consumers can route without decoding the body.
func eventAttributes(evt Event) map[string]string {
	return map[string]string{
		"event_type": evt.Type,
		"source":     evt.Source,
	}
}
