package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
)

// gcpPubSubSender implements queueSender for Google Cloud Pub/Sub.
type gcpPubSubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    logger.Logger
}

func newGCPPubSubSender(ctx context.Context, cfg *GCPQueueConfig, log logger.Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gcp queue configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &gcpPubSubSender{
		client: client,
		topic:  client.Topic(cfg.Topic),
		log:    log,
	}, nil
}

// Send publishes the event and waits for the server to acknowledge it.
func (s *gcpPubSubSender) Send(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	res := s.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: eventAttributes(evt),
	})
	msgID, err := res.Get(ctx)
	if err != nil {
		s.log.ErrorObj("gcp pubsub publisher send failed", "publisher_gcp_pubsub_error", map[string]any{
			"event_id": evt.ID,
			"error":    err.Error(),
		})
		return fmt.Errorf("send message to pubsub: %w", err)
	}

	s.log.DebugObj("gcp pubsub publisher delivered event", "publisher_gcp_pubsub_delivery", map[string]any{
		"event_id":   evt.ID,
		"message_id": msgID,
	})
	return nil
}

// Close flushes pending messages and releases the client.
func (s *gcpPubSubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
