package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/outbackwarning/outbackwarning/internal/feedcache"
)

// Job types carried in refresh messages.
const (
	JobFeedRefresh = "feed_refresh"
	JobHealthCheck = "health_check"
)

// ErrMalformedMessage is returned for messages that are not valid JSON.
var ErrMalformedMessage = errors.New("malformed refresh message")

// RefreshMessage asks the worker to refresh feeds.
type RefreshMessage struct {
	JobType string `json:"job_type"`

	// Sources limits a feed_refresh to these feed keys. Empty means all.
	Sources []string `json:"sources,omitempty"`
}

// PubSubHandler consumes refresh triggers from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	refreshJob       *RefreshJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	// Refreshes are cheap to repeat; a handful in flight is plenty.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		refreshJob:       cfg.RefreshJob,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks processing messages until ctx is cancelled.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if err := HandleMessage(ctx, h.refreshJob, logger, msg.Data); err != nil {
			logger.Error().Err(err).Msg("job failed")
			if errors.Is(err, ErrMalformedMessage) {
				// Redelivery cannot fix a bad payload.
				msg.Ack()
				return
			}
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// HandleMessage runs the job described by data. A nil error means the
// message should be acknowledged.
func HandleMessage(ctx context.Context, job *RefreshJob, logger zerolog.Logger, data []byte) error {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	start := time.Now()
	var err error
	switch msg.JobType {
	case JobFeedRefresh:
		err = handleFeedRefresh(ctx, job, msg.Sources)
	case JobHealthCheck:
		err = handleFeedRefresh(ctx, job, []string{feedcache.KeyIncidents})
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(start)).
		Msg("job completed successfully")
	return nil
}

func handleFeedRefresh(ctx context.Context, job *RefreshJob, sources []string) error {
	result := job.RunSources(ctx, sources)
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.Sources)
	}
	return nil
}
