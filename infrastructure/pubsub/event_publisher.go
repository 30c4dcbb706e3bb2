package pubsub

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

type IEventPublisher interface {
	Emit(ctx context.Context, event model.LifecycleEvent) (string, error)
}

// EventPublisher pushes publish lifecycle events to a Google Pub/Sub topic.
// A nil client disables emission so local setups without GCP keep working.
type EventPublisher struct {
	client *pubsub.Client
	topic  string
}

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("pubsub client creation failed")
		return nil, err
	}
	return client, nil
}

func NewEventPublisher(client *pubsub.Client, topic string) IEventPublisher {
	return &EventPublisher{client: client, topic: topic}
}

func (p *EventPublisher) Emit(ctx context.Context, event model.LifecycleEvent) (string, error) {
	if p.client == nil {
		return "", nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	topic := p.client.Topic(p.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topic).Info("Topic doesn't exist - creating it")
		if _, err := p.client.CreateTopic(ctx, p.topic); err != nil {
			return "", err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"type": event.Type, "content_id": event.ContentID},
	}).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("type", event.Type).
		Info("Lifecycle event published")
	return serverID, nil
}

func (p *EventPublisher) GetSubscription(subID string) (*pubsub.Subscription, error) {
	logger.GetLogger().WithField("subID", subID).Info("PubSub starting...")
	return p.client.Subscription(subID), nil
}
