package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"my-publisher/domain/model"
	"my-publisher/infrastructure/logger"
)

type IEventSender interface {
	SendLifecycleEvent(ctx context.Context, event model.LifecycleEvent) error
}

// EventSender forwards publish lifecycle events to an Azure Service Bus
// queue. A nil client turns sends into no-ops.
type EventSender struct {
	client *azservicebus.Client
	queue  string
}

func NewServiceBus(namespace string) (*azservicebus.Client, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("azure credential creation failed")
		return nil, err
	}
	client, err := azservicebus.NewClient(fmt.Sprintf("%s.servicebus.windows.net", namespace), credential, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("service bus client creation failed")
		return nil, err
	}
	return client, nil
}

func NewEventSender(client *azservicebus.Client, queue string) IEventSender {
	return &EventSender{client: client, queue: queue}
}

func (s *EventSender) SendLifecycleEvent(ctx context.Context, event model.LifecycleEvent) error {
	if s.client == nil {
		return nil
	}

	sender, err := s.client.NewSender(s.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := event.Type
	sbMessage := &azservicebus.Message{
		Body:    payload,
		Subject: &subject,
	}
	if err := sender.SendMessage(ctx, sbMessage, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}

	return nil
}
