package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const consumerGroup = "market-api"

// Bus publishes order events and dispatches them to registered handlers.
// With brokers it runs on Kafka, otherwise on an in-process channel.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router
	eventBus   *cqrs.EventBus
	processor  *cqrs.EventProcessor
	logger     watermill.LoggerAdapter
	// shared is set when publisher and subscriber are the same gochannel.
	shared bool
}

func topicOf(v interface{}) (string, error) {
	event, ok := v.(Event)
	if !ok {
		return "", errors.Errorf("%T does not name a topic", v)
	}
	return event.Topic(), nil
}

func NewBus(brokers []string) (*Bus, error) {
	logger := NewLogger(log.WithField("component", "events"))

	b := &Bus{logger: logger}
	if len(brokers) > 0 {
		publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, "create kafka publisher")
		}
		subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
			ConsumerGroup:         consumerGroup,
		}, logger)
		if err != nil {
			_ = publisher.Close()
			return nil, errors.Wrap(err, "create kafka subscriber")
		}
		b.publisher, b.subscriber = publisher, subscriber
		log.WithField("brokers", brokers).Info("Order events on Kafka")
	} else {
		channel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		b.publisher, b.subscriber = channel, channel
		b.shared = true
		log.Info("Order events on in-process channel")
	}

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create router")
	}
	b.router = router

	marshaler := cqrs.JSONMarshaler{GenerateName: cqrs.StructName}

	b.eventBus, err = cqrs.NewEventBusWithConfig(b.publisher, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return topicOf(params.Event)
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create event bus")
	}

	b.processor, err = cqrs.NewEventProcessorWithConfig(router, cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return topicOf(params.EventHandler.NewEvent())
		},
		SubscriberConstructor: func(cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return b.subscriber, nil
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create event processor")
	}

	return b, nil
}

// Publish sends event on its topic.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	return b.eventBus.Publish(ctx, event)
}

// AddHandlers must be called before Run.
func (b *Bus) AddHandlers(handlers ...cqrs.EventHandler) error {
	return b.processor.AddHandlers(handlers...)
}

// Run blocks until ctx is cancelled or the router stops.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once handlers are subscribed.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		log.WithError(err).Warn("Error closing event router")
	}
	if err := b.publisher.Close(); err != nil {
		return err
	}
	if !b.shared {
		return b.subscriber.Close()
	}
	return nil
}
