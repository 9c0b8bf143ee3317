package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const MetadataKey = "key"

// ChannelPublisher publishes through an in-process watermill channel. Messages
// published while nobody is subscribed are dropped.
type ChannelPublisher struct {
	pubsub *gochannel.GoChannel
}

func NewChannelPublisher(logger zerolog.Logger) *ChannelPublisher {
	return &ChannelPublisher{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewWatermillLogger(logger)),
	}
}

func (p *ChannelPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataKey, key)
	msg.SetContext(ctx)

	if err := p.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("events: failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (p *ChannelPublisher) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, topic)
}

func (p *ChannelPublisher) Close() error {
	return p.pubsub.Close()
}

// LogConsumer acks and logs every message on topic until ctx is done.
func LogConsumer(ctx context.Context, p *ChannelPublisher, topic string) error {
	messages, err := p.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("events: failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			log.Info().
				Str("topic", topic).
				Str("message_id", msg.UUID).
				Str("key", msg.Metadata.Get(MetadataKey)).
				RawJSON("payload", msg.Payload).
				Msg("events: message received")
			msg.Ack()
		}
	}()
	return nil
}

type watermillLogger struct {
	logger zerolog.Logger
}

// NewWatermillLogger routes watermill's internal logging to zerolog.
func NewWatermillLogger(logger zerolog.Logger) watermill.LoggerAdapter {
	return watermillLogger{logger: logger.With().Str("component", "watermill").Logger()}
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{logger: l.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
