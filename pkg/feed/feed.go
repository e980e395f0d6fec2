// Package feed fans whole-state snapshots out to in-process subscribers over a
// watermill go-channel pub/sub. Delivery order between snapshots is not guaranteed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"friendlist-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const DefaultTopic = "items.snapshot"

type Feed struct {
	pubSub *gochannel.GoChannel
	topic  string
	logger logger.ILogger
}

// NewPubSub builds the go-channel transport used by New.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 16},
		watermill.NewStdLogger(false, false),
	)
}

func New(pubSub *gochannel.GoChannel, topic string, log logger.ILogger) *Feed {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Feed{pubSub: pubSub, topic: topic, logger: log}
}

func (f *Feed) Publish(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := f.pubSub.Publish(f.topic, msg); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Subscribe calls fn with every published payload until the returned func is called.
func (f *Feed) Subscribe(fn func(payload []byte)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := f.pubSub.Subscribe(ctx, f.topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", f.topic, err)
	}

	go func() {
		for msg := range messages {
			fn(msg.Payload)
			msg.Ack()
		}
		f.logger.Debug("Feed", "Subscriber detached", map[string]interface{}{"topic": f.topic})
	}()

	return cancel, nil
}

func (f *Feed) Close() error {
	return f.pubSub.Close()
}
