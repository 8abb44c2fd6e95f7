package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/domain/event"
)

// Bus is an in-process event bus built on watermill's gochannel pub/sub.
// Invoice mutations publish on it after commit; the notifier subscribes.
type Bus struct {
	channel *gochannel.GoChannel
}

// NewBus creates the in-memory bus.
func NewBus() *Bus {
	ch := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 100,
		},
		watermill.NopLogger{},
	)
	return &Bus{channel: ch}
}

// Publish marshals the payload and publishes it on the topic. Delivery is
// best-effort; callers log failures and move on.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	return b.channel.Publish(topic, msg)
}

// Subscribe returns the message stream for a topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.channel.Subscribe(ctx, topic)
}

// Close shuts the bus down.
func (b *Bus) Close() error {
	return b.channel.Close()
}

var _ event.Publisher = (*Bus)(nil)
