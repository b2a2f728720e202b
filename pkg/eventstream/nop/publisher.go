package nop

import (
	"context"

	"github.com/MikaNatus/open-lovable/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishGeneration validates input and otherwise does nothing.
func (p *Publisher) PublishGeneration(_ context.Context, event *eventstream.GenerationEvent) error {
	if event == nil {
		return eventstream.ErrNilGenerationEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
