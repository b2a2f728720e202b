package kafka

import "time"

// NewPublisherWithWriter exposes newPublisher to tests.
func NewPublisherWithWriter(w messageWriter, timeout time.Duration) *Publisher {
	return newPublisher(w, timeout)
}
