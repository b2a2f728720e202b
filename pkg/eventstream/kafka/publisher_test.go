package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/MikaNatus/open-lovable/pkg/eventstream"
	"github.com/MikaNatus/open-lovable/pkg/eventstream/kafka"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
	deadline bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var w *fakeWriter

	BeforeEach(func() {
		w = &fakeWriter{}
	})

	It("writes the event as JSON keyed by event id", func() {
		p := kafka.NewPublisherWithWriter(w, 0)
		err := p.PublishGeneration(context.Background(), &eventstream.GenerationEvent{
			EventID:   "evt-1",
			EventType: eventstream.EventTypeGenerationCompleted,
			Source:    eventstream.EventSource{Model: "lorem/fast"},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(w.messages).To(HaveLen(1))
		Expect(string(w.messages[0].Key)).To(Equal("evt-1"))
		Expect(w.messages[0].Headers).To(ContainElement(kafkago.Header{
			Key:   "event_type",
			Value: []byte(eventstream.EventTypeGenerationCompleted),
		}))

		var decoded eventstream.GenerationEvent
		Expect(json.Unmarshal(w.messages[0].Value, &decoded)).To(Succeed())
		Expect(decoded.Source.Model).To(Equal("lorem/fast"))
		Expect(w.deadline).To(BeTrue())
	})

	It("rejects nil events", func() {
		p := kafka.NewPublisherWithWriter(w, 0)
		Expect(p.PublishGeneration(context.Background(), nil)).To(MatchError(eventstream.ErrNilGenerationEvent))
	})

	It("wraps writer errors", func() {
		w.err = errors.New("leader not available")
		p := kafka.NewPublisherWithWriter(w, 0)
		err := p.PublishGeneration(context.Background(), &eventstream.GenerationEvent{EventID: "x"})
		Expect(err).To(MatchError(ContainSubstring("leader not available")))
	})

	It("closes the writer", func() {
		p := kafka.NewPublisherWithWriter(w, 0)
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})

	It("requires brokers", func() {
		_, err := kafka.NewPublisher(&kafka.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("builds a publisher from config without dialing", func() {
		p, err := kafka.NewPublisher(&kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})
})
