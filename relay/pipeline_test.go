package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MikaNatus/open-lovable/pkg/llm"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider/lorem"
	"github.com/MikaNatus/open-lovable/pkg/progress"
)

const (
	progressMessage = `{"type":"progress","pct":50}`
	completeMessage = `{"type":"complete","results":{"filesCreated":["x.js"]}}`
)

var _ = Describe("Pipeline", func() {
	var (
		apply *applyServer
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if apply != nil {
			apply.Close()
		}
	})

	Describe("NewPipeline", func() {
		It("requires a resolver and an applier", func() {
			_, err := NewPipeline(PipelineConfig{})
			Expect(err).To(MatchError(ContainSubstring("resolver is required")))

			_, err = NewPipeline(PipelineConfig{Resolver: provider.NewRegistry(provider.Groq)})
			Expect(err).To(MatchError(ContainSubstring("applier is required")))
		})

		It("applies defaults", func() {
			apply = newApplyServer()
			p := newTestPipeline(nil, apply.URL)
			Expect(p.DefaultModel()).To(Equal(llm.DefaultModel))
			Expect(p.system).To(Equal(llm.SystemPrompt))
		})
	})

	Context("when the model and the apply service succeed", func() {
		var (
			streamer *fakeStreamer
			events   []progress.Event
			res      *Result
			err      error
		)

		BeforeEach(func() {
			apply = newApplyServer(progressMessage, completeMessage)
			streamer = newFakeStreamer(provider.Groq,
				"Here is your site <pack",
				"age>lucide-react</package> and ",
				"<package>lucide-react</package> done",
			)
			p := newTestPipeline([]provider.Streamer{streamer}, apply.URL)

			collector := &Collector{}
			res, err = p.Run(ctx, &GenerateRequest{
				Prompt:      "a landing page",
				Model:       "moonshotai/kimi-k2-instruct",
				Temperature: 0.7,
				MaxTokens:   4000,
				SandboxID:   "sbx-1",
			}, collector)
			events = collector.Events()
		})

		It("emits events in order", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(eventTypes(events)).To(Equal([]progress.Type{
				progress.TypeContent,
				progress.TypeContent,
				progress.TypePackage,
				progress.TypeContent,
				progress.TypeApplicationStart,
				progress.TypeApplicationProgress,
				progress.TypeApplicationProgress,
				progress.TypeApplicationComplete,
			}))
		})

		It("reports each package once", func() {
			Expect(countType(events, progress.TypePackage)).To(Equal(1))
			Expect(events[2].Name).To(Equal("lucide-react"))
			Expect(events[2].Message).To(ContainSubstring("lucide-react"))
			Expect(res.Packages).To(Equal([]string{"lucide-react"}))
		})

		It("hands the exact content concatenation to the apply service", func() {
			bodies := apply.Bodies()
			Expect(bodies).To(HaveLen(1))
			Expect(bodies[0].Response).To(Equal(contentOf(events)))
			Expect(bodies[0].Response).To(Equal(res.Content))
			Expect(bodies[0].Packages).To(Equal([]string{"lucide-react"}))
			Expect(bodies[0].SandboxID).To(Equal("sbx-1"))
		})

		It("wraps apply messages and synthesizes the complete event", func() {
			first := events[5]
			Expect(first.Stage()).To(Equal("progress"))
			Expect(first.Inner).To(HaveKeyWithValue("pct", json.Number("50")))

			second := events[6]
			Expect(second.Stage()).To(Equal("complete"))

			done := events[7]
			Expect(done.Message).To(Equal(progress.MessageApplicationComplete))
			Expect(string(done.Results)).To(MatchJSON(`{"filesCreated":["x.js"]}`))
			Expect(string(res.Results)).To(MatchJSON(`{"filesCreated":["x.js"]}`))
		})

		It("routes un-namespaced models to the fallback provider unchanged", func() {
			reqs := streamer.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Model).To(Equal("moonshotai/kimi-k2-instruct"))
			Expect(reqs[0].System).To(Equal(llm.SystemPrompt))
			Expect(reqs[0].Prompt).To(Equal("a landing page"))
			Expect(reqs[0].MaxTokens).To(Equal(4000))
		})

		It("summarizes the run", func() {
			Expect(res.Outcome).To(Equal(OutcomeCompleted))
			Expect(res.Provider).To(Equal(provider.Groq))
			Expect(res.AppliedEvents).To(Equal(2))
			Expect(res.Skipped).To(BeZero())
			Expect(res.Err).To(BeNil())
		})
	})

	It("relays the documented apply scenario", func() {
		apply = newApplyServer(progressMessage, completeMessage)
		p := newTestPipeline([]provider.Streamer{newFakeStreamer(provider.Groq)}, apply.URL)

		collector := &Collector{}
		_, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)
		Expect(err).NotTo(HaveOccurred())

		out := make([]string, 0, 4)
		for _, ev := range collector.Events() {
			b, err := json.Marshal(ev)
			Expect(err).NotTo(HaveOccurred())
			out = append(out, string(b))
		}
		Expect(out).To(HaveLen(4))
		Expect(out[0]).To(MatchJSON(`{"type":"application-start","message":"Applying generated code..."}`))
		Expect(out[1]).To(MatchJSON(`{"type":"progress","source":"application-progress","pct":50}`))
		Expect(out[2]).To(MatchJSON(`{"type":"complete","source":"application-progress","results":{"filesCreated":["x.js"]}}`))
		Expect(out[3]).To(MatchJSON(`{"type":"application-complete","message":"Website created successfully!","results":{"filesCreated":["x.js"]}}`))
	})

	Context("when the model stream fails after N fragments", func() {
		It("emits exactly N content events and one error, and never applies", func() {
			apply = newApplyServer(completeMessage)
			streamer := newFakeStreamer(provider.Groq, "a", "b", "c", "never")
			streamer.failAt = 3
			streamer.err = errors.New("rate limited")
			p := newTestPipeline([]provider.Streamer{streamer}, apply.URL)

			collector := &Collector{}
			res, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)
			events := collector.Events()

			Expect(err).To(MatchError(ContainSubstring("rate limited")))
			Expect(res.Outcome).To(Equal(OutcomeModelError))
			Expect(eventTypes(events)).To(Equal([]progress.Type{
				progress.TypeContent,
				progress.TypeContent,
				progress.TypeContent,
				progress.TypeError,
			}))
			Expect(events[3].Error).To(Equal("rate limited"))
			Expect(res.Content).To(Equal("abc"))
			Expect(apply.Bodies()).To(BeEmpty())
		})
	})

	Context("when the provider is not configured", func() {
		It("emits one error event", func() {
			apply = newApplyServer()
			p := newTestPipeline(nil, apply.URL)

			collector := &Collector{}
			res, err := p.Run(ctx, &GenerateRequest{Prompt: "x", Model: "anthropic/claude-sonnet-4-5"}, collector)

			Expect(err).To(MatchError(provider.ErrProviderNotConfigured))
			Expect(res.Outcome).To(Equal(OutcomeModelError))
			Expect(eventTypes(collector.Events())).To(Equal([]progress.Type{progress.TypeError}))
		})
	})

	Context("when the apply service fails", func() {
		It("emits the fixed failure message after application-start", func() {
			apply = newApplyServer()
			apply.status = http.StatusInternalServerError
			p := newTestPipeline([]provider.Streamer{newFakeStreamer(provider.Groq, "hi")}, apply.URL)

			collector := &Collector{}
			res, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)
			events := collector.Events()

			Expect(err).To(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeApplyError))
			Expect(eventTypes(events)).To(Equal([]progress.Type{
				progress.TypeContent,
				progress.TypeApplicationStart,
				progress.TypeError,
			}))
			Expect(events[2].Error).To(Equal(progress.MessageApplyFailed))
		})

		It("emits the fixed failure message when unreachable", func() {
			apply = newApplyServer()
			url := apply.URL
			apply.Close()
			apply = nil

			p := newTestPipeline([]provider.Streamer{newFakeStreamer(provider.Groq, "hi")}, url)
			collector := &Collector{}
			_, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)

			Expect(err).To(HaveOccurred())
			events := collector.Events()
			Expect(events[len(events)-1]).To(Equal(progress.Error(progress.MessageApplyFailed)))
		})
	})

	It("skips malformed apply messages", func() {
		apply = newApplyServer("not json", `[1,2]`, progressMessage, completeMessage)
		p := newTestPipeline([]provider.Streamer{newFakeStreamer(provider.Groq, "hi")}, apply.URL)

		collector := &Collector{}
		res, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Skipped).To(Equal(2))
		Expect(countType(collector.Events(), progress.TypeApplicationProgress)).To(Equal(2))
		Expect(countType(collector.Events(), progress.TypeApplicationComplete)).To(Equal(1))
	})

	It("ends without a complete event when the apply service never completes", func() {
		apply = newApplyServer(progressMessage)
		p := newTestPipeline([]provider.Streamer{newFakeStreamer(provider.Groq, "hi")}, apply.URL)

		collector := &Collector{}
		res, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Results).To(BeNil())
		Expect(countType(collector.Events(), progress.TypeApplicationComplete)).To(BeZero())
	})

	It("aborts when the emitter fails", func() {
		apply = newApplyServer(completeMessage)
		p := newTestPipeline([]provider.Streamer{newFakeStreamer(provider.Groq, "a", "b", "c")}, apply.URL)

		sent := 0
		emit := EmitterFunc(func(progress.Event) error {
			if sent == 2 {
				return errors.New("client gone")
			}
			sent++
			return nil
		})

		res, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, emit)
		Expect(err).To(MatchError(ContainSubstring("client gone")))
		Expect(res.Outcome).To(Equal(OutcomeAborted))
		Expect(sent).To(Equal(2))
		Expect(apply.Bodies()).To(BeEmpty())
	})

	It("recovers a panic into a single error event", func() {
		apply = newApplyServer()
		streamer := newFakeStreamer(provider.Groq, "a", "b")
		streamer.failAt = 1
		streamer.panicMsg = "boom"
		p := newTestPipeline([]provider.Streamer{streamer}, apply.URL)

		collector := &Collector{}
		res, err := p.Run(ctx, &GenerateRequest{Prompt: "x"}, collector)

		Expect(err).To(MatchError(ErrPanic))
		Expect(res.Outcome).To(Equal(OutcomePanic))
		Expect(eventTypes(collector.Events())).To(Equal([]progress.Type{
			progress.TypeContent,
			progress.TypeError,
		}))
		Expect(collector.Events()[1].Error).To(Equal("boom"))
	})

	It("matches the content concatenation with the lorem provider", func() {
		apply = newApplyServer(completeMessage)
		p := newTestPipeline([]provider.Streamer{lorem.New(lorem.WithDelay(0))}, apply.URL)

		collector := &Collector{}
		res, err := p.Run(ctx, &GenerateRequest{Prompt: "a bakery site", Model: "lorem/fast"}, collector)
		Expect(err).NotTo(HaveOccurred())

		events := collector.Events()
		Expect(apply.Bodies()[0].Response).To(Equal(contentOf(events)))
		Expect(res.Packages).To(Equal(lorem.Packages))
		Expect(countType(events, progress.TypePackage)).To(Equal(len(lorem.Packages)))
	})
})
