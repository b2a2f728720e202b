package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MikaNatus/open-lovable/api/mcp"
	"github.com/MikaNatus/open-lovable/pkg/applier"
	"github.com/MikaNatus/open-lovable/pkg/eventstream"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider/lorem"
	"github.com/MikaNatus/open-lovable/pkg/logger"
	"github.com/MikaNatus/open-lovable/relay"
)

func newApplyService(status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"progress\",\"pct\":50}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"complete\",\"results\":{\"filesCreated\":[\"src/App.jsx\"]}}\n\n")
	}))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.GenerationEvent
}

func (r *recordingPublisher) PublishGeneration(_ context.Context, e *eventstream.GenerationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) Events() []*eventstream.GenerationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.GenerationEvent(nil), r.events...)
}

func newRelay(applyURL string, publisher eventstream.Publisher) *relay.Relay {
	registry := provider.NewRegistry(provider.Groq)
	registry.Register(lorem.New(lorem.WithDelay(0)))

	p, err := relay.NewPipeline(relay.PipelineConfig{
		Resolver:     registry,
		Applier:      applier.New(applyURL),
		DefaultModel: "lorem/fast",
	})
	Expect(err).NotTo(HaveOccurred())

	r, err := relay.New(relay.Config{}, p, registry, publisher, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return r
}

// connect wires an in-memory MCP client to server.
func connect(ctx context.Context, server *mcp.Server) *sdk.ClientSession {
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	_, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	Expect(err).NotTo(HaveOccurred())

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	return session
}

func textOf(res *sdk.CallToolResult) string {
	Expect(res.Content).NotTo(BeEmpty())
	text, ok := res.Content[0].(*sdk.TextContent)
	Expect(ok).To(BeTrue())
	return text.Text
}

var _ = Describe("MCP Server", func() {
	var (
		apply     *httptest.Server
		publisher *recordingPublisher
		generator *relay.Relay
		server    *mcp.Server
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		apply = newApplyService(http.StatusOK)
		publisher = &recordingPublisher{}
		generator = newRelay(apply.URL, publisher)

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Generator: generator,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(generator.Close()).To(Succeed())
		apply.Close()
	})

	Describe("NewServer", func() {
		It("returns an error when generator is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("generator is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Generator: generator})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a noop server without dependencies", func() {
			s, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("tools", func() {
		var session *sdk.ClientSession

		BeforeEach(func() {
			session = connect(ctx, server)
		})

		AfterEach(func() {
			session.Close()
		})

		It("lists both tools", func() {
			res, err := session.ListTools(ctx, &sdk.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(res.Tools))
			for _, t := range res.Tools {
				names = append(names, t.Name)
			}
			Expect(names).To(ConsistOf("generate_website", "detect_packages"))
		})

		It("detects packages", func() {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{
				Name: "detect_packages",
				Arguments: map[string]any{
					"text": "<package>zod</package> and <package> zod </package><package>clsx</package>",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var out mcp.DetectOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Packages).To(Equal([]string{"zod", "clsx"}))
			Expect(out.Count).To(Equal(2))
		})

		It("generates and applies a website", func() {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{
				Name:      "generate_website",
				Arguments: map[string]any{"prompt": "a coffee shop", "sandbox_id": "sbx"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var out mcp.GenerateOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Outcome).To(Equal(relay.OutcomeCompleted))
			Expect(out.Provider).To(Equal(provider.Lorem))
			Expect(out.Packages).To(Equal(lorem.Packages))
			Expect(out.Content).To(ContainSubstring("<file path=\"src/App.jsx\">"))
			Expect(out.Results).To(HaveKey("filesCreated"))
			Expect(out.AppliedEvents).To(Equal(2))
		})

		It("publishes telemetry for tool generations", func() {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{
				Name:      "generate_website",
				Arguments: map[string]any{"prompt": "a bakery", "sandbox_id": "sbx-mcp"},
			})
			Expect(err).NotTo(HaveOccurred())

			var out mcp.GenerateOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())

			Eventually(publisher.Events).Should(HaveLen(1))
			ev := publisher.Events()[0]
			Expect(ev.Source.RequestID).To(Equal(out.RequestID))
			Expect(ev.Source.SandboxID).To(Equal("sbx-mcp"))
			Expect(ev.Generation.Outcome).To(Equal(relay.OutcomeCompleted))
		})

		It("reports model failures as tool errors", func() {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{
				Name:      "generate_website",
				Arguments: map[string]any{"prompt": "x", "model": "lorem/error"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())

			var out mcp.GenerateOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &out)).To(Succeed())
			Expect(out.Outcome).To(Equal(relay.OutcomeModelError))
			Expect(out.Error).To(ContainSubstring("simulated"))
		})

		It("rejects a blank prompt", func() {
			res, err := session.CallTool(ctx, &sdk.CallToolParams{
				Name:      "generate_website",
				Arguments: map[string]any{"prompt": "  "},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("prompt is required"))
		})
	})
})
