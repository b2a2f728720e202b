package generatecmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	generatecmder "github.com/MikaNatus/open-lovable/cmd/lovable/generate"
	"github.com/MikaNatus/open-lovable/relay"
)

// relayStub answers the generation endpoint with canned SSE frames.
type relayStub struct {
	mu     sync.Mutex
	bodies []map[string]any

	server *httptest.Server
	status int
	frames []string
}

func newRelayStub(frames ...string) *relayStub {
	s := &relayStub{status: http.StatusOK, frames: frames}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()
		Expect(r.URL.Path).To(Equal(relay.GeneratePath))

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.bodies = append(s.bodies, body)
		s.mu.Unlock()

		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			_ = json.NewEncoder(w).Encode(relay.ErrorResponse{Error: "Prompt is required"})
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range s.frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
	}))
	DeferCleanup(s.server.Close)
	return s
}

func (s *relayStub) lastBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	Expect(s.bodies).NotTo(BeEmpty())
	return s.bodies[len(s.bodies)-1]
}

func execute(args ...string) (string, string, error) {
	cmd := generatecmder.NewGenerateCmd()
	root := &cobra.Command{Use: "lovable"}
	root.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
	root.AddCommand(cmd)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"generate"}, args...))

	err := root.Execute()
	return out.String(), errOut.String(), err
}

var successFrames = []string{
	`{"type":"content","content":"<file path=\"a.jsx\">"}`,
	`{"type":"content","content":"<package>react</package></file>"}`,
	`{"type":"package","name":"react","message":"📦 Package detected: react"}`,
	`{"type":"application-start","message":"Applying generated code..."}`,
	`{"type":"step","source":"application-progress","message":"Installing"}`,
	`{"type":"complete","source":"application-progress","results":{"files":1}}`,
	`{"type":"application-complete","results":{"filesCreated":["src/App.jsx"],"packagesInstalled":["react"]},"message":"Website created successfully!"}`,
}

var _ = Describe("generate command", func() {
	It("streams code to stdout and progress to stderr", func() {
		stub := newRelayStub(successFrames...)

		out, status, err := execute("--relay", stub.server.URL, "a", "coffee", "shop")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`<file path="a.jsx"><package>react</package></file>`))
		Expect(status).To(ContainSubstring("react"))
		Expect(status).To(ContainSubstring("Installing"))
		Expect(status).To(ContainSubstring("Website created successfully!"))
		Expect(status).To(ContainSubstring("src/App.jsx"))

		body := stub.lastBody()
		Expect(body["prompt"]).To(Equal("a coffee shop"))
		Expect(body).NotTo(HaveKey("model"))
		Expect(body).NotTo(HaveKey("temperature"))
	})

	It("sends explicit options", func() {
		stub := newRelayStub(successFrames...)

		_, _, err := execute("--relay", stub.server.URL,
			"-m", "openai/gpt-5", "-t", "0", "--max-tokens", "100", "--sandbox", "sbx-1", "site")
		Expect(err).NotTo(HaveOccurred())

		body := stub.lastBody()
		Expect(body["model"]).To(Equal("openai/gpt-5"))
		Expect(body["temperature"]).To(BeEquivalentTo(0))
		Expect(body["maxTokens"]).To(BeEquivalentTo(100))
		Expect(body["sandboxId"]).To(Equal("sbx-1"))
	})

	It("reads the prompt from stdin with -", func() {
		stub := newRelayStub(successFrames...)

		cmd := generatecmder.NewGenerateCmd()
		cmd.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetIn(strings.NewReader("  a portfolio\n"))
		cmd.SetArgs([]string{"--relay", stub.server.URL, "-"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(stub.lastBody()["prompt"]).To(Equal("a portfolio"))
	})

	It("requires a prompt", func() {
		stub := newRelayStub(successFrames...)

		_, _, err := execute("--relay", stub.server.URL)
		Expect(err).To(MatchError(ContainSubstring("prompt is required")))
	})

	It("saves the raw stream", func() {
		stub := newRelayStub(successFrames...)
		path := filepath.Join(GinkgoT().TempDir(), "run.sse")

		_, _, err := execute("--relay", stub.server.URL, "--save-stream", path, "site")
		Expect(err).NotTo(HaveOccurred())

		saved, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(saved)).To(ContainSubstring(`data: {"type":"application-complete"`))
		Expect(strings.Count(string(saved), "data: ")).To(Equal(len(successFrames)))
	})

	It("returns the stream's error event as an error", func() {
		stub := newRelayStub(
			`{"type":"content","content":"partial"}`,
			`{"type":"error","error":"rate limited"}`,
		)

		out, _, err := execute("--relay", stub.server.URL, "site")
		Expect(err).To(MatchError(ContainSubstring("rate limited")))
		Expect(out).To(Equal("partial"))
	})

	It("surfaces rejected requests", func() {
		stub := newRelayStub()
		stub.status = http.StatusBadRequest

		_, _, err := execute("--relay", stub.server.URL, "site")
		Expect(err).To(MatchError(ContainSubstring("Prompt is required")))
	})

	It("prints a markdown report with --render", func() {
		stub := newRelayStub(successFrames...)

		out, _, err := execute("--relay", stub.server.URL, "--render", "site")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("# Generated website"))
		Expect(out).To(ContainSubstring("- `react`"))
		Expect(out).To(ContainSubstring(`"filesCreated":["src/App.jsx"]`))
	})
})
