// Package generatecmder provides the generate command, a terminal client for
// the relay's streaming generation endpoint.
package generatecmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MikaNatus/open-lovable/pkg/cliui"
	"github.com/MikaNatus/open-lovable/pkg/config"
)

type generateCommander struct {
	relayTarget string
	model       string
	temperature float64
	maxTokens   int
	sandboxID   string
	saveStream  string
	render      bool

	in     io.Reader
	out    io.Writer
	status io.Writer
}

const generateLongDesc string = `Generate a website through a running relay.

The prompt is taken from the arguments, or read from stdin when the only
argument is "-" or stdin is piped. Generated code streams to stdout while
package detections and apply progress are printed to stderr, so the code
can be redirected on its own.

Examples:
  lovable generate "a landing page for a coffee shop"
  lovable generate -m anthropic/claude-sonnet-4-20250514 "a todo app"
  echo "a portfolio site" | lovable generate --save-stream run.sse
  lovable generate --render "a pricing page"`

const generateShortDesc string = "Generate a website through the relay"

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.RelayFlags, []string{config.FlagRelayTarget})
			cmder.relayTarget = v.GetString("client.relay_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.status = cmd.ErrOrStderr()

			prompt, err := cmder.prompt(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, prompt, cmd.Flags().Changed("temperature"))
		},
	}

	config.AddStringFlag(cmd, config.RelayFlags, config.FlagRelayTarget, &cmder.relayTarget)
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model to generate with (default: the relay's default model)")
	cmd.Flags().Float64VarP(&cmder.temperature, "temperature", "t", 0, "Sampling temperature (default: the relay's default)")
	cmd.Flags().IntVar(&cmder.maxTokens, "max-tokens", 0, "Maximum tokens to generate (default: the relay's default)")
	cmd.Flags().StringVar(&cmder.sandboxID, "sandbox", "", "Sandbox to apply the generated code to")
	cmd.Flags().StringVar(&cmder.saveStream, "save-stream", "", "Write the raw SSE stream to this file")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render a markdown report instead of streaming raw code")

	return cmd
}

// prompt resolves the prompt from args or stdin.
func (c *generateCommander) prompt(args []string) (string, error) {
	var prompt string

	switch {
	case len(args) == 1 && args[0] == "-":
		b, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		prompt = string(b)

	case len(args) > 0:
		prompt = strings.Join(args, " ")

	case !isTerminal(c.in):
		b, err := io.ReadAll(bufio.NewReader(c.in))
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		prompt = string(b)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("a prompt is required")
	}
	return prompt, nil
}

func (c *generateCommander) run(ctx context.Context, prompt string, temperatureSet bool) error {
	body := generateBody{
		Prompt:    prompt,
		Model:     c.model,
		MaxTokens: c.maxTokens,
		SandboxID: c.sandboxID,
	}
	if temperatureSet {
		body.Temperature = &c.temperature
	}

	cl := &client{
		target:     c.relayTarget,
		httpClient: &http.Client{},
	}

	if c.saveStream != "" {
		f, err := os.Create(c.saveStream)
		if err != nil {
			return fmt.Errorf("creating stream file: %w", err)
		}
		defer f.Close()
		cl.save = f
	}

	p := &printer{
		out:    c.out,
		status: c.status,
		quiet:  c.render,
	}

	if err := cl.stream(ctx, body, p.handle); err != nil {
		return err
	}

	if c.render {
		c.printReport(p)
	}
	return p.report()
}

// printReport renders the generation as markdown, styled when out is a
// terminal.
func (c *generateCommander) printReport(p *printer) {
	md := markdownReport(&p.sum)
	if isTerminal(c.out) {
		rendered, err := cliui.RenderMarkdown(md)
		if err == nil {
			md = rendered
		}
	}
	fmt.Fprint(c.out, md)
}

func markdownReport(s *summary) string {
	var b strings.Builder
	b.WriteString("# Generated website\n\n")

	if len(s.packages) > 0 {
		b.WriteString("## Packages\n\n")
		for _, name := range s.packages {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Code\n\n```xml\n")
	b.WriteString(strings.TrimRight(s.content.String(), "\n"))
	b.WriteString("\n```\n")

	if len(s.results) > 0 {
		b.WriteString("\n## Apply results\n\n```json\n")
		b.Write(s.results)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
