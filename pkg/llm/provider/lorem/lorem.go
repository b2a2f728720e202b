// Package lorem is an offline provider that streams a fake website
// generation built from lorem ipsum text. It needs no credentials and is
// meant for local development and demos of the relay.
//
// The model id tunes the stream:
//
//	slow    2 fragments/second
//	fast    30 fragments/second
//	error   fails half way through the stream
package lorem

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	loremgen "github.com/bozaro/golorem"

	"github.com/MikaNatus/open-lovable/pkg/llm"
)

// ErrSimulated is yielded by "error" models.
var ErrSimulated = errors.New("lorem: simulated model failure")

// Packages lists the dependencies every generated site declares.
var Packages = []string{"lucide-react", "framer-motion"}

// maxFragment is the longest fragment emitted. Longer words are split so
// tags regularly straddle fragment boundaries.
const maxFragment = 8

// Provider generates lorem ipsum websites.
type Provider struct {
	mu    sync.Mutex
	gen   *loremgen.Lorem
	delay *time.Duration
}

// Option configures a Provider.
type Option func(*Provider)

// WithDelay fixes the pause between fragments, ignoring the model id.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.delay = &d
	}
}

// New creates a lorem Provider.
func New(opts ...Option) *Provider {
	p := &Provider{gen: loremgen.New()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "lorem"
}

// StreamText streams a generated document fragment by fragment.
func (p *Provider) StreamText(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		fragments := Fragments(p.document(req))
		delay := p.streamDelay(req.Model)
		failAt := -1
		if strings.Contains(req.Model, "error") {
			failAt = len(fragments) / 2
		}

		for i, f := range fragments {
			if i == failAt {
				yield("", ErrSimulated)
				return
			}
			if delay > 0 {
				select {
				case <-ctx.Done():
					yield("", ctx.Err())
					return
				case <-time.After(delay):
				}
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func (p *Provider) streamDelay(model string) time.Duration {
	if p.delay != nil {
		return *p.delay
	}
	switch {
	case strings.Contains(model, "slow"):
		return 500 * time.Millisecond
	case strings.Contains(model, "fast"):
		return 33 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// document renders a complete response in the shape the system prompt asks
// for: a concept, the site files, then the package list.
func (p *Provider) document(req *llm.Request) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	title := strings.TrimSuffix(p.gen.Sentence(2, 4), ".")
	tagline := p.gen.Sentence(6, 10)
	concept := p.gen.Paragraph(2, 4)
	if req.MaxTokens > 0 && req.MaxTokens < 200 {
		concept = p.gen.Sentence(4, 8)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", concept)
	sb.WriteString("<file path=\"src/App.jsx\">\nimport React from 'react';\nimport Hero from './components/Hero';\n\n")
	sb.WriteString("function App() {\n  return (\n    <div className=\"min-h-screen bg-gray-50\">\n      <Hero />\n    </div>\n  );\n}\n\nexport default App;\n</file>\n\n")
	sb.WriteString("<file path=\"src/components/Hero.jsx\">\nimport { Sparkles } from 'lucide-react';\nimport { motion } from 'framer-motion';\n\n")
	sb.WriteString("export default function Hero() {\n  return (\n    <motion.section className=\"p-12 text-center\">\n")
	fmt.Fprintf(&sb, "      <Sparkles className=\"mx-auto\" />\n      <h1 className=\"text-4xl font-bold\">%s</h1>\n      <p className=\"mt-4\">%s</p>\n", title, tagline)
	sb.WriteString("    </motion.section>\n  );\n}\n</file>\n\n")
	sb.WriteString("<file path=\"src/index.css\">\n@tailwind base;\n@tailwind components;\n@tailwind utilities;\n</file>\n\n")
	for _, pkg := range Packages {
		fmt.Fprintf(&sb, "<package>%s</package>\n", pkg)
	}
	return sb.String()
}

// Fragments splits text into whitespace-terminated words, cutting any word
// longer than maxFragment bytes. Concatenating the result yields text.
func Fragments(text string) []string {
	var out []string
	for word := range strings.SplitAfterSeq(text, " ") {
		for len(word) > maxFragment {
			cut := maxFragment
			for cut > 0 && !utf8.RuneStart(word[cut]) {
				cut--
			}
			if cut == 0 {
				break
			}
			out = append(out, word[:cut])
			word = word[cut:]
		}
		if word != "" {
			out = append(out, word)
		}
	}
	return out
}
