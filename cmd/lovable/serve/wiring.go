package servecmder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MikaNatus/open-lovable/pkg/config"
	"github.com/MikaNatus/open-lovable/pkg/credentials"
	"github.com/MikaNatus/open-lovable/pkg/eventstream"
	"github.com/MikaNatus/open-lovable/pkg/eventstream/kafka"
	"github.com/MikaNatus/open-lovable/pkg/eventstream/nop"
	"github.com/MikaNatus/open-lovable/pkg/llm/provider"
	"github.com/MikaNatus/open-lovable/pkg/logger"
)

// keyResolver looks up a provider API key. *credentials.Manager satisfies it.
type keyResolver interface {
	Resolve(provider string) (string, credentials.Source, error)
}

// buildRegistry registers every provider that has a key, plus lorem.
// Groq serves models without a namespace prefix.
func buildRegistry(keys keyResolver, log *slog.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry(provider.Groq)

	for _, name := range credentials.SupportedProviders() {
		key, src, err := keys.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("resolving %s key: %w", name, err)
		}
		if key == "" {
			log.Debug("provider not configured", "provider", name)
			continue
		}

		s, err := provider.New(name, key)
		if err != nil {
			return nil, err
		}
		registry.Register(s)
		log.Info("provider configured", "provider", name, "source", string(src))
	}

	lorem, err := provider.New(provider.Lorem, "")
	if err != nil {
		return nil, err
	}
	registry.Register(lorem)

	return registry, nil
}

// buildPublisher creates the generation telemetry publisher.
func buildPublisher(c config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch c.Provider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		brokers := c.BrokerList()
		if len(brokers) == 0 {
			return nil, errors.New("kafka event stream requires at least one broker")
		}

		p, err := kafka.NewPublisher(&kafka.Config{
			Brokers: brokers,
			Topic:   c.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		log.Info("publishing generation events to kafka",
			"brokers", strings.Join(brokers, ","),
			"topic", c.Topic,
		)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown event stream provider: %q", c.Provider)
	}
}

// readSystemPrompt returns the contents of path, or "" for the built-in prompt.
func readSystemPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading system prompt: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}

// buildLogger returns the serve logger writing to w. With a log file the
// records also go to that file as JSON. The returned closer releases the
// file and is never nil.
func buildLogger(w io.Writer, debug, pretty bool, logFile string) (*slog.Logger, io.Closer, error) {
	terminal := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(pretty),
		logger.WithWriter(w),
	)
	if logFile == "" {
		return terminal, io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriters(f),
	)
	return logger.Multi(terminal, file), f, nil
}
