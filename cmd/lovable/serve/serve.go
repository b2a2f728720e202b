// Package servecmder provides the serve command that runs the generation relay.
package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MikaNatus/open-lovable/api/mcp"
	"github.com/MikaNatus/open-lovable/pkg/applier"
	"github.com/MikaNatus/open-lovable/pkg/config"
	"github.com/MikaNatus/open-lovable/pkg/credentials"
	"github.com/MikaNatus/open-lovable/relay"
)

type ServeCommander struct {
	listen           string
	applierURL       string
	defaultModel     string
	scanWindow       uint
	systemPromptFile string
	eventStream      string
	kafkaBrokers     string
	kafkaTopic       string

	configDir string
	debug     bool
	pretty    bool
	logFile   string
	logger    *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagApplier,
	config.FlagDefaultModel,
	config.FlagScanWindow,
	config.FlagSystemPrompt,
	config.FlagEventStream,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run the lovable generation relay.

The relay accepts POST /api/generate-ai-code-stream, streams the model's
output back as server-sent events while reporting <package> tags, then
hands the generated code to the apply service and relays its progress.

Provider keys are read from the environment (and a .env file in the
working directory) before falling back to credentials stored with
"lovable auth". The lorem provider is always available for offline use.

Examples:
  lovable serve
  lovable serve --applier http://localhost:3000 --model openai/gpt-5
  lovable serve --eventstream kafka --kafka-brokers localhost:9092
  lovable serve --pretty --log-file relay.log`

const serveShortDesc string = "Run the generation relay"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.RelayFlags, serveFlags)
			cmder.load(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.RelayFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.RelayFlags, config.FlagApplier, &cmder.applierURL)
	config.AddStringFlag(cmd, config.RelayFlags, config.FlagDefaultModel, &cmder.defaultModel)
	config.AddUintFlag(cmd, config.RelayFlags, config.FlagScanWindow, &cmder.scanWindow)
	config.AddStringFlag(cmd, config.RelayFlags, config.FlagSystemPrompt, &cmder.systemPromptFile)
	config.AddStringFlag(cmd, config.RelayFlags, config.FlagEventStream, &cmder.eventStream)
	config.AddStringFlag(cmd, config.RelayFlags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.RelayFlags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().BoolVar(&cmder.pretty, "pretty", false, "Human readable log output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

// load copies the resolved configuration out of v.
func (c *ServeCommander) load(v *viper.Viper) {
	c.listen = v.GetString("relay.listen")
	c.applierURL = v.GetString("relay.applier_url")
	c.defaultModel = v.GetString("relay.default_model")
	c.scanWindow = v.GetUint("relay.scan_window")
	c.systemPromptFile = v.GetString("relay.system_prompt_file")
	c.eventStream = v.GetString("eventstream.provider")
	c.kafkaBrokers = v.GetString("eventstream.brokers")
	c.kafkaTopic = v.GetString("eventstream.topic")
}

func (c *ServeCommander) run(w io.Writer) error {
	var (
		logClose io.Closer
		err      error
	)
	c.logger, logClose, err = buildLogger(w, c.debug, c.pretty, c.logFile)
	if err != nil {
		return err
	}
	defer logClose.Close()

	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("could not read .env file", "error", err)
	}

	r, err := c.build()
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := r.Run(); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		_ = r.Close()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return r.Close()
	}
}

// build wires the relay from the loaded configuration.
func (c *ServeCommander) build() (*relay.Relay, error) {
	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	registry, err := buildRegistry(creds, c.logger)
	if err != nil {
		return nil, err
	}

	systemPrompt, err := readSystemPrompt(c.systemPromptFile)
	if err != nil {
		return nil, err
	}

	cfg := relay.Config{
		ListenAddr:   c.listen,
		ApplierURL:   c.applierURL,
		DefaultModel: c.defaultModel,
		SystemPrompt: systemPrompt,
		ScanWindow:   int(c.scanWindow),
	}

	pipeline, err := relay.NewPipeline(relay.PipelineConfig{
		Resolver:     registry,
		Applier:      applier.New(cfg.ApplierURL, applier.WithLogger(c.logger)),
		SystemPrompt: cfg.SystemPrompt,
		ScanWindow:   cfg.ScanWindow,
		DefaultModel: cfg.DefaultModel,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pipeline: %w", err)
	}

	publisher, err := buildPublisher(config.EventStreamConfig{
		Provider: c.eventStream,
		Brokers:  c.kafkaBrokers,
		Topic:    c.kafkaTopic,
	}, c.logger)
	if err != nil {
		return nil, err
	}

	r, err := relay.New(cfg, pipeline, registry, publisher, c.logger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("creating relay: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Generator: r,
		Logger:    c.logger,
	})
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}
	r.MountMCP(mcpServer.Handler())

	return r, nil
}
