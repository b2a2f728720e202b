package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/MikaNatus/open-lovable/cmd/lovable/config"
	"github.com/MikaNatus/open-lovable/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "lovable"}
		root.PersistentFlags().String("config-dir", tmpDir, "")
		root.AddCommand(configcmder.NewConfigCmd())
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append([]string{"config"}, args...))
		return root.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "relay.applier_url", "http://sbx:3000")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			cfger, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Relay.ApplierURL).To(Equal("http://sbx:3000"))
			Expect(out.String()).To(ContainSubstring("relay.applier_url"))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "relay.listen")).To(HaveOccurred())
			Expect(run("set")).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "relay.scan_window", "not-a-number")).To(HaveOccurred())
		})

		It("rejects unknown event stream providers", func() {
			Expect(run("set", "eventstream.provider", "pulsar")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "relay.default_model", "lorem/fast")).To(Succeed())
			out.Reset()

			Expect(run("get", "relay.default_model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("lorem/fast"))
		})

		It("shows unset keys", func() {
			Expect(run("get", "eventstream.brokers")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("set", "relay.listen", ":9090")).To(Succeed())
			out.Reset()

			Expect(run("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
			Expect(out.String()).To(ContainSubstring(`":9090"`))
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
