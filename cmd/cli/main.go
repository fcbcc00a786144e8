package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"politefetch/internal/config"
	"politefetch/internal/scrape"
	"politefetch/pkg/logger"
)

const defaultTarget = "https://example.com"

var errUsage = errors.New("usage")

type rootFlags struct {
	configPath   string
	userAgent    string
	delay        float64
	timeout      float64
	output       string
	maxBodyBytes int64
}

var flags rootFlags

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "politefetch",
		Short:         "Fetch a page after checking robots.txt and waiting a polite delay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file")
	pf.StringVar(&flags.userAgent, "user-agent", config.DefaultUserAgent, "user agent tested against robots.txt")
	pf.Float64Var(&flags.delay, "delay", config.DefaultDelay.Seconds(), "seconds to wait before the page request")
	pf.Float64Var(&flags.timeout, "timeout", config.DefaultTimeout.Seconds(), "request timeout in seconds")
	pf.StringVar(&flags.output, "output", config.DefaultOutput, "file the fetched body is written to (run only; batch uses --output-dir)")
	pf.Int64Var(&flags.maxBodyBytes, "max-body-bytes", 0, "truncate bodies to this many bytes (0 = no limit)")

	root.AddCommand(newRunCmd(), newBatchCmd())
	return root
}

// loadConfig reads --config, then applies any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	fs := cmd.Flags()
	if fs.Changed("user-agent") {
		cfg.UserAgent = flags.userAgent
	}
	if fs.Changed("delay") {
		cfg.Delay = seconds(flags.delay)
	}
	if fs.Changed("timeout") {
		cfg.Timeout = seconds(flags.timeout)
	}
	if fs.Changed("output") {
		cfg.Output = flags.output
	}
	if fs.Changed("max-body-bytes") {
		cfg.MaxBodyBytes = flags.maxBodyBytes
	}
	return cfg, cfg.Validate()
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func newRunCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run [URL]",
		Short: "Check robots.txt, fetch one URL and save its body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			target := defaultTarget
			if len(args) == 1 {
				target = args[0]
			}

			p := scrape.New(cfg, logger.New())
			report := p.Run(context.Background(), target)
			if asJSON {
				enc := json.NewEncoder(os.Stderr)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run report as JSON to stderr")
	return cmd
}
