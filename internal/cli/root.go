package cli

import (
	"fmt"

	"leopards-connector/internal/core/config"
	"leopards-connector/internal/core/httpclient"
	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/core/proxy"
	"leopards-connector/internal/features/shipments/adapters"
	"leopards-connector/internal/features/shipments/ports"
	"leopards-connector/internal/features/shipments/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Env is what the commands talk to. Request timeouts belong to the courier adapter.
type Env struct {
	Courier ports.Courier
	Quotes  *service.QuoteService
}

// EnvLoader builds the command environment from a config directory.
type EnvLoader func(configPath string) (*Env, error)

func newRootCmd(load EnvLoader) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "leopardsctl",
		Short:         "Operate the Leopards Courier connection",
		Long:          "leopardsctl checks credentials, prices parcels, tracks and cancels packets against the Leopards merchant API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding the .env file")

	env := func() (*Env, error) { return load(configPath) }

	cmd.AddCommand(newTestConnectionCmd(env))
	cmd.AddCommand(newQuoteCmd(env))
	cmd.AddCommand(newTrackCmd(env))
	cmd.AddCommand(newCancelCmd(env))
	return cmd
}

// NewRootCmdForTest returns the root command wired to load.
func NewRootCmdForTest(load EnvLoader) *cobra.Command {
	return newRootCmd(load)
}

// Execute runs the CLI against the configured Leopards account.
func Execute() error {
	return newRootCmd(LoadEnv).Execute()
}

// LoadEnv reads the configuration and builds the courier adapter.
func LoadEnv(configPath string) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	fixedPrice, err := decimal.NewFromString(cfg.Leopards.FixedPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid LEOPARDS_FIXED_PRICE %q: %w", cfg.Leopards.FixedPrice, err)
	}

	var opts []httpclient.Option
	if settings := proxy.FromConfig(cfg.Proxy); settings.HasProxy() {
		opts = append(opts, httpclient.WithProxy(settings))
	}

	courier := adapters.NewLeopardsAdapter(cfg.Leopards, opts...)
	return &Env{
		Courier: courier,
		Quotes:  service.NewQuoteService(courier, nil, fixedPrice, cfg.Leopards.CODEnabled),
	}, nil
}
