package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-transactions/core"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	ConfigFile string
	Addr       string
	Driver     string
	DSN        string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "transactiond",
		Short:         "Idempotent transaction webhook pipeline",
		Long:          "transactiond ingests financial-transaction webhooks, records each transaction exactly once, and completes it asynchronously.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to a JSON config file")
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "storage driver: sqlite3 or postgres")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "storage DSN")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newListCommand(opts))

	return cmd
}

// fileRawConfigLoader feeds a JSON config file into the layered config stack.
type fileRawConfigLoader struct {
	path string
}

func (l fileRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if strings.TrimSpace(l.path) == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", l.path, err)
	}
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", l.path, err)
	}
	return raw, nil
}

// resolveConfig layers defaults, the optional config file, and flag
// overrides, in that order.
func resolveConfig(ctx context.Context, opts *rootOptions) (core.Config, error) {
	provider := core.NewCfgxConfigProvider(fileRawConfigLoader{path: opts.ConfigFile})
	loaded, err := provider.Load(ctx, core.DefaultConfig())
	if err != nil {
		return core.Config{}, err
	}

	runtime := core.Config{}
	if strings.TrimSpace(opts.Addr) != "" {
		runtime.HTTP.Addr = opts.Addr
	}
	if strings.TrimSpace(opts.Driver) != "" {
		runtime.Storage.Driver = opts.Driver
	}
	if strings.TrimSpace(opts.DSN) != "" {
		runtime.Storage.DSN = opts.DSN
	}

	resolver := core.GoOptionsResolver{}
	return resolver.Resolve(core.DefaultConfig(), loaded, runtime)
}
