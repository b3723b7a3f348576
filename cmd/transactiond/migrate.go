package main

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"
)

func newMigrateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), rootOpts)
		},
	}
}

func runMigrate(ctx context.Context, rootOpts *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := resolveConfig(ctx, rootOpts)
	if err != nil {
		return err
	}
	_, logger := glog.Resolve(cfg.ServiceName, nil, nil)

	client, _, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	logger.Info("migrations applied", "driver", cfg.Storage.Driver)
	return nil
}
