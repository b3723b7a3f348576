package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newListCommand(rootOpts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print recorded transactions, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), rootOpts, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of records to print (0 for all)")

	return cmd
}

func runList(ctx context.Context, rootOpts *rootOptions, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := resolveConfig(ctx, rootOpts)
	if err != nil {
		return err
	}

	client, factory, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	records, err := factory.Transactions().List(ctx, limit)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}
