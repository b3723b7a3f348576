package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"

	transactions "github.com/goliatone/go-transactions"
	"github.com/goliatone/go-transactions/dispatch"
	"github.com/goliatone/go-transactions/inbound"
	"github.com/goliatone/go-transactions/processor"
)

const shutdownGrace = 10 * time.Second

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and serve the webhook pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
}

func runServe(parent context.Context, rootOpts *rootOptions) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := resolveConfig(ctx, rootOpts)
	if err != nil {
		return err
	}
	_, logger := glog.Resolve(cfg.ServiceName, nil, nil)

	client, factory, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	store := factory.TransactionStore()

	worker := processor.New(store)
	worker.WorkDuration = cfg.Processor.WorkDuration
	worker.Logger = logger

	channel := dispatch.NewInProcessChannel(worker, cfg.Dispatch)
	channel.MaxAttempts = cfg.Processor.MaxAttempts
	channel.RetryPolicy = dispatch.ExponentialRetryPolicy{
		Initial: cfg.Processor.InitialBackoff,
		Max:     cfg.Processor.MaxBackoff,
	}
	channel.Logger = logger
	if err := channel.Start(ctx, cfg.Dispatch.Workers); err != nil {
		return fmt.Errorf("start dispatch channel: %w", err)
	}
	defer channel.Close()

	svc, err := transactions.NewService(cfg,
		transactions.WithLogger(logger),
		transactions.WithRecordStore(store),
		transactions.WithDispatchChannel(channel),
	)
	if err != nil {
		return err
	}

	router, err := inbound.NewRouter(svc, inbound.WithRouterLogger(logger))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "driver", cfg.Storage.Driver)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
