package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Service is the ingest surface of the pipeline: it validates submissions,
// claims the identifier with a conditional insert, and hands accepted work to
// the dispatch channel. Reads go straight to the store.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	recordStore       RecordStore
	dispatchChannel   DispatchChannel
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	RecordStore       RecordStore
	DispatchChannel   DispatchChannel
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("transactions", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("transactions"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = time.Now
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.recordStore == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.recordStore = storeProvider.TransactionStore()
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			builder.recordStore = storeProvider.TransactionStore()
		}
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		recordStore:       builder.recordStore,
		dispatchChannel:   builder.dispatchChannel,
		now:               builder.now,
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		RecordStore:       s.recordStore,
		DispatchChannel:   s.dispatchChannel,
	}
}

// Submit validates a transaction request, claims its identifier with a
// conditional insert, and dispatches the payload to the processor. A
// duplicate identifier is acknowledged without a second dispatch. When the
// insert lands but dispatch fails the record stays PROCESSING and the error
// is surfaced so the caller retries the whole submission.
func (s *Service) Submit(ctx context.Context, req TransactionRequest) (receipt SubmitReceipt, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"transaction_id": req.TransactionID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "submit", err, fields)
	}()

	if s == nil || s.recordStore == nil {
		err = s.mapError(fmt.Errorf("core: record store is required for submit"))
		return SubmitReceipt{}, err
	}
	if s.dispatchChannel == nil {
		err = s.mapError(fmt.Errorf("core: dispatch channel is required for submit"))
		return SubmitReceipt{}, err
	}

	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return SubmitReceipt{}, err
	}

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
	}
	fields["request_id"] = requestID

	record := NewTransactionRecord(req, s.now())
	if insertErr := s.recordStore.Insert(ctx, record); insertErr != nil {
		if errors.Is(insertErr, ErrRecordExists) {
			fields["duplicate"] = true
			return SubmitReceipt{
				TransactionID: record.TransactionID,
				RequestID:     requestID,
				Duplicate:     true,
			}, nil
		}
		err = s.mapError(insertErr)
		return SubmitReceipt{}, err
	}

	payload := NewDispatchPayload(req, requestID)
	if dispatchErr := s.dispatchChannel.Dispatch(ctx, payload); dispatchErr != nil {
		// The record is persisted and stays PROCESSING. A retry hits the
		// duplicate branch above, so the row is never re-dispatched by
		// this path; recovery needs an operational replay.
		err = s.mapError(internalError(dispatchErr, "transaction accepted but dispatch failed"))
		return SubmitReceipt{}, err
	}

	return SubmitReceipt{
		TransactionID: record.TransactionID,
		RequestID:     requestID,
		Duplicate:     false,
	}, nil
}

// GetStatus returns the stored record for a transaction identifier. Reads
// always hit the store; there is no cache in front of it.
func (s *Service) GetStatus(ctx context.Context, transactionID string) (record TransactionRecord, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"transaction_id": transactionID,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "get_status", err, fields)
	}()

	if s == nil || s.recordStore == nil {
		err = s.mapError(fmt.Errorf("core: record store is required for status lookup"))
		return TransactionRecord{}, err
	}

	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" || transactionID == "transactions" {
		err = s.mapError(invalidPayloadError("Transaction ID is required", goerrors.FieldError{
			Field:   "transaction_id",
			Message: "transaction_id is required",
		}))
		return TransactionRecord{}, err
	}

	record, getErr := s.recordStore.Get(ctx, transactionID)
	if getErr != nil {
		err = s.mapError(getErr)
		return TransactionRecord{}, err
	}
	return record, nil
}

// Health reports liveness with the current service time.
func (s *Service) Health(ctx context.Context) HealthStatus {
	now := time.Now
	if s != nil && s.now != nil {
		now = s.now
	}
	status := HealthStatus{
		Status:      "HEALTHY",
		CurrentTime: now().UTC(),
	}
	s.logInfo(ctx, "health check", map[string]any{
		"status": status.Status,
	})
	return status
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
