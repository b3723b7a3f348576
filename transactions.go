package transactions

import "github.com/goliatone/go-transactions/core"

type Config = core.Config

type ProcessorConfig = core.ProcessorConfig

type DispatchConfig = core.DispatchConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type TransactionRequest = core.TransactionRequest
type TransactionRecord = core.TransactionRecord
type TransactionStatus = core.TransactionStatus
type SubmitReceipt = core.SubmitReceipt
type DispatchPayload = core.DispatchPayload
type HealthStatus = core.HealthStatus

type RecordStore = core.RecordStore
type DispatchChannel = core.DispatchChannel
type PayloadProcessor = core.PayloadProcessor
type MetricsRecorder = core.MetricsRecorder

const (
	TransactionStatusProcessing = core.TransactionStatusProcessing
	TransactionStatusProcessed  = core.TransactionStatusProcessed
)

var (
	ErrRecordExists   = core.ErrRecordExists
	ErrRecordNotFound = core.ErrRecordNotFound
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithRecordStore       = core.WithRecordStore
	WithDispatchChannel   = core.WithDispatchChannel
	WithNow               = core.WithNow
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
