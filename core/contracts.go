package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// RecordStore is the durable, strongly consistent keyed store for transaction
// records. Both writes are conditional single statements; that atomicity is
// the only synchronization mechanism in the pipeline.
type RecordStore interface {
	// Insert creates the record only if the identifier is absent. A
	// duplicate identifier returns ErrRecordExists.
	Insert(ctx context.Context, record TransactionRecord) error
	// Complete transitions the record to PROCESSED only if it exists and
	// is still PROCESSING. It returns false with a nil error when the
	// guard does not match (absent or already terminal).
	Complete(ctx context.Context, transactionID string, processedAt time.Time) (bool, error)
	// Get returns the full record or ErrRecordNotFound.
	Get(ctx context.Context, transactionID string) (TransactionRecord, error)
}

// DispatchChannel is the asynchronous hand-off to the processor. Send
// failures surface synchronously; acceptance carries no execution guarantee.
type DispatchChannel interface {
	Dispatch(ctx context.Context, payload DispatchPayload) error
}

// PayloadProcessor consumes dispatched payloads. Implementations must be safe
// to invoke more than once for the same identifier.
type PayloadProcessor interface {
	Process(ctx context.Context, payload DispatchPayload) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

// StoreProvider exposes the stores a repository factory wires up.
type StoreProvider interface {
	TransactionStore() RecordStore
}

// RepositoryStoreFactory builds stores from a persistence client or bun DB.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}
