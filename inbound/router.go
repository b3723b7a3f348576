package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-transactions/core"
)

const (
	// RequestIDHeader carries the caller supplied trace id; when absent the
	// router mints one per request.
	RequestIDHeader = "X-Request-Id"

	defaultMaxBodyBytes int64 = 1 << 20
)

// PipelineService is the slice of the transaction service the HTTP boundary
// needs.
type PipelineService interface {
	Submit(ctx context.Context, req core.TransactionRequest) (core.SubmitReceipt, error)
	GetStatus(ctx context.Context, transactionID string) (core.TransactionRecord, error)
	Health(ctx context.Context) core.HealthStatus
}

// Router exposes the webhook pipeline over HTTP: a liveness probe, the
// transaction webhook ingress, and the status lookup.
type Router struct {
	service      PipelineService
	logger       core.Logger
	maxBodyBytes int64
}

// RouterOption mutates router construction.
type RouterOption func(*Router)

// WithRouterLogger overrides the boundary logger.
func WithRouterLogger(logger core.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxBodyBytes caps the accepted webhook payload size.
func WithMaxBodyBytes(limit int64) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.maxBodyBytes = limit
		}
	}
}

// NewRouter builds the HTTP boundary around the given service.
func NewRouter(service PipelineService, options ...RouterOption) (*Router, error) {
	if service == nil {
		return nil, inboundInternal("inbound: router requires a pipeline service", nil)
	}
	_, logger := glog.Resolve("transactions.inbound", nil, nil)
	router := &Router{
		service:      service,
		logger:       logger,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, option := range options {
		if option != nil {
			option(router)
		}
	}
	return router, nil
}

// Handler returns the mounted chi handler.
func (r *Router) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestIDMiddleware)

	mux.Get("/", r.handleHealth)
	mux.Post("/v1/webhooks/transactions", r.handleSubmit)
	mux.Get("/v1/transactions/{transactionID}", r.handleGetStatus)

	return mux
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	status := r.service.Health(req.Context())
	r.writeJSON(w, req, http.StatusOK, status)
}

func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	body := http.MaxBytesReader(w, req.Body, r.maxBodyBytes)
	defer body.Close()

	var payload core.TransactionRequest
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(&payload); err != nil {
		r.writeError(w, req, inboundBadPayload(err, "inbound: invalid transaction payload", map[string]any{
			"route": "POST /v1/webhooks/transactions",
		}))
		return
	}

	if _, err := r.service.Submit(ctx, payload); err != nil {
		r.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (r *Router) handleGetStatus(w http.ResponseWriter, req *http.Request) {
	transactionID := chi.URLParam(req, "transactionID")
	record, err := r.service.GetStatus(req.Context(), transactionID)
	if err != nil {
		r.writeError(w, req, err)
		return
	}
	r.writeJSON(w, req, http.StatusOK, record)
}

type errorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []errorDetail `json:"details,omitempty"`
}

type errorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (r *Router) writeJSON(w http.ResponseWriter, req *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && r.logger != nil {
		r.logger.Error("inbound: write response", "error", err, "path", req.URL.Path)
	}
}

func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		rich = goerrors.Wrap(err, goerrors.CategoryInternal, "inbound: request failed").
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorCodeInternal)
	}

	status := rich.Code
	if status < http.StatusBadRequest {
		status = core.PipelineHTTPStatus(rich.Category)
	}
	textCode := strings.TrimSpace(rich.TextCode)
	if textCode == "" {
		textCode = core.ErrorCodeInternal
	}

	body := errorResponse{Code: textCode, Message: rich.Message}
	for _, fieldErr := range rich.AllValidationErrors() {
		body.Details = append(body.Details, errorDetail{
			Field:   fieldErr.Field,
			Message: fieldErr.Message,
		})
	}

	if r.logger != nil && status >= http.StatusInternalServerError {
		r.logger.Error("inbound: request failed",
			"path", req.URL.Path,
			"status", status,
			"code", textCode,
			"request_id", core.RequestIDFromContext(req.Context()),
			"error", err,
		)
	}
	r.writeJSON(w, req, status, body)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := strings.TrimSpace(req.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := core.WithRequestID(req.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
