package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrorCodeNotFound       = "NOT_FOUND"
	ErrorCodeInternal       = "INTERNAL"
)

func pipelineErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensurePipelineErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrRecordNotFound):
		return ensurePipelineErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryNotFound, "transaction not found").
				WithTextCode(ErrorCodeNotFound),
		)
	case errors.Is(err, ErrRecordExists):
		return ensurePipelineErrorEnvelope(
			goerrors.Wrap(err, goerrors.CategoryConflict, "transaction already recorded").
				WithTextCode(ErrorCodeInternal),
		)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensurePipelineErrorEnvelope(mapped)
}

func invalidPayloadError(message string, fields ...goerrors.FieldError) error {
	return goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorCodeInvalidPayload)
}

func internalError(source error, message string) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorCodeInternal)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorCodeInternal)
}

func ensurePipelineErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = PipelineHTTPStatus(err.Category)
	}
	if !isPipelineTextCode(err.TextCode) {
		err.TextCode = defaultPipelineTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

// isPipelineTextCode reports whether code belongs to the public three-code
// taxonomy. Anything else, including library defaults picked up while
// wrapping, gets replaced by the category's code.
func isPipelineTextCode(code string) bool {
	switch strings.TrimSpace(code) {
	case ErrorCodeInvalidPayload, ErrorCodeNotFound, ErrorCodeInternal:
		return true
	default:
		return false
	}
}

func defaultPipelineTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorCodeInvalidPayload
	case goerrors.CategoryNotFound:
		return ErrorCodeNotFound
	default:
		return ErrorCodeInternal
	}
}

// PipelineHTTPStatus maps an error category onto the status codes of the
// public surface. Everything outside the client-error taxonomy is a 500.
func PipelineHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
