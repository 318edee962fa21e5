package errors

import (
	"fmt"
	"net/http"
)

// Application error codes. Validation and import errors block only the
// action that raised them; storage errors are recoverable and surfaced as a
// persistent banner while the app keeps working in memory; generation errors
// are surfaced inline near the field being generated.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeRead               = "READ_ERROR"
	CodeWrite              = "WRITE_ERROR"
	CodeImportFormat       = "IMPORT_FORMAT"
	CodeGeneration         = "GENERATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeBusy               = "GENERATION_BUSY"
)

// NewValidationError reports user input that blocks a specific save action.
func NewValidationError(message string) *AppError {
	return NewBadRequestError(CodeValidation, message)
}

// NewImportFormatError reports an import payload whose top-level shape is
// invalid. Nothing is written when this is returned.
func NewImportFormatError(message string) *AppError {
	return NewBadRequestError(CodeImportFormat, message)
}

// NewStorageUnavailableError reports a missing or unopenable primary backend.
func NewStorageUnavailableError(message string) *AppError {
	return NewError(http.StatusServiceUnavailable, CodeStorageUnavailable, message)
}

// NewReadError wraps a failed store read.
func NewReadError(err error) *AppError {
	return NewInternalServerError(CodeRead, fmt.Sprintf("failed to read from store: %s", err))
}

// NewWriteError wraps a failed store write. Batch writes are all-or-nothing,
// so one of these covers the whole rolled-back batch.
func NewWriteError(err error) *AppError {
	return NewInternalServerError(CodeWrite, fmt.Sprintf("failed to write to store: %s", err))
}

// NewGenerationError reports a failed or misconfigured text generation call.
func NewGenerationError(message string) *AppError {
	return NewError(http.StatusBadGateway, CodeGeneration, message)
}

// NewBusyError reports a generation started while one is already in flight
// for the same editing context.
func NewBusyError(message string) *AppError {
	return NewError(http.StatusConflict, CodeBusy, message)
}

// NewEntityNotFoundError reports a missing entity by kind and id.
func NewEntityNotFoundError(kind, id string) *AppError {
	return NewNotFoundError(CodeNotFound, fmt.Sprintf("%s %q not found", kind, id))
}
