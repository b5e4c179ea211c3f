package types

import (
	"errors"
	"fmt"
)

// Standard error types
type ErrorType string

const (
	ErrTypeConfig       ErrorType = "CONFIG_ERROR"
	ErrTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrTypeInvalidValue ErrorType = "INVALID_VALUE"
	ErrTypeDatabase     ErrorType = "DATABASE_ERROR"
	ErrTypeNetwork      ErrorType = "NETWORK_ERROR"
	ErrTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeBadRequest   ErrorType = "BAD_REQUEST"
	ErrTypeTimeout      ErrorType = "TIMEOUT"

	// transport
	ErrTypeAllProvidersDown    ErrorType = "ALL_PROVIDERS_DOWN"
	ErrTypeHTTP                ErrorType = "HTTP_ERROR"
	ErrTypeMalformedResponse   ErrorType = "MALFORMED_RESPONSE"
	ErrTypePartialBatchFailure ErrorType = "PARTIAL_BATCH_FAILURE"

	// quote protocol
	ErrTypeInvalidInput    ErrorType = "INVALID_INPUT"
	ErrTypeAbiEncoding     ErrorType = "ABI_ENCODING"
	ErrTypeRPC             ErrorType = "RPC_ERROR"
	ErrTypeNotAnArray      ErrorType = "NOT_AN_ARRAY"
	ErrTypeMismatchedCount ErrorType = "MISMATCHED_COUNT"
	ErrTypeDuplicateID     ErrorType = "DUPLICATE_ID"
	ErrTypeInvalidID       ErrorType = "INVALID_ID"
	ErrTypeMissingResult   ErrorType = "MISSING_RESULT"
	ErrTypeHexDecode       ErrorType = "HEX_DECODE"
	ErrTypeIncompleteBatch ErrorType = "INCOMPLETE_BATCH"
	ErrTypeEnvVar          ErrorType = "ENV_VAR"

	// address codec
	ErrTypeInvalidFormat   ErrorType = "INVALID_FORMAT"
	ErrTypeInvalidChecksum ErrorType = "INVALID_CHECKSUM"
	ErrTypeBitPacking      ErrorType = "BIT_PACKING"
)

// ErrorCategory groups error types by what a caller can do about them.
type ErrorCategory string

const (
	CategoryInfrastructure    ErrorCategory = "infrastructure"
	CategoryMalformedResponse ErrorCategory = "malformed_response"
	CategoryInvalidInput      ErrorCategory = "invalid_input"
)

// Category reports whether an error is worth retrying (infrastructure),
// points at a misbehaving provider (malformed_response) or at the caller
// (invalid_input).
func (t ErrorType) Category() ErrorCategory {
	switch t {
	case ErrTypeAllProvidersDown, ErrTypeHTTP, ErrTypeNetwork, ErrTypeTimeout,
		ErrTypePartialBatchFailure, ErrTypeEnvVar, ErrTypeDatabase, ErrTypeConfig, ErrTypeInternal:
		return CategoryInfrastructure
	case ErrTypeMalformedResponse, ErrTypeRPC, ErrTypeNotAnArray, ErrTypeMismatchedCount,
		ErrTypeDuplicateID, ErrTypeInvalidID, ErrTypeMissingResult, ErrTypeHexDecode, ErrTypeIncompleteBatch:
		return CategoryMalformedResponse
	default:
		return CategoryInvalidInput
	}
}

// StandardError provides consistent error formatting
type StandardError struct {
	Type    ErrorType
	Message string
	Details map[string]any
	Cause   error
}

func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err, or anything it wraps, is a StandardError of type t.
func IsErrorType(err error, t ErrorType) bool {
	for err != nil {
		var se *StandardError
		if !errors.As(err, &se) {
			return false
		}
		if se.Type == t {
			return true
		}
		err = se.Cause
	}
	return false
}

// GetErrorType returns the type of the outermost StandardError in err's chain.
func GetErrorType(err error) (ErrorType, bool) {
	var se *StandardError
	if !errors.As(err, &se) {
		return "", false
	}
	return se.Type, true
}

// Error constructors for common cases

func NewConfigError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeConfig,
		Message: msg,
		Cause:   cause,
	}
}

func NewValidationError(field, msg string) error {
	return &StandardError{
		Type:    ErrTypeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

func NewInvalidValueError(field, value, msg string) error {
	return &StandardError{
		Type:    ErrTypeInvalidValue,
		Message: fmt.Sprintf("invalid value for %s: %s (%s)", field, value, msg),
		Details: map[string]any{"field": field, "value": value},
	}
}

func NewDatabaseError(operation string, cause error) error {
	return &StandardError{
		Type:    ErrTypeDatabase,
		Message: fmt.Sprintf("database %s failed", operation),
		Cause:   cause,
	}
}

func NewNetworkError(url string, cause error) error {
	return &StandardError{
		Type:    ErrTypeNetwork,
		Message: fmt.Sprintf("network request to %s failed", url),
		Details: map[string]any{"url": url},
		Cause:   cause,
	}
}

func NewNotFoundError(resource string) error {
	return &StandardError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource},
	}
}

func NewBadRequestError(msg string) error {
	return &StandardError{
		Type:    ErrTypeBadRequest,
		Message: msg,
	}
}

func NewTimeoutError(operation string) error {
	return &StandardError{
		Type:    ErrTypeTimeout,
		Message: fmt.Sprintf("%s operation timed out", operation),
		Details: map[string]any{"operation": operation},
	}
}

func NewInternalError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// Transport errors

func NewAllProvidersDownError(attempted int, cause error) error {
	return &StandardError{
		Type:    ErrTypeAllProvidersDown,
		Message: fmt.Sprintf("no usable response from %d endpoint(s)", attempted),
		Details: map[string]any{"endpoints": attempted},
		Cause:   cause,
	}
}

func NewHTTPError(url string, status int, body string) error {
	return &StandardError{
		Type:    ErrTypeHTTP,
		Message: fmt.Sprintf("http response: %d, body: %s", status, body),
		Details: map[string]any{"url": url, "status": status, "body": body},
	}
}

func NewMalformedResponseError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeMalformedResponse,
		Message: msg,
		Cause:   cause,
	}
}

func NewPartialBatchFailureError(chunk, requests int, cause error) error {
	return &StandardError{
		Type:    ErrTypePartialBatchFailure,
		Message: fmt.Sprintf("chunk %d (%d requests) failed on every endpoint", chunk, requests),
		Details: map[string]any{"chunk": chunk, "requests": requests},
		Cause:   cause,
	}
}

// NewMissingResponsesError reports requests of a batch that got no response
// at all, usually because their chunk failed on every endpoint.
func NewMissingResponsesError(method string, missing, requests int) error {
	return &StandardError{
		Type:    ErrTypePartialBatchFailure,
		Message: fmt.Sprintf("%d of %d %s requests got no response", missing, requests, method),
		Details: map[string]any{"method": method, "missing": missing, "requests": requests},
	}
}

// Quote protocol errors

func NewInvalidInputError(msg string) error {
	return &StandardError{
		Type:    ErrTypeInvalidInput,
		Message: msg,
	}
}

func NewAbiEncodingError(field, msg string) error {
	return &StandardError{
		Type:    ErrTypeAbiEncoding,
		Message: fmt.Sprintf("cannot encode %s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

func NewRPCError(id, code int, message string) error {
	return &StandardError{
		Type:    ErrTypeRPC,
		Message: fmt.Sprintf("rpc error for id %d: code %d: %s", id, code, message),
		Details: map[string]any{"id": id, "code": code, "message": message},
	}
}

func NewNotAnArrayError() error {
	return &StandardError{
		Type:    ErrTypeNotAnArray,
		Message: "batch response is not a JSON array",
	}
}

func NewMismatchedCountError(expected, actual int) error {
	return &StandardError{
		Type:    ErrTypeMismatchedCount,
		Message: fmt.Sprintf("expected %d responses, got %d", expected, actual),
		Details: map[string]any{"expected": expected, "actual": actual},
	}
}

func NewDuplicateIDError(id int) error {
	return &StandardError{
		Type:    ErrTypeDuplicateID,
		Message: fmt.Sprintf("duplicate response id %d", id),
		Details: map[string]any{"id": id},
	}
}

func NewInvalidIDError(raw string) error {
	return &StandardError{
		Type:    ErrTypeInvalidID,
		Message: fmt.Sprintf("invalid response id %s", raw),
		Details: map[string]any{"id": raw},
	}
}

func NewMissingResultError(id int) error {
	return &StandardError{
		Type:    ErrTypeMissingResult,
		Message: fmt.Sprintf("response %d has no string result", id),
		Details: map[string]any{"id": id},
	}
}

func NewHexDecodeError(id int, value string, cause error) error {
	return &StandardError{
		Type:    ErrTypeHexDecode,
		Message: fmt.Sprintf("cannot decode result of response %d: %q", id, value),
		Details: map[string]any{"id": id, "value": value},
		Cause:   cause,
	}
}

func NewIncompleteBatchError(missing []int) error {
	return &StandardError{
		Type:    ErrTypeIncompleteBatch,
		Message: fmt.Sprintf("missing response ids %v", missing),
		Details: map[string]any{"missing": missing},
	}
}

func NewEnvVarError(name string) error {
	return &StandardError{
		Type:    ErrTypeEnvVar,
		Message: fmt.Sprintf("environment variable %s is not set", name),
		Details: map[string]any{"name": name},
	}
}

// Address codec errors

func NewInvalidFormatError(msg string) error {
	return &StandardError{
		Type:    ErrTypeInvalidFormat,
		Message: msg,
	}
}

func NewInvalidChecksumError(addr string) error {
	return &StandardError{
		Type:    ErrTypeInvalidChecksum,
		Message: fmt.Sprintf("checksum mismatch for %s", addr),
		Details: map[string]any{"address": addr},
	}
}

func NewBitPackingError(msg string) error {
	return &StandardError{
		Type:    ErrTypeBitPacking,
		Message: msg,
	}
}
