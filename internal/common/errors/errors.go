// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrorCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeConflict     ErrorCode = "CONFLICT"
	ErrorCodeTimeout      ErrorCode = "TIMEOUT"
	ErrorCodeUnavailable  ErrorCode = "UNAVAILABLE"

	// Ошибки событий
	ErrorCodeEventInvalid ErrorCode = "EVENT_INVALID"

	// Ошибки хелперов
	ErrorCodeHelperSyntax         ErrorCode = "HELPER_SYNTAX"
	ErrorCodeHelperUnknown        ErrorCode = "HELPER_UNKNOWN"
	ErrorCodeHelperArity          ErrorCode = "HELPER_ARITY"
	ErrorCodeHelperParameterKind  ErrorCode = "HELPER_PARAMETER_KIND"
	ErrorCodeHelperInvalidLiteral ErrorCode = "HELPER_INVALID_LITERAL"
	ErrorCodeReferenceInvalid     ErrorCode = "REFERENCE_INVALID"

	// Ошибки ассетов и окружения
	ErrorCodeAssetInvalid     ErrorCode = "ASSET_INVALID"
	ErrorCodeAssetParseFailed ErrorCode = "ASSET_PARSE_FAILED"
	ErrorCodeDuplicateAsset   ErrorCode = "DUPLICATE_ASSET"
	ErrorCodeOrphanAsset      ErrorCode = "ORPHAN_ASSET"
	ErrorCodeOrphanFilter     ErrorCode = "ORPHAN_FILTER"
	ErrorCodeUnknownFilter    ErrorCode = "UNKNOWN_FILTER"
	ErrorCodeCrossTypeParent  ErrorCode = "CROSS_TYPE_PARENT"
	ErrorCodeCycleDetected    ErrorCode = "CYCLE_DETECTED"
	ErrorCodeEmptyEnvironment ErrorCode = "EMPTY_ENVIRONMENT"

	// Ошибки каталога
	ErrorCodeCatalogRead  ErrorCode = "CATALOG_READ_ERROR"
	ErrorCodeCatalogWrite ErrorCode = "CATALOG_WRITE_ERROR"

	// Ошибки KVDB
	ErrorCodeKVDBNotFound ErrorCode = "KVDB_NOT_FOUND"
	ErrorCodeKVDBAccess   ErrorCode = "KVDB_ACCESS_ERROR"

	// Ошибки инфраструктуры
	ErrorCodeNATSConnection ErrorCode = "NATS_CONNECTION_ERROR"
	ErrorCodeNATSPublish    ErrorCode = "NATS_PUBLISH_ERROR"
	ErrorCodeCHInsert       ErrorCode = "CH_INSERT_ERROR"
	ErrorCodePGQuery        ErrorCode = "PG_QUERY_ERROR"
	ErrorCodeQueueFull      ErrorCode = "QUEUE_FULL"
)

// catalogCodes коды, означающие некорректный каталог, а не внутреннюю ошибку
var catalogCodes = map[ErrorCode]bool{
	ErrorCodeHelperSyntax:         true,
	ErrorCodeHelperUnknown:        true,
	ErrorCodeHelperArity:          true,
	ErrorCodeHelperParameterKind:  true,
	ErrorCodeHelperInvalidLiteral: true,
	ErrorCodeReferenceInvalid:     true,
	ErrorCodeAssetInvalid:         true,
	ErrorCodeAssetParseFailed:     true,
	ErrorCodeDuplicateAsset:       true,
	ErrorCodeOrphanAsset:          true,
	ErrorCodeOrphanFilter:         true,
	ErrorCodeUnknownFilter:        true,
	ErrorCodeCrossTypeParent:      true,
	ErrorCodeCycleDetected:        true,
	ErrorCodeEmptyEnvironment:     true,
}

// NovaSecError представляет ошибку NovaSec
type NovaSecError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Internal   error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// Error возвращает строковое представление ошибки // v1.0
func (e *NovaSecError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает внутреннюю ошибку // v1.0
func (e *NovaSecError) Unwrap() error {
	return e.Internal
}

// New создает новую ошибку NovaSec // v1.0
func New(code ErrorCode, message string) *NovaSecError {
	return &NovaSecError{
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: getStatusCode(code),
	}
}

// Newf создает ошибку с форматированным сообщением // v1.0
func Newf(code ErrorCode, format string, args ...interface{}) *NovaSecError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap оборачивает существующую ошибку // v1.0
func Wrap(err error, code ErrorCode, message string) *NovaSecError {
	return &NovaSecError{
		Code:       code,
		Message:    message,
		Internal:   err,
		Details:    make(map[string]interface{}),
		StatusCode: getStatusCode(code),
	}
}

// AddDetail добавляет деталь к ошибке // v1.0
func (e *NovaSecError) AddDetail(key string, value interface{}) *NovaSecError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithAsset добавляет имя ассета, если оно еще не указано // v1.0
func (e *NovaSecError) WithAsset(name string) *NovaSecError {
	if _, ok := e.Details["asset"]; !ok {
		e.AddDetail("asset", name)
	}
	return e
}

// WithHelper добавляет имя хелпера // v1.0
func (e *NovaSecError) WithHelper(name string) *NovaSecError {
	return e.AddDetail("helper", name)
}

// As извлекает NovaSecError из цепочки ошибок // v1.0
func As(err error) (*NovaSecError, bool) {
	var novaSecErr *NovaSecError
	if stderrors.As(err, &novaSecErr) {
		return novaSecErr, true
	}
	return nil, false
}

// IsErrorCode проверяет, является ли ошибка определенного кода // v1.0
func IsErrorCode(err error, code ErrorCode) bool {
	if novaSecErr, ok := As(err); ok {
		return novaSecErr.Code == code
	}
	return false
}

// GetErrorCode код ошибки; обычные ошибки считаются внутренними
func GetErrorCode(err error) ErrorCode {
	if novaSecErr, ok := As(err); ok {
		return novaSecErr.Code
	}
	return ErrorCodeInternal
}

// IsCatalogError отличает ошибку каталога от внутренней ошибки // v1.0
func IsCatalogError(err error) bool {
	if novaSecErr, ok := As(err); ok {
		return catalogCodes[novaSecErr.Code]
	}
	return false
}

// getStatusCode возвращает HTTP статус код для кода ошибки // v1.0
func getStatusCode(code ErrorCode) int {
	if catalogCodes[code] {
		return 422
	}
	switch code {
	case ErrorCodeValidation, ErrorCodeEventInvalid:
		return 400
	case ErrorCodeUnauthorized:
		return 401
	case ErrorCodeNotFound, ErrorCodeKVDBNotFound:
		return 404
	case ErrorCodeConflict:
		return 409
	case ErrorCodeTimeout:
		return 408
	case ErrorCodeUnavailable, ErrorCodeQueueFull:
		return 503
	default:
		return 500
	}
}

// ValidationError создает ошибку валидации // v1.0
func ValidationError(field, message string) *NovaSecError {
	return New(ErrorCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, message))
}

// NotFoundError создает ошибку "не найдено" // v1.0
func NotFoundError(resource, id string) *NovaSecError {
	return New(ErrorCodeNotFound, fmt.Sprintf("%s with id '%s' not found", resource, id))
}

// UnauthorizedError создает ошибку авторизации // v1.0
func UnauthorizedError(message string) *NovaSecError {
	if message == "" {
		message = "authentication required"
	}
	return New(ErrorCodeUnauthorized, message)
}

// WrapInternal оборачивает внутреннюю ошибку // v1.0
func WrapInternal(err error, message string) *NovaSecError {
	return Wrap(err, ErrorCodeInternal, message)
}
