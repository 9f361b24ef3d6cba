package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "VALIDATION_ERROR"
	ErrorTypeInvalidArgument   ErrorType = "INVALID_ARGUMENT"
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
	ErrorTypeConflict          ErrorType = "CONFLICT"
	ErrorTypeInvalidCredential ErrorType = "INVALID_CREDENTIAL"
	ErrorTypeInternal          ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequired         ErrorCode = "REQUIRED"
	ErrCodeTooShort         ErrorCode = "TOO_SHORT"
	ErrCodeTooLong          ErrorCode = "TOO_LONG"
	ErrCodeInvalidEncoding  ErrorCode = "INVALID_ENCODING"

	ErrCodeInvalidID ErrorCode = "INVALID_ID"

	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeRoleNotFound       ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeCardNotFound       ErrorCode = "CARD_NOT_FOUND"
	ErrCodeAttendanceNotFound ErrorCode = "ATTENDANCE_NOT_FOUND"

	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	ErrCodeInvalidCredential ErrorCode = "INVALID_CREDENTIAL"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Entity names carried in error details.
const (
	EntityUser          = "user"
	EntityRole          = "role"
	EntityProximityCard = "proximity_card"
	EntityAttendance    = "attendance"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return e.GetDetailedMessage()
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so the package-level sentinels below can be
// used with errors.Is regardless of the lookup key carried in Details.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// LookupKey identifies the record a NotFound or DuplicateKey error refers to.
type LookupKey struct {
	Entity string      `json:"entity"`
	Field  string      `json:"field,omitempty"`
	Key    interface{} `json:"key"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewInvalidArgumentError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidArgument,
		Code:       ErrCodeInvalidID,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(entity string, key interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       notFoundCode(entity),
		Message:    fmt.Sprintf("Could not find %s '%v'", strings.ReplaceAll(entity, "_", " "), key),
		StatusCode: http.StatusNotFound,
		Details:    LookupKey{Entity: entity, Key: key},
	}
}

func NewDuplicateKeyError(entity, field string, key interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       ErrCodeDuplicateKey,
		Message:    fmt.Sprintf("%s with %s '%v' already exists", strings.ReplaceAll(entity, "_", " "), field, key),
		StatusCode: http.StatusConflict,
		Details:    LookupKey{Entity: entity, Field: field, Key: key},
	}
}

func NewInvalidCredentialError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidCredential,
		Code:       ErrCodeInvalidCredential,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func notFoundCode(entity string) ErrorCode {
	switch entity {
	case EntityUser:
		return ErrCodeUserNotFound
	case EntityRole:
		return ErrCodeRoleNotFound
	case EntityProximityCard:
		return ErrCodeCardNotFound
	case EntityAttendance:
		return ErrCodeAttendanceNotFound
	}
	return ErrorCode(strings.ToUpper(entity) + "_NOT_FOUND")
}

// Sentinels for errors.Is. Never return these directly; the constructors
// above attach the lookup key.
var (
	ErrValidation         = NewValidationError("Validation failed", ErrCodeValidationFailed)
	ErrInvalidArgument    = NewInvalidArgumentError("invalid argument")
	ErrUserNotFound       = NewNotFoundError(EntityUser, nil)
	ErrRoleNotFound       = NewNotFoundError(EntityRole, nil)
	ErrCardNotFound       = NewNotFoundError(EntityProximityCard, nil)
	ErrAttendanceNotFound = NewNotFoundError(EntityAttendance, nil)
	ErrDuplicateKey       = NewDuplicateKeyError("", "", nil)
	ErrInvalidCredential  = NewInvalidCredentialError("invalid credential")
)

// IsAppError unwraps err until it finds an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is any kind-specific NotFound error.
func IsNotFound(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeNotFound
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
