// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrConflict           = errors.New("resource already exists")
	ErrDeleted            = errors.New("resource has been deleted")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTenantRequired     = errors.New("tenant id required")
	ErrServiceUnavailable = errors.New("service unavailable")
)

type AppError struct {
	Err        error  `json:"-"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func ConflictError(message, code string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, code)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}

// DeletedError matches the message clients already parse for anonymized
// accounts.
func DeletedError() *AppError {
	return NewAppError(
		ErrDeleted,
		"This account has been deleted and cannot be modified.",
		http.StatusBadRequest,
		"USER_DELETED",
	)
}

func InvalidCredentialsError() *AppError {
	return NewAppError(
		ErrInvalidCredentials,
		"invalid credentials",
		http.StatusForbidden,
		"INVALID_CREDENTIALS",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		"TOKEN_REVOKED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"token is invalid",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func ServiceUnavailableError(message, code string) *AppError {
	return NewAppError(
		ErrServiceUnavailable,
		message,
		http.StatusServiceUnavailable,
		code,
	)
}

func InternalError(err error) *AppError {
	return NewAppError(
		err,
		"Internal server error",
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
	)
}

// ToAppError maps any error onto the public taxonomy. An AppError anywhere
// in the chain wins; bare sentinels get their default rendering; everything
// else is an internal error.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, "resource not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrConflict):
		return NewAppError(err, "resource already exists", http.StatusConflict, "CONFLICT")
	case errors.Is(err, ErrDeleted):
		return DeletedError()
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(err, "invalid input", http.StatusBadRequest, "VALIDATION_ERROR")
	case errors.Is(err, ErrInvalidCredentials):
		return InvalidCredentialsError()
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("")
	case errors.Is(err, ErrServiceUnavailable):
		return ServiceUnavailableError("service unavailable", "SERVICE_UNAVAILABLE")
	default:
		return InternalError(err)
	}
}
