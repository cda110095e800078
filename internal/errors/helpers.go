package errors

import (
	"fmt"
)

// Common error creators for frequent use cases

// NewInvalidScheduleError creates an error for a due date that is not in the future
func NewInvalidScheduleError(detail string) *AppError {
	return New(ErrCodeInvalidSchedule, detail).
		WithUserMessage("The reminder time must be in the future")
}

// NewNotFoundError creates an error for an absent reminder or user
func NewNotFoundError(kind string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", kind)).
		WithContext("kind", kind).
		WithContext("id", id).
		WithUserMessage(fmt.Sprintf("The %s does not exist", kind))
}

// NewForbiddenError creates an authorization error for a reminder mutation
func NewForbiddenError(actor string, action string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("actor not authorized to %s", action)).
		WithContext("actor", actor).
		WithContext("action", action).
		WithUserMessage(fmt.Sprintf("Only the reminder's recipient may %s it", action))
}

// NewParseFailureError creates an error for unparseable date/time input
func NewParseFailureError(input string, err error) *AppError {
	return Wrap(err, ErrCodeParseFailure, "could not parse date/time input").
		WithContext("input", input).
		WithUserMessage(fmt.Sprintf("I don't know how to parse %q, please try again", input))
}

// NewDeliveryUnavailableError creates an error for an unreachable or blocked target
func NewDeliveryUnavailableError(reason string, err error) *AppError {
	return Wrap(err, ErrCodeDeliveryUnavailable, reason).
		WithUserMessage("The target user cannot be reached")
}

// NewValidationError creates a validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewDatabaseError creates a database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Database operation failed")
}

// NewAPIError creates an API error for chat gateway calls
func NewAPIError(endpoint string, statusCode int, err error) *AppError {
	retryable := statusCode >= 500 || statusCode == 429 || statusCode == 408

	appErr := Wrap(err, ErrCodeChatAPI, "chat gateway call failed").
		WithContext("endpoint", endpoint).
		WithContext("status_code", statusCode)

	if retryable {
		appErr.Retryable = true
	}

	return appErr
}

// NewTimeoutError creates a timeout error with context
func NewTimeoutError(operation string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out", operation)).
		WithContext("operation", operation).
		WithUserMessage("The operation timed out")
}
