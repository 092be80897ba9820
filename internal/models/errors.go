package models

import "fmt"

type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryNotFound   ErrorCategory = "not_found"
	ErrorCategoryExternal   ErrorCategory = "external"
	ErrorCategoryInternal   ErrorCategory = "internal"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
)

// ServiceError is the error type returned across service boundaries. Handlers
// map its category onto an HTTP status.
type ServiceError struct {
	Category ErrorCategory          `json:"category"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Cause    error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

func (e *ServiceError) WithCause(err error) *ServiceError {
	e.Cause = err
	return e
}

func (e *ServiceError) WithMetadata(key string, value interface{}) *ServiceError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(category ErrorCategory, code, message string) *ServiceError {
	return &ServiceError{Category: category, Code: code, Message: message}
}

func NewValidationError(code, message string) *ServiceError {
	return newError(ErrorCategoryValidation, code, message)
}

func NewNotFoundError(code, message string) *ServiceError {
	return newError(ErrorCategoryNotFound, code, message)
}

func NewExternalError(code, message string) *ServiceError {
	return newError(ErrorCategoryExternal, code, message)
}

func NewInternalError(code, message string) *ServiceError {
	return newError(ErrorCategoryInternal, code, message)
}

func NewTimeoutError(code, message string) *ServiceError {
	return newError(ErrorCategoryTimeout, code, message)
}

// WrapExternalError tags an upstream collaborator failure with its origin.
func WrapExternalError(origin string, err error) *ServiceError {
	return NewExternalError(origin+"_FAILED", "upstream call failed").WithCause(err)
}

func ErrArticleNotFound(articleID string) *ServiceError {
	return NewNotFoundError("ARTICLE_NOT_FOUND", "Article not found").
		WithMetadata("article_id", articleID)
}
