package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeRender represents navigation or renderer failures
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeTimeout represents a source exceeding its time budget
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeValidation represents requests that name no known source
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUnknownSource represents a lookup of an unregistered source id
	ErrorTypeUnknownSource ErrorType = "unknown_source"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeBrowser represents headless browser startup failures
	ErrorTypeBrowser ErrorType = "browser"
)

// SourceError is an error scoped to a single deal source
type SourceError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must reach the HTTP boundary instead of
// being contained at the source level.
func (e *SourceError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeBrowser, ErrorTypeConfiguration:
		return true
	default:
		return false
	}
}

// New creates a new SourceError
func New(errType ErrorType, source, message string, err error) *SourceError {
	return &SourceError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewRender creates a new render error
func NewRender(source, message string, err error) *SourceError {
	return New(ErrorTypeRender, source, message, err)
}

// NewTimeout creates a new timeout error
func NewTimeout(source string, after time.Duration) *SourceError {
	return New(ErrorTypeTimeout, source, fmt.Sprintf("no result after %v", after), nil)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *SourceError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *SourceError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewUnknownSource creates a new unknown source error
func NewUnknownSource(source string) *SourceError {
	return New(ErrorTypeUnknownSource, source, "source is not registered", nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *SourceError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *SourceError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewBrowser creates a new browser startup error
func NewBrowser(message string, err error) *SourceError {
	return New(ErrorTypeBrowser, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *SourceError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the category of err, or "" when err is not a SourceError.
func TypeOf(err error) ErrorType {
	var se *SourceError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ""
}

// Is reports whether err is a SourceError of the given type.
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
