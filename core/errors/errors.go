// Package errors provides the error taxonomy shared by the odfnote packages.
//
// Construction and structural errors abort an operation before the tree is
// touched. Validation errors are never returned by constructors or setters;
// they are only collected by Validate methods.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrConstruction indicates an element could not be built
	ErrConstruction = errors.New("construction error")
	// ErrInvalidContent indicates a text-or-element setter received neither
	ErrInvalidContent = errors.New("invalid content")
	// ErrStructural indicates the tree shape does not allow the operation
	ErrStructural = errors.New("structural error")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "annotation", "note", "paragraph")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError is a single validity violation reported by Validate.
type ValidationError struct {
	Element string // Element tag the violation belongs to (e.g. "text:note")
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	switch {
	case e.Element != "" && e.Field != "":
		return fmt.Sprintf("%s: validation failed for %s: %s", e.Element, e.Field, e.Message)
	case e.Field != "":
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ConstructionError reports an element that could not be created or a
// setter that received an unusable value.
type ConstructionError struct {
	Element string // Element tag being built
	Message string
	Err     error // Underlying sentinel, defaults to ErrConstruction
}

func (e *ConstructionError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("%s: %s", e.Element, e.Message)
	}
	return e.Message
}

func (e *ConstructionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConstruction
}

// StructuralError reports an operation the current tree position forbids,
// such as a partner lookup on a detached marker.
type StructuralError struct {
	Operation string
	Element   string
	Reason    string
}

func (e *StructuralError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("cannot %s on %s: %s", e.Operation, e.Element, e.Reason)
	}
	return fmt.Sprintf("cannot %s: %s", e.Operation, e.Reason)
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XML", "YAML")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

// Unwrap exposes both the cause and ErrInvalidInput.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err, ErrInvalidInput}
	}
	return []error{ErrInvalidInput}
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(element, field, message string) *ValidationError {
	return &ValidationError{
		Element: element,
		Field:   field,
		Message: message,
	}
}

// NewConstruction creates a ConstructionError
func NewConstruction(element, message string) *ConstructionError {
	return &ConstructionError{
		Element: element,
		Message: message,
	}
}

// NewInvalidContent creates a ConstructionError wrapping ErrInvalidContent.
func NewInvalidContent(element, message string) *ConstructionError {
	return &ConstructionError{
		Element: element,
		Message: message,
		Err:     ErrInvalidContent,
	}
}

// NewStructural creates a StructuralError
func NewStructural(operation, element, reason string) *StructuralError {
	return &StructuralError{
		Operation: operation,
		Element:   element,
		Reason:    reason,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Join combines violations into one error, nil when there are none.
func Join(errs []error) error {
	return errors.Join(errs...)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
