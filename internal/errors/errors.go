package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeIO indicates a filesystem failure (open, seek, read, write, sync)
	ErrorTypeIO ErrorType = "IO"
	// ErrorTypeSerialization indicates a malformed record payload
	ErrorTypeSerialization ErrorType = "SERIALIZATION"
	// ErrorTypeNotFound indicates the requested key was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeInvalidCommand indicates an unrecognized dispatched operation
	ErrorTypeInvalidCommand ErrorType = "INVALID_COMMAND"
	// ErrorTypeInvalidFileHeader indicates a log line without a known tag,
	// or a failed read lookup reported through Dispatch
	ErrorTypeInvalidFileHeader ErrorType = "INVALID_FILE_HEADER"
	// ErrorTypeInvalidInput indicates input rejected at a front-end boundary
	ErrorTypeInvalidInput ErrorType = "INVALID_INPUT"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// KVError represents a custom error with additional context
type KVError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   string
}

// Error implements the error interface
func (e *KVError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *KVError) Unwrap() error {
	return e.Err
}

// New creates a new KVError
func New(errType ErrorType, message string, err error) *KVError {
	// Capture the caller
	_, file, line, _ := runtime.Caller(1)
	stack := fmt.Sprintf("%s:%d", file, line)

	return &KVError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// TypeOf returns the type of the outermost KVError in err's chain, or "" if
// there is none.
func TypeOf(err error) ErrorType {
	var kvErr *KVError
	if errors.As(err, &kvErr) {
		return kvErr.Type
	}
	return ""
}

// IsIO checks if the error is an I/O error
func IsIO(err error) bool {
	return TypeOf(err) == ErrorTypeIO
}

// IsSerialization checks if the error is a serialization error
func IsSerialization(err error) bool {
	return TypeOf(err) == ErrorTypeSerialization
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsInvalidCommand checks if the error is an invalid command error
func IsInvalidCommand(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidCommand
}

// IsInvalidFileHeader checks if the error is an invalid file header error
func IsInvalidFileHeader(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidFileHeader
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidInput
}

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool {
	return TypeOf(err) == ErrorTypeInternal
}

// RecoverError recovers from a panic and converts it to a KVError
func RecoverError(r interface{}) error {
	if r == nil {
		return nil
	}

	var err error
	switch v := r.(type) {
	case error:
		err = v
	case string:
		err = fmt.Errorf("%s", v)
	default:
		err = fmt.Errorf("%v", v)
	}

	return New(ErrorTypeInternal, "recovered from panic", err)
}
