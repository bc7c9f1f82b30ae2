// Package errors provides standardized error handling for csvsync.
// It defines the error kinds raised at each fallible boundary of a sync run
// and helpers for telling fatal manifest errors from per-row problems.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// Manifest error kinds
	InvalidInput
	IOError
	ParseError
	SchemaError
	// File error kinds
	FileNotFound
	NotRegularFile
	FileOperationFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
)

var kindNames = map[ErrorKind]string{
	Unknown:             "unknown",
	InvalidInput:        "invalid_input",
	IOError:             "io",
	ParseError:          "parse",
	SchemaError:         "schema",
	FileNotFound:        "file_not_found",
	NotRegularFile:      "not_regular_file",
	FileOperationFailed: "file_operation_failed",
	InvalidConfig:       "invalid_config",
	ConfigNotFound:      "config_not_found",
}

// String returns the short name of the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// ManifestError is raised while loading a manifest. Every ManifestError aborts the run.
type ManifestError struct {
	ApplicationError
	path string
	line int
}

// NewManifestError creates a manifest error. line is 0 when the error is not tied to a row.
func NewManifestError(msg, path string, line int, kind ErrorKind, err error) *ManifestError {
	return &ManifestError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
		line: line,
	}
}

// Error returns the manifest error message
func (e *ManifestError) Error() string {
	where := e.path
	if e.line > 0 {
		where = fmt.Sprintf("%s:%d", e.path, e.line)
	}
	if where == "" {
		return e.ApplicationError.Error()
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.msg, where, e.err)
	}
	return fmt.Sprintf("%s: %s", e.msg, where)
}

// Path returns the manifest path
func (e *ManifestError) Path() string {
	return e.path
}

// Line returns the manifest line, or 0
func (e *ManifestError) Line() int {
	return e.line
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s - %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the kind of the first application error in err's chain.
func KindOf(err error) ErrorKind {
	var me *ManifestError
	if errors.As(err, &me) {
		return me.Kind()
	}
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind()
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Kind()
	}
	var ae *ApplicationError
	if errors.As(err, &ae) {
		return ae.Kind()
	}
	return Unknown
}

// IsFatal reports whether err must terminate the run.
func IsFatal(err error) bool {
	var me *ManifestError
	return errors.As(err, &me)
}

// IsSchemaError checks if the error is a manifest schema violation
func IsSchemaError(err error) bool {
	return KindOf(err) == SchemaError
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return KindOf(err) == InvalidInput
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}
