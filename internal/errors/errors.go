package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RootNotFound indicates the analysis root does not exist
	RootNotFound ErrorCode = "ROOT_NOT_FOUND"
	// RootNotDirectory indicates the analysis root is a file or special entry
	RootNotDirectory ErrorCode = "ROOT_NOT_DIRECTORY"
	// ConfigInvalid indicates a configuration value failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// PatternInvalid indicates a language pattern failed to compile
	PatternInvalid ErrorCode = "PATTERN_INVALID"
	// DirUnreadable indicates a directory could not be listed during traversal
	DirUnreadable ErrorCode = "DIR_UNREADABLE"
	// FileUnreadable indicates a file could not be read
	FileUnreadable ErrorCode = "FILE_UNREADABLE"
	// FileUndecodable indicates file content is not valid UTF-8 text
	FileUndecodable ErrorCode = "FILE_UNDECODABLE"
	// IndexFrozen indicates a merge was attempted after the graph barrier
	IndexFrozen ErrorCode = "INDEX_FROZEN"
	// RunNotFound indicates a snapshot id unknown to the store
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// StoreLocked indicates another process is writing to the snapshot store
	StoreLocked ErrorCode = "STORE_LOCKED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// fatal codes abort the run before any report is produced.
var fatal = map[ErrorCode]bool{
	RootNotFound:     true,
	RootNotDirectory: true,
	ConfigInvalid:    true,
	PatternInvalid:   true,
	IndexFrozen:      true,
	InternalError:    true,
}

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// OverdocError carries a stable code, the offending path (if any) and the cause.
type OverdocError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Path           string      `json:"path,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an OverdocError with the suggested fixes registered for code.
func New(code ErrorCode, message string, cause error) *OverdocError {
	return &OverdocError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
		cause:          cause,
	}
}

// Error implements the error interface
func (e *OverdocError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *OverdocError) Unwrap() error {
	return e.cause
}

// Is matches any OverdocError carrying the same code.
func (e *OverdocError) Is(target error) bool {
	var t *OverdocError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithPath records the path the error applies to.
func (e *OverdocError) WithPath(path string) *OverdocError {
	e.Path = path
	return e
}

// Code extracts the error code from err, or "" when err carries none.
func Code(err error) ErrorCode {
	var oe *OverdocError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsFatal reports whether err must abort the run.
// Errors without a code are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	code := Code(err)
	if code == "" {
		return true
	}
	return fatal[code]
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigInvalid: {
		{Command: "overdoc init --force", Description: "Regenerate the default configuration"},
	},
	PatternInvalid: {
		{Command: "overdoc languages", Description: "List configured languages and their patterns"},
	},
	RunNotFound: {
		{Command: "overdoc history", Description: "List stored analysis runs"},
	},
	StoreLocked: {
		{Description: "Wait for the other overdoc process to finish saving, then retry"},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
