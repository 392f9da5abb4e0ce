package main

import "fmt"

// Exit codes for the sessiontag CLI.
const (
	ExitOK             = 0 // All files classified.
	ExitInvalidArgs    = 1 // Invalid arguments or bad path.
	ExitPartialFailure = 2 // Some files failed, outputs written for the rest.
	ExitTotalFailure   = 3 // No output produced.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitPartialFailure:
			msg = "sessiontag: some files failed"
		case ExitTotalFailure:
			msg = "sessiontag: all files failed"
		default:
			msg = "sessiontag: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
