// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	pkgerrors "github.com/tombee/conditional/pkg/errors"
)

// Exit codes shared by every command
const (
	ExitSuccess          = 0
	ExitConditionFalse   = 1 // Condition evaluated to false, or validation failed
	ExitInvalidInput     = 2 // Unreadable or malformed pipeline file, bad flags, compile errors
	ExitMissingArgument  = 3 // Condition references a runtime argument that is not set
	ExitEvaluationFailed = 4 // Resolution or evaluation failure
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewConditionFalse returns the silent exit used when a condition is false.
func NewConditionFalse() *ExitError {
	return &ExitError{Code: ExitConditionFalse}
}

// NewValidationFailedError creates an error for conditions that failed validation
func NewValidationFailedError(msg string) *ExitError {
	return &ExitError{
		Code:    ExitConditionFalse,
		Message: msg,
	}
}

// NewInvalidInputError creates an error for unreadable or malformed input
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidInput,
		Message: msg,
		Cause:   cause,
	}
}

// NewEvaluationError maps a condition evaluation failure to its exit code.
func NewEvaluationError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitCodeFor(cause),
		Message: msg,
		Cause:   cause,
	}
}

// ExitCodeFor returns the exit code for an evaluation error.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch pkgerrors.Classify(err) {
	case pkgerrors.TypeMissingRuntimeArgument:
		return ExitMissingArgument
	case pkgerrors.TypeCompile:
		return ExitInvalidInput
	default:
		return ExitEvaluationFailed
	}
}

// HandleExitError checks if an error is an ExitError and exits with the appropriate code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(ReportError(os.Stderr, err))
}

// ReportError prints err and its suggestion to w and returns the exit code.
func ReportError(w io.Writer, err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		// Empty messages are used when output was already written (JSON mode, false result)
		if msg := exitErr.Error(); len(msg) > 0 {
			fmt.Fprintln(w, "Error:", msg)
			printSuggestion(w, err)
		}
		return exitErr.Code
	}

	fmt.Fprintln(w, "Error:", err.Error())
	printSuggestion(w, err)
	return ExitCodeFor(err)
}

// printSuggestion prints the remedy carried by the first condition error in
// the chain, if any.
func printSuggestion(w io.Writer, err error) {
	if suggestion := pkgerrors.SuggestionFor(err); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
}
