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

package errors

import (
	"fmt"
	"strings"
)

// CompileError represents an expression that could not be compiled.
// Use this for syntax errors, unknown functions and malformed index expressions.
type CompileError struct {
	// Property is the configuration property that holds the expression
	Property string

	// Expression is the source text that failed to compile
	Expression string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying parser or checker error
	Cause error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("compile failed on %s: %s", e.Property, e.Message)
	}
	return fmt.Sprintf("compile failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// Suggestion implements Suggester.
func (e *CompileError) Suggestion() string {
	return "check expression syntax; functions must be registered (e.g. toDouble, math:max) and indices must be quoted strings"
}

// ErrorType implements Classifier.
func (e *CompileError) ErrorType() string { return TypeCompile }

// UnresolvedNamespaceError is returned when a variable reference is rooted at
// a name other than one of the recognized namespaces.
type UnresolvedNamespaceError struct {
	// Namespace is the root segment that was not recognized
	Namespace string

	// Valid lists the namespaces that are recognized
	Valid []string
}

// Error implements the error interface.
func (e *UnresolvedNamespaceError) Error() string {
	quoted := make([]string, len(e.Valid))
	for i, v := range e.Valid {
		quoted[i] = "'" + v + "'"
	}
	return fmt.Sprintf("invalid map variable '%s' specified; valid map variables are %s",
		e.Namespace, strings.Join(quoted, ", "))
}

// Suggestion implements Suggester.
func (e *UnresolvedNamespaceError) Suggestion() string {
	return fmt.Sprintf("reference values through one of: %s", strings.Join(e.Valid, ", "))
}

// ErrorType implements Classifier.
func (e *UnresolvedNamespaceError) ErrorType() string { return TypeUnresolvedNamespace }

// MissingRuntimeArgumentError is returned when an expression references a
// runtime argument that the run does not define. Missing arguments are never
// defaulted.
type MissingRuntimeArgumentError struct {
	// Name is the runtime argument that does not exist
	Name string
}

// Error implements the error interface.
func (e *MissingRuntimeArgumentError) Error() string {
	return fmt.Sprintf("condition includes a runtime argument '%s' that does not exist", e.Name)
}

// Suggestion implements Suggester.
func (e *MissingRuntimeArgumentError) Suggestion() string {
	return fmt.Sprintf("set the runtime argument '%s' for this run", e.Name)
}

// ErrorType implements Classifier.
func (e *MissingRuntimeArgumentError) ErrorType() string { return TypeMissingRuntimeArgument }

// ReferenceError is returned when a variable reference is rooted at a valid
// namespace but lacks the segment the namespace requires (e.g. a bare `runtime`).
type ReferenceError struct {
	// Path is the reference in bracket form, e.g. token["A"]
	Path string

	// Reason explains what is missing
	Reason string
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %s: %s", e.Path, e.Reason)
}

// Suggestion implements Suggester.
func (e *ReferenceError) Suggestion() string {
	return "index the namespace with a quoted name, e.g. runtime['name'] or token['stage']['error']"
}

// ErrorType implements Classifier.
func (e *ReferenceError) ErrorType() string { return TypeReference }

// EvaluationError represents a failure while running a compiled expression:
// a run-time type mismatch or a result that is not a boolean.
type EvaluationError struct {
	// Expression is the source text being evaluated
	Expression string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// Suggestion implements Suggester.
func (e *EvaluationError) Suggestion() string {
	return "conditions must produce a boolean; convert values explicitly with toDouble, toLong or toString before comparing"
}

// ErrorType implements Classifier.
func (e *EvaluationError) ErrorType() string { return TypeEvaluation }

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "run", "pipeline file")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "log.level", "tracing.exporter")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
