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

// Suggester is implemented by errors that can tell the author of a condition
// how to fix it. The CLI prints the suggestion under the error, and
// Conditional.Validate copies it into the Failure.
type Suggester interface {
	error
	Suggestion() string
}

// Classifier is implemented by errors that belong to a named category.
// The category is the error_type label on metrics and spans, the "type" of
// a JSON error, and the input to exit code selection.
type Classifier interface {
	error
	ErrorType() string
}

// Error categories reported by Classify.
const (
	TypeCompile                = "compile"
	TypeUnresolvedNamespace    = "unresolved_namespace"
	TypeMissingRuntimeArgument = "missing_runtime_argument"
	TypeReference              = "reference"
	TypeEvaluation             = "evaluation"

	// TypeNone is reported for a nil error, TypeUnknown for an error chain
	// without a Classifier.
	TypeNone    = "none"
	TypeUnknown = "unknown"
)

var (
	_ Classifier = (*CompileError)(nil)
	_ Classifier = (*UnresolvedNamespaceError)(nil)
	_ Classifier = (*MissingRuntimeArgumentError)(nil)
	_ Classifier = (*ReferenceError)(nil)
	_ Classifier = (*EvaluationError)(nil)

	_ Suggester = (*CompileError)(nil)
	_ Suggester = (*UnresolvedNamespaceError)(nil)
	_ Suggester = (*MissingRuntimeArgumentError)(nil)
	_ Suggester = (*ReferenceError)(nil)
	_ Suggester = (*EvaluationError)(nil)
)
