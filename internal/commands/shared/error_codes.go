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

// Error codes for structured JSON output
const (
	// Validation errors (E001-E099)
	ErrorCodeMissingField    = "E001" // Missing required field
	ErrorCodeInvalidYAML     = "E002" // Invalid YAML syntax
	ErrorCodeCompileFailed   = "E003" // Expression does not compile
	ErrorCodeInvalidArgument = "E004" // Malformed --arg value

	// Evaluation errors (E100-E199)
	ErrorCodeMissingArgument     = "E101" // Runtime argument does not exist
	ErrorCodeUnresolvedNamespace = "E102" // Unknown namespace in a reference
	ErrorCodeInvalidReference    = "E103" // Reference too short to resolve
	ErrorCodeEvaluationFailed    = "E104" // Runtime failure or non-boolean result

	// Configuration errors (E200-E299)
	ErrorCodeInvalidConfig = "E202" // Invalid configuration

	// Input errors (E300-E399)
	ErrorCodeFileNotFound = "E303" // File not found

	// Resource errors (E400-E499)
	ErrorCodeNotFound = "E401" // Resource not found
	ErrorCodeInternal = "E402" // Internal error
)

// ErrorCodeFor maps an error type (see errors.Classify) to a JSON error code.
func ErrorCodeFor(errorType string) string {
	switch errorType {
	case "compile":
		return ErrorCodeCompileFailed
	case "missing_runtime_argument":
		return ErrorCodeMissingArgument
	case "unresolved_namespace":
		return ErrorCodeUnresolvedNamespace
	case "reference":
		return ErrorCodeInvalidReference
	case "evaluation":
		return ErrorCodeEvaluationFailed
	default:
		return ErrorCodeInternal
	}
}
