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

package condition

import (
	"fmt"
	"regexp"
	"strings"
)

// PropertyExpression is the configuration property holding the condition.
const PropertyExpression = "expression"

// macroPattern matches a ${...} macro the host substitutes before a run.
var macroPattern = regexp.MustCompile(`\$\{[^}]*\}`)

// Config is the configuration of a conditional stage.
type Config struct {
	// Expression is the boolean condition, e.g.
	// ((token['Data Quality']['error'] / token['File']['output']) * 100) > runtime['error_percentage']
	Expression string `yaml:"expression" json:"expression"`
}

// ContainsMacro reports whether the expression still holds an unsubstituted
// ${...} macro. Such expressions cannot be checked until run time.
func (c Config) ContainsMacro() bool {
	return macroPattern.MatchString(c.Expression)
}

// IsEmpty reports whether no expression is configured.
func (c Config) IsEmpty() bool {
	return strings.TrimSpace(c.Expression) == ""
}

// Failure is one configuration problem found by Validate.
type Failure struct {
	// Message describes the problem
	Message string `json:"message"`

	// Property is the configuration property at fault
	Property string `json:"property"`

	// Suggestion is a hint for fixing the problem (optional)
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface so a Failure can be returned directly.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Property, f.Message)
}
