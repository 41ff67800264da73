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
	"github.com/tombee/conditional/pkg/condition/expression"
	"github.com/tombee/conditional/pkg/errors"
)

// Bindings holds the concrete values bound to each namespace for one
// evaluation. Only values the expression references are populated.
type Bindings struct {
	// Runtime maps argument name to argument value
	Runtime map[string]any

	// Token maps stage name to its input/output/error counts
	Token map[string]map[string]any

	// Global holds pipeline-wide metadata
	Global map[string]any
}

// Env returns the bindings as the environment an expression runs against.
func (b *Bindings) Env() map[string]any {
	token := make(map[string]any, len(b.Token))
	for stage, counts := range b.Token {
		token[stage] = counts
	}
	return map[string]any{
		NamespaceRuntime: b.Runtime,
		NamespaceToken:   token,
		NamespaceGlobal:  b.Global,
	}
}

// Resolve binds every reference to a value from ctx.
//
// Resolution rules per namespace:
//
//   - runtime['name']: the argument value; a missing argument is an error,
//     as is indexing further into it
//   - token['stage']: the stage's input, output and error counts, all zero
//     when the stage reported no statistics
//   - global: pipeline, namespace, logical_start_time and plugin, whatever
//     key was referenced
//
// Any other namespace is rejected with *errors.UnresolvedNamespaceError.
func Resolve(refs []expression.Reference, ctx Context) (*Bindings, error) {
	b := &Bindings{
		Runtime: make(map[string]any),
		Token:   make(map[string]map[string]any),
		Global:  make(map[string]any),
	}

	for _, ref := range refs {
		switch ref.Namespace() {
		case NamespaceRuntime:
			if len(ref) < 2 {
				return nil, &errors.ReferenceError{Path: ref.String(), Reason: "runtime requires an argument name"}
			}
			if len(ref) > 2 {
				return nil, &errors.ReferenceError{Path: ref.String(), Reason: "runtime takes exactly one argument name"}
			}
			name := ref[1]
			if !ctx.ArgumentExists(name) {
				return nil, &errors.MissingRuntimeArgumentError{Name: name}
			}
			b.Runtime[name] = ctx.Argument(name)

		case NamespaceToken:
			if len(ref) < 2 {
				return nil, &errors.ReferenceError{Path: ref.String(), Reason: "token requires a stage name"}
			}
			stage := ref[1]
			stats, _ := ctx.StatisticsFor(stage)
			b.Token[stage] = map[string]any{
				TokenInput:  stats.Input,
				TokenOutput: stats.Output,
				TokenError:  stats.Error,
			}

		case NamespaceGlobal:
			meta := ctx.PipelineMetadata()
			b.Global[GlobalPipeline] = meta.Pipeline
			b.Global[GlobalNamespace] = meta.Namespace
			b.Global[GlobalLogicalStartTime] = meta.LogicalStartTime
			b.Global[GlobalPlugin] = meta.Stage

		default:
			return nil, &errors.UnresolvedNamespaceError{
				Namespace: ref.Namespace(),
				Valid:     append([]string(nil), Namespaces...),
			}
		}
	}

	return b, nil
}
