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

// Package condition decides whether a downstream path of a pipeline runs.
//
// A condition is a boolean expression over three namespaces:
//
//   - runtime: arguments supplied for the run, e.g. runtime['max_error']
//   - token: record counts of earlier stages, e.g. token['DQ1']['error']
//   - global: run metadata under the keys pipeline, namespace,
//     logical_start_time and plugin
//
// Conditional is the host-facing entry point. Validate checks a stage
// configuration before a run; Evaluate runs the condition against a Context
// the host implements over its run state:
//
//	c := condition.New(condition.WithLogger(logger))
//	ok, err := c.Evaluate(ctx, "token['DQ1']['error'] > runtime['max_error']", &condition.StaticContext{
//	    Arguments:  map[string]any{"max_error": 3},
//	    Statistics: map[string]condition.StageStatistics{"DQ1": {Input: 100, Output: 95, Error: 5}},
//	})
//
// Stages that reported no statistics read as zero records. Runtime
// arguments are never defaulted: referencing a missing one fails with
// *errors.MissingRuntimeArgumentError.
package condition
