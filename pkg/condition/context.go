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

// Namespace names that expressions may index into.
const (
	NamespaceRuntime = "runtime"
	NamespaceToken   = "token"
	NamespaceGlobal  = "global"
)

// Namespaces lists the valid namespaces in the order they are reported to users.
var Namespaces = []string{NamespaceRuntime, NamespaceToken, NamespaceGlobal}

// Keys of the global namespace.
const (
	GlobalPipeline         = "pipeline"
	GlobalNamespace        = "namespace"
	GlobalLogicalStartTime = "logical_start_time"
	GlobalPlugin           = "plugin"
)

// Keys of a stage entry in the token namespace.
const (
	TokenInput  = "input"
	TokenOutput = "output"
	TokenError  = "error"
)

// StageStatistics holds the record counts a stage reported during the run.
type StageStatistics struct {
	// Input is the number of records the stage received
	Input int64 `json:"input" yaml:"input"`

	// Output is the number of records the stage emitted
	Output int64 `json:"output" yaml:"output"`

	// Error is the number of records the stage rejected
	Error int64 `json:"error" yaml:"error"`
}

// Metadata describes the pipeline run evaluating the condition.
type Metadata struct {
	// Pipeline is the pipeline name
	Pipeline string `json:"pipeline"`

	// Namespace is the namespace the pipeline runs in
	Namespace string `json:"namespace"`

	// LogicalStartTime is the run's logical start time in epoch milliseconds
	LogicalStartTime int64 `json:"logical_start_time"`

	// Stage is the name of the stage that holds the condition
	Stage string `json:"stage"`
}

// Context supplies the values a condition may reference. Hosts implement it
// over whatever holds their run state.
type Context interface {
	// ArgumentExists reports whether a runtime argument is defined.
	ArgumentExists(name string) bool

	// Argument returns the value of a runtime argument.
	Argument(name string) any

	// StatisticsFor returns the statistics of a stage, if it reported any.
	StatisticsFor(stage string) (StageStatistics, bool)

	// PipelineMetadata describes the current run.
	PipelineMetadata() Metadata
}

// StaticContext is an in-memory Context.
type StaticContext struct {
	Arguments  map[string]any
	Statistics map[string]StageStatistics
	Metadata   Metadata
}

// ArgumentExists implements Context.
func (c *StaticContext) ArgumentExists(name string) bool {
	_, ok := c.Arguments[name]
	return ok
}

// Argument implements Context.
func (c *StaticContext) Argument(name string) any {
	return c.Arguments[name]
}

// StatisticsFor implements Context.
func (c *StaticContext) StatisticsFor(stage string) (StageStatistics, bool) {
	s, ok := c.Statistics[stage]
	return s, ok
}

// PipelineMetadata implements Context.
func (c *StaticContext) PipelineMetadata() Metadata {
	return c.Metadata
}
