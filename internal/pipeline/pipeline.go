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

// Package pipeline reads pipeline files: the conditions a pipeline declares
// together with the run state (arguments, stage statistics, metadata) they
// are evaluated against.
package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/conditional/pkg/condition"
)

// File is a parsed pipeline file.
type File struct {
	// Name is the pipeline name, exposed as global['pipeline'].
	Name string `yaml:"name"`

	// Namespace is exposed as global['namespace'].
	Namespace string `yaml:"namespace"`

	// LogicalStartTime is the run's logical start in epoch milliseconds.
	LogicalStartTime int64 `yaml:"logical_start_time"`

	// Arguments are the runtime arguments of the run.
	Arguments map[string]any `yaml:"arguments"`

	// Statistics holds record counts per stage.
	Statistics map[string]condition.StageStatistics `yaml:"statistics"`

	// Conditions are the conditional stages of the pipeline.
	Conditions []Condition `yaml:"conditions"`

	// Path is the file the pipeline was read from.
	Path string `yaml:"-"`
}

// Condition is one conditional stage.
type Condition struct {
	// Stage is the stage name, exposed as global['plugin'].
	Stage string `yaml:"stage"`

	// Expression is the boolean condition.
	Expression string `yaml:"expression"`
}

// Config returns the stage configuration for validation.
func (c Condition) Config() condition.Config {
	return condition.Config{Expression: c.Expression}
}

// Load reads and parses a pipeline file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse parses pipeline YAML. Unknown fields are rejected so typos in
// condition keys do not silently drop a condition.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool)
	for i, c := range f.Conditions {
		if c.Stage == "" {
			return nil, fmt.Errorf("conditions[%d]: stage is required", i)
		}
		if seen[c.Stage] {
			return nil, fmt.Errorf("conditions[%d]: duplicate stage %q", i, c.Stage)
		}
		seen[c.Stage] = true
	}
	return &f, nil
}

// Condition returns the condition declared for stage.
func (f *File) Condition(stage string) (Condition, bool) {
	for _, c := range f.Conditions {
		if c.Stage == stage {
			return c, true
		}
	}
	return Condition{}, false
}

// Context builds the evaluation context for the given stage.
func (f *File) Context(stage string) *condition.StaticContext {
	args := make(map[string]any, len(f.Arguments))
	for k, v := range f.Arguments {
		args[k] = v
	}
	stats := make(map[string]condition.StageStatistics, len(f.Statistics))
	for k, v := range f.Statistics {
		stats[k] = v
	}
	return &condition.StaticContext{
		Arguments:  args,
		Statistics: stats,
		Metadata: condition.Metadata{
			Pipeline:         f.Name,
			Namespace:        f.Namespace,
			LogicalStartTime: f.LogicalStartTime,
			Stage:            stage,
		},
	}
}

// ParseArgument parses a key=value flag. The value is decoded as a YAML
// scalar, so 3 becomes an int, true a bool and abc a string. Quote a value
// ('3') to keep it a string.
func ParseArgument(kv string) (string, any, error) {
	key, raw, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid argument %q: expected key=value", kv)
	}

	if strings.TrimSpace(raw) == "" {
		return key, "", nil
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, fmt.Errorf("invalid argument %q: %w", kv, err)
	}
	switch value.(type) {
	case map[string]any, []any:
		// Only scalars are meaningful as arguments; keep structured text verbatim
		return key, raw, nil
	}
	return key, value, nil
}
