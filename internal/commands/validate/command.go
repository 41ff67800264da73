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

package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/tombee/conditional/internal/commands/shared"
	"github.com/tombee/conditional/internal/pipeline"
)

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <pipeline|glob>...",
		Short: "Validate the conditions of pipeline files",
		Annotations: map[string]string{
			"group": "evaluation",
		},
		Long: `Validate compiles every condition declared in the given pipeline files
and reports the ones that are empty or do not compile. Conditions containing
unexpanded macros (${...}) are skipped.

Arguments may be doublestar glob patterns such as "pipelines/**/*.yaml".

Validation does not resolve variables, so an unknown namespace or a missing
runtime argument is only reported by 'conditional eval'.`,
		Example: `  # Validate one file
  conditional validate pipeline.yaml

  # Validate every pipeline below a directory
  conditional validate 'pipelines/**/*.yaml'

  # Machine-readable output
  conditional validate 'pipelines/**/*.yaml' --json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE:          runValidate,
	}

	return cmd
}

// fileResult is the outcome for one pipeline file
type fileResult struct {
	Path       string             `json:"path"`
	Conditions int                `json:"conditions"`
	Errors     []shared.JSONError `json:"errors,omitempty"`
}

type validateResponse struct {
	shared.JSONResponse
	Files []fileResult `json:"files"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	rt, err := shared.NewRuntime(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	paths, err := expandPatterns(args)
	if err != nil {
		return shared.NewInvalidInputError("", err)
	}

	var (
		results      []fileResult
		unreadable   bool
		invalidConds int
	)
	for _, path := range paths {
		res := fileResult{Path: path}

		file, err := pipeline.Load(path)
		if err != nil {
			unreadable = true
			code := shared.ErrorCodeInvalidYAML
			if errors.Is(err, fs.ErrNotExist) {
				code = shared.ErrorCodeFileNotFound
			}
			res.Errors = append(res.Errors, shared.JSONError{
				Code:    code,
				Message: err.Error(),
				File:    path,
			})
			results = append(results, res)
			continue
		}

		res.Conditions = len(file.Conditions)
		for _, c := range file.Conditions {
			for _, f := range rt.Conditional.Validate(c.Config()) {
				invalidConds++
				code := shared.ErrorCodeCompileFailed
				if f.Message == "expression is required" {
					code = shared.ErrorCodeMissingField
				}
				res.Errors = append(res.Errors, shared.JSONError{
					Code:       code,
					Message:    f.Message,
					File:       path,
					Stage:      c.Stage,
					Suggestion: f.Suggestion,
				})
			}
		}
		results = append(results, res)
	}

	ok := !unreadable && invalidConds == 0
	if shared.GetJSON() {
		if err := shared.EmitJSON(cmd.OutOrStdout(), validateResponse{
			JSONResponse: shared.NewJSONResponse("validate", ok),
			Files:        results,
		}); err != nil {
			return err
		}
	} else {
		printResults(cmd, results)
	}

	switch {
	case unreadable:
		if shared.GetJSON() {
			return &shared.ExitError{Code: shared.ExitInvalidInput}
		}
		return shared.NewInvalidInputError("one or more pipeline files could not be read", nil)
	case invalidConds > 0:
		if shared.GetJSON() {
			return &shared.ExitError{Code: shared.ExitConditionFalse}
		}
		return shared.NewValidationFailedError(fmt.Sprintf("%d condition(s) failed validation", invalidConds))
	}
	return nil
}

func printResults(cmd *cobra.Command, results []fileResult) {
	out := cmd.OutOrStdout()
	for _, res := range results {
		if len(res.Errors) == 0 {
			if !shared.GetQuiet() {
				fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s (%d conditions)", res.Path, res.Conditions)))
			}
			continue
		}
		fmt.Fprintln(out, shared.RenderError(res.Path))
		for _, e := range res.Errors {
			if e.Stage != "" {
				fmt.Fprintf(out, "  %s %s\n", shared.Bold.Render(e.Stage+":"), e.Message)
			} else {
				fmt.Fprintf(out, "  %s\n", e.Message)
			}
			if e.Suggestion != "" {
				fmt.Fprintf(out, "    %s %s\n", shared.RenderLabel("Suggestion:"), e.Suggestion)
			}
		}
	}
}

// expandPatterns resolves glob patterns to a sorted, de-duplicated file
// list. Plain paths are kept even when they do not exist so the read error
// is reported against them.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		if !hasMeta(pattern) {
			add(pattern)
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matched no files", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
