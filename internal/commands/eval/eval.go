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

package eval

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/conditional/internal/commands/shared"
	"github.com/tombee/conditional/internal/log"
	"github.com/tombee/conditional/internal/pipeline"
	"github.com/tombee/conditional/internal/tracing"
	"github.com/tombee/conditional/pkg/condition"
	"github.com/tombee/conditional/pkg/errors"
)

type options struct {
	expression string
	stage      string
	args       []string
	statsDB    string
	runID      string
}

// NewCommand creates the eval command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "eval [pipeline]",
		Short: "Evaluate a condition",
		Annotations: map[string]string{
			"group": "evaluation",
		},
		Long: `Eval evaluates one condition and prints true or false.

The condition comes from --expression or from the stage of a pipeline file
selected with --stage. A pipeline file also supplies runtime arguments, stage
statistics and metadata; --arg values and statistics loaded from the store
with --run-id take precedence over the file.

Exit codes:
  0  condition is true
  1  condition is false
  2  invalid input (unreadable file, bad flag, expression does not compile)
  3  the condition references a runtime argument that is not set
  4  evaluation failed`,
		Example: `  # Evaluate an expression against command-line arguments
  conditional eval -e "runtime['retries'] < 3" --arg retries=1

  # Evaluate the condition of a pipeline stage
  conditional eval pipeline.yaml --stage error-gate

  # Use statistics recorded for a run
  conditional eval pipeline.yaml --stage error-gate --run-id 2025-06-01T00`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.expression, "expression", "e", "", "Condition to evaluate (overrides the stage's condition)")
	cmd.Flags().StringVarP(&opts.stage, "stage", "s", "", "Stage whose condition and name are used")
	cmd.Flags().StringArrayVarP(&opts.args, "arg", "a", nil, "Runtime argument as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.statsDB, "stats-db", "", "Statistics database (default: configured statistics.path)")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Load stage statistics recorded for this run")

	return cmd
}

// evalResponse is the JSON output of eval
type evalResponse struct {
	shared.JSONResponse
	Stage      string            `json:"stage,omitempty"`
	Expression string            `json:"expression"`
	Result     bool              `json:"result"`
	DurationMS int64             `json:"duration_ms"`
	Error      *shared.JSONError `json:"error,omitempty"`
}

func runEval(cmd *cobra.Command, args []string, opts options) error {
	ctx := tracing.ExtractEnv(cmd.Context())

	rt, err := shared.NewRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	expression, env, err := buildInput(args, opts)
	if err != nil {
		return err
	}

	if opts.runID != "" {
		if err := loadStatistics(cmd, rt, opts, env); err != nil {
			return err
		}
	} else if opts.statsDB != "" {
		return shared.NewInvalidInputError("--stats-db requires --run-id", nil)
	}

	start := time.Now()
	result, evalErr := rt.Conditional.Evaluate(ctx, expression, env)
	elapsed := time.Since(start)

	if shared.GetJSON() {
		resp := evalResponse{
			JSONResponse: shared.NewJSONResponse("eval", evalErr == nil),
			Stage:        env.Metadata.Stage,
			Expression:   expression,
			Result:       result,
			DurationMS:   elapsed.Milliseconds(),
		}
		if evalErr != nil {
			resp.Error = jsonError(evalErr)
		}
		if err := shared.EmitJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		return exitFor(result, evalErr, true)
	}

	if evalErr != nil {
		return exitFor(result, evalErr, false)
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderResult(result))
	}
	return exitFor(result, nil, false)
}

// buildInput selects the expression and assembles the evaluation context
// from the pipeline file (if any) and --arg flags.
func buildInput(args []string, opts options) (string, *condition.StaticContext, error) {
	expression := opts.expression
	var env *condition.StaticContext

	if len(args) == 1 {
		file, err := pipeline.Load(args[0])
		if err != nil {
			return "", nil, shared.NewInvalidInputError("", err)
		}

		stage := opts.stage
		if stage == "" && expression == "" {
			if len(file.Conditions) != 1 {
				return "", nil, shared.NewInvalidInputError(
					fmt.Sprintf("%s declares %d conditions; choose one with --stage", args[0], len(file.Conditions)), nil)
			}
			stage = file.Conditions[0].Stage
		}
		if expression == "" {
			c, ok := file.Condition(stage)
			if !ok {
				return "", nil, shared.NewInvalidInputError(
					fmt.Sprintf("stage %q not found in %s", stage, args[0]), nil)
			}
			expression = c.Expression
		}
		env = file.Context(stage)
	} else {
		if expression == "" {
			return "", nil, shared.NewInvalidInputError("--expression is required without a pipeline file", nil)
		}
		env = &condition.StaticContext{
			Arguments:  map[string]any{},
			Statistics: map[string]condition.StageStatistics{},
			Metadata:   condition.Metadata{Stage: opts.stage},
		}
	}

	for _, kv := range opts.args {
		name, value, err := pipeline.ParseArgument(kv)
		if err != nil {
			return "", nil, shared.NewInvalidInputError("", err)
		}
		env.Arguments[name] = value
	}

	return expression, env, nil
}

func loadStatistics(cmd *cobra.Command, rt *shared.Runtime, opts options, env *condition.StaticContext) error {
	store, err := rt.OpenStatistics(opts.statsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := store.Snapshot(cmd.Context(), opts.runID)
	if err != nil {
		return shared.NewInvalidInputError("failed to load statistics", err)
	}
	for stage, s := range snapshot {
		env.Statistics[stage] = s
	}

	log.WithRunContext(rt.Logger, opts.runID, env.Metadata.Pipeline).
		Debug("statistics loaded", "stages", len(snapshot))
	return nil
}

func jsonError(err error) *shared.JSONError {
	errorType := errors.Classify(err)
	return &shared.JSONError{
		Code:       shared.ErrorCodeFor(errorType),
		Message:    err.Error(),
		Suggestion: errors.SuggestionFor(err),
	}
}

// exitFor maps the outcome to the command's exit status. In JSON mode the
// error is already part of the output, so the exit carries no message.
func exitFor(result bool, err error, quiet bool) error {
	if err != nil {
		if quiet {
			return &shared.ExitError{Code: shared.ExitCodeFor(err)}
		}
		return shared.NewEvaluationError("", err)
	}
	if !result {
		return shared.NewConditionFalse()
	}
	return nil
}
