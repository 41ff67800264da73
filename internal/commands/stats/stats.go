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

package stats

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/conditional/internal/commands/shared"
	"github.com/tombee/conditional/internal/stats"
	"github.com/tombee/conditional/pkg/condition"
)

// NewCommand creates the stats command group
func NewCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Manage recorded stage statistics",
		Annotations: map[string]string{
			"group": "statistics",
		},
		Long: `Stats manages the SQLite store of per-run stage statistics. Statistics
recorded for a run are exposed to conditions as token['<stage>']['input'],
token['<stage>']['output'] and token['<stage>']['error'] when evaluating with
'conditional eval --run-id'.`,
	}

	cmd.PersistentFlags().StringVar(&dbPath, "stats-db", "", "Statistics database (default: configured statistics.path)")

	cmd.AddCommand(newRecordCommand(&dbPath))
	cmd.AddCommand(newShowCommand(&dbPath))
	cmd.AddCommand(newListCommand(&dbPath))
	cmd.AddCommand(newDeleteCommand(&dbPath))

	return cmd
}

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, dbPath string, fn func(*stats.Store) error) error {
	rt, err := shared.NewRuntime(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(cmd.Context())

	store, err := rt.OpenStatistics(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func newRecordCommand(dbPath *string) *cobra.Command {
	var (
		counts condition.StageStatistics
		add    bool
	)

	cmd := &cobra.Command{
		Use:   "record <run-id> <stage>",
		Short: "Record the record counts of a stage",
		Example: `  conditional stats record run-42 DQ1 --input 100 --output 95 --error 5

  # Accumulate counts from a streaming stage
  conditional stats record run-42 DQ1 --input 10 --add`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, stage := args[0], args[1]
			if counts.Input < 0 || counts.Output < 0 || counts.Error < 0 {
				return shared.NewInvalidInputError("record counts must not be negative", nil)
			}
			return withStore(cmd, *dbPath, func(store *stats.Store) error {
				var err error
				if add {
					err = store.Add(cmd.Context(), runID, stage, counts)
				} else {
					err = store.Record(cmd.Context(), runID, stage, counts)
				}
				if err != nil {
					return shared.NewInvalidInputError("", err)
				}
				if !shared.GetQuiet() && !shared.GetJSON() {
					fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("recorded %s/%s", runID, stage)))
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&counts.Input, "input", 0, "Records read by the stage")
	cmd.Flags().Int64Var(&counts.Output, "output", 0, "Records written by the stage")
	cmd.Flags().Int64Var(&counts.Error, "error", 0, "Records the stage rejected")
	cmd.Flags().BoolVar(&add, "add", false, "Add to the stored counts instead of replacing them")

	return cmd
}

type stageRow struct {
	Stage     string    `json:"stage"`
	Input     int64     `json:"input"`
	Output    int64     `json:"output"`
	Error     int64     `json:"error"`
	UpdatedAt time.Time `json:"updated_at"`
}

type showResponse struct {
	shared.JSONResponse
	RunID  string     `json:"run_id"`
	Stages []stageRow `json:"stages"`
}

func newShowCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show the statistics recorded for a run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := args[0]
			return withStore(cmd, *dbPath, func(store *stats.Store) error {
				records, err := store.Stages(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return shared.NewInvalidInputError(fmt.Sprintf("no statistics recorded for run %q", runID), nil)
				}

				rows := make([]stageRow, 0, len(records))
				for _, r := range records {
					rows = append(rows, stageRow{
						Stage:     r.Stage,
						Input:     r.Stats.Input,
						Output:    r.Stats.Output,
						Error:     r.Stats.Error,
						UpdatedAt: r.UpdatedAt,
					})
				}

				if shared.GetJSON() {
					return shared.EmitJSON(cmd.OutOrStdout(), showResponse{
						JSONResponse: shared.NewJSONResponse("stats show", true),
						RunID:        runID,
						Stages:       rows,
					})
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STAGE\tINPUT\tOUTPUT\tERROR\tUPDATED")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", r.Stage, r.Input, r.Output, r.Error, r.UpdatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

type listResponse struct {
	shared.JSONResponse
	Runs []stats.RunSummary `json:"runs"`
}

func newListCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List runs with recorded statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dbPath, func(store *stats.Store) error {
				runs, err := store.Runs(cmd.Context())
				if err != nil {
					return err
				}

				if shared.GetJSON() {
					if runs == nil {
						runs = []stats.RunSummary{}
					}
					return shared.EmitJSON(cmd.OutOrStdout(), listResponse{
						JSONResponse: shared.NewJSONResponse("stats list", true),
						Runs:         runs,
					})
				}

				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), shared.Muted.Render("no runs recorded"))
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "RUN\tSTAGES\tUPDATED")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%d\t%s\n", r.RunID, r.Stages, r.UpdatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

func newDeleteCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <run-id>",
		Short:         "Delete the statistics recorded for a run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *dbPath, func(store *stats.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return shared.NewInvalidInputError("", err)
				}
				if !shared.GetQuiet() && !shared.GetJSON() {
					fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK("deleted "+args[0]))
				}
				return nil
			})
		},
	}
}
