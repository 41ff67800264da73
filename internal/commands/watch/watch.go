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

package watch

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tombee/conditional/internal/commands/shared"
	"github.com/tombee/conditional/internal/log"
	"github.com/tombee/conditional/internal/metrics"
	"github.com/tombee/conditional/internal/pipeline"
	"github.com/tombee/conditional/internal/watch"
	"github.com/tombee/conditional/pkg/condition"
	"github.com/tombee/conditional/pkg/errors"
)

type options struct {
	stage       string
	metricsAddr string
	interval    time.Duration
}

// NewCommand creates the watch command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "watch <pipeline>",
		Short: "Re-evaluate a pipeline's conditions whenever the file changes",
		Annotations: map[string]string{
			"group": "evaluation",
		},
		Long: `Watch evaluates the conditions of a pipeline file, then evaluates them
again every time the file is saved. Saves arriving faster than --interval are
coalesced into one re-evaluation.

With --metrics-addr (or metrics.listen_addr in the config file) Prometheus
metrics are served at /metrics for the lifetime of the command.`,
		Example: `  conditional watch pipeline.yaml
  conditional watch pipeline.yaml --stage error-gate --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.stage, "stage", "s", "", "Only evaluate this stage")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&opts.interval, "interval", 500*time.Millisecond, "Minimum time between re-evaluations")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts options) error {
	rt, err := shared.NewRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	w, err := watch.New(path, watch.Options{
		MinInterval: opts.interval,
		Logger:      rt.Logger,
	})
	if err != nil {
		return shared.NewInvalidInputError("", err)
	}

	out := cmd.OutOrStdout()
	evaluate := func(ctx context.Context) error {
		return evaluateFile(ctx, out, rt.Conditional, path, opts.stage)
	}

	// An unreadable file at start is fatal; later failures are reported and
	// the watch continues.
	if err := evaluate(ctx); err != nil {
		return shared.NewInvalidInputError("", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	addr := opts.metricsAddr
	if addr == "" {
		addr = rt.Config.Metrics.ListenAddr
	}
	if addr != "" {
		srv, err := metrics.Listen(addr, rt.Logger)
		if err != nil {
			return shared.NewInvalidInputError("failed to start metrics server", err)
		}
		g.Go(func() error { return srv.Serve(ctx) })
	}

	g.Go(func() error {
		return w.Run(ctx, func(ctx context.Context) error {
			start := time.Now()
			err := evaluate(ctx)
			rt.Logger.Debug("pipeline re-evaluated",
				"path", path,
				log.Duration("duration", time.Since(start).Milliseconds()))
			if err != nil {
				fmt.Fprintln(out, shared.RenderError(err.Error()))
			}
			return err
		})
	})

	return g.Wait()
}

// evaluateFile loads the pipeline and prints one line per evaluated stage.
// Evaluation errors are printed, not returned; only a file that cannot be
// loaded is an error.
func evaluateFile(ctx context.Context, out io.Writer, c *condition.Conditional, path, stage string) error {
	file, err := pipeline.Load(path)
	if err != nil {
		return err
	}

	conditions := file.Conditions
	if stage != "" {
		cond, ok := file.Condition(stage)
		if !ok {
			return fmt.Errorf("stage %q not found in %s", stage, path)
		}
		conditions = []pipeline.Condition{cond}
	}

	stamp := shared.RenderLabel(time.Now().Format(time.TimeOnly))
	for _, cond := range conditions {
		result, err := c.Evaluate(ctx, cond.Expression, file.Context(cond.Stage))
		switch {
		case err != nil:
			fmt.Fprintf(out, "%s %s %s\n", stamp, shared.RenderError(cond.Stage+":"),
				fmt.Sprintf("%s (%s)", err.Error(), errors.Classify(err)))
		default:
			fmt.Fprintf(out, "%s %s %s\n", stamp, shared.Bold.Render(cond.Stage+":"), shared.RenderResult(result))
		}
	}
	return nil
}
