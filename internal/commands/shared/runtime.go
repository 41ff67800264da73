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

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/tombee/conditional/internal/config"
	"github.com/tombee/conditional/internal/log"
	"github.com/tombee/conditional/internal/metrics"
	"github.com/tombee/conditional/internal/stats"
	"github.com/tombee/conditional/internal/tracing"
	"github.com/tombee/conditional/pkg/condition"
)

// Runtime bundles what a command needs to evaluate conditions: the loaded
// configuration, a logger, and a Conditional wired to tracing and metrics.
type Runtime struct {
	Config      *config.Config
	Logger      *slog.Logger
	Conditional *condition.Conditional

	provider *tracing.Provider
}

// NewRuntime loads configuration from --config and the environment and
// builds the evaluation stack. Logs and console spans go to stderr.
func NewRuntime(ctx context.Context, stderr io.Writer) (*Runtime, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, NewInvalidInputError("", err)
	}

	logger := log.New(&log.Config{
		Level:     LogLevel(cfg.Log.Level),
		Format:    log.Format(cfg.Log.Format),
		Output:    stderr,
		AddSource: cfg.Log.AddSource,
	})

	cfg.Tracing.ServiceVersion = build.Version
	provider, err := tracing.NewProvider(ctx, cfg.Tracing, stderr)
	if err != nil {
		return nil, NewInvalidInputError("failed to set up tracing", err)
	}

	c := condition.New(
		condition.WithLogger(logger),
		condition.WithTracerProvider(provider.TracerProvider()),
		condition.WithRecorder(metrics.NewRecorder()),
	)

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Conditional: c,
		provider:    provider,
	}, nil
}

// configPath returns --config, or the default config file when it exists.
func configPath() string {
	if path := GetConfigPath(); path != "" {
		return path
	}
	path, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// OpenStatistics opens the statistics store at path, or at the configured
// location when path is empty.
func (r *Runtime) OpenStatistics(path string) (*stats.Store, error) {
	if path == "" {
		path = r.Config.Statistics.Path
	}
	store, err := stats.Open(stats.Config{Path: path, WAL: true})
	if err != nil {
		return nil, NewInvalidInputError("failed to open statistics store", err)
	}
	r.Logger.Debug("statistics store opened", "path", path)
	return store, nil
}

// Close flushes pending spans.
func (r *Runtime) Close(ctx context.Context) {
	if err := r.provider.Shutdown(ctx); err != nil {
		r.Logger.Warn("failed to flush traces", log.Error(err))
	}
}
