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
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tombee/conditional/internal/log"
	"github.com/tombee/conditional/internal/tracing"
	"github.com/tombee/conditional/pkg/condition/expression"
	"github.com/tombee/conditional/pkg/errors"
)

// Evaluation outcomes reported to a Recorder. Failed evaluations report the
// error type (see errors.Classify) instead.
const (
	OutcomeTrue  = "true"
	OutcomeFalse = "false"
)

// Recorder receives evaluation measurements. Implementations must be safe
// for concurrent use.
type Recorder interface {
	// CacheLookup records whether a compiled expression was found in the cache.
	CacheLookup(hit bool)

	// EvaluationCompleted records the outcome and duration of one evaluation.
	EvaluationCompleted(outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(bool) {}
func (nopRecorder) EvaluationCompleted(string, time.Duration) {}

// Conditional decides whether a downstream path runs by evaluating a boolean
// expression over the runtime, token and global namespaces.
//
// A Conditional is safe for concurrent use. Compiled expressions are shared
// across evaluations; bindings are built per call.
type Conditional struct {
	engine   *expression.Engine
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// Option configures a Conditional.
type Option func(*Conditional)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conditional) {
		c.logger = logger
	}
}

// WithTracerProvider sets the provider evaluation spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Conditional) {
		c.tracer = tp.Tracer(tracing.TracerName)
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Conditional) {
		c.recorder = r
	}
}

// WithEngine replaces the expression engine, e.g. to share a compile cache
// or to use a custom function registry.
func WithEngine(e *expression.Engine) Option {
	return func(c *Conditional) {
		c.engine = e
	}
}

// New creates a Conditional backed by the default function registry.
func New(opts ...Option) *Conditional {
	c := &Conditional{
		engine:   expression.New(),
		logger:   log.Discard(),
		tracer:   noop.NewTracerProvider().Tracer(tracing.TracerName),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.WithComponent(c.logger, "condition")
	return c
}

// Engine returns the expression engine.
func (c *Conditional) Engine() *expression.Engine {
	return c.engine
}

// Validate checks a stage configuration without evaluating it. Expressions
// that still contain a ${...} macro are skipped: their final text is only
// known at run time.
func (c *Conditional) Validate(cfg Config) []Failure {
	if cfg.IsEmpty() {
		return []Failure{{
			Message:    "expression is required",
			Property:   PropertyExpression,
			Suggestion: "set a boolean expression such as token['Stage']['error'] == 0",
		}}
	}
	if cfg.ContainsMacro() {
		c.logger.Debug("skipping validation of macro expression", log.ExpressionKey, cfg.Expression)
		return nil
	}

	if _, err := c.engine.Compile(cfg.Expression); err != nil {
		return []Failure{{
			Message:    "error encountered while compiling the expression: " + compileMessage(err),
			Property:   PropertyExpression,
			Suggestion: errors.SuggestionFor(err),
		}}
	}
	return nil
}

// Evaluate compiles (or reuses) the expression, binds every value it
// references from env and runs it.
//
// Errors are typed: *errors.CompileError, *errors.UnresolvedNamespaceError,
// *errors.MissingRuntimeArgumentError, *errors.ReferenceError or
// *errors.EvaluationError. Statistics missing for a stage are not an error;
// the stage reads as zero records.
func (c *Conditional) Evaluate(ctx context.Context, text string, env Context) (bool, error) {
	meta := env.PipelineMetadata()
	req := &log.EvaluationRequest{
		EvaluationID: uuid.NewString(),
		Expression:   text,
		Pipeline:     meta.Pipeline,
		Stage:        meta.Stage,
	}
	logger := log.WithEvaluation(c.logger, req.EvaluationID, meta.Stage)
	log.LogEvaluationRequest(c.logger, req)

	_, span := tracing.StartEvaluation(ctx, c.tracer, req.EvaluationID, meta.Pipeline, meta.Stage)
	defer span.End()

	start := time.Now()
	result, cacheHit, err := c.evaluate(logger, span, text, env)
	duration := time.Since(start)

	resp := &log.EvaluationResponse{
		Result:   result,
		CacheHit: cacheHit,
		Duration: duration,
	}
	outcome := OutcomeFalse
	switch {
	case err != nil:
		outcome = errors.Classify(err)
		resp.ErrorType = outcome
		resp.Error = err.Error()
		span.RecordError(err, outcome)
	case result:
		outcome = OutcomeTrue
		span.SetResult(true)
	default:
		span.SetResult(false)
	}

	c.recorder.EvaluationCompleted(outcome, duration)
	log.LogEvaluationResponse(c.logger, req, resp)

	return result, err
}

func (c *Conditional) evaluate(logger *slog.Logger, span *tracing.EvaluationSpan, text string, env Context) (bool, bool, error) {
	compiled, cacheHit := c.engine.Lookup(text)
	c.recorder.CacheLookup(cacheHit)
	if !cacheHit {
		var err error
		compiled, err = c.engine.Compile(text)
		if err != nil {
			return false, false, err
		}
	}

	refs := compiled.Variables()
	paths := make([]string, len(refs))
	for i, ref := range refs {
		paths[i] = ref.String()
	}
	span.AddEvent("compiled", map[string]any{
		tracing.AttrCacheHit:  cacheHit,
		tracing.AttrVariables: paths,
	})

	bindings, err := Resolve(refs, env)
	if err != nil {
		return false, cacheHit, err
	}
	log.Trace(logger, "resolved bindings",
		slog.Any("runtime", bindings.Runtime),
		slog.Any("token", bindings.Token),
		slog.Any("global", bindings.Global),
	)

	result, err := c.engine.Evaluate(compiled, bindings.Env())
	return result, cacheHit, err
}

// compileMessage extracts the bare compile message so failures do not
// repeat the "compile failed on expression" prefix.
func compileMessage(err error) string {
	var ce *errors.CompileError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
