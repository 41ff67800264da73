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

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrEvaluationID = "condition.evaluation_id"
	AttrPipeline     = "condition.pipeline"
	AttrStage        = "condition.stage"
	AttrExpression   = "condition.expression"
	AttrResult       = "condition.result"
	AttrCacheHit     = "condition.cache_hit"
	AttrVariables    = "condition.variables"
	AttrErrorType    = "condition.error_type"
)

// EvaluationSpan wraps an OpenTelemetry span with condition-specific helpers.
// A nil *EvaluationSpan is valid and does nothing.
type EvaluationSpan struct {
	span trace.Span
}

// StartEvaluation creates a span for one condition evaluation.
func StartEvaluation(ctx context.Context, tracer trace.Tracer, evaluationID, pipeline, stage string) (context.Context, *EvaluationSpan) {
	name := "condition.evaluate"
	if stage != "" {
		name = fmt.Sprintf("condition.evaluate: %s", stage)
	}
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrEvaluationID, evaluationID),
			attribute.String(AttrPipeline, pipeline),
			attribute.String(AttrStage, stage),
		),
	)

	return ctx, &EvaluationSpan{span: span}
}

// SetAttributes adds key-value attributes to the span.
func (s *EvaluationSpan) SetAttributes(attrs map[string]any) {
	if s == nil || s.span == nil {
		return
	}
	s.span.SetAttributes(toAttributes(attrs)...)
}

// AddEvent records a timestamped event within the span.
func (s *EvaluationSpan) AddEvent(name string, attrs map[string]any) {
	if s == nil || s.span == nil {
		return
	}
	s.span.AddEvent(name, trace.WithAttributes(toAttributes(attrs)...))
}

// SetResult records a successful outcome.
func (s *EvaluationSpan) SetResult(result bool) {
	if s == nil || s.span == nil {
		return
	}
	s.span.SetAttributes(attribute.Bool(AttrResult, result))
	s.span.SetStatus(codes.Ok, "")
}

// RecordError records a failed outcome and its classification.
func (s *EvaluationSpan) RecordError(err error, errorType string) {
	if s == nil || s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetAttributes(attribute.String(AttrErrorType, errorType))
	s.span.SetStatus(codes.Error, err.Error())
}

// End marks the span as complete.
func (s *EvaluationSpan) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}

// TraceID returns the trace ID as a string.
func (s *EvaluationSpan) TraceID() string {
	if s == nil || s.span == nil {
		return ""
	}
	return s.span.SpanContext().TraceID().String()
}

func toAttributes(attrs map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		case []string:
			out = append(out, attribute.StringSlice(k, val))
		default:
			out = append(out, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return out
}
