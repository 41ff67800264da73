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

package log

import (
	"log/slog"
	"time"
)

// EvaluationRequest describes one condition evaluation for logging purposes.
type EvaluationRequest struct {
	// EvaluationID uniquely identifies this evaluation.
	EvaluationID string

	// Expression is the condition source text.
	Expression string

	// Pipeline is the pipeline the condition belongs to.
	Pipeline string

	// Stage is the stage holding the condition.
	Stage string
}

// EvaluationResponse describes how an evaluation ended.
type EvaluationResponse struct {
	// Result is the boolean outcome; false when Error is set.
	Result bool

	// CacheHit reports whether the compiled expression came from the cache.
	CacheHit bool

	// ErrorType classifies the failure (compile, evaluation, ...).
	ErrorType string

	// Error is the error message if the evaluation failed.
	Error string

	// Duration is how long the evaluation took.
	Duration time.Duration
}

// LogEvaluationRequest logs the start of an evaluation at debug level.
func LogEvaluationRequest(logger *slog.Logger, req *EvaluationRequest) {
	logger.Debug("evaluating condition",
		EventKey, "condition_evaluate",
		EvaluationIDKey, req.EvaluationID,
		ExpressionKey, req.Expression,
		PipelineKey, req.Pipeline,
		StageKey, req.Stage,
	)
}

// LogEvaluationResponse logs the outcome of an evaluation. Failures are
// logged at error level.
func LogEvaluationResponse(logger *slog.Logger, req *EvaluationRequest, resp *EvaluationResponse) {
	attrs := []any{
		EventKey, "condition_result",
		EvaluationIDKey, req.EvaluationID,
		PipelineKey, req.Pipeline,
		StageKey, req.Stage,
		"cache_hit", resp.CacheHit,
		DurationKey, resp.Duration.Milliseconds(),
	}

	if resp.Error != "" {
		attrs = append(attrs,
			ExpressionKey, req.Expression,
			"error_type", resp.ErrorType,
			"error", resp.Error,
		)
		logger.Error("condition evaluation failed", attrs...)
		return
	}

	attrs = append(attrs, "result", resp.Result)
	logger.Info("condition evaluated", attrs...)
}
