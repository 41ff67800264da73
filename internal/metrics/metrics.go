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

// Package metrics exposes Prometheus metrics for condition evaluation and
// the pipeline file watcher.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// evaluations tracks completed evaluations by outcome
	// (true, false or the error type)
	evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_evaluations_total",
			Help: "Total condition evaluations by outcome",
		},
		[]string{"outcome"},
	)

	// evaluationDuration tracks end-to-end evaluation latency
	evaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conditional_evaluation_duration_seconds",
			Help:    "Time spent compiling, resolving and running a condition",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
	)

	// cacheLookups tracks compile cache hits and misses
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_compile_cache_lookups_total",
			Help: "Compile cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	// watchEvents tracks file events seen by the watch command
	watchEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conditional_watch_events_total",
			Help: "Total pipeline file events by event type",
		},
		[]string{"event_type"},
	)

	// watchRateLimited tracks file events dropped by the re-evaluation limiter
	watchRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conditional_watch_rate_limited_total",
			Help: "Total pipeline file events dropped by rate limiting",
		},
	)

	// watchReloadErrors tracks pipeline files that failed to load
	watchReloadErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conditional_watch_reload_errors_total",
			Help: "Total pipeline file reloads that failed",
		},
	)
)

// Recorder records evaluation metrics. It satisfies condition.Recorder.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the package-level collectors.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// CacheLookup increments the hit or miss counter.
func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// EvaluationCompleted counts the outcome and observes the duration.
func (r *Recorder) EvaluationCompleted(outcome string, duration time.Duration) {
	evaluations.WithLabelValues(outcome).Inc()
	evaluationDuration.Observe(duration.Seconds())
}

// RecordWatchEvent increments the file event counter.
func RecordWatchEvent(eventType string) {
	watchEvents.WithLabelValues(eventType).Inc()
}

// RecordWatchRateLimited increments the rate-limited counter.
func RecordWatchRateLimited() {
	watchRateLimited.Inc()
}

// RecordWatchReloadError increments the reload error counter.
func RecordWatchReloadError() {
	watchReloadErrors.Inc()
}
