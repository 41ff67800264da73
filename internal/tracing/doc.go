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

/*
Package tracing provides OpenTelemetry tracing for condition evaluation.

Every evaluation runs in a span named "condition.evaluate: <stage>" carrying
the evaluation ID, pipeline and stage. Compilation is recorded as a span
event with the cache outcome, and the span ends with the boolean result or
the classified error.

# Quick Start

	provider, err := tracing.NewProvider(ctx, tracing.Config{
	    Enabled:     true,
	    Exporter:    tracing.ExporterOTLP,
	    Endpoint:    "localhost:4318",
	    Insecure:    true,
	    ServiceName: "conditional",
	    SampleRate:  1.0,
	}, nil)
	if err != nil {
	    return err
	}
	defer provider.Shutdown(ctx)

	c := condition.New(condition.WithTracerProvider(provider.TracerProvider()))

A disabled configuration yields a no-op provider, so callers never need to
branch on whether tracing is on.

# Exporters

  - console: pretty-printed JSON spans on the given writer (stderr by default)
  - otlp: OTLP over HTTP to Endpoint
  - otlp-grpc: OTLP over gRPC to Endpoint

# Trace Context

A process started by a pipeline runner can join the runner's trace through
the TRACEPARENT and TRACESTATE environment variables:

	ctx = tracing.ExtractEnv(ctx)
*/
package tracing
