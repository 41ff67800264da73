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
	"os"
	"strings"

	"go.opentelemetry.io/otel/propagation"
)

// Environment variables carrying W3C trace context into a process, so a
// pipeline runner that invokes the CLI can parent evaluation spans under
// its own trace.
const (
	EnvTraceParent = "TRACEPARENT"
	EnvTraceState  = "TRACESTATE"
	EnvBaggage     = "BAGGAGE"
)

// W3CPropagator returns a TextMapPropagator that implements W3C Trace Context.
func W3CPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// EnvCarrier adapts a set of environment variables to a TextMapCarrier.
// Keys are the lower-case header names ("traceparent"); values live under
// the upper-case variable names.
type EnvCarrier map[string]string

var _ propagation.TextMapCarrier = EnvCarrier(nil)

// Get implements propagation.TextMapCarrier.
func (c EnvCarrier) Get(key string) string {
	return c[strings.ToUpper(key)]
}

// Set implements propagation.TextMapCarrier.
func (c EnvCarrier) Set(key, value string) {
	c[strings.ToUpper(key)] = value
}

// Keys implements propagation.TextMapCarrier.
func (c EnvCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, strings.ToLower(k))
	}
	return keys
}

// CarrierFromEnv reads the trace context variables of the current process.
func CarrierFromEnv() EnvCarrier {
	c := EnvCarrier{}
	for _, name := range []string{EnvTraceParent, EnvTraceState, EnvBaggage} {
		if v := os.Getenv(name); v != "" {
			c[name] = v
		}
	}
	return c
}

// ExtractEnv returns ctx carrying the remote span context found in the
// process environment, or ctx unchanged when there is none.
func ExtractEnv(ctx context.Context) context.Context {
	carrier := CarrierFromEnv()
	if len(carrier) == 0 {
		return ctx
	}
	return W3CPropagator().Extract(ctx, carrier)
}

// InjectEnv writes the span context of ctx as environment assignments
// (KEY=value), for handing to a child process.
func InjectEnv(ctx context.Context) []string {
	carrier := EnvCarrier{}
	W3CPropagator().Inject(ctx, carrier)

	env := make([]string, 0, len(carrier))
	for k, v := range carrier {
		env = append(env, k+"="+v)
	}
	return env
}
