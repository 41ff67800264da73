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
	"fmt"
)

// Exporter names accepted in Config.Exporter.
const (
	ExporterConsole  = "console"
	ExporterOTLP     = "otlp"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Config holds tracing configuration.
type Config struct {
	// Enabled controls whether spans are exported.
	Enabled bool `yaml:"enabled"`

	// Exporter is the export destination: "console", "otlp" (HTTP) or
	// "otlp-grpc".
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP receiver host:port, usually 4318 for HTTP and
	// 4317 for gRPC.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP exporters (for development only).
	Insecure bool `yaml:"insecure"`

	// Headers are sent with every OTLP export request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the application version.
	ServiceVersion string `yaml:"-"`

	// SampleRate is the fraction of evaluations to trace (0.0 - 1.0).
	SampleRate float64 `yaml:"sample_rate"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:        false, // Opt-in
		Exporter:       ExporterConsole,
		ServiceName:    "conditional",
		ServiceVersion: "unknown",
		SampleRate:     1.0,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Exporter {
	case ExporterConsole:
	case ExporterOTLP, ExporterOTLPGRPC:
		if c.Endpoint == "" {
			return fmt.Errorf("tracing endpoint is required for the %s exporter", c.Exporter)
		}
	default:
		return fmt.Errorf("unknown tracing exporter %q (want %q, %q or %q)",
			c.Exporter, ExporterConsole, ExporterOTLP, ExporterOTLPGRPC)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	return nil
}
