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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	conditionalerrors "github.com/tombee/conditional/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE", "CONDITIONAL_LOG_LEVEL", "CONDITIONAL_DEBUG",
		"CONDITIONAL_TRACING_ENABLED", "CONDITIONAL_TRACING_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"CONDITIONAL_TRACING_SAMPLE_RATE", "CONDITIONAL_METRICS_ADDR", "CONDITIONAL_STATS_DB",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg := Default()

	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected log format 'text', got %q", cfg.Log.Format)
	}
	if cfg.Tracing.Enabled {
		t.Errorf("expected tracing disabled by default")
	}
	if cfg.Tracing.Exporter != "console" {
		t.Errorf("expected console exporter, got %q", cfg.Tracing.Exporter)
	}
	if cfg.Statistics.Path != filepath.Join("/data", "conditional", "statistics.db") {
		t.Errorf("unexpected statistics path %q", cfg.Statistics.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
  format: json
tracing:
  enabled: true
  exporter: otlp
  endpoint: localhost:4318
  insecure: true
metrics:
  listen_addr: ":9090"
statistics:
  path: /tmp/stats.db
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "otlp" || cfg.Tracing.Endpoint != "localhost:4318" || !cfg.Tracing.Insecure {
		t.Errorf("unexpected tracing config %+v", cfg.Tracing)
	}
	if cfg.Tracing.ServiceName != "conditional" {
		t.Errorf("expected default service name, got %q", cfg.Tracing.ServiceName)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("expected default sample rate, got %v", cfg.Tracing.SampleRate)
	}
	if cfg.Metrics.ListenAddr != ":9090" {
		t.Errorf("unexpected metrics addr %q", cfg.Metrics.ListenAddr)
	}
	if cfg.Statistics.Path != "/tmp/stats.db" {
		t.Errorf("unexpected statistics path %q", cfg.Statistics.Path)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\nstatistics:\n  path: file.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONDITIONAL_LOG_LEVEL", "ERROR")
	t.Setenv("CONDITIONAL_STATS_DB", "env.db")
	t.Setenv("CONDITIONAL_TRACING_ENABLED", "true")
	t.Setenv("CONDITIONAL_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected env level 'error', got %q", cfg.Log.Level)
	}
	if cfg.Statistics.Path != "env.db" {
		t.Errorf("expected env stats path, got %q", cfg.Statistics.Path)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("unexpected tracing config %+v", cfg.Tracing)
	}
}

func TestLoad_DebugWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONDITIONAL_LOG_LEVEL", "error")
	t.Setenv("CONDITIONAL_DEBUG", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.AddSource {
		t.Errorf("expected debug with source, got %+v", cfg.Log)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		key     string
		errText string
	}{
		{
			name:    "malformed yaml",
			content: "log: [unclosed",
			key:     "config_file",
			errText: "failed to parse YAML",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: loud\n",
			key:     "validation",
			errText: "log.level",
		},
		{
			name:    "otlp without endpoint",
			content: "tracing:\n  enabled: true\n  exporter: otlp\n",
			key:     "validation",
			errText: "endpoint is required",
		},
		{
			name:    "unknown exporter",
			content: "tracing:\n  enabled: true\n  exporter: zipkin\n",
			key:     "validation",
			errText: "unknown tracing exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}

			var cfgErr *conditionalerrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, cfgErr.Key)
			}
			if cfgErr.Cause == nil || !strings.Contains(cfgErr.Cause.Error(), tt.errText) {
				t.Errorf("expected cause containing %q, got %v", tt.errText, cfgErr.Cause)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/cfg", "conditional", "config.yaml") {
		t.Errorf("unexpected config path %q", path)
	}
}
