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
	"testing"

	"github.com/spf13/pflag"
)

func bindForTest(t *testing.T, args ...string) {
	t.Helper()
	saved := options
	t.Cleanup(func() { options = saved })

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse %v: %v", args, err)
	}
}

func TestBindFlags(t *testing.T) {
	bindForTest(t, "-q", "--json", "--config", "/etc/conditional.yaml")

	if !GetQuiet() || !GetJSON() {
		t.Errorf("expected quiet and json to be set, got %+v", options)
	}
	if got := GetConfigPath(); got != "/etc/conditional.yaml" {
		t.Errorf("GetConfigPath() = %q", got)
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "configured level", args: nil, want: "warn"},
		{name: "verbose", args: []string{"-v"}, want: "debug"},
		{name: "quiet", args: []string{"-q"}, want: "error"},
		{name: "verbose wins over quiet", args: []string{"-q", "-v"}, want: "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindForTest(t, tt.args...)
			if got := LogLevel("warn"); got != tt.want {
				t.Errorf("LogLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetVersion(t *testing.T) {
	saved := build
	t.Cleanup(func() { build = saved })

	SetVersion("1.4.0", "abc123", "2025-06-01")
	v, c, d := GetVersion()
	if v != "1.4.0" || c != "abc123" || d != "2025-06-01" {
		t.Errorf("GetVersion() = %q, %q, %q", v, c, d)
	}
}
