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
	"github.com/spf13/pflag"
)

// Options holds the persistent flags shared by every command.
type Options struct {
	Verbose    bool
	Quiet      bool
	JSON       bool
	ConfigPath string
}

// BuildInfo identifies the binary. main sets it from ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	options Options
	build   = BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"}
)

// BindFlags registers the shared flags on fs, normally the root command's
// persistent flag set.
func BindFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&options.Verbose, "verbose", "v", false, "Enable debug logging")
	fs.BoolVarP(&options.Quiet, "quiet", "q", false, "Print only errors; eval reports through its exit code")
	fs.BoolVar(&options.JSON, "json", false, "Write results as JSON on stdout")
	fs.StringVar(&options.ConfigPath, "config", "", "Path to config file (default: ~/.config/conditional/config.yaml if present)")
}

// LogLevel applies -v and -q to the configured level. -v wins when both are set.
func LogLevel(configured string) string {
	switch {
	case options.Verbose:
		return "debug"
	case options.Quiet:
		return "error"
	}
	return configured
}

// GetQuiet reports whether -q was given.
func GetQuiet() bool { return options.Quiet }

// GetJSON reports whether --json was given.
func GetJSON() bool { return options.JSON }

// GetConfigPath returns --config.
func GetConfigPath() string { return options.ConfigPath }

// SetVersion records the build information.
func SetVersion(version, commit, date string) {
	build = BuildInfo{Version: version, Commit: commit, Date: date}
}

// GetVersion returns the version, commit and build date.
func GetVersion() (string, string, string) {
	return build.Version, build.Commit, build.Date
}

// SetJSONForTest toggles --json without parsing flags.
func SetJSONForTest(v bool) {
	options.JSON = v
}
