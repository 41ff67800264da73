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

package cli

import (
	"github.com/spf13/cobra"
	"github.com/tombee/conditional/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for conditional
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conditional",
		Short: "conditional - boolean pipeline conditions",
		Long: `conditional evaluates the boolean conditions that decide whether a
pipeline stage runs. Conditions read runtime arguments, the record counts of
earlier stages and pipeline metadata:

  runtime['max_error']        a runtime argument of the run
  token['DQ1']['error']       records stage DQ1 rejected (also input, output)
  global['pipeline']          pipeline, namespace, logical_start_time, plugin

Run 'conditional functions' to list the functions conditions can call.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	shared.BindFlags(cmd.PersistentFlags())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
