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
Package cli provides the root command and shared configuration for the
conditional CLI.

This package creates the Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	conditional
	├── eval          Evaluate a condition
	├── validate      Validate the conditions of pipeline files
	├── watch         Re-evaluate conditions when a pipeline file changes
	├── functions     List callable functions
	├── stats         Manage recorded stage statistics
	│   ├── record
	│   ├── show
	│   ├── list
	│   └── delete
	├── version       Show version
	└── help          Show help

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	if err := cli.NewApp().Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

All commands inherit these flags:

	--verbose, -v    Enable debug logging
	--quiet, -q      Print only errors
	--json           Write results as JSON on stdout
	--config         Path to config file

# Exit Codes

  - Exit 0: Condition true, or the command succeeded
  - Exit 1: Condition false, or validation failed
  - Exit 2: Invalid input (file, flag, expression that does not compile)
  - Exit 3: Missing runtime argument
  - Exit 4: Evaluation failed
*/
package cli
