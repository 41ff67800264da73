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

	"github.com/tombee/conditional/internal/commands/eval"
	"github.com/tombee/conditional/internal/commands/functions"
	"github.com/tombee/conditional/internal/commands/stats"
	"github.com/tombee/conditional/internal/commands/validate"
	versioncmd "github.com/tombee/conditional/internal/commands/version"
	"github.com/tombee/conditional/internal/commands/watch"
)

// NewApp returns the root command with every subcommand registered.
func NewApp() *cobra.Command {
	rootCmd := NewRootCommand()

	// Evaluation commands
	rootCmd.AddCommand(eval.NewCommand())
	rootCmd.AddCommand(validate.NewCommand())
	rootCmd.AddCommand(watch.NewCommand())
	rootCmd.AddCommand(functions.NewCommand())

	// Statistics store
	rootCmd.AddCommand(stats.NewCommand())

	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	// Custom help command with JSON support
	rootCmd.SetHelpCommand(NewHelpCommand(rootCmd))

	return rootCmd
}
