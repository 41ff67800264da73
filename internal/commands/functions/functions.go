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

package functions

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/conditional/internal/commands/shared"
	"github.com/tombee/conditional/pkg/condition/expression"
)

// FunctionInfo describes one registered function
type FunctionInfo struct {
	Name        string `json:"name"`
	Namespace   string `json:"namespace,omitempty"`
	Signature   string `json:"signature"`
	Description string `json:"description,omitempty"`
}

type functionsResponse struct {
	shared.JSONResponse
	Functions []FunctionInfo `json:"functions"`
}

// NewCommand creates the functions command
func NewCommand() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the functions conditions can call",
		Annotations: map[string]string{
			"group": "evaluation",
		},
		Long: `Functions lists the functions registered with the expression engine.
Namespaced functions are called as namespace:name(...), for example
math:max(token['A']['error'], token['B']['error']).

The expression language built-ins (len, abs, all, any, ...) are also available
and are not listed here.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Usage is noise once the command has started
		SilenceErrors: true, // Errors are reported by HandleExitError
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctions(cmd, expression.DefaultRegistry(), namespace)
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Only list functions in this namespace (\"-\" for unqualified)")

	return cmd
}

func runFunctions(cmd *cobra.Command, registry *expression.Registry, namespace string) error {
	if namespace != "" && namespace != "-" && !registry.HasNamespace(namespace) {
		return shared.NewInvalidInputError(fmt.Sprintf("unknown namespace %q (registered: %v)", namespace, registry.Namespaces()), nil)
	}

	infos := []FunctionInfo{}
	for _, fn := range registry.Functions() {
		switch {
		case namespace == "-" && fn.Namespace != "":
			continue
		case namespace != "" && namespace != "-" && fn.Namespace != namespace:
			continue
		}
		infos = append(infos, FunctionInfo{
			Name:        fn.QualifiedName(),
			Namespace:   fn.Namespace,
			Signature:   fn.Signature(),
			Description: fn.Description,
		})
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), functionsResponse{
			JSONResponse: shared.NewJSONResponse("functions", true),
			Functions:    infos,
		})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\n", shared.Bold.Render(info.Signature), info.Description)
	}
	return w.Flush()
}
