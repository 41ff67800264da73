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
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conditional/internal/commands/shared"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestFunctions_Text(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "math:max(a, b)")
	assert.Contains(t, out, "toDouble(a)")
}

func TestFunctions_JSONFilter(t *testing.T) {
	shared.SetJSONForTest(true)
	t.Cleanup(func() { shared.SetJSONForTest(false) })

	tests := []struct {
		name      string
		namespace string
		check     func(t *testing.T, fns []FunctionInfo)
	}{
		{
			name:      "math only",
			namespace: "math",
			check: func(t *testing.T, fns []FunctionInfo) {
				require.NotEmpty(t, fns)
				for _, fn := range fns {
					assert.Equal(t, "math", fn.Namespace)
				}
			},
		},
		{
			name:      "unqualified only",
			namespace: "-",
			check: func(t *testing.T, fns []FunctionInfo) {
				require.NotEmpty(t, fns)
				for _, fn := range fns {
					assert.Empty(t, fn.Namespace)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "--namespace", tt.namespace)
			require.NoError(t, err)

			var resp functionsResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.True(t, resp.Success)
			tt.check(t, resp.Functions)
		})
	}
}

func TestFunctions_UnknownNamespace(t *testing.T) {
	_, err := execute(t, "--namespace", "strings")
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCodeFor(err))
}
