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

package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conditional/pkg/condition/expression"
	"github.com/tombee/conditional/pkg/errors"
)

func testContext() *StaticContext {
	return &StaticContext{
		Arguments: map[string]any{
			"max_error": 3,
			"mode":      "strict",
		},
		Statistics: map[string]StageStatistics{
			"DQ1": {Input: 100, Output: 95, Error: 5},
			"DQ2": {Input: 50, Output: 41, Error: 9},
		},
		Metadata: Metadata{
			Pipeline:         "orders",
			Namespace:        "default",
			LogicalStartTime: 1700000000000,
			Stage:            "error-gate",
		},
	}
}

func TestResolve(t *testing.T) {
	refs := []expression.Reference{
		{"global", "pipeline"},
		{"runtime", "max_error"},
		{"token", "DQ1", "error"},
		{"token", "DQ1", "input"},
		{"token", "missing", "error"},
	}

	b, err := Resolve(refs, testContext())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"max_error": 3}, b.Runtime)
	assert.Equal(t, map[string]map[string]any{
		"DQ1":     {"input": int64(100), "output": int64(95), "error": int64(5)},
		"missing": {"input": int64(0), "output": int64(0), "error": int64(0)},
	}, b.Token)
	assert.Equal(t, map[string]any{
		"pipeline":           "orders",
		"namespace":          "default",
		"logical_start_time": int64(1700000000000),
		"plugin":             "error-gate",
	}, b.Global)
}

func TestResolve_OnlyReferencedValues(t *testing.T) {
	b, err := Resolve([]expression.Reference{{"runtime", "mode"}}, testContext())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"mode": "strict"}, b.Runtime)
	assert.Empty(t, b.Token)
	assert.Empty(t, b.Global)

	env := b.Env()
	assert.Contains(t, env, "runtime")
	assert.Contains(t, env, "token")
	assert.Contains(t, env, "global")
}

func TestResolve_GlobalIsIdempotent(t *testing.T) {
	ctx := testContext()

	once, err := Resolve([]expression.Reference{{"global", "pipeline"}}, ctx)
	require.NoError(t, err)

	many, err := Resolve([]expression.Reference{
		{"global", "pipeline"},
		{"global", "namespace"},
		{"global"},
		{"global", "anything", "deeper"},
	}, ctx)
	require.NoError(t, err)

	assert.Equal(t, once.Global, many.Global)
	assert.Len(t, many.Global, 4)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		refs  []expression.Reference
		check func(t *testing.T, err error)
	}{
		{
			name: "missing runtime argument",
			refs: []expression.Reference{{"runtime", "absent"}},
			check: func(t *testing.T, err error) {
				var missing *errors.MissingRuntimeArgumentError
				require.ErrorAs(t, err, &missing)
				assert.Equal(t, "absent", missing.Name)
				assert.Equal(t, "condition includes a runtime argument 'absent' that does not exist", err.Error())
			},
		},
		{
			name: "unknown namespace",
			refs: []expression.Reference{{"foo", "x"}},
			check: func(t *testing.T, err error) {
				var unresolved *errors.UnresolvedNamespaceError
				require.ErrorAs(t, err, &unresolved)
				assert.Equal(t, "foo", unresolved.Namespace)
				assert.Equal(t, []string{"runtime", "token", "global"}, unresolved.Valid)
				assert.Contains(t, err.Error(), "'runtime', 'token', 'global'")
			},
		},
		{
			name: "bare identifier",
			refs: []expression.Reference{{"max_error"}},
			check: func(t *testing.T, err error) {
				var unresolved *errors.UnresolvedNamespaceError
				require.ErrorAs(t, err, &unresolved)
				assert.Equal(t, "max_error", unresolved.Namespace)
			},
		},
		{
			name: "runtime without argument name",
			refs: []expression.Reference{{"runtime"}},
			check: func(t *testing.T, err error) {
				var ref *errors.ReferenceError
				require.ErrorAs(t, err, &ref)
				assert.Equal(t, "runtime", ref.Path)
			},
		},
		{
			name: "runtime indexed past the argument",
			refs: []expression.Reference{{"runtime", "max_error", "value"}},
			check: func(t *testing.T, err error) {
				var ref *errors.ReferenceError
				require.ErrorAs(t, err, &ref)
				assert.Equal(t, `runtime["max_error"]["value"]`, ref.Path)
				assert.Contains(t, err.Error(), "exactly one argument name")
			},
		},
		{
			name: "token without stage",
			refs: []expression.Reference{{"token"}},
			check: func(t *testing.T, err error) {
				var ref *errors.ReferenceError
				require.ErrorAs(t, err, &ref)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Resolve(tt.refs, testContext())
			require.Error(t, err)
			assert.Nil(t, b)
			tt.check(t, err)
		})
	}
}

func TestResolve_DoesNotShareValidNamespaces(t *testing.T) {
	_, err := Resolve([]expression.Reference{{"foo"}}, testContext())
	var unresolved *errors.UnresolvedNamespaceError
	require.ErrorAs(t, err, &unresolved)

	unresolved.Valid[0] = "changed"
	assert.Equal(t, "runtime", Namespaces[0])
}
