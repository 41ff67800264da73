package expression

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/conditional/pkg/errors"
)

func testEnv() map[string]any {
	return map[string]any{
		"runtime": map[string]any{
			"max_error": 3,
			"mode":      "strict",
			"enabled":   true,
			"text":      "5",
			"items":     []any{"a", "b"},
			"nan":       math.NaN(),
		},
		"token": map[string]any{
			"DQ1": map[string]any{"input": int64(100), "output": int64(95), "error": int64(5)},
			"DQ2": map[string]any{"input": int64(50), "output": int64(41), "error": int64(9)},
		},
		"global": map[string]any{
			"pipeline":           "orders",
			"namespace":          "default",
			"logical_start_time": int64(1700000000000),
			"plugin":             "error-gate",
		},
	}
}

func TestEngine_Evaluate(t *testing.T) {
	e := New()
	env := testEnv()

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{
			name: "max of error counts exceeds threshold",
			expr: "math:max(toDouble(token['DQ1']['error']), toDouble(token['DQ2']['error'])) > runtime['max_error']",
			want: true,
		},
		{
			name: "integer max stays comparable",
			expr: "math:max(token['DQ1']['error'], token['DQ2']['error']) == 9",
			want: true,
		},
		{
			name: "dotted alias",
			expr: "math.max(1, 2) == 2",
			want: true,
		},
		{
			name: "min below threshold",
			expr: "math:min(token['DQ1']['error'], token['DQ2']['error']) < runtime['max_error']",
			want: false,
		},
		{
			name: "string equality",
			expr: "runtime['mode'] == 'strict' && global['pipeline'] == 'orders'",
			want: true,
		},
		{
			name: "boolean argument",
			expr: "runtime['enabled']",
			want: true,
		},
		{
			name: "negation",
			expr: "!runtime['enabled']",
			want: false,
		},
		{
			name: "explicit string conversion",
			expr: "toDouble(runtime['text']) > 3",
			want: true,
		},
		{
			name: "ternary",
			expr: "runtime['enabled'] ? token['DQ1']['output'] > 90 : false",
			want: true,
		},
		{
			name: "built-in len",
			expr: "len(runtime['items']) == 2",
			want: true,
		},
		{
			name: "membership",
			expr: "'a' in runtime['items']",
			want: true,
		},
		{
			name: "NaN never compares greater",
			expr: "math:max(runtime['nan'], 1.0) > 0",
			want: false,
		},
		{
			name: "ratio of stage counts",
			expr: "toDouble(token['DQ2']['output']) / toDouble(token['DQ2']['input']) < 0.9",
			want: true,
		},
		{
			name: "integer kinds compare equal",
			expr: "token['DQ1']['error'] == 5 && runtime['max_error'] != 4",
			want: true,
		},
		{
			name: "integer equals float",
			expr: "runtime['max_error'] == 3.0",
			want: true,
		},
		{
			name: "missing value compares with nil",
			expr: "runtime['absent'] == nil && runtime['mode'] != nil",
			want: true,
		},
		{
			name: "string inequality",
			expr: "runtime['mode'] != 'lenient'",
			want: true,
		},
		{
			name: "list equality",
			expr: "runtime['items'] == ['a', 'b']",
			want: true,
		},
		{
			name: "isEmpty on argument",
			expr: "!isEmpty(runtime['mode'])",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.Compile(tt.expr)
			require.NoError(t, err)
			got, err := e.Evaluate(c, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_NonBooleanResult(t *testing.T) {
	e := New()
	env := testEnv()

	tests := []struct {
		name string
		expr string
	}{
		{"number", "token['DQ1']['error'] + 1"},
		{"string", "runtime['mode']"},
		{"missing value is nil", "runtime['absent']"},
		{"float function result", "math:max(1.5, 2.5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.Compile(tt.expr)
			require.NoError(t, err)

			_, err = e.Evaluate(c, env)
			require.Error(t, err)

			var evalErr *errors.EvaluationError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, tt.expr, evalErr.Expression)
			assert.Contains(t, evalErr.Message, "must return a boolean")
		})
	}
}

func TestEngine_RuntimeFailures(t *testing.T) {
	e := New()
	env := testEnv()

	tests := []struct {
		name string
		expr string
	}{
		{"no implicit string to number", "runtime['text'] > 3"},
		{"conversion failure", "toDouble(runtime['mode']) > 1"},
		{"math on string", "math:max(runtime['text'], 1) > 0"},
		{"string equals number", "runtime['mode'] == 3"},
		{"string not equal to number", "runtime['mode'] != 3"},
		{"number equals quoted number", "runtime['max_error'] == '3'"},
		{"boolean equals number", "runtime['enabled'] == 1"},
		{"mismatch inside a larger condition", "token['DQ1']['error'] > 1 && runtime['text'] == 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.Compile(tt.expr)
			require.NoError(t, err)

			_, err = e.Evaluate(c, env)
			var evalErr *errors.EvaluationError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, "evaluation", errors.Classify(err))
		})
	}
}

func TestEngine_CompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantMsg string
	}{
		{"empty", "   ", "expression is empty"},
		{"syntax error", "runtime['a'] >", ""},
		{"unknown namespace call", "foo:bar(1)", ""},
		{"unknown function in namespace", "math:median(1, 2)", "unknown function math:median"},
		{"unknown dotted function in namespace", "math.median(1, 2)", "unknown function math:median"},
		{"unknown function", "frobnicate(runtime['a'])", "unknown function frobnicate"},
		{"unknown member call", "runtime.size(1)", "unknown function runtime.size"},
		{"too few arguments", "math:max(1) > 0", "math:max expects 2 argument(s), got 1"},
		{"too many arguments", "toDouble(1, 2) > 0", "toDouble expects 1 argument(s), got 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			_, err := e.Compile(tt.expr)
			require.Error(t, err)

			var compileErr *errors.CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, "expression", compileErr.Property)
			assert.Equal(t, tt.expr, compileErr.Expression)
			if tt.wantMsg != "" {
				assert.Contains(t, compileErr.Message, tt.wantMsg)
			}
			assert.Equal(t, 0, e.CacheSize(), "failed compiles are not cached")
		})
	}
}

func TestEngine_CompileIsCached(t *testing.T) {
	e := New()
	expr := "token['DQ1']['error'] > runtime['max_error']"

	first, err := e.Compile(expr)
	require.NoError(t, err)
	second, err := e.Compile(expr)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, first.Variables(), second.Variables())
	assert.Equal(t, 1, e.CacheSize())

	cached, ok := e.Lookup(expr)
	require.True(t, ok)
	assert.Same(t, first, cached)

	_, ok = e.Lookup(expr + " ")
	assert.False(t, ok, "cache is keyed by exact text")

	e.ClearCache()
	assert.Equal(t, 0, e.CacheSize())

	third, err := e.Compile(expr)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first.Variables(), third.Variables())
	assert.Equal(t, expr, third.Source())
}

func TestEngine_ConcurrentCompile(t *testing.T) {
	e := New()
	expr := "math:max(token['A']['error'], token['B']['error']) > runtime['limit']"

	const workers = 16
	results := make([]*Compiled, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := e.Compile(expr)
			if err == nil {
				results[i] = c
			}
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		require.NotNil(t, c)
		assert.Same(t, results[0], c)
	}
	assert.Equal(t, 1, e.CacheSize())
}

func TestEngine_CustomRegistry(t *testing.T) {
	r := NewRegistry(&Function{
		Namespace: "str",
		Name:      "upper",
		MinArgs:   1,
		MaxArgs:   1,
		Fn: func(args ...any) (any, error) {
			s, _ := args[0].(string)
			return s + "!", nil
		},
	})
	e := NewWithRegistry(r)
	assert.Same(t, r, e.Registry())

	c, err := e.Compile("str:upper(runtime['s']) == 'hi!'")
	require.NoError(t, err)
	got, err := e.Evaluate(c, map[string]any{"runtime": map[string]any{"s": "hi"}})
	require.NoError(t, err)
	assert.True(t, got)

	_, err = e.Compile("math:max(1, 2) > 1")
	assert.Error(t, err, "math is not registered in a custom registry")
}
