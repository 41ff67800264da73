package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifyCalls(t *testing.T) {
	isNamespace := func(ns string) bool { return ns == "math" }

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "namespaced call is rewritten",
			input: "math:max(a, b) > 1",
			want:  "math.max(a, b) > 1",
		},
		{
			name:  "nested namespaced calls",
			input: "math:max(math:abs(x), 2)",
			want:  "math.max(math.abs(x), 2)",
		},
		{
			name:  "whitespace before paren is allowed",
			input: "math:max (a, b)",
			want:  "math.max (a, b)",
		},
		{
			name:  "ternary is untouched",
			input: "ok ? a : b",
			want:  "ok ? a : b",
		},
		{
			name:  "tight ternary without call is untouched",
			input: "ok ? a:b",
			want:  "ok ? a:b",
		},
		{
			name:  "ternary branch may hold a namespaced call",
			input: "ok ? 1 : math:max(1, 2)",
			want:  "ok ? 1 : math.max(1, 2)",
		},
		{
			name:  "single quoted literal is untouched",
			input: "s == 'math:max(1)'",
			want:  "s == 'math:max(1)'",
		},
		{
			name:  "double quoted literal with escape is untouched",
			input: `s == "a\"math:max(1)" && math:min(1, 2) == 1`,
			want:  `s == "a\"math:max(1)" && math.min(1, 2) == 1`,
		},
		{
			name:  "unregistered namespace is untouched",
			input: "foo:bar(1)",
			want:  "foo:bar(1)",
		},
		{
			name:  "whitespace around colon is not a namespaced call",
			input: "math : max(1)",
			want:  "math : max(1)",
		},
		{
			name:  "no colon at all",
			input: "runtime['a'] > 1",
			want:  "runtime['a'] > 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualifyCalls(tt.input, isNamespace))
		})
	}
}

func TestSkipString_Unterminated(t *testing.T) {
	src := []rune(`'abc`)
	assert.Equal(t, len(src), skipString(src, 0))
}
