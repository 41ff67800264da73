// Package expression compiles and evaluates boolean condition expressions.
//
// It uses the expr-lang/expr library for the grammar and virtual machine and
// adds three things on top of it:
//
//   - Namespaced calls: registered namespaces are called as ns:fn(args...),
//     e.g. math:max(a, b). The dotted form math.max(a, b) is accepted too.
//   - A variable catalog: every indexed-access chain an expression reads is
//     reported as a Reference before any value is known, so callers can
//     resolve exactly the values an expression needs.
//   - Strict results: evaluation fails unless the expression yields a boolean.
//
// Example expressions:
//
//	runtime['retries'] < 3
//	token['DQ1']['error'] == 0 && global['pipeline'] == 'orders'
//	math:max(toDouble(token['DQ1']['error']), toDouble(token['DQ2']['error'])) > runtime['max_error']
//
// Compiled expressions are cached by source text.
package expression
