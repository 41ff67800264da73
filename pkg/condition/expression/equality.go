package expression

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm/runtime"
)

// Internal function names the equality operators are rewritten to. They are
// not valid identifiers in source text, so expressions cannot call them.
const (
	equalFunc    = "$equal"
	notEqualFunc = "$notEqual"
)

// equalityPatcher rewrites == and != into calls that reject operands of
// different kinds. expr-lang itself reports "5" == 5 as simply false.
type equalityPatcher struct{}

func (equalityPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok {
		return
	}
	var name string
	switch bin.Operator {
	case "==":
		name = equalFunc
	case "!=":
		name = notEqualFunc
	default:
		return
	}
	ast.Patch(node, &ast.CallNode{
		Callee:    &ast.IdentifierNode{Value: name},
		Arguments: []ast.Node{bin.Left, bin.Right},
	})
}

func equalityOptions() []expr.Option {
	return []expr.Option{
		expr.Function(equalFunc, func(args ...any) (any, error) {
			return strictEqual("==", args[0], args[1])
		}, new(func(any, any) bool)),
		expr.Function(notEqualFunc, func(args ...any) (any, error) {
			eq, err := strictEqual("!=", args[0], args[1])
			if err != nil {
				return nil, err
			}
			return !eq, nil
		}, new(func(any, any) bool)),
		expr.Patch(equalityPatcher{}),
	}
}

// strictEqual compares a and b the way expr-lang does, except that a string,
// a number and a boolean never compare with each other. nil compares with
// anything.
func strictEqual(op string, a, b any) (bool, error) {
	ka, kb := scalarKind(a), scalarKind(b)
	if ka != "" && kb != "" && ka != kb {
		return false, fmt.Errorf("cannot compare %T (%v) %s %T (%v): mismatched types", a, a, op, b, b)
	}
	return runtime.Equal(a, b), nil
}

// scalarKind names the comparison class of v, or "" for nil and for
// composite values.
func scalarKind(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case bool:
		return "bool"
	case string:
		return "string"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return ""
}
