package expression

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// MathNamespace is the namespace that exposes numeric helpers (math:max, ...).
const MathNamespace = "math"

// Func is the calling convention shared by every registered function.
type Func func(args ...any) (any, error)

// Function is a callable registered under an optional namespace.
// An empty Namespace means the function is called unqualified.
type Function struct {
	Namespace   string
	Name        string
	MinArgs     int
	MaxArgs     int // -1 for variadic
	Description string
	Fn          Func
}

// QualifiedName returns the name as written in expressions (e.g. "math:max").
func (f *Function) QualifiedName() string {
	if f.Namespace == "" {
		return f.Name
	}
	return f.Namespace + ":" + f.Name
}

// Signature renders the arity for listings, e.g. "math:max(a, b)".
func (f *Function) Signature() string {
	params := make([]string, 0, f.MinArgs)
	for i := 0; i < f.MinArgs; i++ {
		params = append(params, string(rune('a'+i)))
	}
	switch {
	case f.MaxArgs < 0:
		params = append(params, "...")
	case f.MaxArgs > f.MinArgs:
		params = append(params, "[...]")
	}
	return fmt.Sprintf("%s(%s)", f.QualifiedName(), strings.Join(params, ", "))
}

// exprName is the identifier the function is registered under in expr-lang.
func (f *Function) exprName() string {
	if f.Namespace == "" {
		return f.Name
	}
	return f.Namespace + "." + f.Name
}

func (f *Function) checkArity(n int) error {
	if n < f.MinArgs || (f.MaxArgs >= 0 && n > f.MaxArgs) {
		switch {
		case f.MinArgs == f.MaxArgs:
			return fmt.Errorf("%s expects %d argument(s), got %d", f.QualifiedName(), f.MinArgs, n)
		case f.MaxArgs < 0:
			return fmt.Errorf("%s expects at least %d argument(s), got %d", f.QualifiedName(), f.MinArgs, n)
		default:
			return fmt.Errorf("%s expects %d to %d arguments, got %d", f.QualifiedName(), f.MinArgs, f.MaxArgs, n)
		}
	}
	return nil
}

// Registry maps an optional namespace to a set of named functions.
// It is immutable once constructed and safe for concurrent use.
type Registry struct {
	namespaces map[string]map[string]*Function
}

// NewRegistry builds a registry from the given functions.
// A later function with the same qualified name replaces an earlier one.
func NewRegistry(functions ...*Function) *Registry {
	r := &Registry{namespaces: make(map[string]map[string]*Function)}
	for _, fn := range functions {
		if _, ok := r.namespaces[fn.Namespace]; !ok {
			r.namespaces[fn.Namespace] = make(map[string]*Function)
		}
		r.namespaces[fn.Namespace][fn.Name] = fn
	}
	return r
}

// DefaultRegistry returns the registry used by conditions: conversion helpers
// in the default namespace and numeric helpers in the math namespace.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&Function{Name: "toDouble", MinArgs: 1, MaxArgs: 1, Fn: toDouble,
			Description: "Converts a number or numeric string to a double"},
		&Function{Name: "toInt", MinArgs: 1, MaxArgs: 1, Fn: toInt,
			Description: "Converts a number or numeric string to an int"},
		&Function{Name: "toLong", MinArgs: 1, MaxArgs: 1, Fn: toLong,
			Description: "Converts a number or numeric string to a 64-bit integer"},
		&Function{Name: "toString", MinArgs: 1, MaxArgs: 1, Fn: toStringFunc,
			Description: "Formats any value as a string"},
		&Function{Name: "toBoolean", MinArgs: 1, MaxArgs: 1, Fn: toBoolean,
			Description: "Converts a boolean, number or boolean string to a boolean"},
		&Function{Name: "isEmpty", MinArgs: 1, MaxArgs: 1, Fn: isEmpty,
			Description: "Reports whether a value is nil or an empty string, list or map"},

		&Function{Namespace: MathNamespace, Name: "max", MinArgs: 2, MaxArgs: 2, Fn: mathMax,
			Description: "Larger of two numbers; NaN if either is NaN"},
		&Function{Namespace: MathNamespace, Name: "min", MinArgs: 2, MaxArgs: 2, Fn: mathMin,
			Description: "Smaller of two numbers; NaN if either is NaN"},
		&Function{Namespace: MathNamespace, Name: "abs", MinArgs: 1, MaxArgs: 1, Fn: mathAbs,
			Description: "Absolute value"},
		&Function{Namespace: MathNamespace, Name: "ceil", MinArgs: 1, MaxArgs: 1, Fn: floatUnary("math:ceil", math.Ceil),
			Description: "Least integer value greater than or equal to x"},
		&Function{Namespace: MathNamespace, Name: "floor", MinArgs: 1, MaxArgs: 1, Fn: floatUnary("math:floor", math.Floor),
			Description: "Greatest integer value less than or equal to x"},
		&Function{Namespace: MathNamespace, Name: "round", MinArgs: 1, MaxArgs: 1, Fn: floatUnary("math:round", math.Round),
			Description: "Nearest integer, rounding half away from zero"},
		&Function{Namespace: MathNamespace, Name: "sqrt", MinArgs: 1, MaxArgs: 1, Fn: floatUnary("math:sqrt", math.Sqrt),
			Description: "Square root"},
		&Function{Namespace: MathNamespace, Name: "pow", MinArgs: 2, MaxArgs: 2, Fn: mathPow,
			Description: "x raised to the power y"},
	)
}

// Lookup returns the function registered as namespace:name.
// Use an empty namespace for unqualified functions.
func (r *Registry) Lookup(namespace, name string) (*Function, bool) {
	fns, ok := r.namespaces[namespace]
	if !ok {
		return nil, false
	}
	fn, ok := fns[name]
	return fn, ok
}

// HasNamespace reports whether any function is registered under namespace.
func (r *Registry) HasNamespace(namespace string) bool {
	_, ok := r.namespaces[namespace]
	return ok
}

// Namespaces returns the qualified namespaces (excluding the default one), sorted.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.namespaces))
	for ns := range r.namespaces {
		if ns != "" {
			names = append(names, ns)
		}
	}
	sort.Strings(names)
	return names
}

// Functions returns every registered function ordered by qualified name,
// default namespace first.
func (r *Registry) Functions() []*Function {
	var all []*Function
	for _, fns := range r.namespaces {
		for _, fn := range fns {
			all = append(all, fn)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Namespace != all[j].Namespace {
			return all[i].Namespace < all[j].Namespace
		}
		return all[i].Name < all[j].Name
	})
	return all
}

// options converts the registry into expr-lang compile options.
func (r *Registry) options() []expr.Option {
	fns := r.Functions()
	opts := make([]expr.Option, 0, len(fns))
	for _, fn := range fns {
		opts = append(opts, expr.Function(fn.exprName(), func(args ...any) (any, error) {
			if err := fn.checkArity(len(args)); err != nil {
				return nil, err
			}
			return fn.Fn(args...)
		}))
	}
	return opts
}

// number is a numeric argument after promotion: integers stay integers
// until an operation needs a float.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

// asNumber accepts Go numeric kinds only. Strings are rejected so that
// conversions stay explicit (toDouble / toLong).
func asNumber(name string, v any) (number, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: rv.Int(), isInt: true}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return number{f: float64(u)}, nil
		}
		return number{i: int64(u), isInt: true}, nil
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float()}, nil
	default:
		return number{}, fmt.Errorf("%s: expected a number, got %T (%v)", name, v, v)
	}
}

func toDouble(args ...any) (any, error) {
	switch v := args[0].(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("toDouble: cannot convert %q to a number", v)
		}
		return f, nil
	default:
		n, err := asNumber("toDouble", v)
		if err != nil {
			return nil, err
		}
		return n.float(), nil
	}
}

func parseInteger(name string, v any) (int64, error) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: cannot convert %q to an integer", name, val)
		}
		return truncate(name, f)
	default:
		n, err := asNumber(name, v)
		if err != nil {
			return 0, err
		}
		if n.isInt {
			return n.i, nil
		}
		return truncate(name, n.f)
	}
}

// truncate drops the fraction of f; values outside the int64 range are an
// error instead of wrapping.
func truncate(name string, f float64) (int64, error) {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%s: %v is out of range for an integer", name, f)
	}
	return int64(f), nil
}

func toInt(args ...any) (any, error) {
	i, err := parseInteger("toInt", args[0])
	if err != nil {
		return nil, err
	}
	return int(i), nil
}

func toLong(args ...any) (any, error) {
	return parseInteger("toLong", args[0])
}

func toStringFunc(args ...any) (any, error) {
	switch v := args[0].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func toBoolean(args ...any) (any, error) {
	switch v := args[0].(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("toBoolean: cannot convert %q to a boolean", v)
		}
		return b, nil
	default:
		n, err := asNumber("toBoolean", v)
		if err != nil {
			return nil, err
		}
		return n.float() != 0, nil
	}
}

func isEmpty(args ...any) (any, error) {
	if args[0] == nil {
		return true, nil
	}
	rv := reflect.ValueOf(args[0])
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0, nil
	default:
		return false, nil
	}
}

func twoNumbers(name string, args []any) (number, number, error) {
	a, err := asNumber(name, args[0])
	if err != nil {
		return number{}, number{}, err
	}
	b, err := asNumber(name, args[1])
	if err != nil {
		return number{}, number{}, err
	}
	return a, b, nil
}

// mathMax follows math.Max for floats: NaN wins, +Inf beats everything.
func mathMax(args ...any) (any, error) {
	a, b, err := twoNumbers("math:max", args)
	if err != nil {
		return nil, err
	}
	if a.isInt && b.isInt {
		if a.i >= b.i {
			return a.i, nil
		}
		return b.i, nil
	}
	return math.Max(a.float(), b.float()), nil
}

func mathMin(args ...any) (any, error) {
	a, b, err := twoNumbers("math:min", args)
	if err != nil {
		return nil, err
	}
	if a.isInt && b.isInt {
		if a.i <= b.i {
			return a.i, nil
		}
		return b.i, nil
	}
	return math.Min(a.float(), b.float()), nil
}

func mathAbs(args ...any) (any, error) {
	n, err := asNumber("math:abs", args[0])
	if err != nil {
		return nil, err
	}
	if n.isInt {
		switch {
		case n.i == math.MinInt64:
			return math.Abs(float64(n.i)), nil
		case n.i < 0:
			return -n.i, nil
		}
		return n.i, nil
	}
	return math.Abs(n.f), nil
}

func mathPow(args ...any) (any, error) {
	a, b, err := twoNumbers("math:pow", args)
	if err != nil {
		return nil, err
	}
	return math.Pow(a.float(), b.float()), nil
}

func floatUnary(name string, fn func(float64) float64) Func {
	return func(args ...any) (any, error) {
		n, err := asNumber(name, args[0])
		if err != nil {
			return nil, err
		}
		return fn(n.float()), nil
	}
}
