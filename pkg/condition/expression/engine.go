package expression

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/tombee/conditional/pkg/errors"
)

// ExpressionProperty is the configuration property compile failures are reported against.
const ExpressionProperty = "expression"

// Compiled is a parsed, validated and compiled expression.
// It is immutable and safe to share between goroutines.
type Compiled struct {
	source  string
	program *vm.Program
	refs    []Reference
}

// Source returns the expression text exactly as it was compiled.
func (c *Compiled) Source() string {
	return c.source
}

// Variables returns every distinct indexed-access path the expression reads,
// in lexicographic order. The slice is a copy.
func (c *Compiled) Variables() []Reference {
	out := make([]Reference, len(c.refs))
	for i, ref := range c.refs {
		out[i] = append(Reference(nil), ref...)
	}
	return out
}

// Engine compiles and evaluates condition expressions.
// Compiled forms are cached by their exact source text.
type Engine struct {
	registry *Registry
	cache    map[string]*Compiled
	mu       sync.RWMutex
}

// New creates an engine backed by the default function registry.
func New() *Engine {
	return NewWithRegistry(DefaultRegistry())
}

// NewWithRegistry creates an engine that resolves calls against registry.
func NewWithRegistry(registry *Registry) *Engine {
	return &Engine{
		registry: registry,
		cache:    make(map[string]*Compiled),
	}
}

// Registry returns the function registry the engine compiles against.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Lookup returns the cached compiled form of source, if any.
func (e *Engine) Lookup(source string) (*Compiled, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cache[source]
	return c, ok
}

// Compile parses and validates source, returning the cached form when the
// same text was compiled before. Failures are *errors.CompileError.
func (e *Engine) Compile(source string) (*Compiled, error) {
	if c, ok := e.Lookup(source); ok {
		return c, nil
	}

	compiled, err := e.compile(source)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another goroutine may have won the race; keep its entry.
	if existing, ok := e.cache[source]; ok {
		return existing, nil
	}
	e.cache[source] = compiled
	return compiled, nil
}

func (e *Engine) compile(source string) (*Compiled, error) {
	if strings.TrimSpace(source) == "" {
		return nil, compileError(source, "expression is empty", nil)
	}

	rewritten := qualifyCalls(source, e.registry.HasNamespace)

	tree, err := parser.Parse(rewritten)
	if err != nil {
		return nil, compileError(source, err.Error(), err)
	}

	if problems := checkFunctions(tree.Node, e.registry); len(problems) > 0 {
		return nil, compileError(source, strings.Join(problems, "; "), nil)
	}

	refs, malformed := extractVariables(tree.Node)
	if len(malformed) > 0 {
		return nil, compileError(source, strings.Join(malformed, "; "), nil)
	}

	opts := append(e.registry.options(),
		expr.AllowUndefinedVariables(),
		expr.Patch(&namespacePatcher{registry: e.registry}),
	)
	opts = append(opts, equalityOptions()...)
	program, err := expr.Compile(rewritten, opts...)
	if err != nil {
		return nil, compileError(source, err.Error(), err)
	}

	return &Compiled{
		source:  source,
		program: program,
		refs:    refs,
	}, nil
}

// Evaluate runs a compiled expression against env, which maps each namespace
// name to its bound values. The result must be a boolean: numbers, strings
// and nil are rejected rather than coerced.
func (e *Engine) Evaluate(c *Compiled, env map[string]any) (bool, error) {
	result, err := expr.Run(c.program, env)
	if err != nil {
		return false, &errors.EvaluationError{
			Expression: c.source,
			Message:    err.Error(),
			Cause:      err,
		}
	}

	b, ok := result.(bool)
	if !ok {
		return false, &errors.EvaluationError{
			Expression: c.source,
			Message:    fmt.Sprintf("expression must return a boolean, got %T (%v)", result, result),
		}
	}
	return b, nil
}

// ClearCache drops every compiled expression.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*Compiled)
	e.mu.Unlock()
}

// CacheSize returns the number of cached expressions.
func (e *Engine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func compileError(source, message string, cause error) *errors.CompileError {
	return &errors.CompileError{
		Property:   ExpressionProperty,
		Expression: source,
		Message:    message,
		Cause:      cause,
	}
}
