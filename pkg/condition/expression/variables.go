package expression

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
)

// Reference is one indexed-access path found in an expression, from the root
// identifier through every successive index: token['A']['error'] is
// Reference{"token", "A", "error"}.
type Reference []string

// Namespace returns the root segment.
func (r Reference) Namespace() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// String renders the reference in bracket form.
func (r Reference) String() string {
	if len(r) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(r[0])
	for _, seg := range r[1:] {
		b.WriteString("[")
		b.WriteString(strconv.Quote(seg))
		b.WriteString("]")
	}
	return b.String()
}

// catalog collects variable chains while ast.Walk visits the tree bottom-up.
// Every identifier and member node rooted at an identifier gets a chain;
// nodes that are part of a longer chain (or a callee) are marked inner and
// dropped at the end, leaving only maximal chains.
type catalog struct {
	chains    map[ast.Node]Reference
	inner     map[ast.Node]bool
	order     []ast.Node
	malformed []string
}

func newCatalog() *catalog {
	return &catalog{
		chains: make(map[ast.Node]Reference),
		inner:  make(map[ast.Node]bool),
	}
}

func (c *catalog) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		c.record(n, Reference{n.Value})

	case *ast.MemberNode:
		parent, ok := c.chains[n.Node]
		if !ok {
			return
		}
		c.inner[n.Node] = true
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			c.malformed = append(c.malformed,
				fmt.Sprintf("index into %s must be a quoted string literal", parent))
			return
		}
		chain := make(Reference, 0, len(parent)+1)
		chain = append(chain, parent...)
		chain = append(chain, prop.Value)
		c.record(n, chain)

	case *ast.CallNode:
		c.inner[n.Callee] = true
	}
}

func (c *catalog) record(node ast.Node, ref Reference) {
	c.chains[node] = ref
	c.order = append(c.order, node)
}

// references returns the maximal chains, deduplicated and sorted.
func (c *catalog) references() []Reference {
	seen := make(map[string]bool)
	var refs []Reference
	for _, node := range c.order {
		if c.inner[node] {
			continue
		}
		ref := c.chains[node]
		key := strings.Join(ref, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, func(a, b Reference) int {
		return slices.Compare(a, b)
	})
	return refs
}

// extractVariables walks a parsed tree and returns its variable references.
func extractVariables(root ast.Node) ([]Reference, []string) {
	c := newCatalog()
	ast.Walk(&root, c)
	return c.references(), c.malformed
}

// functionChecker verifies every call in the tree resolves to a registered
// function (or an expr-lang built-in) with an acceptable argument count.
type functionChecker struct {
	registry *Registry
	problems []string
}

func (v *functionChecker) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok {
		return
	}

	if ns, name, ok := namespacedCallee(call); ok {
		if !v.registry.HasNamespace(ns) {
			v.problems = append(v.problems, fmt.Sprintf("unknown function %s.%s", ns, name))
			return
		}
		fn, found := v.registry.Lookup(ns, name)
		if !found {
			v.problems = append(v.problems, fmt.Sprintf("unknown function %s:%s", ns, name))
			return
		}
		v.arity(fn, len(call.Arguments))
		return
	}

	ident, ok := call.Callee.(*ast.IdentifierNode)
	if !ok {
		v.problems = append(v.problems, "only registered functions can be called")
		return
	}
	if fn, found := v.registry.Lookup("", ident.Value); found {
		v.arity(fn, len(call.Arguments))
		return
	}
	if _, isBuiltin := builtin.Index[ident.Value]; isBuiltin {
		return
	}
	v.problems = append(v.problems, fmt.Sprintf("unknown function %s", ident.Value))
}

func (v *functionChecker) arity(fn *Function, n int) {
	if err := fn.checkArity(n); err != nil {
		v.problems = append(v.problems, err.Error())
	}
}

func checkFunctions(root ast.Node, registry *Registry) []string {
	v := &functionChecker{registry: registry}
	ast.Walk(&root, v)
	return v.problems
}
