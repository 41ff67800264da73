package expression

import (
	"strings"
	"unicode"

	"github.com/expr-lang/expr/ast"
)

// qualifyCalls rewrites namespaced calls (math:max(...)) into the member-call
// form expr-lang parses (math.max(...)). Only registered namespaces written
// without whitespace around the colon are rewritten, and string literals are
// left untouched, so ternaries such as `a ? b : c` keep their meaning.
func qualifyCalls(source string, isNamespace func(string) bool) string {
	if !strings.Contains(source, ":") {
		return source
	}

	src := []rune(source)
	var b strings.Builder
	b.Grow(len(source))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			end := skipString(src, i)
			b.WriteString(string(src[i:end]))
			i = end

		case isIdentStart(c):
			j := scanIdent(src, i)
			word := string(src[i:j])
			if j+1 < len(src) && src[j] == ':' && isIdentStart(src[j+1]) && isNamespace(word) {
				k := scanIdent(src, j+1)
				m := k
				for m < len(src) && unicode.IsSpace(src[m]) {
					m++
				}
				if m < len(src) && src[m] == '(' {
					b.WriteString(word)
					b.WriteRune('.')
					b.WriteString(string(src[j+1 : k]))
					i = k
					continue
				}
			}
			b.WriteString(word)
			i = j

		default:
			b.WriteRune(c)
			i++
		}
	}

	return b.String()
}

// skipString returns the index just past the string literal starting at i.
// An unterminated literal runs to the end of input; the parser reports it.
func skipString(src []rune, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch {
		case src[j] == '\\' && quote != '`':
			j++
		case src[j] == quote:
			return j + 1
		}
	}
	return len(src)
}

func scanIdent(src []rune, i int) int {
	for i < len(src) && isIdentPart(src[i]) {
		i++
	}
	return i
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// namespacedCallee reports the namespace and function name of a call whose
// callee is ns.fn.
func namespacedCallee(call *ast.CallNode) (namespace, name string, ok bool) {
	member, ok := call.Callee.(*ast.MemberNode)
	if !ok {
		return "", "", false
	}
	root, ok := member.Node.(*ast.IdentifierNode)
	if !ok {
		return "", "", false
	}
	prop, ok := member.Property.(*ast.StringNode)
	if !ok {
		return "", "", false
	}
	return root.Value, prop.Value, true
}

// namespacePatcher binds ns.fn(...) calls to the function registered as
// "ns.fn" so expr-lang dispatches them like any other registered function.
type namespacePatcher struct {
	registry *Registry
}

func (p *namespacePatcher) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok {
		return
	}
	ns, name, ok := namespacedCallee(call)
	if !ok || !p.registry.HasNamespace(ns) {
		return
	}
	fn, found := p.registry.Lookup(ns, name)
	if !found {
		return
	}
	ast.Patch(&call.Callee, &ast.IdentifierNode{Value: fn.exprName()})
}
