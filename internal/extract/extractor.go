// Package extract walks a parsed Python tree and discovers the scalar
// literals a user may want to sweep over: module-level assignments,
// self.<attr> assignments inside __init__, and __init__ keyword defaults.
// Each discovery carries a dotted qualified name built from the lexical
// nesting of class definitions and call expressions.
package extract

import (
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"paramit/internal/config"
	"paramit/internal/logging"
	"paramit/internal/pyast"
)

// Variables extracts every scalar-literal variable from the tree in
// lexical order. Non-scalar right-hand sides (collections, calls,
// arbitrary expressions) are never extracted.
func Variables(tree *pyast.Tree) []config.Variable {
	w := &walker{tree: tree, file: filepath.Base(tree.Path)}
	w.walk(tree.Root(), "", false)
	logging.ExtractDebug("extracted %d variables from %s", len(w.vars), w.file)
	return w.vars
}

type walker struct {
	tree *pyast.Tree
	file string
	vars []config.Variable
}

// walk threads the dotted name prefix as an argument rather than keeping
// a mutable context stack, so nesting cannot unbalance push/pop pairs.
// inInit is true inside the body of a function named __init__.
func (w *walker) walk(n *sitter.Node, prefix string, inInit bool) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)

		switch child.Type() {
		case "class_definition":
			name := w.fieldText(child, "name")
			if name == "" {
				continue
			}
			w.walk(child, qualify(prefix, name), false)

		case "function_definition":
			name := w.fieldText(child, "name")
			init := name == "__init__"
			if init {
				w.recordInitDefaults(child, prefix)
			}
			if body := child.ChildByFieldName("body"); body != nil {
				w.walk(body, prefix, init)
			}

		case "call":
			// The callee name joins the prefix for the call's subtree,
			// so base-class constructor calls read as dotted context.
			if callee := w.calleeName(child); callee != "" {
				w.walk(child, qualify(prefix, callee), inInit)
			} else {
				w.walk(child, prefix, inInit)
			}

		case "assignment":
			w.recordAssignment(child, prefix, inInit)
			// A chained assignment nests on the right; recordAssignment
			// follows the chain itself, so no recursion here.

		default:
			w.walk(child, prefix, inInit)
		}
	}
}

// recordAssignment handles `name = <literal>` and `self.attr = <literal>`.
// Chained targets (a = b = 1) are each recorded independently.
func (w *walker) recordAssignment(n *sitter.Node, prefix string, inInit bool) {
	if n.ChildByFieldName("type") != nil {
		// Annotated assignments are left alone.
		return
	}

	var targets []*sitter.Node
	node := n
	for node != nil && node.Type() == "assignment" {
		if left := node.ChildByFieldName("left"); left != nil {
			targets = append(targets, left)
		}
		node = node.ChildByFieldName("right")
	}
	if node == nil {
		return
	}

	value, ok := w.scalarLiteral(node)
	if !ok {
		return
	}

	for _, target := range targets {
		switch target.Type() {
		case "identifier":
			w.record(qualify(prefix, w.tree.Text(target)), value, target)
		case "attribute":
			obj := target.ChildByFieldName("object")
			attr := target.ChildByFieldName("attribute")
			if inInit && obj != nil && attr != nil &&
				obj.Type() == "identifier" && w.tree.Text(obj) == "self" {
				w.record(qualify(prefix, w.tree.Text(attr)), value, target)
			}
		}
	}
}

// recordInitDefaults records scalar default values of __init__ keyword
// parameters, paired by parameter name.
func (w *walker) recordInitDefaults(fn *sitter.Node, prefix string) {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "default_parameter" && p.Type() != "typed_default_parameter" {
			continue
		}
		name := p.ChildByFieldName("name")
		value := p.ChildByFieldName("value")
		if name == nil || value == nil {
			continue
		}
		if v, ok := w.scalarLiteral(value); ok {
			w.record(qualify(prefix, w.tree.Text(name)), v, p)
		}
	}
}

func (w *walker) record(qualifiedName string, value config.TaggedValue, at *sitter.Node) {
	w.vars = append(w.vars, config.Variable{
		QualifiedName: qualifiedName,
		Value:         value,
		SourceFile:    w.file,
		Line:          int(at.StartPoint().Row) + 1,
		Column:        int(at.StartPoint().Column),
	})
}

// calleeName resolves the name a call is made through: the identifier
// itself, or the final attribute of a dotted callee.
func (w *walker) calleeName(call *sitter.Node) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return w.tree.Text(fn)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return w.tree.Text(attr)
		}
	}
	return ""
}

func (w *walker) scalarLiteral(n *sitter.Node) (config.TaggedValue, bool) {
	return pyast.Literal(n, w.tree.Source)
}

func (w *walker) fieldText(n *sitter.Node, field string) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return w.tree.Text(f)
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
