// Package inject produces rewritten Python source from a parsed template
// and a configuration. The template is never mutated: each call derives a
// fresh byte slice, so one tree can serve every experiment in a sweep.
package inject

import (
	"fmt"
	"sort"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"paramit/internal/config"
	"paramit/internal/logging"
	"paramit/internal/pyast"
)

// TypeMismatchError reports a rewrite that cannot preserve the literal's
// syntactic kind. There is no recovery: silently changing a literal's
// type would corrupt the program being run.
type TypeMismatchError struct {
	Name        string
	LiteralKind config.Kind
	ValueKind   config.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot rewrite %s: source literal is %s but config value is %s",
		e.Name, e.LiteralKind, e.ValueKind)
}

type edit struct {
	start, end uint32
	text       string
}

// Rewrite replaces every bare-name scalar-literal assignment whose target
// matches a key in globals, preserving each literal's original kind.
// Dotted (qualified) config keys are intentionally not applied; they
// round-trip through the config file but never change the program.
func Rewrite(tree *pyast.Tree, globals map[string]config.TaggedValue) ([]byte, error) {
	var edits []edit
	if err := collectEdits(tree.Root(), tree, globals, &edits); err != nil {
		return nil, err
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	src := tree.Source
	out := make([]byte, 0, len(src))
	var pos uint32
	for _, e := range edits {
		out = append(out, src[pos:e.start]...)
		out = append(out, e.text...)
		pos = e.end
	}
	out = append(out, src[pos:]...)

	logging.Get(logging.CategoryConfig).Debug("injected %d literals into %s", len(edits), tree.Path)
	return out, nil
}

func collectEdits(n *sitter.Node, tree *pyast.Tree, globals map[string]config.TaggedValue, edits *[]edit) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "assignment" {
			if err := collectEdits(child, tree, globals, edits); err != nil {
				return err
			}
			continue
		}

		// Follow a = b = <literal> chains: all bare targets share one
		// literal node, so the last matching target decides its value.
		var targets []string
		node := child
		for node != nil && node.Type() == "assignment" {
			if left := node.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				targets = append(targets, tree.Text(left))
			}
			node = node.ChildByFieldName("right")
		}
		if node == nil || !pyast.IsLiteralKind(node.Type()) {
			continue
		}

		for _, name := range targets {
			value, ok := globals[name]
			if !ok {
				continue
			}
			// An unchanged value keeps the original literal text, so an
			// extract-then-inject round trip reproduces the source byte
			// for byte (quote style, hex form, and all).
			if current, ok := pyast.Literal(node, tree.Source); ok && current == value {
				removeSpan(edits, node.StartByte(), node.EndByte())
				continue
			}
			text, err := renderAs(node.Type(), name, value)
			if err != nil {
				return err
			}
			replaceSpan(edits, edit{start: node.StartByte(), end: node.EndByte(), text: text})
		}
	}
	return nil
}

// removeSpan drops any pending edit for the span; the later target of a
// chained assignment decides, and it decided to keep the original text.
func removeSpan(edits *[]edit, start, end uint32) {
	for i := range *edits {
		if (*edits)[i].start == start && (*edits)[i].end == end {
			*edits = append((*edits)[:i], (*edits)[i+1:]...)
			return
		}
	}
}

// replaceSpan appends an edit, overwriting any earlier edit for the same
// span (chained targets rewriting the same literal).
func replaceSpan(edits *[]edit, e edit) {
	for i := range *edits {
		if (*edits)[i].start == e.start && (*edits)[i].end == e.end {
			(*edits)[i] = e
			return
		}
	}
	*edits = append(*edits, e)
}

// renderAs renders value as a literal of the node's original kind.
// An int value may widen into a float literal; every other cross-kind
// combination is a type mismatch.
func renderAs(nodeType, name string, v config.TaggedValue) (string, error) {
	switch nodeType {
	case "integer":
		if v.Kind() == config.KindInt {
			return v.String(), nil
		}
	case "float":
		switch v.Kind() {
		case config.KindFloat:
			return v.String(), nil
		case config.KindInt:
			widened, _ := v.Coerce(config.KindFloat)
			return widened.String(), nil
		}
	case "true", "false":
		if v.Kind() == config.KindBool {
			return v.String(), nil
		}
	case "string":
		if v.Kind() == config.KindString {
			return strconv.Quote(v.Str()), nil
		}
	}
	return "", &TypeMismatchError{
		Name:        name,
		LiteralKind: literalKindOf(nodeType),
		ValueKind:   v.Kind(),
	}
}

func literalKindOf(nodeType string) config.Kind {
	switch nodeType {
	case "integer":
		return config.KindInt
	case "float":
		return config.KindFloat
	case "true", "false":
		return config.KindBool
	default:
		return config.KindString
	}
}
