// Package pyast wraps tree-sitter parsing of Python source. The rest of
// paramit treats a parsed Tree as an immutable template: extraction reads
// it, injection derives new source text from it, nothing mutates it.
package pyast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"paramit/internal/logging"
)

// SyntaxError is a file-and-line-qualified parse diagnostic.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Path, e.Line, e.Column, e.Near)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
}

// Tree is a parsed Python file plus the source bytes it was parsed from.
type Tree struct {
	Path   string
	Source []byte
	tree   *sitter.Tree
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node { return t.tree.RootNode() }

// Text returns the source text covered by a node.
func (t *Tree) Text(n *sitter.Node) string {
	return string(t.Source[n.StartByte():n.EndByte()])
}

// Close releases the tree-sitter allocation.
func (t *Tree) Close() { t.tree.Close() }

// Parser parses Python source files.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a parser bound to the Python grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Close releases the parser.
func (p *Parser) Close() { p.parser.Close() }

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string) (*Tree, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.Parse(path, content)
}

// Parse parses content and rejects trees containing syntax errors.
func (p *Parser) Parse(path string, content []byte) (*Tree, error) {
	start := time.Now()
	logging.ParserDebug("parsing %s (%d bytes)", filepath.Base(path), len(content))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("parse failed: %s - %v", path, err)
		return nil, err
	}

	root := tree.RootNode()
	if root.HasError() {
		serr := firstSyntaxError(root, path, content)
		tree.Close()
		logging.Get(logging.CategoryParser).Error("%v", serr)
		return nil, serr
	}

	logging.ParserDebug("parsed %s in %v", filepath.Base(path), time.Since(start))
	return &Tree{Path: path, Source: content, tree: tree}, nil
}

// firstSyntaxError locates the first ERROR or missing node in the tree.
func firstSyntaxError(root *sitter.Node, path string, content []byte) *SyntaxError {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	if found == nil {
		found = root
	}
	near := string(content[found.StartByte():found.EndByte()])
	if idx := strings.IndexByte(near, '\n'); idx >= 0 {
		near = near[:idx]
	}
	if len(near) > 40 {
		near = near[:40]
	}
	return &SyntaxError{
		Path:   path,
		Line:   int(found.StartPoint().Row) + 1,
		Column: int(found.StartPoint().Column) + 1,
		Near:   strings.TrimSpace(near),
	}
}
