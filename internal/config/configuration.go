// Package config models the persisted paramit configuration: a nested
// "global" table mirroring the dotted qualified names of extracted
// literals, plus a "meta" table describing where the config came from.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"paramit/internal/logging"
)

// Version is written into the meta table of every generated config.
const Version = "0.1.0"

// Variable is one scalar literal discovered in the target program.
type Variable struct {
	QualifiedName string
	Value         TaggedValue
	SourceFile    string
	Line          int
	Column        int
}

func (v Variable) String() string {
	return fmt.Sprintf("%s = %s (%s) [%s:%d]",
		v.QualifiedName, v.Value, v.Value.Kind(), v.SourceFile, v.Line)
}

// Metadata is the meta table of a configuration file.
type Metadata struct {
	Version     string `toml:"version"`
	CreatedOn   string `toml:"created_on"`
	ScriptPath  string `toml:"script_path"`
	PackagePath string `toml:"package_path"`
}

// Configuration is the base configuration for a target script. Global is
// a nested mapping whose leaves are TaggedValues; intermediate levels are
// map[string]interface{} keyed by qualified-name segments.
type Configuration struct {
	Global map[string]interface{}
	Meta   Metadata
}

// Leaf is one dotted key and its value, produced by Flatten.
type Leaf struct {
	Key   string
	Value TaggedValue
}

// ValidationError reports a malformed or unusable configuration file.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Path, e.Reason)
}

// New folds a flat variable list into a Configuration. Qualified names are
// split on "." and intermediate maps created on demand. When two variables
// produce the same dotted path the later one wins; a diagnostic is logged
// since that usually means the script reassigns the variable. A leaf and a
// subtree competing for the same key also resolve later-entry-wins.
func New(vars []Variable, meta Metadata) *Configuration {
	log := logging.Get(logging.CategoryConfig)
	global := make(map[string]interface{})

	for _, v := range vars {
		parts := strings.Split(v.QualifiedName, ".")
		node := global
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				if _, exists := node[part]; exists {
					log.Warn("key %q shadows an earlier scalar in %s", part, v.QualifiedName)
				}
				child = make(map[string]interface{})
				node[part] = child
			}
			node = child
		}
		last := parts[len(parts)-1]
		if _, exists := node[last]; exists {
			log.Warn("duplicate qualified name %q: keeping the later assignment (%s:%d)",
				v.QualifiedName, v.SourceFile, v.Line)
		}
		node[last] = v.Value
	}

	return &Configuration{Global: global, Meta: meta}
}

// DeepCopy returns a configuration sharing no mutable structure with the
// receiver. Each experiment in a sweep owns one copy.
func (c *Configuration) DeepCopy() *Configuration {
	return &Configuration{
		Global: copyTree(c.Global),
		Meta:   c.Meta,
	}
}

func copyTree(node map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(node))
	for k, v := range node {
		if child, ok := v.(map[string]interface{}); ok {
			out[k] = copyTree(child)
		} else {
			out[k] = v // TaggedValue is an immutable value type
		}
	}
	return out
}

// TopLevelScalar returns the scalar stored at a non-nested key.
func (c *Configuration) TopLevelScalar(key string) (TaggedValue, bool) {
	v, ok := c.Global[key].(TaggedValue)
	return v, ok
}

// SetTopLevelScalar replaces the scalar at a non-nested key. The key must
// already hold a scalar; sweeps never create new parameters.
func (c *Configuration) SetTopLevelScalar(key string, v TaggedValue) error {
	if _, ok := c.Global[key].(TaggedValue); !ok {
		return fmt.Errorf("no scalar parameter %q", key)
	}
	c.Global[key] = v
	return nil
}

// ScalarKeys returns the sorted set of overridable (top-level scalar) keys.
func (c *Configuration) ScalarKeys() []string {
	keys := make([]string, 0, len(c.Global))
	for k, v := range c.Global {
		if _, ok := v.(TaggedValue); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// TopLevelScalars returns a flat view of the non-nested entries, the set
// the injector applies. Dotted keys are round-tripped through the config
// file and help output but intentionally never injected.
func (c *Configuration) TopLevelScalars() map[string]TaggedValue {
	out := make(map[string]TaggedValue)
	for k, v := range c.Global {
		if tv, ok := v.(TaggedValue); ok {
			out[k] = tv
		}
	}
	return out
}

// Flatten returns every leaf of Global as a dotted key, sorted.
func (c *Configuration) Flatten() []Leaf {
	var leaves []Leaf
	var walk func(prefix string, node map[string]interface{})
	walk = func(prefix string, node map[string]interface{}) {
		for k, v := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := v.(map[string]interface{}); ok {
				walk(key, child)
			} else if tv, ok := v.(TaggedValue); ok {
				leaves = append(leaves, Leaf{Key: key, Value: tv})
			}
		}
	}
	walk("", c.Global)
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Key < leaves[j].Key })
	return leaves
}

// Validate checks the metadata block. A loaded configuration is unusable
// when meta is incomplete or the referenced script is gone, and the run
// must stop rather than continue past a broken config.
func (c *Configuration) Validate(path string) error {
	if c.Meta.Version == "" || c.Meta.CreatedOn == "" || c.Meta.ScriptPath == "" {
		return &ValidationError{Path: path, Reason: "meta table is missing required fields"}
	}
	if _, err := os.Stat(c.Meta.ScriptPath); err != nil {
		return &ValidationError{
			Path:   path,
			Reason: fmt.Sprintf("script %s does not exist", c.Meta.ScriptPath),
		}
	}
	return nil
}
