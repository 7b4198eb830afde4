package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"paramit/internal/logging"
)

// fileLayout is the on-disk shape: [global] and [meta] tables.
type fileLayout struct {
	Global map[string]interface{} `toml:"global"`
	Meta   Metadata               `toml:"meta"`
}

// Save writes the configuration as TOML to path.
func (c *Configuration) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	layout := fileLayout{Global: untagTree(c.Global), Meta: c.Meta}
	if err := toml.NewEncoder(f).Encode(layout); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	logging.Get(logging.CategoryConfig).Info("wrote config to %s", path)
	return nil
}

// Load reads a TOML configuration from path. Leaf scalars are re-tagged
// with the kind TOML preserved for them (int/float/bool/string), so a
// round trip through disk keeps every value's kind.
func Load(path string) (*Configuration, error) {
	var layout fileLayout
	if _, err := toml.DecodeFile(path, &layout); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	global, err := retagTree(layout.Global)
	if err != nil {
		return nil, &ValidationError{Path: path, Reason: err.Error()}
	}
	if global == nil {
		global = make(map[string]interface{})
	}
	return &Configuration{Global: global, Meta: layout.Meta}, nil
}

// untagTree converts TaggedValue leaves to plain scalars for encoding.
func untagTree(node map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(node))
	for k, v := range node {
		switch v := v.(type) {
		case map[string]interface{}:
			out[k] = untagTree(v)
		case TaggedValue:
			out[k] = v.Interface()
		default:
			out[k] = v
		}
	}
	return out
}

// retagTree converts decoded scalars back into TaggedValue leaves.
func retagTree(node map[string]interface{}) (map[string]interface{}, error) {
	if node == nil {
		return nil, nil
	}
	out := make(map[string]interface{}, len(node))
	for k, v := range node {
		if child, ok := v.(map[string]interface{}); ok {
			sub, err := retagTree(child)
			if err != nil {
				return nil, err
			}
			out[k] = sub
			continue
		}
		tv, err := FromInterface(v)
		if err != nil {
			return nil, fmt.Errorf("global.%s: %v", k, err)
		}
		out[k] = tv
	}
	return out, nil
}
