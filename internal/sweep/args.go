// Package sweep turns CLI override tokens into typed parameters and
// expands them against a base configuration into the full Cartesian
// product of experiment configurations.
package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"paramit/internal/config"
	"paramit/internal/logging"
)

// Parameter is one named override. One value mutates the base
// configuration; two or more values define a sweep dimension.
type Parameter struct {
	Name   string
	Kind   config.Kind
	Values []config.TaggedValue
}

// UsageError reports a malformed override token.
type UsageError struct {
	Token  string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("argument %s: %s", e.Token, e.Reason)
}

// ParseArgs tokenizes override arguments of the form --key=value or
// --key v1 v2 ... (bare values are consumed until the next -- token).
// Values split on commas; dashes in keys become underscores. Declaration
// order is preserved so expansion is reproducible. A repeated key keeps
// its first position and takes the later value list.
func ParseArgs(tokens []string) ([]Parameter, error) {
	var params []Parameter
	index := make(map[string]int)

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			continue
		}

		var key, rawValue string
		if eq := strings.Index(tok, "="); eq >= 0 {
			key = tok[2:eq]
			rawValue = tok[eq+1:]
		} else {
			key = tok[2:]
			var parts []string
			for i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "--") {
				parts = append(parts, tokens[i+1])
				i++
			}
			if len(parts) == 0 {
				return nil, &UsageError{Token: tok, Reason: "missing a value"}
			}
			rawValue = strings.Join(parts, ",")
		}

		key = strings.ReplaceAll(key, "-", "_")
		if key == "" {
			return nil, &UsageError{Token: tok, Reason: "missing an argument name"}
		}

		var values []string
		for _, v := range strings.Split(rawValue, ",") {
			values = append(values, strings.TrimSpace(v))
		}

		p := inferParameter(key, values)
		logging.SweepDebug("parsed override %s: %d value(s) as %s", p.Name, len(p.Values), p.Kind)

		if at, seen := index[key]; seen {
			params[at] = p
		} else {
			index[key] = len(params)
			params = append(params, p)
		}
	}
	return params, nil
}

// inferParameter applies type inference once over the whole value list,
// in strict priority order: Int, then Float, then Bool, then String.
func inferParameter(name string, raw []string) Parameter {
	if ints, ok := parseAll(raw, func(s string) (config.TaggedValue, bool) {
		n, err := strconv.ParseInt(s, 10, 64)
		return config.IntValue(n), err == nil
	}); ok {
		return Parameter{Name: name, Kind: config.KindInt, Values: ints}
	}

	if floats, ok := parseAll(raw, func(s string) (config.TaggedValue, bool) {
		f, err := strconv.ParseFloat(s, 64)
		return config.FloatValue(f), err == nil
	}); ok {
		return Parameter{Name: name, Kind: config.KindFloat, Values: floats}
	}

	if bools, ok := parseAll(raw, func(s string) (config.TaggedValue, bool) {
		switch strings.ToLower(s) {
		case "true":
			return config.BoolValue(true), true
		case "false":
			return config.BoolValue(false), true
		}
		return config.TaggedValue{}, false
	}); ok {
		return Parameter{Name: name, Kind: config.KindBool, Values: bools}
	}

	values := make([]config.TaggedValue, len(raw))
	for i, s := range raw {
		values[i] = config.StringValue(s)
	}
	return Parameter{Name: name, Kind: config.KindString, Values: values}
}

func parseAll(raw []string, parse func(string) (config.TaggedValue, bool)) ([]config.TaggedValue, bool) {
	values := make([]config.TaggedValue, len(raw))
	for i, s := range raw {
		v, ok := parse(s)
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
