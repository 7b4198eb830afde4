package pyast

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"paramit/internal/config"
)

// Literal classifies a node as one of the four scalar literal kinds and
// parses its value. Returns false for anything else: collections, calls,
// f-strings, byte strings, None, unary minus, arbitrary expressions.
func Literal(n *sitter.Node, source []byte) (config.TaggedValue, bool) {
	text := string(source[n.StartByte():n.EndByte()])
	switch n.Type() {
	case "integer":
		v, err := parsePyInt(text)
		if err != nil {
			return config.TaggedValue{}, false
		}
		return config.IntValue(v), true
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return config.TaggedValue{}, false
		}
		return config.FloatValue(f), true
	case "true":
		return config.BoolValue(true), true
	case "false":
		return config.BoolValue(false), true
	case "string":
		s, ok := unquotePyString(text)
		if !ok {
			return config.TaggedValue{}, false
		}
		return config.StringValue(s), true
	}
	return config.TaggedValue{}, false
}

// IsLiteralKind reports whether a node type names a scalar literal.
func IsLiteralKind(nodeType string) bool {
	switch nodeType {
	case "integer", "float", "true", "false", "string":
		return true
	}
	return false
}

// parsePyInt parses a Python integer literal, including 0x/0o/0b forms
// and underscore separators.
func parsePyInt(text string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
}

// unquotePyString strips prefixes and quotes from a plain string literal.
// f-strings and byte strings are rejected; raw strings keep their
// backslashes verbatim.
func unquotePyString(text string) (string, bool) {
	raw := false
	for len(text) > 0 {
		switch text[0] {
		case 'r', 'R':
			raw = true
			text = text[1:]
			continue
		case 'u', 'U':
			text = text[1:]
			continue
		case 'f', 'F', 'b', 'B':
			return "", false
		}
		break
	}

	var quote string
	switch {
	case strings.HasPrefix(text, `"""`) || strings.HasPrefix(text, "'''"):
		quote = text[:3]
	case strings.HasPrefix(text, `"`) || strings.HasPrefix(text, "'"):
		quote = text[:1]
	default:
		return "", false
	}
	if len(text) < 2*len(quote) || !strings.HasSuffix(text, quote) {
		return "", false
	}
	body := text[len(quote) : len(text)-len(quote)]
	if raw {
		return body, true
	}
	return unescapePyString(body), true
}

// unescapePyString handles the common escape sequences. Unrecognized
// escapes are left as-is, matching Python's behavior for them.
func unescapePyString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
