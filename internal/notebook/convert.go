// Package notebook converts between Jupyter notebook documents and linear
// Python source in the percent format (cells delimited by "# %%"). It is
// used only at the mode/file-extension boundary: the rest of the pipeline
// always works on linear source text.
package notebook

import (
	"encoding/json"
	"fmt"
	"strings"

	"paramit/internal/logging"
)

const (
	cellMarker     = "# %%"
	markdownMarker = "# %% [markdown]"
)

type document struct {
	Cells         []cell                 `json:"cells"`
	Metadata      map[string]interface{} `json:"metadata"`
	NBFormat      int                    `json:"nbformat"`
	NBFormatMinor int                    `json:"nbformat_minor"`
}

type cell struct {
	CellType string                 `json:"cell_type"`
	Metadata map[string]interface{} `json:"metadata"`
	Source   []string               `json:"source"`
}

// ToSource converts .ipynb JSON into py:percent source text.
func ToSource(data []byte) (string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse notebook: %w", err)
	}

	var b strings.Builder
	for i, c := range doc.Cells {
		if i > 0 {
			b.WriteString("\n")
		}
		switch c.CellType {
		case "markdown":
			b.WriteString(markdownMarker + "\n")
			for _, line := range splitCellSource(c.Source) {
				if line == "" {
					b.WriteString("#\n")
				} else {
					b.WriteString("# " + line + "\n")
				}
			}
		default:
			b.WriteString(cellMarker + "\n")
			for _, line := range splitCellSource(c.Source) {
				b.WriteString(line + "\n")
			}
		}
	}

	logging.Get(logging.CategoryNotebook).Debug("converted %d cells to source", len(doc.Cells))
	return b.String(), nil
}

// FromSource converts py:percent source text into .ipynb JSON. Content
// before the first marker becomes an ordinary code cell.
func FromSource(source string) ([]byte, error) {
	lines := strings.Split(strings.TrimRight(source, "\n"), "\n")

	type rawCell struct {
		markdown bool
		lines    []string
	}
	var cells []rawCell
	current := rawCell{}
	flush := func() {
		if len(cells) > 0 || len(trimBlank(current.lines)) > 0 {
			current.lines = trimBlank(current.lines)
			cells = append(cells, current)
		}
	}

	started := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.HasPrefix(trimmed, cellMarker) {
			if started || len(trimBlank(current.lines)) > 0 {
				flush()
			}
			// Prefix match: titled cells carry text after the marker
			// ("# %% [markdown] Intro") and are still markdown.
			current = rawCell{markdown: strings.HasPrefix(trimmed, markdownMarker)}
			started = true
			continue
		}
		current.lines = append(current.lines, line)
	}
	flush()

	doc := document{
		Metadata:      map[string]interface{}{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}

	// Code and markdown cells have different required fields, so cells
	// are assembled as raw JSON objects.
	var encoded []json.RawMessage
	for _, rc := range cells {
		obj := map[string]interface{}{
			"metadata": map[string]interface{}{},
			"source":   joinCellLines(rc.lines),
		}
		if rc.markdown {
			obj["cell_type"] = "markdown"
			var md []string
			for _, line := range rc.lines {
				md = append(md, strings.TrimPrefix(strings.TrimPrefix(line, "# "), "#"))
			}
			obj["source"] = joinCellLines(md)
		} else {
			obj["cell_type"] = "code"
			obj["outputs"] = []interface{}{}
			obj["execution_count"] = nil
		}
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, raw)
	}

	out := map[string]interface{}{
		"cells":          encoded,
		"metadata":       doc.Metadata,
		"nbformat":       doc.NBFormat,
		"nbformat_minor": doc.NBFormatMinor,
	}
	return json.MarshalIndent(out, "", " ")
}

// splitCellSource normalizes the two source encodings notebooks use: a
// list of newline-terminated strings, or occasionally one joined string.
func splitCellSource(source []string) []string {
	joined := strings.Join(source, "")
	joined = strings.TrimRight(joined, "\n")
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\n")
}

// joinCellLines renders lines in the list-of-strings encoding, every line
// except the last carrying its trailing newline.
func joinCellLines(lines []string) []string {
	if len(lines) == 0 {
		return []string{}
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if i < len(lines)-1 {
			out[i] = line + "\n"
		} else {
			out[i] = line
		}
	}
	return out
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
