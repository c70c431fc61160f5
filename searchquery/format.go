package searchquery

import (
	"encoding/json"
	"strings"
)

// compactFieldOrder is the fixed column order for FormatCompact's tabular
// rendering: one row per top-level term, used by the CLI's
// "--format compact" mode.
var compactFieldOrder = []string{"type", "text", "filter", "key", "operator", "negated", "value", "invalid"}

// FormatCompact renders an AST as a CSV-style table, one row per
// top-level term, for terminal-friendly inspection. LogicGroup children
// are not expanded into additional rows; the group's own text already
// carries its nested content.
func FormatCompact(ast AST) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(compactFieldOrder, ","))
	b.WriteByte('\n')
	for _, term := range ast {
		row := compactRow(term)
		for i, field := range compactFieldOrder {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escapeCSV(row[field]))
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func compactRow(term Term) map[string]string {
	row := map[string]string{
		"type": string(term.NodeType()),
		"text": term.NodeText(),
	}
	filter, ok := term.(Filter)
	if !ok {
		return row
	}
	row["filter"] = string(filter.FilterType)
	row["key"] = KeyName(filter.Key)
	row["operator"] = filter.Operator
	if filter.Negated {
		row["negated"] = "true"
	}
	if filter.Value != nil {
		row["value"] = filter.Value.NodeText()
	}
	if filter.Invalid != nil {
		row["invalid"] = filter.Invalid.Reason
	}
	return row
}

// escapeCSV wraps a cell in double quotes, with internal quotes doubled,
// whenever it contains a comma, quote, or newline.
func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// formatJSON is the default (non-compact) rendering: the AST marshaled
// straight through its json tags.
func formatJSON(ast AST) ([]byte, error) {
	return json.MarshalIndent(ast, "", "  ")
}
