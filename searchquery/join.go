package searchquery

import "strings"

// Join reconstructs query source from an AST by concatenating each
// top-level node's text; a LogicGroup's text already spans its nested
// terms, so Join does not recurse into them. With both
// optional flags left false, Join(Parse(q)) == q for any q that parses
// (the round-trip law, §4.6/§8).
//
// leadingSpace prepends a single space when ast is non-empty.
// additionalSpaceBetween inserts a single space between every pair of
// top-level nodes, on top of whatever Spaces nodes are already present —
// callers reconstructing a query from a filtered/edited node list (which
// may have dropped the original Spaces terms) use this to keep the
// result readable.
func Join(ast AST, leadingSpace bool, additionalSpaceBetween bool) string {
	var b strings.Builder
	if leadingSpace && len(ast) > 0 {
		b.WriteByte(' ')
	}
	for i, term := range ast {
		if additionalSpaceBetween && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(term.NodeText())
	}
	return b.String()
}
