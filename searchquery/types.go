package searchquery

// Pos is a byte-offset position in query source, with line/column for
// diagnostics. Line and Column are both 1-indexed.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span is the half-open [Start,End) byte range a node occupies in the
// source query string. Every AST production carries one, not just leaves.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}
