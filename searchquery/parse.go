package searchquery

import "github.com/google/uuid"

// Parse recognizes query against the grammar in §6, consulting catalog for
// semantic predicates. It returns nil on grammar-level failure and never
// panics; a successful parse may still contain Filter nodes with a
// non-nil Invalid verdict, which is not a parse failure.
//
// Parse("") returns an empty, non-nil AST rather than nil — only a
// grammar-level failure (an unterminated quote, trailing unmatched
// structure) produces nil.
func Parse(query string, catalog *FieldCatalog) AST {
	ast, _ := parseInternal(query, catalog)
	return ast
}

// ParseDiagnostic is the opt-in diagnostic variant (§9's "parse-failure
// opacity" design note): on grammar failure it returns a *ParseError
// carrying position and a trace ID, instead of Parse's bare nil, for
// callers that want to render or log a message. The default null-on-
// failure behavior of Parse is unchanged.
func ParseDiagnostic(query string, catalog *FieldCatalog) (AST, *ParseError) {
	ast, err := parseInternal(query, catalog)
	if err != nil {
		err.TraceID = uuid.NewString()
	}
	return ast, err
}
