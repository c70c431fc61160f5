package searchquery

// TermType discriminates the five shapes a top-level AST element can take.
type TermType string

const (
	TermTypeLogicBoolean TermType = "LogicBoolean"
	TermTypeLogicGroup   TermType = "LogicGroup"
	TermTypeFilter       TermType = "Filter"
	TermTypeFreeText     TermType = "FreeText"
	TermTypeSpaces       TermType = "Spaces"
)

// Term is the marker interface implemented by every top-level AST element.
// Concatenating NodeText() of every Term in order reconstructs the input
// exactly (the round-trip law, spec §3/§8).
type Term interface {
	termNode()
	NodeType() TermType
	NodeText() string
	NodeSpan() Span
}

// termMeta carries the fields every Term shares: its discriminator, exact
// source text, and byte span.
type termMeta struct {
	Type TermType `json:"type"`
	Text string   `json:"text"`
	Span Span     `json:"location"`
}

func (m termMeta) NodeType() TermType { return m.Type }
func (m termMeta) NodeText() string   { return m.Text }
func (m termMeta) NodeSpan() Span     { return m.Span }

// AST is the top-level, ordered sequence of terms produced by Parse.
type AST []Term

// LogicBooleanValue is the normalized operator a LogicBoolean term carries.
type LogicBooleanValue string

const (
	LogicAnd LogicBooleanValue = "AND"
	LogicOr  LogicBooleanValue = "OR"
)

// LogicBoolean is a top-level "AND"/"OR" term, recognized case-insensitively
// only when the FieldCatalog's AllowBoolean is set (otherwise it parses as
// FreeText instead).
type LogicBoolean struct {
	termMeta
	Value LogicBooleanValue `json:"value"`
}

func (LogicBoolean) termNode() {}

// LogicGroup is a parenthesized sub-query; Terms nests recursively and may
// itself contain LogicGroup terms.
type LogicGroup struct {
	termMeta
	Terms AST `json:"terms"`
}

func (LogicGroup) termNode() {}

// FreeText is any whitespace-delimited run that did not parse as a Filter,
// logical operator, or group. It contributes to full-text search semantics
// downstream.
type FreeText struct {
	termMeta
	Value  string `json:"value"`
	Quoted bool   `json:"quoted"`
}

func (FreeText) termNode() {}

// Spaces is one or more ASCII whitespace characters between terms.
type Spaces struct {
	termMeta
}

func (Spaces) termNode() {}

// InvalidReason is the structured verdict the post-parse validator attaches
// to a Filter that fails its semantic checks. A nil *InvalidReason on a
// Filter means the filter is valid.
type InvalidReason struct {
	Reason       string       `json:"reason"`
	ExpectedType []FilterType `json:"expectedType,omitempty"`
}

// Filter is the center of gravity of the AST: a key, an optional operator
// and value, negation, and — after validation — an invalid verdict.
type Filter struct {
	termMeta
	FilterType FilterType     `json:"filter"`
	Key        Key            `json:"key"`
	Value      Value          `json:"value,omitempty"`
	Operator   string         `json:"operator"`
	Negated    bool           `json:"negated"`
	Invalid    *InvalidReason `json:"invalid"`
}

func (Filter) termNode() {}
