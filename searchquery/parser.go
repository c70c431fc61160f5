package searchquery

import (
	"strconv"
	"strings"
)

// parser drives a hand-written PEG-style recursive-descent grammar over a
// scanner. Each production attempts to match at the current position and
// restores the position on failure (mark/reset), so alternation can try
// several shapes without a separate tokenizing pass — the predicate hook
// (§4.4) needs to run inline, before an alternative commits, which a
// pre-tokenized stream would make awkward.
type parser struct {
	s   *scanner
	cat *FieldCatalog
}

func parseInternal(query string, catalog *FieldCatalog) (AST, *ParseError) {
	p := &parser{s: newScanner(query), cat: catalog}
	ast, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.s.eof() {
		return nil, &ParseError{
			Message: "unexpected trailing input",
			Pos:     p.s.posAt(p.s.pos),
			Got:     string(p.s.peek()),
		}
	}
	return ast, nil
}

// parseQuery implements `Query := Term (Space Term)*`. An empty input
// yields an empty, non-nil AST (boundary law, §8).
func (p *parser) parseQuery() (AST, *ParseError) {
	ast := AST{}
	for !p.s.eof() && p.s.peek() != ')' {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if term == nil {
			break
		}
		ast = append(ast, term)
	}
	return ast, nil
}

// parseTerm tries, in order, Spaces, LogicGroup, LogicBoolean, Filter,
// and finally FreeText as the catch-all.
func (p *parser) parseTerm() (Term, *ParseError) {
	if spaces, ok := p.tryParseSpaces(); ok {
		return spaces, nil
	}
	if group, ok, err := p.tryParseLogicGroup(); err != nil {
		return nil, err
	} else if ok {
		return group, nil
	}
	if boolean, ok := p.tryParseLogicBoolean(); ok {
		return boolean, nil
	}
	if filter, ok := p.tryParseFilter(); ok {
		return filter, nil
	}
	return p.parseFreeText()
}

func (p *parser) tryParseSpaces() (Spaces, bool) {
	start := p.s.mark()
	for !p.s.eof() && isASCIISpace(p.s.peek()) {
		p.s.advance()
	}
	if p.s.pos == start {
		return Spaces{}, false
	}
	return Spaces{termMeta{Type: TermTypeSpaces, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)}}, true
}

// tryParseLogicGroup implements `LogicGroup := "(" Query ")"`.
func (p *parser) tryParseLogicGroup() (LogicGroup, bool, *ParseError) {
	start := p.s.mark()
	if !p.s.matchByte('(') {
		return LogicGroup{}, false, nil
	}
	inner, err := p.parseQuery()
	if err != nil {
		p.s.reset(start)
		return LogicGroup{}, false, err
	}
	if !p.s.matchByte(')') {
		p.s.reset(start)
		return LogicGroup{}, false, nil
	}
	return LogicGroup{
		termMeta: termMeta{Type: TermTypeLogicGroup, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		Terms:    inner,
	}, true, nil
}

// tryParseLogicBoolean implements `LogicBool := "AND" | "OR"`, gated on
// AllowBoolean, and only when the match is immediately followed by a
// boundary (whitespace, '(', ')', or end of input) so "ANDROID" doesn't
// become a boolean plus stray text.
func (p *parser) tryParseLogicBoolean() (LogicBoolean, bool) {
	if p.cat == nil || !p.cat.AllowBoolean {
		return LogicBoolean{}, false
	}
	start := p.s.mark()
	var value LogicBooleanValue
	switch {
	case p.s.matchLiteralFold("and"):
		value = LogicAnd
	case p.s.matchLiteralFold("or"):
		value = LogicOr
	default:
		return LogicBoolean{}, false
	}
	if !p.atWordBoundary() {
		p.s.reset(start)
		return LogicBoolean{}, false
	}
	return LogicBoolean{
		termMeta: termMeta{Type: TermTypeLogicBoolean, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		Value:    value,
	}, true
}

func (p *parser) atWordBoundary() bool {
	if p.s.eof() {
		return true
	}
	ch := p.s.peek()
	return isASCIISpace(ch) || ch == '(' || ch == ')'
}

// isKeyChar matches KeySimple's bare-identifier alphabet:
// [A-Za-z_][A-Za-z0-9_.:-]*
func isKeyStartChar(ch byte) bool {
	return isAlpha(ch) || ch == '_'
}

func isKeyChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch) || ch == '_' || ch == '.' || ch == ':' || ch == '-'
}

// isFreeTextDelim marks the characters that end a bare (unquoted)
// non-delimited run: whitespace and the structural characters that bound
// groups and lists.
func isFreeTextDelim(ch byte) bool {
	return isASCIISpace(ch) || ch == '(' || ch == ')'
}

// tryParseFilter implements `Filter := ("!")? Key (":" Op? Value)?`. It
// tries Filter variants in the fixed order required by §4.2: aggregate
// before simple, in-list before scalar, typed value forms before generic
// text, with Text as the universal catch-all.
func (p *parser) tryParseFilter() (Filter, bool) {
	start := p.s.mark()

	negated := p.s.matchByte('!')

	key, ok := p.tryParseKey()
	if !ok {
		p.s.reset(start)
		return Filter{}, false
	}

	if !p.s.matchByte(':') {
		// KeySimple's alphabet includes ':', so a bare key runs straight
		// through the key/value separator (foo:bar). Split it at its first
		// ':' instead. A bare key with no ":" at all is not a filter shape
		// the grammar recognizes; fall through and let FreeText claim the run.
		ks, isSimple := key.(KeySimple)
		cut := strings.IndexByte(ks.Value, ':')
		if !isSimple || ks.Quoted || cut < 0 {
			p.s.reset(start)
			return Filter{}, false
		}
		keyStart := ks.Span.Start.Offset
		p.s.reset(keyStart + cut)
		raw := p.s.input[keyStart:p.s.pos]
		key = KeySimple{keyMeta: keyMeta{Type: KeyTypeSimple, Text: raw, Span: p.s.spanFrom(keyStart)}, Value: raw}
		p.s.matchByte(':')
	}

	op := p.tryParseOperator()

	keyName := KeyName(key)
	isFunction := key.KeyKind() == KeyTypeAggregate

	filter, ok := p.tryParseTypedFilterValue(start, key, keyName, isFunction, op, negated)
	if !ok {
		p.s.reset(start)
		return Filter{}, false
	}
	return filter, true
}

// tryParseKey implements `Key := KeyAggregate | KeyExplicitTag | KeySimple`,
// trying the more specific shapes first.
func (p *parser) tryParseKey() (Key, bool) {
	if tag, ok := p.tryParseExplicitTagKey(); ok {
		return tag, true
	}
	if agg, ok := p.tryParseAggregateKey(); ok {
		return agg, true
	}
	if simple, ok := p.tryParseSimpleKey(); ok {
		return simple, true
	}
	return nil, false
}

// tryParseSimpleKey implements `KeySimple := QuotedString | [A-Za-z_][A-Za-z0-9_.:-]*`.
func (p *parser) tryParseSimpleKey() (KeySimple, bool) {
	start := p.s.mark()
	if quoted, text, ok := p.tryParseQuotedString(); ok {
		return KeySimple{
			keyMeta: keyMeta{Type: KeyTypeSimple, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
			Value:   text,
			Quoted:  quoted,
		}, true
	}
	if p.s.eof() || !isKeyStartChar(p.s.peek()) {
		return KeySimple{}, false
	}
	for !p.s.eof() && isKeyChar(p.s.peek()) {
		p.s.advance()
	}
	raw := p.s.input[start:p.s.pos]
	return KeySimple{
		keyMeta: keyMeta{Type: KeyTypeSimple, Text: raw, Span: p.s.spanFrom(start)},
		Value:   raw,
		Quoted:  false,
	}, true
}

// tryParseExplicitTagKey implements `KeyExplTag := "tags[" KeySimple "]"`.
func (p *parser) tryParseExplicitTagKey() (KeyExplicitTag, bool) {
	start := p.s.mark()
	if !p.s.matchLiteralFold("tags[") {
		return KeyExplicitTag{}, false
	}
	inner, ok := p.tryParseSimpleKey()
	if !ok {
		p.s.reset(start)
		return KeyExplicitTag{}, false
	}
	if !p.s.matchByte(']') {
		p.s.reset(start)
		return KeyExplicitTag{}, false
	}
	return KeyExplicitTag{
		keyMeta: keyMeta{Type: KeyTypeExplicitTag, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		Prefix:  "tags",
		Key:     inner,
	}, true
}

// tryParseAggregateKey implements `KeyAggr := KeySimple "(" KeyAggrArgs? ")"`.
func (p *parser) tryParseAggregateKey() (KeyAggregate, bool) {
	start := p.s.mark()
	name, ok := p.tryParseSimpleKey()
	if !ok || !p.s.matchByte('(') {
		p.s.reset(start)
		return KeyAggregate{}, false
	}

	spaceBeforeStart := p.s.mark()
	for !p.s.eof() && isASCIISpace(p.s.peek()) {
		p.s.advance()
	}
	spaceBefore := p.s.pos != spaceBeforeStart

	var args *KeyAggregateArgs
	if p.s.peek() != ')' {
		parsed, ok := p.tryParseAggregateArgs()
		if !ok {
			p.s.reset(start)
			return KeyAggregate{}, false
		}
		args = &parsed
	} else {
		args = &KeyAggregateArgs{}
	}

	spaceAfterStart := p.s.mark()
	for !p.s.eof() && isASCIISpace(p.s.peek()) {
		p.s.advance()
	}
	spaceAfter := p.s.pos != spaceAfterStart

	if !p.s.matchByte(')') {
		p.s.reset(start)
		return KeyAggregate{}, false
	}

	return KeyAggregate{
		keyMeta:     keyMeta{Type: KeyTypeAggregate, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		Name:        name,
		Args:        args,
		SpaceBefore: spaceBefore,
		SpaceAfter:  spaceAfter,
	}, true
}

// tryParseAggregateArgs implements `KeyAggrArgs := Param ("," Param)*`,
// recording each argument's leading separator text (including any
// surrounding whitespace) exactly as written.
func (p *parser) tryParseAggregateArgs() (KeyAggregateArgs, bool) {
	var args []KeyAggregateArg

	first, ok := p.tryParseAggregateParam()
	if !ok {
		return KeyAggregateArgs{}, false
	}
	args = append(args, KeyAggregateArg{Separator: "", Value: first})

	for {
		sepStart := p.s.mark()
		for !p.s.eof() && isASCIISpace(p.s.peek()) {
			p.s.advance()
		}
		if p.s.peek() != ',' {
			p.s.reset(sepStart)
			break
		}
		p.s.advance()
		for !p.s.eof() && isASCIISpace(p.s.peek()) {
			p.s.advance()
		}
		sep := p.s.input[sepStart:p.s.pos]
		next, ok := p.tryParseAggregateParam()
		if !ok {
			return KeyAggregateArgs{}, false
		}
		args = append(args, KeyAggregateArg{Separator: sep, Value: next})
	}
	return KeyAggregateArgs{Args: args}, true
}

func (p *parser) tryParseAggregateParam() (KeyAggregateParam, bool) {
	if quoted, text, ok := p.tryParseQuotedString(); ok {
		return KeyAggregateParam{Value: text, Quoted: quoted}, true
	}
	start := p.s.mark()
	for !p.s.eof() && p.s.peek() != ',' && p.s.peek() != ')' && !isASCIISpace(p.s.peek()) {
		p.s.advance()
	}
	if p.s.pos == start {
		return KeyAggregateParam{}, false
	}
	return KeyAggregateParam{Value: p.s.input[start:p.s.pos], Quoted: false}, true
}

// tryParseQuotedString consumes a double-quoted string with backslash
// escapes. ok is false, without consuming, both when the current position
// is not a quote and when the quote never closes.
func (p *parser) tryParseQuotedString() (quoted bool, text string, ok bool) {
	if p.s.peek() != '"' {
		return false, "", false
	}
	start := p.s.mark()
	p.s.advance()
	var b strings.Builder
	for {
		if p.s.eof() {
			p.s.reset(start)
			return false, "", false
		}
		ch := p.s.advance()
		if ch == '\\' && !p.s.eof() {
			b.WriteByte(p.s.advance())
			continue
		}
		if ch == '"' {
			return true, b.String(), true
		}
		b.WriteByte(ch)
	}
}

// tryParseOperator implements `Op := ">=" | "<=" | ">" | "<" | "=" | "!="`,
// returning "" when no operator token is present (the default/implicit
// "=" per §3). Longer operators are tried first so "!=" isn't swallowed
// as "=" after a stray "!".
func (p *parser) tryParseOperator() string {
	for _, op := range []string{">=", "<=", "!=", ">", "<", "="} {
		if p.s.matchLiteralFold(op) {
			return op
		}
	}
	return ""
}

// tryParseTypedFilterValue tries each typed Filter variant in the fixed
// priority order from §4.2, consulting the semantic predicate (§4.4)
// before committing to a variant, then falls back to the is/has
// pseudo-fields and finally Text.
func (p *parser) tryParseTypedFilterValue(filterStart int, key Key, keyName string, isFunction bool, op string, negated bool) (Filter, bool) {
	type attempt struct {
		ft   FilterType
		try  func() (Value, bool)
		gate func() bool
	}

	columnArgs := AggregateColumnArgs(key)

	// gate wraps the §4.4 predicate table (predicateFilter) with the §6
	// FilterType table's key-kind admission rule (keyAllowed), so every
	// attempt is screened by both tables before it is tried.
	gate := func(ft FilterType) func() bool {
		return func() bool {
			return keyAllowed(ft, key.KeyKind()) && predicateFilter(p.cat, ft, keyName, isFunction)
		}
	}

	attempts := []attempt{
		{FilterNumericIn, p.tryParseValueNumberList, gate(FilterNumericIn)},
		{FilterTextIn, p.tryParseValueTextList, gate(FilterTextIn)},
		{FilterAggregateDuration, p.tryParseValueDuration, func() bool {
			return gate(FilterAggregateDuration)() && predicateAggregateDuration(p.cat, keyName, columnArgs)
		}},
		{FilterDuration, p.tryParseValueDuration, gate(FilterDuration)},
		{FilterAggregatePercentage, p.tryParseValuePercentage, gate(FilterAggregatePercentage)},
		{FilterAggregateNumeric, p.tryParseValueNumber, gate(FilterAggregateNumeric)},
		{FilterNumeric, p.tryParseValueNumber, gate(FilterNumeric)},
		{FilterBoolean, p.tryParseValueBoolean, gate(FilterBoolean)},
		{FilterAggregateDate, p.tryParseValueIso8601Date, gate(FilterAggregateDate)},
		{FilterSpecificDate, p.tryParseValueIso8601Date, gate(FilterSpecificDate)},
		{FilterAggregateRelativeDate, p.tryParseValueRelativeDate, gate(FilterAggregateRelativeDate)},
		{FilterRelativeDate, p.tryParseValueRelativeDate, gate(FilterRelativeDate)},
	}

	for _, a := range attempts {
		if !a.gate() {
			continue
		}
		mark := p.s.mark()
		val, ok := a.try()
		if !ok {
			p.s.reset(mark)
			continue
		}
		if !p.valueConsumesBoundary() {
			p.s.reset(mark)
			continue
		}
		ft := a.ft
		if ft == FilterSpecificDate && op != "" {
			// SpecificDate's operator set is "" only; any comparison
			// operator promotes to Date, its interchangeable superset.
			ft = FilterDate
		}
		if !opAllowed(ft, op) || (!canNegate(ft) && negated) {
			p.s.reset(mark)
			continue
		}
		return p.buildFilter(filterStart, ft, key, val, op, negated), true
	}

	if ks, ok := key.(KeySimple); ok {
		switch strings.ToLower(ks.Value) {
		case "is":
			if op == "" || op == "!=" {
				if val, vok := p.tryParseValueText(); vok {
					return p.buildFilter(filterStart, FilterIs, key, val, op, negated), true
				}
			}
		case "has":
			if op == "" || op == "!=" {
				mark := p.s.mark()
				if _, vok := p.tryParseValueText(); vok {
					return p.buildFilter(filterStart, FilterHas, key, nil, op, negated), true
				}
				p.s.reset(mark)
			}
		}
	}

	// Text is the universal catch-all: any key/value shape that parses
	// at all yields a valid-by-grammar text filter (§4.2) — except that a
	// comparison operator on a non-function key still needs
	// predicateTextOperator's go-ahead; "", "=" and "!=" are always
	// admitted. Function keys (e.g. count():>50) are exempt, matching
	// §4.4's unconditional admit for Text-as-function.
	if op != "" && op != "=" && op != "!=" && !isFunction && !predicateTextOperator(p.cat, keyName) {
		return Filter{}, false
	}
	val, ok := p.tryParseValueText()
	if !ok {
		return Filter{}, false
	}
	return p.buildFilter(filterStart, FilterText, key, val, op, negated), true
}

// valueConsumesBoundary requires that after a typed value is parsed, the
// next byte is a term boundary (space, '(', ')', or EOF), guarding
// against a typed attempt leaving trailing garbage glued onto the token.
func (p *parser) valueConsumesBoundary() bool {
	if p.s.eof() {
		return true
	}
	ch := p.s.peek()
	return isASCIISpace(ch) || ch == '(' || ch == ')'
}

func (p *parser) buildFilter(start int, ft FilterType, key Key, val Value, op string, negated bool) Filter {
	f := Filter{
		termMeta:   termMeta{Type: TermTypeFilter, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		FilterType: ft,
		Key:        key,
		Value:      val,
		Operator:   op,
		Negated:    negated,
	}
	f.Invalid = validateFilter(p.cat, &f)
	return f
}

// rawValueRun consumes a bare (unquoted, non-list) value run up to the
// next term boundary, list delimiter, or separator.
func (p *parser) rawValueRun() (string, int) {
	start := p.s.mark()
	for !p.s.eof() && !isFreeTextDelim(p.s.peek()) && p.s.peek() != ']' && p.s.peek() != ',' {
		p.s.advance()
	}
	return p.s.input[start:p.s.pos], start
}

func (p *parser) tryParseValueNumber() (Value, bool) {
	start := p.s.mark()
	raw, _ := p.rawValueRun()
	if raw == "" {
		return nil, false
	}
	numeral, unit, rawValue, ok := parseNumberLiteral(raw)
	if !ok {
		p.s.reset(start)
		return nil, false
	}
	return ValueNumber{
		valueMeta: valueMeta{Type: ValueTypeNumber, Text: raw, Span: p.s.spanFrom(start)},
		Value:     numeral,
		RawValue:  rawValue,
		Unit:      unit,
	}, true
}

func (p *parser) tryParseValueDuration() (Value, bool) {
	start := p.s.mark()
	raw, _ := p.rawValueRun()
	if raw == "" {
		return nil, false
	}
	value, unit, ok := parseDurationLiteral(raw)
	if !ok {
		p.s.reset(start)
		return nil, false
	}
	return ValueDuration{
		valueMeta: valueMeta{Type: ValueTypeDuration, Text: raw, Span: p.s.spanFrom(start)},
		Value:     value,
		Unit:      unit,
	}, true
}

func (p *parser) tryParseValuePercentage() (Value, bool) {
	start := p.s.mark()
	raw, _ := p.rawValueRun()
	if raw == "" || !strings.HasSuffix(raw, "%") {
		p.s.reset(start)
		return nil, false
	}
	numeral := strings.TrimSuffix(raw, "%")
	f, err := strconv.ParseFloat(numeral, 64)
	if err != nil {
		p.s.reset(start)
		return nil, false
	}
	return ValuePercentage{
		valueMeta: valueMeta{Type: ValueTypePercentage, Text: raw, Span: p.s.spanFrom(start)},
		Value:     f,
	}, true
}

func (p *parser) tryParseValueBoolean() (Value, bool) {
	start := p.s.mark()
	raw, _ := p.rawValueRun()
	if raw == "" || !isBooleanLiteral(raw) {
		p.s.reset(start)
		return nil, false
	}
	return ValueBoolean{
		valueMeta: valueMeta{Type: ValueTypeBoolean, Text: raw, Span: p.s.spanFrom(start)},
		Value:     parseBooleanLiteral(raw),
	}, true
}

func (p *parser) tryParseValueIso8601Date() (Value, bool) {
	start := p.s.mark()
	raw, _ := p.rawValueRun()
	if raw == "" {
		return nil, false
	}
	t, ok := parseIso8601(raw)
	if !ok {
		p.s.reset(start)
		return nil, false
	}
	return ValueIso8601Date{
		valueMeta: valueMeta{Type: ValueTypeIso8601Date, Text: raw, Span: p.s.spanFrom(start)},
		Value:     t,
	}, true
}

func (p *parser) tryParseValueRelativeDate() (Value, bool) {
	start := p.s.mark()
	raw, _ := p.rawValueRun()
	if raw == "" {
		return nil, false
	}
	sign, amount, unit, ok := parseRelativeDateLiteral(raw)
	if !ok {
		p.s.reset(start)
		return nil, false
	}
	return ValueRelativeDate{
		valueMeta: valueMeta{Type: ValueTypeRelativeDate, Text: raw, Span: p.s.spanFrom(start)},
		Value:     amount,
		Sign:      sign,
		Unit:      unit,
	}, true
}

func (p *parser) tryParseValueText() (Value, bool) {
	start := p.s.mark()
	if quoted, text, ok := p.tryParseQuotedString(); ok {
		return ValueText{
			valueMeta: valueMeta{Type: ValueTypeText, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
			Value:     text,
			Quoted:    quoted,
		}, true
	}
	raw, _ := p.rawValueRun()
	return ValueText{
		valueMeta: valueMeta{Type: ValueTypeText, Text: raw, Span: p.s.spanFrom(start)},
		Value:     raw,
		Quoted:    false,
	}, true
}

func (p *parser) tryParseValueTextList() (Value, bool) {
	start := p.s.mark()
	if !p.s.matchByte('[') {
		return nil, false
	}
	var items []ValueTextListItem
	sepStart := p.s.mark()
	for p.s.peek() != ']' {
		if p.s.eof() {
			p.s.reset(start)
			return nil, false
		}
		sep := p.s.input[sepStart:p.s.pos]
		itemStart := p.s.mark()
		var item ValueText
		if quoted, text, ok := p.tryParseQuotedString(); ok {
			item = ValueText{
				valueMeta: valueMeta{Type: ValueTypeText, Text: p.s.input[itemStart:p.s.pos], Span: p.s.spanFrom(itemStart)},
				Value:     text,
				Quoted:    quoted,
			}
		} else {
			vstart := p.s.mark()
			for !p.s.eof() && p.s.peek() != ',' && p.s.peek() != ']' {
				p.s.advance()
			}
			raw := p.s.input[vstart:p.s.pos]
			item = ValueText{
				valueMeta: valueMeta{Type: ValueTypeText, Text: raw, Span: p.s.spanFrom(vstart)},
				Value:     raw,
				Quoted:    false,
			}
		}
		items = append(items, ValueTextListItem{Separator: sep, Value: item})
		sepStart = p.s.mark()
		if p.s.peek() == ',' {
			p.s.advance()
			continue
		}
		break
	}
	if !p.s.matchByte(']') {
		p.s.reset(start)
		return nil, false
	}
	return ValueTextList{
		valueMeta: valueMeta{Type: ValueTypeTextList, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		Items:     items,
	}, true
}

func (p *parser) tryParseValueNumberList() (Value, bool) {
	start := p.s.mark()
	if !p.s.matchByte('[') {
		return nil, false
	}
	var items []ValueNumberListItem
	sepStart := p.s.mark()
	for p.s.peek() != ']' {
		if p.s.eof() {
			p.s.reset(start)
			return nil, false
		}
		sep := p.s.input[sepStart:p.s.pos]
		vstart := p.s.mark()
		for !p.s.eof() && p.s.peek() != ',' && p.s.peek() != ']' {
			p.s.advance()
		}
		raw := p.s.input[vstart:p.s.pos]
		numeral, unit, rawValue, ok := parseNumberLiteral(raw)
		if !ok {
			p.s.reset(start)
			return nil, false
		}
		items = append(items, ValueNumberListItem{
			Separator: sep,
			Value: ValueNumber{
				valueMeta: valueMeta{Type: ValueTypeNumber, Text: raw, Span: p.s.spanFrom(vstart)},
				Value:     numeral,
				RawValue:  rawValue,
				Unit:      unit,
			},
		})
		sepStart = p.s.mark()
		if p.s.peek() == ',' {
			p.s.advance()
			continue
		}
		break
	}
	if !p.s.matchByte(']') {
		p.s.reset(start)
		return nil, false
	}
	return ValueNumberList{
		valueMeta: valueMeta{Type: ValueTypeNumberList, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
		Items:     items,
	}, true
}

// parseFreeText implements the FreeText production: a quoted string or a
// run not ending in a structural delimiter, that did not parse as
// anything else. An unterminated quote fails the whole parse (§8).
func (p *parser) parseFreeText() (Term, *ParseError) {
	start := p.s.mark()
	if !p.s.eof() && p.s.peek() == '"' {
		if quoted, text, ok := p.tryParseQuotedString(); ok {
			return FreeText{
				termMeta: termMeta{Type: TermTypeFreeText, Text: p.s.input[start:p.s.pos], Span: p.s.spanFrom(start)},
				Value:    text,
				Quoted:   quoted,
			}, nil
		}
		return nil, &ParseError{
			Message: "unterminated quoted string",
			Pos:     p.s.posAt(start),
			Got:     `"`,
		}
	}
	for !p.s.eof() && !isFreeTextDelim(p.s.peek()) {
		p.s.advance()
	}
	if p.s.pos == start {
		return nil, nil
	}
	raw := p.s.input[start:p.s.pos]
	return FreeText{
		termMeta: termMeta{Type: TermTypeFreeText, Text: raw, Span: p.s.spanFrom(start)},
		Value:    raw,
		Quoted:   false,
	}, nil
}
