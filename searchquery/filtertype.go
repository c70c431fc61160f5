package searchquery

// FilterType discriminates the 16 shapes a Filter node can take. Its
// static table screens every typed attempt at parse time (key kind,
// operator, negation) instead of scattered type switches; the post-parse
// validator does not consult it.
type FilterType string

const (
	FilterText                  FilterType = "Text"
	FilterTextIn                FilterType = "TextIn"
	FilterDate                  FilterType = "Date"
	FilterSpecificDate          FilterType = "SpecificDate"
	FilterRelativeDate          FilterType = "RelativeDate"
	FilterDuration              FilterType = "Duration"
	FilterNumeric               FilterType = "Numeric"
	FilterNumericIn             FilterType = "NumericIn"
	FilterBoolean               FilterType = "Boolean"
	FilterAggregateDuration     FilterType = "AggregateDuration"
	FilterAggregateNumeric      FilterType = "AggregateNumeric"
	FilterAggregatePercentage   FilterType = "AggregatePercentage"
	FilterAggregateDate         FilterType = "AggregateDate"
	FilterAggregateRelativeDate FilterType = "AggregateRelativeDate"
	FilterHas                   FilterType = "Has"
	FilterIs                    FilterType = "Is"
)

// allFilterTypes lists all 16 variants, in the order they appear in the
// §6 table, for tests and introspection that need to enumerate them.
var allFilterTypes = []FilterType{
	FilterText, FilterTextIn,
	FilterDate, FilterSpecificDate, FilterRelativeDate,
	FilterDuration, FilterNumeric, FilterNumericIn, FilterBoolean,
	FilterAggregateDuration, FilterAggregateNumeric, FilterAggregatePercentage,
	FilterAggregateDate, FilterAggregateRelativeDate,
	FilterHas, FilterIs,
}

// filterTypeConfig is one row of the §6 FilterType table: which key
// variants, operators, value variants, and negation a filter of this type
// may carry.
type filterTypeConfig struct {
	validKeys   []KeyType
	validOps    []string // "" is admitted only when listed; "all" sentinel handled via allOps
	allOps      bool
	validValues []ValueType
	canNegate   bool
}

var allComparisonOps = []string{"", "=", "!=", ">", ">=", "<", "<="}

var filterTypeTable = map[FilterType]filterTypeConfig{
	FilterText: {
		// Aggregate keys are included alongside Simple/ExplicitTag: §4.2/§4.4
		// make Text the universal catch-all, including the function-key
		// fallback (e.g. count():>notanumber, scenario 6). allOps mirrors
		// that: an operator already consumed by a failed typed attempt
		// still reaches Text rather than being rejected a second time.
		validKeys:   []KeyType{KeyTypeSimple, KeyTypeExplicitTag, KeyTypeAggregate},
		allOps:      true,
		validValues: []ValueType{ValueTypeText},
		canNegate:   true,
	},
	FilterTextIn: {
		validKeys:   []KeyType{KeyTypeSimple, KeyTypeExplicitTag},
		validOps:    []string{""},
		validValues: []ValueType{ValueTypeTextList},
		canNegate:   true,
	},
	FilterDate: {
		validKeys:   []KeyType{KeyTypeSimple},
		allOps:      true,
		validValues: []ValueType{ValueTypeIso8601Date},
		canNegate:   false,
	},
	FilterSpecificDate: {
		validKeys:   []KeyType{KeyTypeSimple},
		validOps:    []string{""},
		validValues: []ValueType{ValueTypeIso8601Date},
		canNegate:   false,
	},
	FilterRelativeDate: {
		validKeys:   []KeyType{KeyTypeSimple},
		validOps:    []string{""},
		validValues: []ValueType{ValueTypeRelativeDate},
		canNegate:   false,
	},
	FilterDuration: {
		validKeys:   []KeyType{KeyTypeSimple},
		allOps:      true,
		validValues: []ValueType{ValueTypeDuration},
		canNegate:   true,
	},
	FilterNumeric: {
		validKeys:   []KeyType{KeyTypeSimple},
		allOps:      true,
		validValues: []ValueType{ValueTypeNumber},
		canNegate:   true,
	},
	FilterNumericIn: {
		validKeys:   []KeyType{KeyTypeSimple},
		validOps:    []string{""},
		validValues: []ValueType{ValueTypeNumberList},
		canNegate:   true,
	},
	FilterBoolean: {
		validKeys:   []KeyType{KeyTypeSimple},
		validOps:    []string{"", "!="},
		validValues: []ValueType{ValueTypeBoolean},
		canNegate:   true,
	},
	FilterAggregateDuration: {
		validKeys:   []KeyType{KeyTypeAggregate},
		allOps:      true,
		validValues: []ValueType{ValueTypeDuration},
		canNegate:   true,
	},
	FilterAggregateNumeric: {
		validKeys:   []KeyType{KeyTypeAggregate},
		allOps:      true,
		validValues: []ValueType{ValueTypeNumber},
		canNegate:   true,
	},
	FilterAggregatePercentage: {
		validKeys:   []KeyType{KeyTypeAggregate},
		allOps:      true,
		validValues: []ValueType{ValueTypePercentage},
		canNegate:   true,
	},
	FilterAggregateDate: {
		validKeys:   []KeyType{KeyTypeAggregate},
		allOps:      true,
		validValues: []ValueType{ValueTypeIso8601Date},
		canNegate:   true,
	},
	FilterAggregateRelativeDate: {
		validKeys:   []KeyType{KeyTypeAggregate},
		allOps:      true,
		validValues: []ValueType{ValueTypeRelativeDate},
		canNegate:   true,
	},
	FilterHas: {
		validKeys:   []KeyType{KeyTypeSimple},
		validOps:    []string{"", "!="},
		validValues: nil,
		canNegate:   true,
	},
	FilterIs: {
		validKeys:   []KeyType{KeyTypeSimple},
		validOps:    []string{"", "!="},
		validValues: []ValueType{ValueTypeText},
		canNegate:   true,
	},
}

// interchangeable records filter types whose operator sets are merged
// when a downstream consumer computes "admissible operators" for a key
// (currently only Date <-> SpecificDate, per the glossary).
var interchangeable = map[FilterType][]FilterType{
	FilterSpecificDate: {FilterDate},
	FilterDate:         {FilterSpecificDate},
}

// validOperators returns the operator set admissible for ft, expanding
// the "all" sentinel into the full comparison-operator list.
func (c filterTypeConfig) validOperators() []string {
	if c.allOps {
		return allComparisonOps
	}
	return c.validOps
}

// opAllowed reports whether op is admissible for filter type ft.
func opAllowed(ft FilterType, op string) bool {
	cfg, ok := filterTypeTable[ft]
	if !ok {
		return false
	}
	for _, o := range cfg.validOperators() {
		if o == op {
			return true
		}
	}
	return false
}

// keyAllowed reports whether a key of kind kt may back a filter of type ft.
func keyAllowed(ft FilterType, kt KeyType) bool {
	cfg, ok := filterTypeTable[ft]
	if !ok {
		return false
	}
	for _, k := range cfg.validKeys {
		if k == kt {
			return true
		}
	}
	return false
}

// valueAllowed reports whether a value of kind vt may back a filter of
// type ft. Filter types with no value variant (Has) accept only the
// absence of a value, signaled by passing ValueType("").
func valueAllowed(ft FilterType, vt ValueType) bool {
	cfg, ok := filterTypeTable[ft]
	if !ok {
		return false
	}
	if len(cfg.validValues) == 0 {
		return vt == ValueType("")
	}
	for _, v := range cfg.validValues {
		if v == vt {
			return true
		}
	}
	return false
}

// canNegate reports whether filters of type ft may carry a leading "!".
func canNegate(ft FilterType) bool {
	cfg, ok := filterTypeTable[ft]
	return ok && cfg.canNegate
}
