package searchquery

import (
	"strconv"
	"strings"
)

// validateFilter implements the §4.5 post-parse validator. It is called
// once, by the Filter token constructor, after the filter's shape
// (FilterType, Key, Value, Operator, Negated) is fixed. It never mutates
// its inputs and never short-circuits a parse; a nil result means the
// filter is valid.
func validateFilter(cat *FieldCatalog, f *Filter) *InvalidReason {
	keyName := KeyName(f.Key)
	isFunction := cat.isFunctionKey(keyName) || f.Key.KeyKind() == KeyTypeAggregate

	// 4.5.3 runs first for aggregate-shaped filters: it is the most
	// specific rule and takes priority per "first failure wins".
	if isAggregateFilterType(f.FilterType) {
		if reason := validateAggregateFilter(cat, f, keyName); reason != nil {
			return reason
		}
		return nil
	}

	// 4.5.4 in-lists.
	if f.FilterType == FilterTextIn {
		if reason := validateTextInList(f); reason != nil {
			return reason
		}
		return nil
	}
	if f.FilterType == FilterNumericIn {
		if reason := validateNumericInList(f); reason != nil {
			return reason
		}
		return nil
	}

	// 4.5.5 is/has: validate with 4.5.1 only.
	if f.FilterType == FilterIs {
		return validateTextSanity(f.Value)
	}
	if f.FilterType == FilterHas {
		return nil
	}

	// 4.5.2: text-filter misuse hints, only when the filter landed as the
	// Text fallback, the key is not a function, and the key is not an
	// explicit tag — tags[duration] must run 4.5.1 only regardless of
	// whether "duration" is itself a cataloged key elsewhere.
	if f.FilterType == FilterText && !isFunction && f.Key.KeyKind() != KeyTypeExplicitTag {
		if reason := validateTextMisuseHint(cat, keyName, f.Value); reason != nil {
			return reason
		}
	}

	// 4.5.1 text value sanity applies to any filter carrying a ValueText.
	return validateTextSanity(f.Value)
}

func isAggregateFilterType(ft FilterType) bool {
	switch ft {
	case FilterAggregateDuration, FilterAggregateNumeric, FilterAggregatePercentage,
		FilterAggregateDate, FilterAggregateRelativeDate:
		return true
	default:
		return false
	}
}

// validateTextSanity implements §4.5.1. It only inspects ValueText nodes;
// every other value variant is already well-formed by construction.
func validateTextSanity(v Value) *InvalidReason {
	text, ok := v.(ValueText)
	if !ok {
		return nil
	}
	if text.Quoted {
		return nil
	}
	if strings.Contains(text.Value, `"`) && !strings.Contains(text.Value, `\"`) {
		return &InvalidReason{Reason: "Quotes must enclose text or be escaped"}
	}
	if text.Value == "" {
		return &InvalidReason{Reason: "Filter must have a value"}
	}
	return nil
}

// validateTextMisuseHint implements §4.5.2's key-type -> hint table.
func validateTextMisuseHint(cat *FieldCatalog, keyName string, v Value) *InvalidReason {
	switch {
	case cat.isDuration(keyName):
		return &InvalidReason{
			Reason:       "Invalid duration. Expected number followed by duration unit suffix",
			ExpectedType: []FilterType{FilterDuration},
		}
	case cat.isDate(keyName):
		return &InvalidReason{
			Reason:       "Invalid date format. Expected +/-duration (e.g. +1h) or ISO 8601-like (…)",
			ExpectedType: []FilterType{FilterDate, FilterSpecificDate, FilterRelativeDate},
		}
	case cat.isBoolean(keyName):
		return &InvalidReason{
			Reason:       "Invalid boolean. Expected true, 1, false, or 0.",
			ExpectedType: []FilterType{FilterBoolean},
		}
	case cat.isNumeric(keyName):
		return &InvalidReason{
			Reason:       "Invalid number. Expected number then optional k, m, or b suffix (e.g. 500k)",
			ExpectedType: []FilterType{FilterNumeric, FilterNumericIn},
		}
	default:
		return nil
	}
}

// validateTextInList implements §4.5.4 for TextIn.
func validateTextInList(f *Filter) *InvalidReason {
	list, ok := f.Value.(ValueTextList)
	if !ok {
		return nil
	}
	for _, item := range list.Items {
		if item.Value.Value == "" {
			return &InvalidReason{Reason: "Lists should not have empty values"}
		}
	}
	return nil
}

// validateNumericInList implements §4.5.4 for NumericIn.
func validateNumericInList(f *Filter) *InvalidReason {
	list, ok := f.Value.(ValueNumberList)
	if !ok {
		return nil
	}
	for _, item := range list.Items {
		if item.Value.Value == "" {
			return &InvalidReason{Reason: "Lists should not have empty values"}
		}
	}
	return nil
}

// aggregateReturnFamily maps an AggregateXxx FilterType to the
// FieldValueType its AGGREGATIONS return type must match, for §4.5.3's
// value-type coherence check.
var aggregateReturnFamily = map[FilterType]FieldValueType{
	FilterAggregateDuration:     FieldValueDuration,
	FilterAggregateNumeric:      FieldValueNumber,
	FilterAggregatePercentage:   FieldValuePercentage,
	FilterAggregateDate:         FieldValueDate,
	FilterAggregateRelativeDate: FieldValueDate,
}

// validateAggregateFilter implements §4.5.3.
func validateAggregateFilter(cat *FieldCatalog, f *Filter, keyName string) *InvalidReason {
	aggDef, hasAggDef := cat.aggregateDefinition(keyName)

	if wantType, ok := aggregateReturnFamily[f.FilterType]; ok && hasAggDef {
		if aggDef.ReturnType != wantType {
			return &InvalidReason{
				Reason: "'" + keyName + "' returns a " + string(aggDef.ReturnType) + "; '" + f.Value.NodeText() + "' is not valid here.",
			}
		}
	}

	args := AggregateColumnArgs(f.Key)
	if !hasAggDef {
		return nil
	}
	expected := aggDef.Parameters
	max := len(expected)
	if len(args) > max {
		max = len(args)
	}
	for pos := 0; pos < max; pos++ {
		var paramDef *AggregateParameter
		if pos < len(expected) {
			paramDef = &expected[pos]
		}
		var provided string
		hasProvided := pos < len(args)
		if hasProvided {
			provided = args[pos]
		}

		if paramDef == nil {
			// Unknown extra argument.
			return &InvalidReason{Reason: keyName + " is expecting " + strconv.Itoa(len(expected)) + " arguments."}
		}
		if paramDef.Required && !hasProvided {
			return &InvalidReason{Reason: keyName + " is expecting " + strconv.Itoa(len(expected)) + " arguments."}
		}
		if !hasProvided {
			continue
		}

		switch paramDef.Kind {
		case AggregateParamColumn:
			if reason := validateAggregateColumnArg(cat, keyName, pos, provided, paramDef); reason != nil {
				return reason
			}
		case AggregateParamDropdown:
			if reason := validateAggregateDropdownArg(keyName, pos, provided, paramDef); reason != nil {
				return reason
			}
		case AggregateParamValue:
			if reason := validateAggregateValueArg(keyName, pos, provided, paramDef); reason != nil {
				return reason
			}
		}
	}
	return nil
}

func validateAggregateColumnArg(cat *FieldCatalog, keyName string, pos int, value string, paramDef *AggregateParameter) *InvalidReason {
	def, exists := cat.fieldDefinition(value)
	if paramDef.ColumnTypesFn != nil {
		dataType := FieldValueType("")
		if exists {
			dataType = def.ValueType
		}
		if !paramDef.ColumnTypesFn(value, dataType) {
			return &InvalidReason{Reason: keyName + ": argument " + strconv.Itoa(pos+1) + " is an invalid column type."}
		}
		return nil
	}
	if !exists {
		return &InvalidReason{Reason: keyName + " expects argument " + strconv.Itoa(pos+1) + " to be a column"}
	}
	if len(paramDef.ColumnTypes) == 0 {
		return nil
	}
	for _, t := range paramDef.ColumnTypes {
		if def.ValueType == t {
			return nil
		}
	}
	types := make([]string, len(paramDef.ColumnTypes))
	for i, t := range paramDef.ColumnTypes {
		types[i] = string(t)
	}
	return &InvalidReason{Reason: keyName + " expects argument " + strconv.Itoa(pos+1) + " to be a column of type: " + strings.Join(types, ", ")}
}

func validateAggregateDropdownArg(keyName string, pos int, value string, paramDef *AggregateParameter) *InvalidReason {
	for _, opt := range paramDef.Options {
		if opt.Value == value {
			return nil
		}
	}
	opts := make([]string, len(paramDef.Options))
	for i, opt := range paramDef.Options {
		opts[i] = "'" + opt.Value + "'"
	}
	return &InvalidReason{Reason: keyName + " expects argument " + strconv.Itoa(pos+1) + " to be one of: " + strings.Join(opts, ", ")}
}

func validateAggregateValueArg(keyName string, pos int, value string, paramDef *AggregateParameter) *InvalidReason {
	inferredType := FieldValueString
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		inferredType = FieldValueNumber
	}
	if inferredType != paramDef.DataType {
		return &InvalidReason{Reason: keyName + " expects argument " + strconv.Itoa(pos+1) + " to be of type " + string(paramDef.DataType)}
	}
	return nil
}
