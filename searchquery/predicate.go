package searchquery

// predicateFilter implements the §4.4 admission table: whether a
// candidate Filter variant is admissible for a key, consulted during
// grammar alternation before the variant is committed. keyName is the
// catalog lookup name (see KeyName); isFunction reports whether key
// resolved as a KeyAggregate.
func predicateFilter(cat *FieldCatalog, ft FilterType, keyName string, isFunction bool) bool {
	switch ft {
	case FilterNumeric, FilterNumericIn:
		return cat.isNumeric(keyName)
	case FilterDuration:
		return cat.isDuration(keyName)
	case FilterBoolean:
		return cat.isBoolean(keyName)
	case FilterDate, FilterRelativeDate, FilterSpecificDate:
		return cat.isDate(keyName)
	case FilterAggregateDuration:
		return isFunction
	case FilterAggregateNumeric, FilterAggregateDate, FilterAggregatePercentage, FilterAggregateRelativeDate:
		return isFunction
	case FilterText, FilterTextIn:
		return true
	case FilterHas, FilterIs:
		return true
	default:
		return false
	}
}

// predicateAggregateDuration additionally requires, for AggregateDuration
// specifically, that the function name itself or one of its column
// arguments resolves to a duration key (§4.4's table row).
func predicateAggregateDuration(cat *FieldCatalog, keyName string, columnArgs []string) bool {
	if cat.isDuration(keyName) {
		return true
	}
	for _, arg := range columnArgs {
		if cat.isDuration(arg) {
			return true
		}
	}
	return false
}

// predicateTextOperator implements §4.4's second predicate: whether a
// text filter on keyName may carry a comparison operator beyond "=""/"!=".
func predicateTextOperator(cat *FieldCatalog, keyName string) bool {
	return cat.admitsTextOperator(keyName)
}
