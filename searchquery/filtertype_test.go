package searchquery

import "testing"

// TestFilterTypeTable_Coverage walks every entry of filterTypeTable and
// checks opAllowed/keyAllowed/valueAllowed/canNegate against it directly,
// independent of the grammar — the grammar only ever calls a subset of
// these (keyAllowed via parser.go's gate closures, opAllowed and canNegate
// in tryParseTypedFilterValue); this test is what
// exercises valueAllowed, which has no parser-internal call site because
// every tryParseValueXxx already produces a matching value type by
// construction.
func TestFilterTypeTable_Coverage(t *testing.T) {
	for _, ft := range allFilterTypes {
		cfg, ok := filterTypeTable[ft]
		if !ok {
			t.Fatalf("allFilterTypes contains %q with no filterTypeTable entry", ft)
		}

		t.Run(string(ft)+"/operators", func(t *testing.T) {
			for _, op := range allComparisonOps {
				want := cfg.allOps
				if !want {
					for _, o := range cfg.validOps {
						if o == op {
							want = true
							break
						}
					}
				}
				if got := opAllowed(ft, op); got != want {
					t.Errorf("opAllowed(%s, %q) = %v, want %v", ft, op, got, want)
				}
			}
			if opAllowed(ft, "<<bogus>>") {
				t.Errorf("opAllowed(%s, bogus) = true, want false", ft)
			}
		})

		t.Run(string(ft)+"/keys", func(t *testing.T) {
			for _, kt := range []KeyType{KeyTypeSimple, KeyTypeExplicitTag, KeyTypeAggregate} {
				want := false
				for _, k := range cfg.validKeys {
					if k == kt {
						want = true
						break
					}
				}
				if got := keyAllowed(ft, kt); got != want {
					t.Errorf("keyAllowed(%s, %s) = %v, want %v", ft, kt, got, want)
				}
			}
		})

		t.Run(string(ft)+"/values", func(t *testing.T) {
			allValueTypes := []ValueType{
				ValueTypeText, ValueTypeTextList, ValueTypeNumber, ValueTypeNumberList,
				ValueTypeBoolean, ValueTypeDuration, ValueTypePercentage,
				ValueTypeIso8601Date, ValueTypeRelativeDate, ValueType(""),
			}
			for _, vt := range allValueTypes {
				want := false
				if len(cfg.validValues) == 0 {
					want = vt == ValueType("")
				} else {
					for _, v := range cfg.validValues {
						if v == vt {
							want = true
							break
						}
					}
				}
				if got := valueAllowed(ft, vt); got != want {
					t.Errorf("valueAllowed(%s, %q) = %v, want %v", ft, vt, got, want)
				}
			}
		})

		t.Run(string(ft)+"/negate", func(t *testing.T) {
			if got := canNegate(ft); got != cfg.canNegate {
				t.Errorf("canNegate(%s) = %v, want %v", ft, got, cfg.canNegate)
			}
		})
	}
}

func TestOpAllowed_UnknownFilterType(t *testing.T) {
	if opAllowed(FilterType("bogus"), "") {
		t.Error("opAllowed on an unknown FilterType returned true, want false")
	}
	if keyAllowed(FilterType("bogus"), KeyTypeSimple) {
		t.Error("keyAllowed on an unknown FilterType returned true, want false")
	}
	if valueAllowed(FilterType("bogus"), ValueTypeText) {
		t.Error("valueAllowed on an unknown FilterType returned true, want false")
	}
	if canNegate(FilterType("bogus")) {
		t.Error("canNegate on an unknown FilterType returned true, want false")
	}
}

func TestInterchangeable_DateSpecificDate(t *testing.T) {
	dateAliases := interchangeable[FilterDate]
	if len(dateAliases) != 1 || dateAliases[0] != FilterSpecificDate {
		t.Errorf("interchangeable[Date] = %v, want [SpecificDate]", dateAliases)
	}
	specificAliases := interchangeable[FilterSpecificDate]
	if len(specificAliases) != 1 || specificAliases[0] != FilterDate {
		t.Errorf("interchangeable[SpecificDate] = %v, want [Date]", specificAliases)
	}
}

func TestAllFilterTypes_Has16Entries(t *testing.T) {
	if len(allFilterTypes) != 16 {
		t.Fatalf("len(allFilterTypes) = %d, want 16", len(allFilterTypes))
	}
	seen := map[FilterType]bool{}
	for _, ft := range allFilterTypes {
		if seen[ft] {
			t.Errorf("allFilterTypes contains %q twice", ft)
		}
		seen[ft] = true
	}
}
