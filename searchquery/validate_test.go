package searchquery

import "testing"

func textFilter(ft FilterType, key Key, keyName string, v Value) *Filter {
	return &Filter{
		termMeta:   termMeta{Type: TermTypeFilter},
		FilterType: ft,
		Key:        key,
		Value:      v,
	}
}

func simpleKey(name string) KeySimple {
	return KeySimple{keyMeta: keyMeta{Type: KeyTypeSimple, Text: name}, Value: name}
}

func explicitTagKey(name string) KeyExplicitTag {
	return KeyExplicitTag{
		keyMeta: keyMeta{Type: KeyTypeExplicitTag, Text: "tags[" + name + "]"},
		Prefix:  "tags",
		Key:     simpleKey(name),
	}
}

func unquotedText(s string) ValueText {
	return ValueText{valueMeta: valueMeta{Type: ValueTypeText, Text: s}, Value: s, Quoted: false}
}

func quotedText(s string) ValueText {
	return ValueText{valueMeta: valueMeta{Type: ValueTypeText, Text: `"` + s + `"`}, Value: s, Quoted: true}
}

func TestValidateTextSanity(t *testing.T) {
	cat := NewFieldCatalog()

	t.Run("quoted text is always sane", func(t *testing.T) {
		f := textFilter(FilterText, simpleKey("x"), "x", quotedText(`has "quotes"`))
		if got := validateFilter(cat, f); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("unquoted empty value is invalid", func(t *testing.T) {
		f := textFilter(FilterText, simpleKey("x"), "x", unquotedText(""))
		got := validateFilter(cat, f)
		if got == nil || got.Reason != "Filter must have a value" {
			t.Errorf("got %+v, want empty-value reason", got)
		}
	})

	t.Run("unescaped quote in an unquoted value is invalid", func(t *testing.T) {
		f := textFilter(FilterText, simpleKey("x"), "x", unquotedText(`a"b`))
		got := validateFilter(cat, f)
		if got == nil {
			t.Fatal("got nil, want an invalid reason")
		}
	})

	t.Run("escaped quote in an unquoted value is fine", func(t *testing.T) {
		f := textFilter(FilterText, simpleKey("x"), "x", unquotedText(`a\"b`))
		if got := validateFilter(cat, f); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
}

func TestValidateTextMisuseHint(t *testing.T) {
	cat := NewFieldCatalog()
	cat.DurationKeys["dur"] = true
	cat.DateKeys["dt"] = true
	cat.BooleanKeys["flag"] = true
	cat.NumericKeys["num"] = true

	tests := []struct {
		name       string
		key        string
		wantReason bool
		wantTypes  []FilterType
	}{
		{"duration key", "dur", true, []FilterType{FilterDuration}},
		{"date key", "dt", true, []FilterType{FilterDate, FilterSpecificDate, FilterRelativeDate}},
		{"boolean key", "flag", true, []FilterType{FilterBoolean}},
		{"numeric key", "num", true, []FilterType{FilterNumeric, FilterNumericIn}},
		{"untyped key", "anything", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := textFilter(FilterText, simpleKey(tt.key), tt.key, unquotedText("notright"))
			got := validateFilter(cat, f)
			if tt.wantReason {
				if got == nil {
					t.Fatal("got nil, want a misuse hint")
				}
				if len(got.ExpectedType) != len(tt.wantTypes) {
					t.Fatalf("ExpectedType = %v, want %v", got.ExpectedType, tt.wantTypes)
				}
				for i := range tt.wantTypes {
					if got.ExpectedType[i] != tt.wantTypes[i] {
						t.Errorf("ExpectedType[%d] = %q, want %q", i, got.ExpectedType[i], tt.wantTypes[i])
					}
				}
			} else if got != nil {
				t.Errorf("got %+v, want nil", got)
			}
		})
	}

	t.Run("explicit tag key never runs the misuse hint", func(t *testing.T) {
		// tags[dur] names the tag "dur", which is itself a cataloged
		// duration key — but KeyExplicitTag forces text interpretation,
		// so 4.5.2 must not fire here; only 4.5.1 applies.
		f := textFilter(FilterText, explicitTagKey("dur"), "dur", unquotedText("notright"))
		got := validateFilter(cat, f)
		if got != nil {
			t.Errorf("got %+v, want nil (explicit tag bypasses the misuse hint)", got)
		}
	})
}

func TestValidateInLists(t *testing.T) {
	cat := NewFieldCatalog()

	t.Run("text in-list rejects an empty item", func(t *testing.T) {
		f := textFilter(FilterTextIn, simpleKey("x"), "x", ValueTextList{
			Items: []ValueTextListItem{
				{Value: unquotedText("a")},
				{Value: unquotedText("")},
			},
		})
		got := validateFilter(cat, f)
		if got == nil || got.Reason != "Lists should not have empty values" {
			t.Errorf("got %+v, want empty-list-value reason", got)
		}
	})

	t.Run("numeric in-list with all items valid is fine", func(t *testing.T) {
		f := textFilter(FilterNumericIn, simpleKey("x"), "x", ValueNumberList{
			Items: []ValueNumberListItem{
				{Value: ValueNumber{Value: "1", RawValue: 1}},
				{Value: ValueNumber{Value: "2", RawValue: 2}},
			},
		})
		if got := validateFilter(cat, f); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
}

func TestValidateAggregateFilter(t *testing.T) {
	cat := NewFieldCatalog()
	cat.Fields["transaction.duration"] = FieldDefinition{Kind: FieldKindField, ValueType: FieldValueDuration}
	cat.Fields["count"] = FieldDefinition{Kind: FieldKindFunction, ValueType: FieldValueNumber}
	cat.Aggregations["p95"] = AggregateDefinition{
		ReturnType: FieldValueDuration,
		Parameters: []AggregateParameter{
			{Kind: AggregateParamColumn, Required: true, ColumnTypes: []FieldValueType{FieldValueDuration}},
		},
	}
	cat.Aggregations["count"] = AggregateDefinition{ReturnType: FieldValueNumber}

	aggKey := func(name string, args ...string) KeyAggregate {
		var kargs []KeyAggregateArg
		for _, a := range args {
			kargs = append(kargs, KeyAggregateArg{Value: KeyAggregateParam{Value: a}})
		}
		return KeyAggregate{
			keyMeta: keyMeta{Type: KeyTypeAggregate, Text: name + "(...)"},
			Name:    simpleKey(name),
			Args:    &KeyAggregateArgs{Args: kargs},
		}
	}

	t.Run("correct column type is valid", func(t *testing.T) {
		f := textFilter(FilterAggregateDuration, aggKey("p95", "transaction.duration"), "p95",
			ValueDuration{Value: 500, Unit: DurationUnitMs})
		if got := validateFilter(cat, f); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("return-type mismatch is invalid", func(t *testing.T) {
		// p95 returns Duration; forcing it through the AggregateNumeric
		// filter type triggers the return-family mismatch.
		f := textFilter(FilterAggregateNumeric, aggKey("p95", "transaction.duration"), "p95",
			ValueNumber{Value: "5", RawValue: 5})
		got := validateFilter(cat, f)
		if got == nil {
			t.Fatal("got nil, want a return-type mismatch reason")
		}
	})

	t.Run("missing required argument is invalid", func(t *testing.T) {
		f := textFilter(FilterAggregateDuration, aggKey("p95"), "p95", ValueDuration{Value: 1, Unit: DurationUnitS})
		got := validateFilter(cat, f)
		if got == nil {
			t.Fatal("got nil, want a missing-argument reason")
		}
	})

	t.Run("wrong column type is invalid", func(t *testing.T) {
		cat.Fields["user.email"] = FieldDefinition{Kind: FieldKindField, ValueType: FieldValueString}
		f := textFilter(FilterAggregateDuration, aggKey("p95", "user.email"), "p95", ValueDuration{Value: 1, Unit: DurationUnitS})
		got := validateFilter(cat, f)
		if got == nil {
			t.Fatal("got nil, want a wrong-column-type reason")
		}
	})

	t.Run("unknown column argument is invalid", func(t *testing.T) {
		f := textFilter(FilterAggregateDuration, aggKey("p95", "transaction.duration", "extra"), "p95",
			ValueDuration{Value: 1, Unit: DurationUnitS})
		got := validateFilter(cat, f)
		if got == nil {
			t.Fatal("got nil, want an extra-argument reason")
		}
	})

	t.Run("no catalog entry is permissive", func(t *testing.T) {
		f := textFilter(FilterAggregateNumeric, aggKey("unknownfn", "whatever"), "unknownfn",
			ValueNumber{Value: "5", RawValue: 5})
		if got := validateFilter(cat, f); got != nil {
			t.Errorf("got %+v, want nil (no aggregate definition means no coherence check)", got)
		}
	})
}

func TestValidateFilter_IsAndHas(t *testing.T) {
	cat := NewFieldCatalog()

	t.Run("Has never carries a value, always valid", func(t *testing.T) {
		f := textFilter(FilterHas, simpleKey("assignee"), "assignee", nil)
		if got := validateFilter(cat, f); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("Is still runs text sanity", func(t *testing.T) {
		f := textFilter(FilterIs, simpleKey("is"), "is", unquotedText(""))
		got := validateFilter(cat, f)
		if got == nil || got.Reason != "Filter must have a value" {
			t.Errorf("got %+v, want empty-value reason", got)
		}
	})
}
