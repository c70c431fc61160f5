// Package catalogjson loads a searchquery.FieldCatalog from a JSON
// document by scanning it directly with valyala/fastjson instead of
// reflecting into Go structs — the same fast-path the rest of this
// corpus reaches for when reading structured records off a hot path.
package catalogjson

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/nikolaik/sentry/searchquery"
)

// Load parses data into a *searchquery.FieldCatalog. The expected shape:
//
//	{
//	  "numericKeys": ["count", "duration_ms"],
//	  "booleanKeys": ["is_resolved"],
//	  "percentageKeys": ["error_rate"],
//	  "dateKeys": ["event.timestamp"],
//	  "durationKeys": ["transaction.duration"],
//	  "textOperatorKeys": ["release"],
//	  "allowBoolean": true,
//	  "fields": {"browser.name": {"kind": "field", "valueType": "string"}},
//	  "aggregations": {"p95": {"parameters": [{"kind": "column", "columnTypes": ["duration"]}]}}
//	}
func Load(data []byte) (*searchquery.FieldCatalog, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return nil, &searchquery.Error{Code: searchquery.ErrValidation, Message: "parse catalog JSON: " + err.Error()}
	}

	cat := searchquery.NewFieldCatalog()

	loadStringSet(root, "numericKeys", cat.NumericKeys)
	loadStringSet(root, "booleanKeys", cat.BooleanKeys)
	loadStringSet(root, "percentageKeys", cat.PercentageKeys)
	loadStringSet(root, "dateKeys", cat.DateKeys)
	loadStringSet(root, "durationKeys", cat.DurationKeys)
	loadStringSet(root, "textOperatorKeys", cat.TextOperatorKeys)

	cat.AllowBoolean = root.GetBool("allowBoolean")

	if fields := root.Get("fields"); fields != nil {
		obj, err := fields.Object()
		if err != nil {
			return nil, &searchquery.Error{Code: searchquery.ErrValidation, Message: "\"fields\" must be an object"}
		}
		obj.Visit(func(key []byte, val *fastjson.Value) {
			cat.Fields[string(key)] = searchquery.FieldDefinition{
				Kind:               searchquery.FieldKind(string(val.GetStringBytes("kind"))),
				ValueType:          searchquery.FieldValueType(string(val.GetStringBytes("valueType"))),
				AllowTextOperators: val.GetBool("allowTextOperators"),
				Deprecated:         val.GetBool("deprecated"),
				Desc:               string(val.GetStringBytes("desc")),
			}
		})
	}

	if aggs := root.Get("aggregations"); aggs != nil {
		obj, err := aggs.Object()
		if err != nil {
			return nil, &searchquery.Error{Code: searchquery.ErrValidation, Message: "\"aggregations\" must be an object"}
		}
		var visitErr error
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if visitErr != nil {
				return
			}
			name := string(key)
			params, err := loadAggregateParameters(val.GetArray("parameters"))
			if err != nil {
				visitErr = fmt.Errorf("aggregation %q: %w", name, err)
				return
			}
			def, hasField := cat.Fields[name]
			returnType := def.ValueType
			if !hasField {
				returnType = searchquery.FieldValueType("")
			}
			cat.Aggregations[name] = searchquery.AggregateDefinition{
				ReturnType: returnType,
				Parameters: params,
			}
		})
		if visitErr != nil {
			return nil, &searchquery.Error{Code: searchquery.ErrValidation, Message: visitErr.Error()}
		}
	}

	return cat, nil
}

func loadStringSet(root *fastjson.Value, key string, into map[string]bool) {
	arr := root.GetArray(key)
	for _, v := range arr {
		into[string(v.GetStringBytes())] = true
	}
}

func loadAggregateParameters(arr []*fastjson.Value) ([]searchquery.AggregateParameter, error) {
	params := make([]searchquery.AggregateParameter, 0, len(arr))
	for i, v := range arr {
		kind := searchquery.AggregateParameterKind(string(v.GetStringBytes("kind")))
		param := searchquery.AggregateParameter{
			Kind:     kind,
			Required: v.GetBool("required"),
			DataType: searchquery.FieldValueType(string(v.GetStringBytes("dataType"))),
		}
		for _, t := range v.GetArray("columnTypes") {
			param.ColumnTypes = append(param.ColumnTypes, searchquery.FieldValueType(string(t.GetStringBytes())))
		}
		for _, o := range v.GetArray("options") {
			param.Options = append(param.Options, searchquery.AggregateDropdownOption{
				Value: string(o.GetStringBytes("value")),
				Label: string(o.GetStringBytes("label")),
			})
		}
		if kind == "" {
			return nil, fmt.Errorf("parameter %d missing \"kind\"", i)
		}
		params = append(params, param)
	}
	return params, nil
}
