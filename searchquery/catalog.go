package searchquery

import "strings"

// FieldKind distinguishes a plain field key from a function (aggregate) key
// in the catalog's fieldDefinition lookup.
type FieldKind string

const (
	FieldKindField    FieldKind = "field"
	FieldKindFunction FieldKind = "function"
)

// FieldValueType is the declared value type of a cataloged key.
type FieldValueType string

const (
	FieldValueString     FieldValueType = "string"
	FieldValueNumber     FieldValueType = "number"
	FieldValueInteger    FieldValueType = "integer"
	FieldValueDuration   FieldValueType = "duration"
	FieldValueDate       FieldValueType = "date"
	FieldValuePercentage FieldValueType = "percentage"
	FieldValueBoolean    FieldValueType = "boolean"
)

// FieldDefinition is the metadata the catalog returns for one key.
type FieldDefinition struct {
	Kind               FieldKind            `json:"kind"`
	ValueType          FieldValueType       `json:"valueType"`
	Parameters         []AggregateParameter `json:"parameters,omitempty"`
	AllowTextOperators bool                 `json:"allowTextOperators,omitempty"`
	Deprecated         bool                 `json:"deprecated,omitempty"`
	Desc               string               `json:"desc,omitempty"`
}

// AggregateParameterKind is the admission rule applied to one positional
// argument of an aggregate key (§4.5.3).
type AggregateParameterKind string

const (
	AggregateParamColumn   AggregateParameterKind = "column"
	AggregateParamDropdown AggregateParameterKind = "dropdown"
	AggregateParamValue    AggregateParameterKind = "value"
)

// AggregateDropdownOption is one admissible value for a dropdown-kind
// aggregate parameter.
type AggregateDropdownOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// AggregateParameter describes one positional argument of an aggregate
// (function) key, per the AGGREGATIONS table (§4.1, §4.5.3).
type AggregateParameter struct {
	Kind          AggregateParameterKind                         `json:"kind"`
	Required      bool                                           `json:"required"`
	DataType      FieldValueType                                 `json:"dataType,omitempty"`    // kind == value
	ColumnTypes   []FieldValueType                                `json:"columnTypes,omitempty"` // kind == column, list form
	ColumnTypesFn func(name string, dataType FieldValueType) bool `json:"-"`                     // kind == column, callable form
	Options       []AggregateDropdownOption                       `json:"options,omitempty"`     // kind == dropdown
}

// AggregateDefinition is one entry of AGGREGATIONS: the parameter schema
// for a function key, plus its return value family for §4.5.3's
// value-type coherence check.
type AggregateDefinition struct {
	ReturnType FieldValueType       `json:"returnType"`
	Parameters []AggregateParameter `json:"parameters"`
}

// FieldCatalog is the read-only, caller-supplied configuration threaded
// through Parse. It is the Go-native form of the module-level catalog
// object the source coupled directly to its parser (§9 design note): an
// explicit value instead of global state.
type FieldCatalog struct {
	NumericKeys     map[string]bool
	BooleanKeys     map[string]bool
	PercentageKeys  map[string]bool
	DateKeys        map[string]bool
	DurationKeys    map[string]bool
	TextOperatorKeys map[string]bool
	AllowBoolean    bool

	Fields       map[string]FieldDefinition
	Aggregations map[string]AggregateDefinition
}

// NewFieldCatalog returns an empty, ready-to-populate catalog.
func NewFieldCatalog() *FieldCatalog {
	return &FieldCatalog{
		NumericKeys:      map[string]bool{},
		BooleanKeys:      map[string]bool{},
		PercentageKeys:   map[string]bool{},
		DateKeys:         map[string]bool{},
		DurationKeys:     map[string]bool{},
		TextOperatorKeys: map[string]bool{},
		Fields:           map[string]FieldDefinition{},
		Aggregations:     map[string]AggregateDefinition{},
	}
}

const measurementsPrefix = "measurements."

// isMeasurementKey reports whether keyName is in the implicit
// "measurements.*" family (§4.1): always numeric, and additionally
// duration when the field definition itself says so.
func isMeasurementKey(keyName string) bool {
	return strings.HasPrefix(keyName, measurementsPrefix) && len(keyName) > len(measurementsPrefix)
}

// spanOpBreakdownKeys are the implicit span-operation-breakdown keys
// (§4.1): numeric and duration both.
var spanOpBreakdownKeys = map[string]bool{
	"span_op_breakdowns.ops.http":    true,
	"span_op_breakdowns.ops.db":      true,
	"span_op_breakdowns.ops.browser": true,
	"span_op_breakdowns.ops.resource": true,
	"span_op_breakdowns.ops.ui":      true,
}

func isSpanOpBreakdownKey(keyName string) bool {
	return spanOpBreakdownKeys[keyName]
}

// isNumeric reports whether keyName is recognized as a numeric field,
// consulting both the explicit NumericKeys set and the implicit key
// families (§4.1, §9).
func (c *FieldCatalog) isNumeric(keyName string) bool {
	if c == nil {
		return false
	}
	if c.NumericKeys[keyName] {
		return true
	}
	return isMeasurementKey(keyName) || isSpanOpBreakdownKey(keyName)
}

// isDuration reports whether keyName is recognized as a duration field.
func (c *FieldCatalog) isDuration(keyName string) bool {
	if c == nil {
		return false
	}
	if c.DurationKeys[keyName] {
		return true
	}
	if isSpanOpBreakdownKey(keyName) {
		return true
	}
	if isMeasurementKey(keyName) {
		if def, ok := c.Fields[keyName]; ok {
			return def.ValueType == FieldValueDuration
		}
	}
	return false
}

// isBoolean reports whether keyName is recognized as a boolean field.
func (c *FieldCatalog) isBoolean(keyName string) bool {
	return c != nil && c.BooleanKeys[keyName]
}

// isDate reports whether keyName is recognized as a date field.
func (c *FieldCatalog) isDate(keyName string) bool {
	return c != nil && c.DateKeys[keyName]
}

// isPercentage reports whether keyName is recognized as a percentage field.
func (c *FieldCatalog) isPercentage(keyName string) bool {
	return c != nil && c.PercentageKeys[keyName]
}

// admitsTextOperator reports whether a text filter on keyName may carry a
// comparison operator beyond "="/"!=" (§4.4's predicateTextOperator).
func (c *FieldCatalog) admitsTextOperator(keyName string) bool {
	if c == nil {
		return false
	}
	if c.TextOperatorKeys[keyName] {
		return true
	}
	if def, ok := c.Fields[keyName]; ok {
		return def.AllowTextOperators
	}
	return false
}

// fieldDefinition looks up the metadata for keyName, if any.
func (c *FieldCatalog) fieldDefinition(keyName string) (FieldDefinition, bool) {
	if c == nil {
		return FieldDefinition{}, false
	}
	def, ok := c.Fields[keyName]
	return def, ok
}

// isFunctionKey reports whether keyName is cataloged as a function
// (aggregate) key.
func (c *FieldCatalog) isFunctionKey(keyName string) bool {
	def, ok := c.fieldDefinition(keyName)
	return ok && def.Kind == FieldKindFunction
}

// aggregateDefinition looks up AGGREGATIONS[keyName].
func (c *FieldCatalog) aggregateDefinition(keyName string) (AggregateDefinition, bool) {
	if c == nil {
		return AggregateDefinition{}, false
	}
	def, ok := c.Aggregations[keyName]
	return def, ok
}
