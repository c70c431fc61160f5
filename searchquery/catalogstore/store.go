// Package catalogstore persists a searchquery.FieldCatalog to a SQLite
// database, so the CLI's "catalog" subcommand can manage one across
// invocations instead of requiring callers to hand-build Go literals
// every run.
package catalogstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nikolaik/sentry/searchquery"
)

const ddl = `
CREATE TABLE IF NOT EXISTS fields (
  name TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  value_type TEXT NOT NULL,
  allow_text_operators INTEGER NOT NULL DEFAULT 0,
  deprecated INTEGER NOT NULL DEFAULT 0,
  description TEXT
);
CREATE TABLE IF NOT EXISTS aggregate_parameters (
  aggregate_name TEXT NOT NULL,
  position INTEGER NOT NULL,
  kind TEXT NOT NULL,
  required INTEGER NOT NULL,
  data_type TEXT,
  options_json TEXT,
  column_types_json TEXT,
  PRIMARY KEY (aggregate_name, position)
);
CREATE TABLE IF NOT EXISTS catalog_key_sets (
  key_set TEXT NOT NULL,
  key_name TEXT NOT NULL,
  PRIMARY KEY (key_set, key_name)
);
CREATE TABLE IF NOT EXISTS catalog_meta (
  name TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`

// Store wraps a *sql.DB over the fields/aggregate_parameters schema
// (driver modernc.org/sqlite — pure Go, no cgo).
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at path, creating the schema if
// it does not already exist.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if dsn != ":memory:" {
		dsn = dsn + "?_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "open catalog store: " + err.Error()}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "ping catalog store: " + err.Error()}
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "create catalog schema: " + err.Error()}
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var keySetColumns = []string{"numeric", "boolean", "percentage", "date", "duration", "textOperator"}

// Load reconstructs a *searchquery.FieldCatalog from the database. It is
// safe for concurrent use — every statement it issues is a read.
func (s *Store) Load(ctx context.Context) (*searchquery.FieldCatalog, error) {
	cat := searchquery.NewFieldCatalog()

	for _, set := range keySetColumns {
		rows, err := s.db.QueryContext(ctx, `SELECT key_name FROM catalog_key_sets WHERE key_set = ?`, set)
		if err != nil {
			return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "load key set " + set + ": " + err.Error()}
		}
		err = scanKeySet(rows, set, cat)
		if err != nil {
			return nil, err
		}
	}

	if allow, err := s.loadAllowBoolean(ctx); err != nil {
		return nil, err
	} else {
		cat.AllowBoolean = allow
	}

	fieldRows, err := s.db.QueryContext(ctx, `SELECT name, kind, value_type, allow_text_operators, deprecated, description FROM fields`)
	if err != nil {
		return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "load fields: " + err.Error()}
	}
	defer fieldRows.Close()
	for fieldRows.Next() {
		var name, kind, valueType string
		var allowTextOps, deprecated int
		var description sql.NullString
		if err := fieldRows.Scan(&name, &kind, &valueType, &allowTextOps, &deprecated, &description); err != nil {
			return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "scan field row: " + err.Error()}
		}
		cat.Fields[name] = searchquery.FieldDefinition{
			Kind:               searchquery.FieldKind(kind),
			ValueType:          searchquery.FieldValueType(valueType),
			AllowTextOperators: allowTextOps != 0,
			Deprecated:         deprecated != 0,
			Desc:               description.String,
		}
	}
	if err := fieldRows.Err(); err != nil {
		return nil, &searchquery.Error{Code: searchquery.ErrInternal, Message: "iterate fields: " + err.Error()}
	}

	if err := s.loadAggregations(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func scanKeySet(rows *sql.Rows, set string, cat *searchquery.FieldCatalog) error {
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return &searchquery.Error{Code: searchquery.ErrInternal, Message: "scan key set " + set + ": " + err.Error()}
		}
		switch set {
		case "numeric":
			cat.NumericKeys[name] = true
		case "boolean":
			cat.BooleanKeys[name] = true
		case "percentage":
			cat.PercentageKeys[name] = true
		case "date":
			cat.DateKeys[name] = true
		case "duration":
			cat.DurationKeys[name] = true
		case "textOperator":
			cat.TextOperatorKeys[name] = true
		}
	}
	return rows.Err()
}

func (s *Store) loadAllowBoolean(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM catalog_meta WHERE name = 'allowBoolean'`).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &searchquery.Error{Code: searchquery.ErrInternal, Message: "load allowBoolean: " + err.Error()}
	}
	return value == "1", nil
}

func (s *Store) loadAggregations(ctx context.Context, cat *searchquery.FieldCatalog) error {
	rows, err := s.db.QueryContext(ctx, `SELECT aggregate_name, position, kind, required, data_type, options_json, column_types_json FROM aggregate_parameters ORDER BY aggregate_name, position`)
	if err != nil {
		return &searchquery.Error{Code: searchquery.ErrInternal, Message: "load aggregate parameters: " + err.Error()}
	}
	defer rows.Close()

	byName := map[string][]searchquery.AggregateParameter{}
	order := []string{}
	seen := map[string]bool{}
	for rows.Next() {
		var name, kind string
		var position, required int
		var dataType, optionsJSON, columnTypesJSON sql.NullString
		if err := rows.Scan(&name, &position, &kind, &required, &dataType, &optionsJSON, &columnTypesJSON); err != nil {
			return &searchquery.Error{Code: searchquery.ErrInternal, Message: "scan aggregate parameter: " + err.Error()}
		}
		param := searchquery.AggregateParameter{
			Kind:     searchquery.AggregateParameterKind(kind),
			Required: required != 0,
			DataType: searchquery.FieldValueType(dataType.String),
		}
		if optionsJSON.Valid && optionsJSON.String != "" {
			var opts []searchquery.AggregateDropdownOption
			if err := json.Unmarshal([]byte(optionsJSON.String), &opts); err != nil {
				return &searchquery.Error{Code: searchquery.ErrValidation, Message: "decode options for " + name + ": " + err.Error()}
			}
			param.Options = opts
		}
		if columnTypesJSON.Valid && columnTypesJSON.String != "" {
			var types []searchquery.FieldValueType
			if err := json.Unmarshal([]byte(columnTypesJSON.String), &types); err != nil {
				return &searchquery.Error{Code: searchquery.ErrValidation, Message: "decode column types for " + name + ": " + err.Error()}
			}
			param.ColumnTypes = types
		}
		byName[name] = append(byName[name], param)
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	if err := rows.Err(); err != nil {
		return &searchquery.Error{Code: searchquery.ErrInternal, Message: "iterate aggregate parameters: " + err.Error()}
	}

	for _, name := range order {
		def, hasField := cat.Fields[name]
		returnType := def.ValueType
		if !hasField {
			returnType = searchquery.FieldValueType("")
		}
		cat.Aggregations[name] = searchquery.AggregateDefinition{
			ReturnType: returnType,
			Parameters: byName[name],
		}
	}
	return nil
}

// Save persists cat to the database inside a single transaction,
// replacing any previously stored catalog entirely.
func (s *Store) Save(ctx context.Context, cat *searchquery.FieldCatalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &searchquery.Error{Code: searchquery.ErrInternal, Message: "begin save transaction: " + err.Error()}
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM fields`,
		`DELETE FROM aggregate_parameters`,
		`DELETE FROM catalog_key_sets`,
		`DELETE FROM catalog_meta`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &searchquery.Error{Code: searchquery.ErrInternal, Message: "clear catalog table: " + err.Error()}
		}
	}

	if err := saveKeySet(ctx, tx, "numeric", cat.NumericKeys); err != nil {
		return err
	}
	if err := saveKeySet(ctx, tx, "boolean", cat.BooleanKeys); err != nil {
		return err
	}
	if err := saveKeySet(ctx, tx, "percentage", cat.PercentageKeys); err != nil {
		return err
	}
	if err := saveKeySet(ctx, tx, "date", cat.DateKeys); err != nil {
		return err
	}
	if err := saveKeySet(ctx, tx, "duration", cat.DurationKeys); err != nil {
		return err
	}
	if err := saveKeySet(ctx, tx, "textOperator", cat.TextOperatorKeys); err != nil {
		return err
	}

	allowBoolean := "0"
	if cat.AllowBoolean {
		allowBoolean = "1"
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_meta(name, value) VALUES ('allowBoolean', ?)`, allowBoolean); err != nil {
		return &searchquery.Error{Code: searchquery.ErrInternal, Message: "save allowBoolean: " + err.Error()}
	}

	for name, def := range cat.Fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fields(name, kind, value_type, allow_text_operators, deprecated, description) VALUES (?,?,?,?,?,?)`,
			name, string(def.Kind), string(def.ValueType), boolToInt(def.AllowTextOperators), boolToInt(def.Deprecated), def.Desc,
		); err != nil {
			return &searchquery.Error{Code: searchquery.ErrInternal, Message: "save field " + name + ": " + err.Error()}
		}
	}

	for name, agg := range cat.Aggregations {
		for pos, param := range agg.Parameters {
			var optionsJSON, columnTypesJSON []byte
			if len(param.Options) > 0 {
				optionsJSON, err = json.Marshal(param.Options)
				if err != nil {
					return &searchquery.Error{Code: searchquery.ErrInternal, Message: "encode options for " + name + ": " + err.Error()}
				}
			}
			if len(param.ColumnTypes) > 0 {
				columnTypesJSON, err = json.Marshal(param.ColumnTypes)
				if err != nil {
					return &searchquery.Error{Code: searchquery.ErrInternal, Message: "encode column types for " + name + ": " + err.Error()}
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO aggregate_parameters(aggregate_name, position, kind, required, data_type, options_json, column_types_json) VALUES (?,?,?,?,?,?,?)`,
				name, pos, string(param.Kind), boolToInt(param.Required), string(param.DataType), nullableString(optionsJSON), nullableString(columnTypesJSON),
			); err != nil {
				return &searchquery.Error{Code: searchquery.ErrInternal, Message: fmt.Sprintf("save aggregate parameter %s[%d]: %s", name, pos, err)}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &searchquery.Error{Code: searchquery.ErrInternal, Message: "commit catalog save: " + err.Error()}
	}
	return nil
}

func saveKeySet(ctx context.Context, tx *sql.Tx, set string, keys map[string]bool) error {
	for name, present := range keys {
		if !present {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_key_sets(key_set, key_name) VALUES (?,?)`, set, name); err != nil {
			return &searchquery.Error{Code: searchquery.ErrInternal, Message: "save key set " + set + ": " + err.Error()}
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
