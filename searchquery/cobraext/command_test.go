package cobraext

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestParseCommand_JSON(t *testing.T) {
	cmd := ParseCommand(zerolog.Nop())
	out, err := run(t, cmd, "foo:bar")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Fatalf("output is not valid JSON: %s", out)
	}
	var ast []map[string]any
	if err := json.Unmarshal([]byte(out), &ast); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(ast) != 1 || ast[0]["filter"] != "Text" {
		t.Errorf("ast = %v, want a single text filter term", ast)
	}
}

func TestParseCommand_Compact(t *testing.T) {
	cmd := ParseCommand(zerolog.Nop())
	out, err := run(t, cmd, "--format", "compact", "foo:bar")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("compact output has %d lines, want a header and one row: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "type,text,filter,") {
		t.Errorf("header = %q, want it to start with the compact column order", lines[0])
	}
}

func TestParseCommand_InvalidQuery(t *testing.T) {
	cmd := ParseCommand(zerolog.Nop())
	_, err := run(t, cmd, `"bar`)
	if err == nil {
		t.Fatal("expected an error for a query that does not parse")
	}
	if !strings.Contains(err.Error(), "did not parse") {
		t.Errorf("err = %q, want it to mention the failed parse", err.Error())
	}
}

func TestParseCommand_CatalogFlag(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(`{"numericKeys": ["quux"]}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := ParseCommand(zerolog.Nop())
	out, err := run(t, cmd, "--catalog", catalogPath, "quux:>5")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, `"filter": "Numeric"`) {
		t.Errorf("out = %s, want the Numeric filter type, given quux is registered as numeric", out)
	}
}

func TestJoinCommand_RoundTrip(t *testing.T) {
	cmd := JoinCommand(zerolog.Nop())
	out, err := run(t, cmd, "foo:bar baz:5")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(out) != "foo:bar baz:5" {
		t.Errorf("out = %q, want the input echoed back unchanged", out)
	}
}

func TestJoinCommand_InvalidQuery(t *testing.T) {
	cmd := JoinCommand(zerolog.Nop())
	_, err := run(t, cmd, `"bar`)
	if err == nil {
		t.Fatal("expected an error for a query that does not parse")
	}
}

func TestCatalogCommand_SaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	sqlitePath := filepath.Join(dir, "catalog.db")
	jsonPath := filepath.Join(dir, "catalog.json")

	doc := `{
		"numericKeys": ["count"],
		"allowBoolean": true,
		"fields": {"p95": {"kind": "function", "valueType": "duration"}},
		"aggregations": {"p95": {"parameters": [{"kind": "column", "required": true, "columnTypes": ["duration"]}]}}
	}`
	if err := os.WriteFile(jsonPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	saveCmd := CatalogCommand(zerolog.Nop())
	if _, err := run(t, saveCmd, "save", sqlitePath, "--json", jsonPath); err != nil {
		t.Fatalf("catalog save: %v", err)
	}

	loadCmd := CatalogCommand(zerolog.Nop())
	out, err := run(t, loadCmd, "load", sqlitePath)
	if err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Fatalf("catalog load output is not valid JSON: %s", out)
	}
	var cat map[string]any
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	numeric, ok := cat["numericKeys"].([]any)
	if !ok || len(numeric) != 1 || numeric[0] != "count" {
		t.Errorf("numericKeys = %v, want [count]", cat["numericKeys"])
	}
	if allow, _ := cat["allowBoolean"].(bool); !allow {
		t.Errorf("allowBoolean = %v, want true", cat["allowBoolean"])
	}
}

func TestCatalogSaveCommand_MissingJSONFlag(t *testing.T) {
	dir := t.TempDir()
	sqlitePath := filepath.Join(dir, "catalog.db")

	cmd := CatalogCommand(zerolog.Nop())
	_, err := run(t, cmd, "save", sqlitePath)
	if err == nil {
		t.Fatal("expected an error when --json is omitted")
	}
}

func TestCatalogLoadCommand_MissingDatabase(t *testing.T) {
	dir := t.TempDir()
	sqlitePath := filepath.Join(dir, "never-saved.db")

	cmd := CatalogCommand(zerolog.Nop())
	out, err := run(t, cmd, "load", sqlitePath)
	if err != nil {
		t.Fatalf("catalog load on a fresh database should create empty tables, got: %v", err)
	}
	var cat map[string]any
	if err := json.Unmarshal([]byte(out), &cat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if allow, _ := cat["allowBoolean"].(bool); allow {
		t.Errorf("allowBoolean = %v, want false for a never-saved database", cat["allowBoolean"])
	}
}

func TestDiagnoseCommand(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "queries.txt")
	outPath := filepath.Join(dir, "report.zst")

	input := strings.Join([]string{
		"foo:bar",
		`"bar`,
		"baz:5",
		"",
	}, "\n")
	if err := os.WriteFile(inPath, []byte(input), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := DiagnoseCommand(zerolog.Nop())
	summary, err := run(t, cmd, "--in", inPath, "--out", outPath)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(summary, "1 failures") {
		t.Errorf("summary = %q, want it to mention exactly one failure", summary)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("Open report: %v", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd.NewReader: %v", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	var failures []diagnosticFailure
	if err := json.Unmarshal(payload, &failures); err != nil {
		t.Fatalf("Unmarshal report: %v", err)
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %+v, want exactly one", failures)
	}
	if failures[0].Line != 2 || failures[0].Query != `"bar` {
		t.Errorf("failures[0] = %+v, want line 2, query \"bar", failures[0])
	}
	if failures[0].TraceID == "" {
		t.Error("TraceID is empty, want a stamped UUID")
	}
}

func TestDiagnoseCommand_MissingFlags(t *testing.T) {
	cmd := DiagnoseCommand(zerolog.Nop())
	_, err := run(t, cmd, "--in", "/tmp/whatever")
	if err == nil {
		t.Fatal("expected an error when --out is omitted")
	}
}

func TestAddCommands(t *testing.T) {
	root := &cobra.Command{Use: "root"}
	AddCommands(root, zerolog.Nop())

	want := map[string]bool{"parse": false, "join": false, "catalog": false, "diagnose": false}
	for _, sub := range root.Commands() {
		name := strings.Fields(sub.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root is missing the %q subcommand", name)
		}
	}
}
