// Package cobraext provides Cobra command factories for searchquery. It
// isolates the github.com/spf13/cobra dependency so that callers who only
// need the parser library never import it.
package cobraext

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nikolaik/sentry/searchquery"
	"github.com/nikolaik/sentry/searchquery/catalogjson"
	"github.com/nikolaik/sentry/searchquery/catalogstore"
)

// loadCatalog reads catalogPath (a JSON document) and returns the decoded
// catalog, or an empty catalog if no path is given — an empty catalog
// admits no typed value on a plain key, so such filters land as Text (or
// TextIn, Is, Has); aggregate keys still take the Aggregate* forms.
func loadCatalog(catalogPath string) (*searchquery.FieldCatalog, error) {
	if catalogPath == "" {
		return searchquery.NewFieldCatalog(), nil
	}
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", catalogPath, err)
	}
	return catalogjson.Load(data)
}

// ParseCommand creates the "parse" subcommand: parses a query and prints
// its AST as JSON, or as a flattened table with --format compact.
func ParseCommand(log zerolog.Logger) *cobra.Command {
	var catalogPath, format string

	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query string into its AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				log.Error().Err(err).Msg("parse")
				return err
			}
			ast := searchquery.Parse(args[0], cat)
			if ast == nil {
				err := fmt.Errorf("query did not parse: %q", args[0])
				log.Error().Err(err).Msg("parse")
				return err
			}
			var out []byte
			if strings.EqualFold(format, "compact") {
				out = searchquery.FormatCompact(ast)
			} else {
				out, err = json.MarshalIndent(ast, "", "  ")
				if err != nil {
					log.Error().Err(err).Msg("parse")
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog JSON document (see catalogjson.Load)")
	cmd.Flags().StringVar(&format, "format", "json", `Output format: "json" or "compact"`)
	return cmd
}

// JoinCommand creates the "join" subcommand: parses then re-joins a
// query, printing the reconstructed string. With --diff, it additionally
// prints the input for comparison when the round-trip does not match —
// which, for any query that parses, it never should.
func JoinCommand(log zerolog.Logger) *cobra.Command {
	var catalogPath string
	var diff bool

	cmd := &cobra.Command{
		Use:   "join <query>",
		Short: "Round-trip a query through Parse then Join",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				log.Error().Err(err).Msg("join")
				return err
			}
			ast := searchquery.Parse(args[0], cat)
			if ast == nil {
				err := fmt.Errorf("query did not parse: %q", args[0])
				log.Error().Err(err).Msg("join")
				return err
			}
			joined := searchquery.Join(ast, false, false)
			if diff && joined != args[0] {
				fmt.Fprintf(cmd.OutOrStdout(), "input:  %s\njoined: %s\n", args[0], joined)
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), joined)
			return err
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog JSON document (see catalogjson.Load)")
	cmd.Flags().BoolVar(&diff, "diff", false, "Print input and joined output side by side if they differ")
	return cmd
}

// CatalogCommand creates the "catalog" subcommand with "load"/"save"
// children, managing a catalogstore.Store at a SQLite path.
func CatalogCommand(log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage a persistent field catalog",
	}
	cmd.AddCommand(catalogLoadCommand(log), catalogSaveCommand(log))
	return cmd
}

func catalogLoadCommand(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "load <sqlite-path>",
		Short: "Print the catalog stored at sqlite-path as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := catalogstore.Open(ctx, args[0])
			if err != nil {
				log.Error().Err(err).Msg("catalog load")
				return err
			}
			defer store.Close()
			cat, err := store.Load(ctx)
			if err != nil {
				log.Error().Err(err).Msg("catalog load")
				return err
			}
			doc := map[string]any{"allowBoolean": cat.AllowBoolean, "fields": cat.Fields, "aggregations": cat.Aggregations}
			for name, set := range map[string]map[string]bool{
				"numericKeys": cat.NumericKeys, "booleanKeys": cat.BooleanKeys, "percentageKeys": cat.PercentageKeys,
				"dateKeys": cat.DateKeys, "durationKeys": cat.DurationKeys, "textOperatorKeys": cat.TextOperatorKeys,
			} {
				keys := []string{}
				for k := range set {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				doc[name] = keys
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func catalogSaveCommand(log zerolog.Logger) *cobra.Command {
	var jsonPath string
	cmd := &cobra.Command{
		Use:   "save <sqlite-path>",
		Short: "Load a catalog JSON document and persist it to sqlite-path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonPath == "" {
				return fmt.Errorf("--json is required")
			}
			data, err := os.ReadFile(jsonPath)
			if err != nil {
				log.Error().Err(err).Msg("catalog save")
				return err
			}
			cat, err := catalogjson.Load(data)
			if err != nil {
				log.Error().Err(err).Msg("catalog save")
				return err
			}
			ctx := cmd.Context()
			store, err := catalogstore.Open(ctx, args[0])
			if err != nil {
				log.Error().Err(err).Msg("catalog save")
				return err
			}
			defer store.Close()
			if err := store.Save(ctx, cat); err != nil {
				log.Error().Err(err).Msg("catalog save")
				return err
			}
			log.Info().Str("path", args[0]).Msg("catalog saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&jsonPath, "json", "", "Path to a catalog JSON document to load")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}

// diagnosticFailure is one line of the diagnose command's report.
type diagnosticFailure struct {
	Line    int    `json:"line"`
	Query   string `json:"query"`
	TraceID string `json:"traceId"`
	Message string `json:"message"`
	Offset  int    `json:"offset"`
}

// DiagnoseCommand creates the "diagnose" subcommand: batch-parses one
// query per line of --in in ParseDiagnostic mode, and writes a
// zstd-compressed JSON report of every failure.
func DiagnoseCommand(log zerolog.Logger) *cobra.Command {
	var in, out, catalogPath string

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Batch-parse queries and write a compressed failure report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" || out == "" {
				return fmt.Errorf("both --in and --out are required")
			}
			cat, err := loadCatalog(catalogPath)
			if err != nil {
				log.Error().Err(err).Msg("diagnose")
				return err
			}

			inFile, err := os.Open(in)
			if err != nil {
				log.Error().Err(err).Msg("diagnose")
				return err
			}
			defer inFile.Close()

			var failures []diagnosticFailure
			scanner := bufio.NewScanner(inFile)
			lineNum := 0
			for scanner.Scan() {
				lineNum++
				query := scanner.Text()
				if query == "" {
					continue
				}
				if _, parseErr := searchquery.ParseDiagnostic(query, cat); parseErr != nil {
					failures = append(failures, diagnosticFailure{
						Line:    lineNum,
						Query:   query,
						TraceID: parseErr.TraceID,
						Message: parseErr.Message,
						Offset:  parseErr.Pos.Offset,
					})
				}
			}
			if err := scanner.Err(); err != nil {
				log.Error().Err(err).Msg("diagnose")
				return err
			}

			payload, err := json.MarshalIndent(failures, "", "  ")
			if err != nil {
				return err
			}

			outFile, err := os.Create(out)
			if err != nil {
				log.Error().Err(err).Msg("diagnose")
				return err
			}
			defer outFile.Close()

			zw, err := zstd.NewWriter(outFile)
			if err != nil {
				return err
			}
			if _, err := zw.Write(payload); err != nil {
				zw.Close()
				return err
			}
			if err := zw.Close(); err != nil {
				return err
			}

			size := int64(0)
			if info, statErr := outFile.Stat(); statErr == nil {
				size = info.Size()
			}
			log.Info().
				Str("lines", humanize.Comma(int64(lineNum))).
				Int("failures", len(failures)).
				Str("out", out).
				Str("size", humanize.Bytes(uint64(size))).
				Msg("diagnose complete")
			fmt.Fprintf(cmd.OutOrStdout(), "%s lines scanned, %d failures, report written to %s (%s)\n",
				humanize.Comma(int64(lineNum)), len(failures), out, humanize.Bytes(uint64(size)))
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Input file, one query per line")
	cmd.Flags().StringVar(&out, "out", "", "Output path for the zstd-compressed JSON report")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Path to a catalog JSON document (see catalogjson.Load)")
	return cmd
}

// AddCommands adds parse, join, catalog, and diagnose as subcommands of
// parent, logging through log at each command's RunE boundary.
func AddCommands(parent *cobra.Command, log zerolog.Logger) {
	parent.AddCommand(
		ParseCommand(log),
		JoinCommand(log),
		CatalogCommand(log),
		DiagnoseCommand(log),
	)
}
