// Command sentryquery is a CLI front end for the searchquery grammar: it
// parses, round-trips, and diagnoses query strings, and manages a
// persistent field catalog used to drive the parser's semantic
// predicates.
package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nikolaik/sentry/searchquery/cobraext"
)

const envPrefix = "SENTRYQUERY"

func main() {
	root := &cobra.Command{
		Use:   "sentryquery",
		Short: "Parse, join, and diagnose search queries against a field catalog",
	}

	root.PersistentFlags().String("catalog", "", "Path to a catalog JSON document")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("format", "json", `Default output format for "parse": json or compact`)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("log-level", "info")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := bindFlagsLoadViper(cmd); err != nil {
			return err
		}
		// Subcommands read their own --catalog/--format flags; fill any left
		// unset on the command line from the environment or config file.
		for _, name := range []string{"catalog", "format"} {
			if f := cmd.Flags().Lookup(name); f != nil && !f.Changed && viper.IsSet(name) {
				if err := cmd.Flags().Set(name, viper.GetString(name)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	log := newLogger()
	cobraext.AddCommands(root, log)

	start := time.Now()
	err := root.Execute()
	log.Debug().Dur("duration", time.Since(start)).Msg("sentryquery exit")
	if err != nil {
		os.Exit(1)
	}
}

// bindFlagsLoadViper binds cmd's flags into viper and reads an optional
// config file, giving the standard precedence order: explicit flag, then
// SENTRYQUERY_* environment variable, then ./sentryquery.yaml, then the
// flag default.
func bindFlagsLoadViper(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	viper.SetConfigName("sentryquery")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return err
		}
	}
	return nil
}

// newLogger builds the zerolog.Logger passed to every cobraext command
// factory, using whatever log-level the environment or viper default
// resolved to before flags are parsed.
func newLogger() zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(writer).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}
