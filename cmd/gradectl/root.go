package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-lms-api/internal/app"
	"github.com/noah-isme/gema-lms-api/internal/config"
)

type rootOptions struct {
	driver      string
	databaseURL string
	verbose     bool
}

// newRootCmd builds the command tree. configure, when set, adjusts the loaded config (tests use it).
func newRootCmd(configure func(*config.Config)) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "gradectl",
		Short:         "Operate the assignment grading pipeline",
		Long:          "gradectl runs maintenance tasks against the grading database: schema migration, consistency checks and course certification.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "Database driver (postgres|sqlite), overrides GEMA_DATABASE_DRIVER")
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Database DSN, overrides GEMA_DATABASE_URL")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log service activity to stderr")

	connect := func(cmd *cobra.Command, buildOpts app.Options) (*app.Container, error) {
		cfg, err := config.LoadForTools()
		if err != nil {
			return nil, err
		}
		if opts.driver != "" {
			cfg.DatabaseDriver = strings.ToLower(opts.driver)
		}
		if opts.databaseURL != "" {
			cfg.DatabaseURL = opts.databaseURL
		}
		if configure != nil {
			configure(&cfg)
		}

		logger := zerolog.Nop()
		if opts.verbose {
			logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
		}

		return app.Build(cfg, logger, buildOpts)
	}

	root.AddCommand(newMigrateCmd(connect))
	root.AddCommand(newReconcileCmd(connect))
	root.AddCommand(newCertifyCourseCmd(connect))

	return root
}

type connectFunc func(cmd *cobra.Command, opts app.Options) (*app.Container, error)

func writeJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
