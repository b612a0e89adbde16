package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/finance-calculators/internal/config"
	"github.com/iwvelando/finance-calculators/internal/definition"
	"github.com/iwvelando/finance-calculators/internal/history"
	"github.com/iwvelando/finance-calculators/pkg/constants"
	"github.com/iwvelando/finance-calculators/pkg/output"
	"github.com/iwvelando/finance-calculators/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	configPath   string
	logLevel     string
	outputFormat string
	lang         string

	conf   *config.Configuration
	logger *zap.Logger
	tag    language.Tag
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "finance-calculators",
		Short: "Declarative finance calculators",
		Long: `Run calculators described in YAML, JSON, TOML or HCL definition files.

Each calculator declares its inputs, the formula steps deriving new values
and the outputs to show. Inputs can be hidden by conditions on other inputs.

Examples:
  finance-calculators validate
  finance-calculators compute budget-matrimonio --set numero_invitati=120
  finance-calculators seek budget-matrimonio --input numero_invitati --output costo_totale_matrimonio --goal 40000 --max 300
  finance-calculators serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Flags().Changed("config"))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&a.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	flags.StringVar(&a.lang, "lang", "", "language for number formatting (e.g. en, it)")

	root.AddCommand(
		newValidateCmd(a),
		newComputeCmd(a),
		newSeekCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// load reads the configuration, builds the logger and settles the output
// options. A missing default config file is not an error.
func (a *app) load(explicitConfig bool) error {
	path := a.configPath
	if !explicitConfig {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if a.outputFormat != "" {
		conf.Output.Format = a.outputFormat
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		return err
	}
	if a.lang != "" {
		conf.Output.Language = a.lang
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.load"),
		)
	}

	a.conf = conf
	a.logger = logger
	a.tag = output.Language(conf.Output.Language)
	return nil
}

func (a *app) registry() (*definition.Registry, error) {
	return definition.LoadFiles(a.logger, a.conf.Definitions.Paths...)
}

func (a *app) historyStore() *history.Store {
	return history.NewStore(a.logger, a.conf.History.File, a.conf.History.Limit)
}
