package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finimport/internal/buildinfo"
	"github.com/cleared-dev/finimport/internal/config"
	"github.com/cleared-dev/finimport/internal/importer"
	"github.com/cleared-dev/finimport/internal/logging"
)

// app is the state shared by subcommands once flags are parsed.
type app struct {
	cfg *config.Config
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{cfg: config.Default()}
	var (
		verbose    bool
		configPath string
		envFile    string
	)

	rootCmd := &cobra.Command{
		Use:     "finimport",
		Short:   "Import bank statements and fiscal invoices",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if err := config.ApplyEnv(cfg, envFile); err != nil {
				return err
			}
			a.cfg = cfg

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			logger := logging.NewConsole(cmd.ErrOrStderr(), level)
			cmd.SetContext(logging.WithContext(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file with FINIMPORT_* overrides (default .env if present)")

	rootCmd.AddCommand(
		newInitCommand(),
		newParseCommand(a),
		newScanCommand(a),
		newInvoiceCommand(a),
		newValidateCommand(),
		newMatchCommand(a),
	)

	return rootCmd
}

// registry builds the statement parsers for one command run.
func (a *app) registry(cmd *cobra.Command) *importer.Registry {
	return importer.DefaultRegistry(
		importer.WithLogger(logging.FromContext(cmd.Context())),
		importer.WithFallbackEncoding(a.cfg.CSV.FallbackEncoding),
	)
}
