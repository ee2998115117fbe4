package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/open-builders/secret-santa-bot/internal/common/logger"
	"github.com/open-builders/secret-santa-bot/internal/config"
)

const serviceName = "secret-santa-bot"

// RootOptions holds global flags and the configuration loaded before any
// subcommand runs.
type RootOptions struct {
	EnvFile string
	Debug   bool
	Format  string // "text" | "json"

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the santa command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "santa",
		Short:         "Secret Santa Telegram bot",
		Long:          "Registers participants over Telegram, draws Secret Santa pairs and notifies every giver.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.EnvFile != "" {
				// a missing env file is fine, variables may come from the environment
				_ = godotenv.Load(opts.EnvFile)
			}
			cfg, err := config.Parse()
			if err != nil {
				return err
			}
			if opts.Debug {
				cfg.Debug = true
			}
			opts.cfg = cfg

			closer, err := logger.Init(logger.Options{
				Service: serviceName,
				Debug:   cfg.Debug,
				File:    cfg.LogFile,
				Console: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			cobra.OnFinalize(func() { _ = closer.Close() })
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().BoolVarP(&opts.Debug, "debug", "d", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDistributeCommand(opts))
	cmd.AddCommand(NewParticipantsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
