package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"idledger/internal/platform/config"
	"idledger/internal/platform/logger"
)

const programName = "idledger"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// commonRun builds the process logger from the loaded config.
func commonRun(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Log.Level
	if globalFlags.debug {
		level = "debug"
	}
	log, err := logger.New(os.Stdout, level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Identity and credential ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
