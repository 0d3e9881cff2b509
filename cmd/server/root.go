package main

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/spf13/cobra"
)

// configPath is bound to the persistent --config flag.
var configPath string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Room rental listing catalog service",
		Long:          "Serves the public room catalog and the owner listing workflows, and maintains the photo bucket.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       fmt.Sprintf("%s.%s", version, commit),
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file; environment variables take precedence")
	cmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSweepOrphansCommand(),
		newConfigCommand(),
	)
	return cmd
}

// loadConfig initializes the process logger and reads the configuration.
func loadConfig() (*config.Config, *logger.Logger, error) {
	appLogger := logger.NewLogger()
	cfg, err := config.LoadConfig(configPath, appLogger)
	if err != nil {
		return nil, appLogger, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, appLogger, nil
}
