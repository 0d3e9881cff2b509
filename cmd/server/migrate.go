package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the listing store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openStore(cmd.Context(), cfg, appLogger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.migrate(cmd.Context()); err != nil {
				appLogger.Error("Migration failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
				return err
			}
			appLogger.Info("Listing store is up to date", zap.String("driver", cfg.DBDriver))
			return nil
		},
	}
}
