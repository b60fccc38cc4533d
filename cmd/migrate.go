package main

import (
	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/store"
)

func migrateCMD() *cobra.Command {
	var (
		migDir    string
		direction string
		steps     int
		cfgPath   string
	)

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return store.Migrate(migDir, cfg.Storage.Postgres, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	migrate.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")

	return migrate
}
