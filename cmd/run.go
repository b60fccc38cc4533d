package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/config"
	srv "github.com/taskpilot/taskpilot/internal/server"
)

func runCMD() *cobra.Command {
	var (
		cfgPath string
		email   string
		profile string
		dryRun  bool
	)
	var run = &cobra.Command{
		Use:   "run <command>",
		Short: "Plan and execute one command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, _, rdb, err := srv.NewRunner(ctx, cfg)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}

			if dryRun {
				p, err := runner.PlanOnly(ctx, args[0], email)
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			rec, err := runner.Run(ctx, args[0], email, profile)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(rec.Plan, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			for _, line := range rec.Logs {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	run.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	run.Flags().StringVarP(&email, "email", "e", "", "target email address for results")
	run.Flags().StringVarP(&profile, "profile", "p", "", "tools profile: basic or enhanced")
	run.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without executing it")

	return run
}
