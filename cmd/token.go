package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/runtime"
)

func tokenCMD() *cobra.Command {
	var (
		cfgPath string
		subject string
		ttl     string
	)
	var token = &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
			}
			d, err := time.ParseDuration(ttl)
			if err != nil {
				return fmt.Errorf("parsing ttl: %w", err)
			}
			tok, err := runtime.SignJWT(subject, []byte(cfg.Server.JWTSecret), d)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	token.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config)")
	token.Flags().StringVar(&subject, "subject", "cli", "token subject")
	token.Flags().StringVar(&ttl, "ttl", "24h", "token lifetime, e.g. 30m, 24h")

	return token
}
