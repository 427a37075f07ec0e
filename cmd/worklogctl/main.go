package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/worklog-hq/worklog/internal/app"
	"github.com/worklog-hq/worklog/internal/auth"
	"github.com/worklog-hq/worklog/internal/platform/cache"
	"github.com/worklog-hq/worklog/internal/platform/db"
	"github.com/worklog-hq/worklog/jobs"
)

func main() {
	root := &cobra.Command{
		Use:          "worklogctl",
		Short:        "Operational commands for the worklog backend",
		SilenceUsage: true,
	}

	root.AddCommand(
		newUserCmd(),
		newSweepSessionsCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(ctx, db.Config{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
			if err != nil {
				return err
			}
			defer pool.Close()

			redisClient, err := cache.New(ctx, cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer redisClient.Close()

			service := auth.NewService(auth.NewRepository(pool), auth.NewTokenStore(redisClient, cfg.TokenTTL))
			user, err := service.Register(ctx, email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSweepSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-sessions",
		Short: "Enqueue a one-off expired session sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.EnqueueSessionSweep(ctx, jobs.SessionSweepPayload{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
			return nil
		},
	}
}
