package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/config"
	"github.com/smallbiznis/paybridge/internal/events"
	"github.com/smallbiznis/paybridge/internal/integration"
	"github.com/smallbiznis/paybridge/internal/observability"
	"github.com/smallbiznis/paybridge/internal/platform/adapters"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	"github.com/smallbiznis/paybridge/internal/transaction"
	"github.com/smallbiznis/paybridge/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func syncCmd() *cobra.Command {
	var (
		userID     string
		platformID string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull transactions for one user and platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" || strings.TrimSpace(platformID) == "" {
				return errors.New("--user and --platform are required")
			}

			var svc *syncer.Service
			app := fx.New(
				fx.NopLogger,
				config.Module,
				observability.Module,
				fx.Provide(func(cfg config.Config) (*snowflake.Node, error) {
					return snowflake.NewNode(cfg.NodeID)
				}),
				db.Module,
				clock.Module,
				events.Module,
				transaction.Module,
				integration.Module,
				adapters.Module,
				syncer.Module,
				fx.Populate(&svc),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = app.Stop(context.Background()) }()

			res, err := svc.Sync(ctx, userID, platformID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id owning the integration")
	cmd.Flags().StringVarP(&platformID, "platform", "p", "", "Platform id as listed by the platforms command")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Abort the sync after this long")
	return cmd
}
