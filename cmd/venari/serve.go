package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/venari/internal/app"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline daemon on the configured daily cadence",
	RunE: func(cmd *cobra.Command, args []string) error {
		rc := config.Tools.Recruiting
		return withApp(func(a *app.App) error {
			commonPrintBanner()

			sched := scheduler.NewService(logger)
			for _, role := range rc.Roles {
				role := role
				err := sched.AddJob("recruiting:"+role.RoleKey, rc.Run.DefaultCadence, func() {
					handle := a.Pipeline.Run(context.Background(), &models.RunInput{
						Role: models.RoleSpec{
							RoleKey:   role.RoleKey,
							RoleTitle: role.RoleTitle,
							Search: models.SearchCriteria{
								Keywords: role.Keywords,
								Location: role.Location,
								Industry: role.Industry,
								API:      role.API,
							},
							TargetCandidates: role.TargetCandidates,
						},
						SourceQueryMode:   models.SourceQueryMode(role.SourceQueryMode),
						EvidenceQueryMode: models.EvidenceQueryMode(role.EvidenceQueryMode),
					})
					logger.Info().
						Str("run_id", handle.RunID).
						Str("status", string(handle.Status)).
						Str("role_key", role.RoleKey).
						Msg("Scheduled run finished")
				})
				if err != nil {
					return err
				}
			}

			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			logger.Info().
				Str("cadence", rc.Run.DefaultCadence).
				Int("roles", len(rc.Roles)).
				Msg("Pipeline daemon running, press Ctrl+C to stop")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.Info().Msg("Shutting down")
			return nil
		})
	},
}
