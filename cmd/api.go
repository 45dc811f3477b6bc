package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/workflow-service/internal/application"
	"github.com/psds-microservice/workflow-service/internal/config"
	"github.com/psds-microservice/workflow-service/internal/logging"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP API server",
	RunE:  runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	app, err := application.NewAPI(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx)
}
