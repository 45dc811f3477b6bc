package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/workflow-service/internal/config"
	"github.com/psds-microservice/workflow-service/internal/database"
	"github.com/psds-microservice/workflow-service/internal/handler"
	"github.com/psds-microservice/workflow-service/internal/identity"
	"github.com/psds-microservice/workflow-service/internal/notify"
	"github.com/psds-microservice/workflow-service/internal/router"
	"github.com/psds-microservice/workflow-service/internal/store"
	"github.com/psds-microservice/workflow-service/internal/ticket"
	"github.com/psds-microservice/workflow-service/internal/workflow"
	"go.uber.org/zap"
)

// API wires the engines to the HTTP surface (mode api).
type API struct {
	cfg      *config.Config
	log      *zap.Logger
	httpSrv  *http.Server
	producer *notify.Producer
}

// NewAPI migrates the database, builds the rule registry and role directory,
// and assembles the engines behind the router.
func NewAPI(cfg *config.Config, log *zap.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	registry := workflow.DefaultRegistry()
	if cfg.WorkflowRulesPath != "" {
		registry, err = workflow.LoadRegistry(cfg.WorkflowRulesPath)
		if err != nil {
			return nil, fmt.Errorf("workflow rules: %w", err)
		}
	}

	var directory workflow.RoleDirectory
	switch {
	case cfg.IdentityServiceURL != "":
		directory = identity.NewClient(cfg.IdentityServiceURL, log)
	case cfg.RoleDirectoryPath != "":
		directory, err = identity.LoadStaticDirectory(cfg.RoleDirectoryPath)
		if err != nil {
			return nil, fmt.Errorf("role directory: %w", err)
		}
	default:
		log.Warn("no identity source configured, all roles resolve to zero approvers")
		directory = identity.NewStaticDirectory(nil)
	}

	producer := notify.NewProducer(notify.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopic, log)

	builder := workflow.NewBuilder(registry, directory)
	engine := workflow.NewEngine(store.NewWorkflowStore(db), builder, producer, log)
	ticketSvc := ticket.NewService(store.NewTicketStore(db), store.NewTeamStore(db), producer, log)

	mux := router.New(log,
		handler.NewWorkflowHandler(engine),
		handler.NewTicketHandler(ticketSvc),
		handler.NewTeamHandler(ticketSvc),
	)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		log:      log,
		httpSrv:  httpSrv,
		producer: producer,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening",
		zap.String("addr", a.httpSrv.Addr),
		zap.String("swagger", base+"/swagger"),
		zap.String("health", base+"/health"),
		zap.String("api", base+"/api/v1/"))

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Warn("kafka producer close", zap.Error(err))
	}
	return nil
}
