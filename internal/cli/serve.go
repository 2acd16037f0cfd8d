package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/connectord/internal/config"
	"github.com/custodia-labs/connectord/internal/connectors"
	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/core/services"
	"github.com/custodia-labs/connectord/internal/gateway"
	"github.com/custodia-labs/connectord/internal/logger"
	"github.com/custodia-labs/connectord/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connector-sync orchestrator loop",
	Long: `Starts the scheduling loop that drives Connector and SyncJob
control-plane documents: ticking on a schedule, claiming due connectors,
running their SourceAdapter's pipeline, and reaping orphaned or idle jobs.
Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	gw, closeGW, err := buildGateway(cfg.Gateway)
	if err != nil {
		return err
	}
	defer closeGW()

	registry := connectors.NewRegistry()
	metricsReg := metrics.New(prometheus.DefaultRegisterer)
	validator := services.BasicRuleValidator{}

	orch := services.NewOrchestrator(services.OrchestratorConfig{
		NativeServiceTypes:       cfg.Orchestrator.NativeServiceTypes,
		ConfiguredConnectorIDs:   cfg.Orchestrator.ConfiguredConnectorIDs,
		ConnectorServiceTypes:    cfg.Orchestrator.ConnectorServiceTypes,
		WorkerHostname:           cfg.Orchestrator.WorkerHostname,
		HeartbeatIntervalSeconds: cfg.Orchestrator.HeartbeatIntervalSeconds,
		TickInterval:             cfg.Orchestrator.TickInterval,
		UpdateCountsEvery:        cfg.Orchestrator.UpdateCountsEvery,
	}, gw, registry, validator, metricsReg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.WithFields(logger.Fields{"addr": cfg.Metrics.Addr, "path": cfg.Metrics.Path}, "starting metrics server")
			if srvErr := metricsSrv.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				logger.ErrorFields(logger.Fields{"error": srvErr.Error()}, "metrics server failed")
			}
		}()
	}

	logger.WithFields(logger.Fields{"worker_hostname": cfg.Orchestrator.WorkerHostname}, "orchestrator starting")
	runErr := orch.Run(ctx)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func buildGateway(cfg config.GatewayConfig) (domain.IndexGateway, func(), error) {
	if gatewayOverride != nil {
		return gatewayOverride, func() {}, nil
	}
	switch cfg.Backend {
	case "sqlite":
		sq, err := gateway.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sq, func() { _ = sq.Close() }, nil
	default:
		return gateway.NewMemory(), func() {}, nil
	}
}
