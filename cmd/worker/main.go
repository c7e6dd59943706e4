package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-workorders/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-workorders/internal/platform/observability"
	woactivities "github.com/Apurer/go-gin-workorders/internal/platform/temporal/activities/workorders"
	woworkflows "github.com/Apurer/go-gin-workorders/internal/platform/temporal/workflows/workorders"
)

func main() {
	ctx := context.Background()
	const serviceName = "workorders-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	notifier := api.BuildNotifier(cfg, logger)
	if notifier == nil {
		logger.Warn("NOTIFY_WEBHOOK_URL not set, transition notifications will be skipped")
	}
	acts := woactivities.NewActivities(notifier)

	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, woworkflows.TransitionFanoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(woworkflows.TransitionFanoutWorkflow, workflow.RegisterOptions{Name: woworkflows.TransitionFanoutWorkflowName})
	w.RegisterActivityWithOptions(acts.NotifyTransition, activity.RegisterOptions{Name: woactivities.NotifyTransitionActivityName})

	logger.Info("worker listening", slog.String("taskQueue", woworkflows.TransitionFanoutTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
