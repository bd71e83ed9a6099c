package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"bollette/internal/billing"
	"bollette/internal/cli"
	"bollette/internal/core"
	applog "bollette/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentScheduler)

	logger.Info("Starting billing-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store := cli.InitStore(ctx, logger, cfg)

	billService := billing.NewBillService(store.Store, store.AMQP)
	if store.Cleanup != nil {
		billService.SetCloser(store.Cleanup)
	}
	defer billService.Close()

	generator := billing.NewGenerator(store.Store, store.Store, store.AMQP, cfg.DueDays)

	scheduler := cron.New()

	_, err := scheduler.AddFunc(cfg.GenerateSchedule, func() {
		now := time.Now()
		req := billing.GenerateRequest{
			Title:  fmt.Sprintf("Maintenance - %s %d", now.Month(), now.Year()),
			Type:   core.TypeMaintenance,
			Amount: core.Money{Cents: cfg.MaintenanceCents},
		}
		bills, err := generator.Generate(ctx, req, now)
		if err != nil {
			logger.Error("Monthly billing run failed", "error", err)
			return
		}
		logger.Info("Monthly billing run complete", "title", req.Title, "bills_created", len(bills))
	})
	if err != nil {
		logger.Error("Invalid generate schedule", "error", err, "schedule", cfg.GenerateSchedule)
		os.Exit(1)
	}

	_, err = scheduler.AddFunc(cfg.SweepSchedule, func() {
		asOf := core.Date{Time: time.Now()}
		affected, err := billService.SweepOverdue(ctx, asOf)
		if err != nil {
			logger.Error("Overdue sweep failed", "error", err)
			return
		}
		logger.Info("Overdue sweep complete", "as_of", asOf.String(), "bills_marked", affected)
	})
	if err != nil {
		logger.Error("Invalid sweep schedule", "error", err, "schedule", cfg.SweepSchedule)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("Billing schedules registered",
		"generate", cfg.GenerateSchedule,
		"sweep", cfg.SweepSchedule,
		"maintenance_cents", cfg.MaintenanceCents)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx := scheduler.Stop()
		// Let an in-flight job finish before the process exits.
		select {
		case <-stopCtx.Done():
		case <-time.After(25 * time.Second):
			logger.Warn("Scheduler jobs did not finish in time")
		}
	})

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Billing-worker shutdown complete")
}
