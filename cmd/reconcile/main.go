// Command reconcile audits enrollments and roles against the workflow
// invariants. With -apply it repairs enrollment statuses through the state
// machine, attributing every change to the named operator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/autoecole/enrollment-service/internal/config"
	"github.com/autoecole/enrollment-service/internal/events"
	"github.com/autoecole/enrollment-service/internal/metrics"
	"github.com/autoecole/enrollment-service/internal/repositories/postgres"
	"github.com/autoecole/enrollment-service/internal/services"
	"github.com/autoecole/enrollment-service/pkg"
)

func main() {
	apply := flag.Bool("apply", false, "repair enrollment statuses instead of only reporting")
	operator := flag.String("operator", "", "operator recorded as status_updated_by (required with -apply)")
	reportPath := flag.String("report", "", "write findings to this .xlsx file")
	flag.Parse()

	if *apply && *operator == "" {
		fmt.Fprintln(os.Stderr, "reconcile: -operator is required with -apply")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *apply, *operator, *reportPath); err != nil {
		logger.Error("Reconcile failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, apply bool, operator, reportPath string) error {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db})
	if err := repoManager.Initialize(); err != nil {
		return fmt.Errorf("initialize repositories: %w", err)
	}
	defer repoManager.Shutdown(context.WithoutCancel(ctx))

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	eventPublisher := events.NewWatermillPublisher(publisher, cfg.EventsTopic, logger)
	defer eventPublisher.Close()

	maintenance := services.NewMaintenanceService(services.Dependencies{
		Repo:      repoManager.GetRepository(),
		Logger:    logger,
		Publisher: eventPublisher,
		Metrics:   metrics.New(prometheus.NewRegistry()),
	})

	var report *services.ReconcileReport
	if apply {
		report, err = maintenance.Repair(ctx, operator)
	} else {
		report, err = maintenance.Audit(ctx)
	}
	if err != nil {
		return err
	}

	corrected := 0
	for _, finding := range report.Findings {
		if finding.Corrected {
			corrected++
		}
		logger.Info("Finding",
			"kind", finding.Kind,
			"enrollment_id", finding.EnrollmentID,
			"user_id", finding.UserID,
			"status", finding.Status,
			"corrected", finding.Corrected,
			"detail", finding.Detail)
	}
	logger.Info("Reconcile finished",
		"applied", report.Applied,
		"enrollments_scanned", report.Enrollments,
		"users_scanned", report.Users,
		"findings", len(report.Findings),
		"corrected", corrected)

	if reportPath == "" {
		return nil
	}
	data, err := maintenance.Workbook(report)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("Report written", "path", reportPath)
	return nil
}

// newPublisher forwards corrections to Kafka when configured. Without
// brokers the in-process bus has no subscriber and the events only reach
// the log.
func newPublisher(cfg *config.Config, logger *slog.Logger) (message.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewGoChannelBus(logger), nil
	}
	publisher, subscriber, err := events.NewKafkaPubSub(events.KafkaConfig{
		Brokers:       cfg.KafkaBrokers,
		ConsumerGroup: cfg.ConsumerGroup,
	}, logger)
	if err != nil {
		return nil, err
	}
	_ = subscriber.Close()
	return publisher, nil
}
