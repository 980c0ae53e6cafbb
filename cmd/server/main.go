package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/dispatcher"
	"github.com/docuflow/report-routing/internal/application/service"
	appwf "github.com/docuflow/report-routing/internal/application/workflow"
	"github.com/docuflow/report-routing/internal/config"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
	"github.com/docuflow/report-routing/internal/infrastructure/identity"
	"github.com/docuflow/report-routing/internal/infrastructure/persistence/repository"
	"github.com/docuflow/report-routing/internal/infrastructure/persistence/sqlite"
	"github.com/docuflow/report-routing/internal/infrastructure/storage"
	"github.com/docuflow/report-routing/internal/notification"
	httpserver "github.com/docuflow/report-routing/internal/interfaces/http"
	"github.com/docuflow/report-routing/pkg/database"
	"github.com/docuflow/report-routing/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting report routing service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	reportRepo := repository.NewReportRepository(db.DB, logger)
	assignmentRepo := repository.NewAssignmentRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	profileRepo := repository.NewProfileRepository(db.DB, logger)
	attachmentRepo := repository.NewAttachmentRepository(db.DB, logger)

	identityService := identity.NewService(profileRepo, logger)
	blobStorage := storage.NewLocalBlobStorage(cfg.Storage.BaseDir, cfg.Storage.BaseURL, logger)

	events := dispatcher.NewDispatcher(logger)
	defer events.Close()

	notifier := notification.NewHandoffNotifier(profileRepo, logger)
	notifier.Register(events)

	engine := appwf.NewEngine(
		domainwf.NewTable(),
		reportRepo,
		assignmentRepo,
		historyRepo,
		txManager,
		logger,
		appwf.WithEvents(events),
	)

	reportService := service.NewReportService(
		reportRepo,
		assignmentRepo,
		historyRepo,
		attachmentRepo,
		txManager,
		logger,
	)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		engine,
		reportService,
		identityService,
		blobStorage,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}

	logger.Info("Server shut down cleanly")
}
