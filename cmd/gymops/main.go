package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gymops-erp/gymops/internal/app"
	"github.com/gymops-erp/gymops/internal/auth"
	"github.com/gymops-erp/gymops/internal/authz"
	"github.com/gymops-erp/gymops/internal/boardsync"
	"github.com/gymops-erp/gymops/internal/boardsync/monday"
	"github.com/gymops-erp/gymops/internal/contracts"
	"github.com/gymops-erp/gymops/internal/employees"
	"github.com/gymops-erp/gymops/internal/members"
	"github.com/gymops-erp/gymops/internal/observability"
	"github.com/gymops-erp/gymops/internal/payments"
	"github.com/gymops-erp/gymops/internal/platform/cache"
	"github.com/gymops-erp/gymops/internal/platform/db"
	"github.com/gymops-erp/gymops/internal/products"
	"github.com/gymops-erp/gymops/internal/sales"
	"github.com/gymops-erp/gymops/internal/schedule"
	"github.com/gymops-erp/gymops/internal/shared"
	"github.com/gymops-erp/gymops/internal/webhooks"
	"github.com/gymops-erp/gymops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, 0)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "gymops_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	syncRepo := boardsync.NewRepository(dbpool)
	mondayClient := monday.New(cfg.MondayToken, cfg.MondayEndpoint)
	syncService := boardsync.NewService(syncRepo, mondayClient, cfg.BoardIDs(), logger)
	syncHooks := boardsync.NewHooks(syncService, logger)

	employeeRepo := employees.NewRepository(dbpool)
	employeeService := employees.NewService(employeeRepo, syncHooks, auditLogger, logger)

	gate := authz.NewGate(employees.NewDirectory(employeeRepo), logger)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, gate)

	memberRepo := members.NewRepository(dbpool)
	memberService := members.NewService(memberRepo, syncHooks, logger)

	contractRepo := contracts.NewRepository(dbpool)
	contractService := contracts.NewService(contractRepo, syncHooks, logger)

	paymentRepo := payments.NewRepository(dbpool)
	paymentService := payments.NewService(paymentRepo, syncHooks, logger)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo, logger)

	saleRepo := sales.NewRepository(dbpool)
	saleService := sales.NewService(saleRepo, productService, logger)

	scheduleRepo := schedule.NewRepository(dbpool)
	scheduleService := schedule.NewService(scheduleRepo, logger)

	eventLog := webhooks.NewEventLog(dbpool)
	ingestor := webhooks.NewIngestor(paymentService, cfg.WebhookSecret, logger)
	webhookHandler := webhooks.NewHandler(logger, ingestor, syncService, eventLog)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,

		AuthHandler:      authHandler,
		MembersHandler:   members.NewHandler(logger, memberService, gate),
		EmployeesHandler: employees.NewHandler(logger, employeeService, gate),
		ContractsHandler: contracts.NewHandler(logger, contractService, gate),
		PaymentsHandler:  payments.NewHandler(logger, paymentService, gate),
		ProductsHandler:  products.NewHandler(logger, productService, gate),
		SalesHandler:     sales.NewHandler(logger, saleService, gate),
		ScheduleHandler:  schedule.NewHandler(logger, scheduleService, gate),
		SyncHandler:      boardsync.NewHandler(logger, syncService, gate),
		WebhookHandler:   webhookHandler,

		JobHandler: jobHandler,
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
