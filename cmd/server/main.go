package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/config"
	"github.com/mamadbah2/farmdesk/internal/repository/mongodb"
	"github.com/mamadbah2/farmdesk/internal/repository/sheets"
	"github.com/mamadbah2/farmdesk/internal/scheduler"
	"github.com/mamadbah2/farmdesk/internal/server/handlers"
	"github.com/mamadbah2/farmdesk/internal/server/router"
	automationsvc "github.com/mamadbah2/farmdesk/internal/service/automation"
	contactsvc "github.com/mamadbah2/farmdesk/internal/service/contact"
	feedsvc "github.com/mamadbah2/farmdesk/internal/service/feed"
	financesvc "github.com/mamadbah2/farmdesk/internal/service/finance"
	inventorysvc "github.com/mamadbah2/farmdesk/internal/service/inventory"
	productionsvc "github.com/mamadbah2/farmdesk/internal/service/production"
	reportingsvc "github.com/mamadbah2/farmdesk/internal/service/reporting"
	salessvc "github.com/mamadbah2/farmdesk/internal/service/sales"
	tasksvc "github.com/mamadbah2/farmdesk/internal/service/tasks"
	"github.com/mamadbah2/farmdesk/pkg/clients/mailer"
	whatsappclient "github.com/mamadbah2/farmdesk/pkg/clients/whatsapp"
	"github.com/mamadbah2/farmdesk/pkg/lock"
	"github.com/mamadbah2/farmdesk/pkg/logger"
	"github.com/mamadbah2/farmdesk/pkg/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongodb.Connect(ctx, cfg.MongoDB, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}
	if err := store.Migrate(ctx, mongodb.Migrations()); err != nil {
		baseLogger.Fatal("failed to run mongodb migrations", zap.Error(err))
	}

	stockRepo := mongodb.NewFeedStockRepository(store)
	usageRepo := mongodb.NewFeedUsageRepository(store)

	// Sheets stays a nil interface when not configured.
	var sheetRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetRepo = repo
		baseLogger.Info("google sheets export enabled")
	}

	feedSvc := feedsvc.NewService(stockRepo, usageRepo, store, cfg.Automation.ExpiryWarningDays, baseLogger.Named("svc.feed"))
	inventorySvc := inventorysvc.NewService(feedSvc)
	productionSvc := productionsvc.NewService(mongodb.NewEggProductionRepository(store), baseLogger.Named("svc.production"))
	salesSvc := salessvc.NewService(mongodb.NewSalesOrderRepository(store), cfg.Phone.DefaultRegion, baseLogger.Named("svc.sales"))
	taskSvc := tasksvc.NewService(mongodb.NewTaskRepository(store), baseLogger.Named("svc.tasks"))
	financeSvc := financesvc.NewService(mongodb.NewFinancialRecordRepository(store), baseLogger.Named("svc.finance"))
	reportingSvc := reportingsvc.NewService(usageRepo, stockRepo, sheetRepo, cfg.Sheets.ReportRange, baseLogger.Named("svc.reporting"))

	mailClient := mailer.NewSendGridClient(cfg.Mail)
	if cfg.Mail.APIKey == "" {
		baseLogger.Warn("sendgrid api key missing, contact form disabled")
	}
	contactSvc := contactsvc.NewService(mailClient, cfg.Mail.AdminRecipient, cfg.Phone.DefaultRegion, baseLogger.Named("svc.contact"))

	notifiers := automationsvc.MultiNotifier{automationsvc.NewLogNotifier(baseLogger.Named("alerts"))}
	if cfg.WhatsApp.Enabled() {
		notifiers = append(notifiers, automationsvc.NewWhatsAppNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.AlertRecipient))
		baseLogger.Info("whatsapp alerts enabled")
	}
	automationSvc := automationsvc.NewService(
		stockRepo, store, usageRepo, taskSvc, reportingSvc, notifiers,
		automationsvc.ThresholdsFrom(cfg.Automation), baseLogger.Named("svc.automation"),
	)

	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.URL != "" {
		redisLocker, err := lock.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisLocker.Close() }()
		locker = redisLocker
		baseLogger.Info("redis job locking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sched := scheduler.New(cfg.Automation, locker, metrics.NewJobMetrics(registry), baseLogger.Named("scheduler"))
	schedules := map[string]string{
		automationsvc.JobDaily:   cfg.Automation.DailySchedule,
		automationsvc.JobWeekly:  cfg.Automation.WeeklySchedule,
		automationsvc.JobMonthly: cfg.Automation.MonthlySchedule,
	}
	for _, job := range automationSvc.Jobs() {
		if err := sched.Register(schedules[job.Name()], job); err != nil {
			baseLogger.Fatal("failed to register job", zap.String("job", job.Name()), zap.Error(err))
		}
	}
	if cfg.Automation.Enabled {
		sched.Start()
	} else {
		baseLogger.Warn("automation disabled, jobs run only when triggered")
	}

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	responder := handlers.NewResponder(baseLogger.Named("handlers"), cfg.Server.IsDevelopment())
	engine := router.New(router.Dependencies{
		Server:        cfg.Server,
		Gatherer:      registry,
		HTTPMetrics:   metrics.NewHTTPMetrics(registry),
		Health:        handlers.NewHealthHandler(store, cfg.Server.Env),
		FeedStock:     handlers.NewFeedStockHandler(feedSvc, responder),
		FeedUsage:     handlers.NewFeedUsageHandler(feedSvc, responder),
		FeedInventory: handlers.NewFeedInventoryHandler(inventorySvc, responder),
		EggProduction: handlers.NewEggProductionHandler(productionSvc, responder),
		SalesOrders:   handlers.NewSalesOrderHandler(salesSvc, responder),
		Tasks:         handlers.NewTaskHandler(taskSvc, responder),
		Finance:       handlers.NewFinancialRecordHandler(financeSvc, responder),
		Contact:       handlers.NewContactHandler(contactSvc, responder),
		Automation:    handlers.NewAutomationHandler(sched, cfg.Automation.Enabled, responder),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		baseLogger.Warn("running jobs did not finish before shutdown")
	}
}
