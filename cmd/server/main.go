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
	"github.com/shopspring/decimal"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	eventapp "github.com/storefront/backend/internal/application/event"
	fulfillmentapp "github.com/storefront/backend/internal/application/fulfillment"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/application/jobs"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	reportapp "github.com/storefront/backend/internal/application/report"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	stockapp "github.com/storefront/backend/internal/application/stock"
	taxapp "github.com/storefront/backend/internal/application/tax"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/messaging"
	paymentinfra "github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"

	_ "github.com/storefront/backend/docs"
)

const version = "1.0.0"

//	@title			Storefront API
//	@version		1.0
//	@description	Order, checkout, payment, fulfillment and reporting API of the storefront backend.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "logger provider", loggerProvider.Shutdown)
	log = loggerProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
		Contention:      cfg.Telemetry.ProfilingContention,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Failed to stop profiler", zap.Error(err))
		}
	}()
	if cfg.Telemetry.SpanProfiles && profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.Open(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if cfg.Telemetry.DBTraceEnabled {
		dbSystem := "postgresql"
		if cfg.Database.Driver == config.DriverSQLite {
			dbSystem = "sqlite"
		}
		dbTracing := telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         dbSystem,
			WithoutVariables: cfg.IsProduction(),
		}
		if meterProvider.IsEnabled() {
			dbTracing.Meter = meterProvider.Meter("db")
		}
		plugin := telemetry.NewDBTracingPlugin(dbTracing, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Redis backed stores, falling back to memory outside production
	stores := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	defer func() { _ = stores.Close() }()

	idempotencyStore, err := stores.CreateIdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	csvStore, err := stores.CreateCSVStore()
	if err != nil {
		log.Fatal("Failed to create report CSV store", zap.Error(err))
	}
	tokenBlacklist, err := stores.CreateTokenBlacklist()
	if err != nil {
		log.Fatal("Failed to create token blacklist", zap.Error(err))
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	statusRepo := persistence.NewGormStatusRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	packageRepo := persistence.NewGormPackageRepository(db.DB)
	shipmentRepo := persistence.NewGormShipmentRepository(db.DB)
	methodRepo := persistence.NewGormPaymentMethodRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteMethodRepository(db.DB)
	rateRepo := persistence.NewGormTaxRateRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	currency, err := valueobject.ParseCurrency(cfg.Store.Currency)
	if err != nil {
		log.Fatal("Invalid store currency", zap.String("currency", cfg.Store.Currency), zap.Error(err))
	}

	// Application services
	orderService := orderapp.NewOrderService(orderRepo, statusRepo, productRepo, log)
	orderService.SetStoreCurrency(currency)
	statusService := orderapp.NewStatusService(statusRepo, orderRepo)

	checkoutService := checkoutapp.NewCheckoutService(orderRepo, statusRepo, productRepo, rateRepo, quoteRepo, methodRepo, order.CheckoutRules{
		Enabled:           cfg.Store.CheckoutEnabled,
		AnonymousCheckout: cfg.Store.AnonymousCheckout,
		MinimumSubtotal:   decimal.NewFromFloat(cfg.Store.MinimumSubtotal),
		Countries:         cfg.Store.Countries,
	}, log)
	checkoutService.SetStoreCurrency(currency)

	methodService := paymentapp.NewMethodService(methodRepo)
	receiptService := paymentapp.NewReceiptService(orderRepo, statusRepo, methodRepo, receiptRepo, log)
	terminalService := paymentapp.NewTerminalService(orderRepo, statusRepo, receiptRepo,
		paymentinfra.NewTestGateway(cfg.Credit.CardDebug, log), log)
	paypalClient := paymentinfra.NewPayPalClient(paymentinfra.PayPalConfig{
		BaseURL:     cfg.PayPal.BaseURL,
		Timeout:     cfg.PayPal.Timeout,
		LogRequests: cfg.PayPal.LogRequests,
	}, log)
	paypalService := paymentapp.NewPayPalService(orderRepo, statusRepo, methodRepo, receiptRepo, paypalClient, checkoutService, log)
	paymentScope := persistence.NewGormPaymentScope(db.DB)
	receiptService.SetTransactionScope(paymentScope)
	terminalService.SetTransactionScope(paymentScope)
	paypalService.SetTransactionScope(paymentScope)

	fulfillmentService := fulfillmentapp.NewFulfillmentService(orderRepo, packageRepo, shipmentRepo, log)
	quoteService := shippingapp.NewQuoteService(quoteRepo, orderRepo, log)
	rateService := taxapp.NewRateService(rateRepo, orderRepo, log)
	stockService := stockapp.NewStockService(stockRepo, log)
	productService := catalogapp.NewProductService(productRepo, log)

	reportService := reportapp.NewReportService(reportRepo, statusRepo, csvStore, reportapp.ReportServiceConfig{
		Statuses:         cfg.Store.ReportStatuses,
		ArchiveURLExpiry: cfg.Storage.PresignExpiration,
	}, log)
	if cfg.Storage.Enabled {
		switch cfg.Storage.Driver {
		case "memory":
			log.Warn("Report archives are kept in memory and lost on restart")
			reportService.SetArchiveStorage(storage.NewMemoryObjectStorage())
		default:
			archive, err := storage.NewS3Archive(cfg.Storage, log)
			if err != nil {
				log.Fatal("Failed to initialize report archive storage", zap.Error(err))
			}
			if err := archive.EnsureBucket(ctx); err != nil {
				log.Warn("Report archive bucket unavailable", zap.Error(err))
			}
			reportService.SetArchiveStorage(archive)
		}
	}

	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService, err := identityapp.NewAuthService(cfg.Auth.Accounts, jwtService, tokenBlacklist, log)
	if err != nil {
		log.Fatal("Failed to load accounts", zap.Error(err))
	}

	if err := applyStateDefaults(ctx, statusService, cfg.Store.StateDefaults); err != nil {
		log.Fatal("Failed to apply order state defaults", zap.Error(err))
	}

	// Event bus
	serializer := event.NewEventSerializer()
	event.RegisterStoreEvents(serializer)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(fulfillmentapp.NewOrderDeletedHandler(fulfillmentService, log))
	eventBus.Subscribe(event.NewIdempotentHandler(stockapp.NewCheckoutCompletedHandler(stockService, log), idempotencyStore, log))
	eventBus.Subscribe(stockapp.NewThresholdHandler(log).WithNotifier(stockapp.NewLoggingStockAlertNotifier(log)))
	eventBus.Subscribe(orderapp.NewOrderNotificationHandler(orderapp.NewLoggingOrderNotifier(log), cfg.Store.Name, cfg.Store.Email, log))
	eventBus.Subscribe(event.NewOutboxPublisher(serializer, outboxRepo))

	if meterProvider.IsEnabled() {
		storeMetrics, err := telemetry.NewStoreMetrics(telemetry.StoreMetricsConfig{
			Meter:         meterProvider.Meter("store"),
			Logger:        log,
			OrderProvider: orderRepo,
		})
		if err != nil {
			log.Warn("Store metrics disabled", zap.Error(err))
		} else {
			eventBus.Subscribe(storeMetrics)
			storeMetrics.StartPeriodicCollection(ctx, order.StatusPending, time.Minute)
			defer storeMetrics.Stop()
		}
	}

	for _, p := range []interface{ SetEventPublisher(shared.EventPublisher) }{
		orderService, checkoutService, receiptService, terminalService,
		paypalService, fulfillmentService, stockService, productService,
	} {
		p.SetEventPublisher(eventBus)
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Failed to stop event bus", zap.Error(err))
		}
	}()

	if cfg.AMQP.Enabled {
		publisher, err := messaging.DialAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		defer func() { _ = publisher.Close() }()

		relay := event.NewOutboxRelay(outboxRepo, publisher, event.DefaultRelayConfig(), log)
		if err := relay.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox relay", zap.Error(err))
		}
		defer func() { _ = relay.Stop(context.Background()) }()
	}

	if cfg.Scheduler.Enabled {
		stop, err := startScheduler(ctx, cfg, orderService, reportService, db, log)
		if err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer stop()
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
		engine.Use(middleware.SpanAttributes())
	}
	if meterProvider.IsEnabled() {
		engine.Use(middleware.HTTPMetrics(meterProvider.Meter("http.server"), log))
	}
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		engine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	setupRoutes(engine, cfg, routeDeps{
		jwtService:     jwtService,
		tokenBlacklist: tokenBlacklist,
		log:            log,

		system:      handler.NewSystemHandler(cfg.App.Name, version, db),
		auth:        handler.NewAuthHandler(authService),
		order:       handler.NewOrderHandler(orderService, fulfillmentService),
		userOrder:   handler.NewUserOrderHandler(orderService),
		orderStatus: handler.NewOrderStatusHandler(statusService),
		checkout:    handler.NewCheckoutHandler(checkoutService, paypalService),
		method:      handler.NewPaymentMethodHandler(methodService),
		payment:     handler.NewPaymentHandler(receiptService, terminalService),
		fulfillment: handler.NewFulfillmentHandler(fulfillmentService),
		shipping:    handler.NewShippingHandler(quoteService),
		tax:         handler.NewTaxHandler(rateService),
		stock:       handler.NewStockHandler(stockService),
		product:     handler.NewProductHandler(productService),
		report:      handler.NewReportHandler(reportService),
		outbox:      handler.NewOutboxHandler(outboxService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	log.Info("Server exited")
}

// startScheduler runs the daily store jobs and returns the function that stops them
func startScheduler(
	ctx context.Context,
	cfg *config.Config,
	orders jobs.CartCleaner,
	reports jobs.SummaryArchiver,
	db *persistence.Database,
	log *zap.Logger,
) (func(), error) {
	hour, minute, err := scheduler.ParseDailyTime(cfg.Scheduler.DailyTime)
	if err != nil {
		return nil, err
	}

	var daily []scheduler.JobType
	if cfg.Scheduler.CartCleanup {
		daily = append(daily, scheduler.JobTypeCartCleanup)
	}
	if cfg.Scheduler.ReportArchive {
		daily = append(daily, scheduler.JobTypeReportArchive)
	}

	executor := jobs.NewStoreJobExecutor(orders, reports, jobs.CartDurations{
		Anonymous:     cfg.Cart.AnonymousDuration,
		Authenticated: cfg.Cart.AuthenticatedDuration,
	}, log)

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
		DailyJobs:         daily,
	}, executor, log)
	sched.SetRecorder(scheduler.NewSchedulerJobRepository(db.DB))

	if err := sched.Start(ctx); err != nil {
		return nil, err
	}

	trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
		DailyHour:     hour,
		DailyMinute:   minute,
		CheckInterval: cfg.Scheduler.CheckInterval,
	}, sched, log)
	if err := trigger.Start(ctx); err != nil {
		_ = sched.Stop(context.Background())
		return nil, err
	}

	log.Info("Scheduler started",
		zap.String("daily_time", cfg.Scheduler.DailyTime),
		zap.Int("daily_jobs", len(daily)),
	)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = trigger.Stop(stopCtx)
		_ = sched.Stop(stopCtx)
	}, nil
}

// applyStateDefaults stores the configured default status of each order state
func applyStateDefaults(ctx context.Context, statuses *orderapp.StatusService, defaults map[string]string) error {
	for state, statusID := range defaults {
		if _, err := statuses.SetStateDefault(ctx, state, orderapp.SetStateDefaultRequest{StatusID: statusID}); err != nil {
			return err
		}
	}
	return nil
}

func shutdownWithTimeout(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Failed to shut down "+name, zap.Error(err))
	}
}
