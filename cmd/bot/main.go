package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FrankX3M/wordstat-api/internal/api/handlers/health"
	"github.com/FrankX3M/wordstat-api/internal/api/handlers/telegram_webhook"
	"github.com/FrankX3M/wordstat-api/internal/api/middleware"
	"github.com/FrankX3M/wordstat-api/internal/bot"
	"github.com/FrankX3M/wordstat-api/internal/config"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/exportjob"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/hostcache"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/schema"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/user"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
	"github.com/FrankX3M/wordstat-api/internal/service/export"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram/templates"
	"github.com/FrankX3M/wordstat-api/internal/usecase/request_export"
	"github.com/FrankX3M/wordstat-api/internal/usecase/start_message"
	"github.com/FrankX3M/wordstat-api/internal/worker"
	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
	"github.com/FrankX3M/wordstat-api/pkg/logger"
	"github.com/FrankX3M/wordstat-api/pkg/metrics"
	"github.com/FrankX3M/wordstat-api/pkg/txmanager"
)

func main() {
	configPath := flag.String("config", "config.toml", "путь к файлу конфигурации (.toml или .yaml)")
	flag.Parse()

	// Без файла конфигурации работаем на значениях по умолчанию и окружении
	path := *configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireTelegram(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting %s v%s...", templates.BotName, templates.BotVersion)
	if path != "" {
		log.Info("Configuration loaded from %s", path)
	} else {
		log.Info("Config file %s not found, using defaults and environment", *configPath)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := schema.Open(cfg.Database.Driver, cfg.Database.ConnString())
	if err != nil {
		log.Fatal("Failed to open database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool (sqlite работает через одно соединение)
	if cfg.Database.Driver == config.DriverPostgres {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	}

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to %s database", cfg.Database.Driver)

	// Создаём контекст с возможностью отмены для управления жизненным циклом горутин
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	if err := schema.Migrate(ctx, wrappedDB, cfg.Database.Driver); err != nil {
		log.Fatal("Failed to migrate database: %v", err)
	}

	// Инициализируем repositories
	userRepo := user.NewRepository(wrappedDB, cfg.Database.Driver)
	exportRepo := exportjob.NewRepository(wrappedDB, cfg.Database.Driver)
	hostCache := hostcache.NewRepository(wrappedDB, cfg.Database.Driver)
	txManager := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем клиент Yandex Webmaster
	clientOpts := webmaster.Options{
		BaseURL:     cfg.Webmaster.BaseURL,
		Token:       cfg.Webmaster.AccessToken,
		Timeout:     cfg.Webmaster.RequestTimeout(),
		MaxAttempts: cfg.Webmaster.RetryAttempts,
		Logger:      log,
	}
	exportOpts := []export.Option{}
	if cfg.Metrics.Enabled {
		clientOpts.Observer = metricsCollector
		exportOpts = append(exportOpts, export.WithObserver(metricsCollector))
	}
	webmasterClient := webmaster.NewClient(clientOpts)
	account := webmaster.NewAccount(webmasterClient)
	log.Info("Webmaster client initialized (base=%s, attempts=%d)", cfg.Webmaster.BaseURL, cfg.Webmaster.RetryAttempts)

	exportSvc := export.NewService(webmasterClient, export.Config{
		Dir:             cfg.Export.ExportsDir,
		DefaultLimit:    cfg.Export.DefaultPageSize,
		MaxRows:         cfg.Export.MaxRows,
		SubRequestDelay: cfg.Export.SubRequestPause(),
		PageDelay:       cfg.Export.PagePause(),
		HistoryDelay:    cfg.Export.HistoryPause(),
	}, log, exportOpts...)

	// Инициализируем Telegram Bot API
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal("Failed to initialize Telegram Bot API: %v", err)
	}
	botAPI.Debug = cfg.Telegram.Debug
	log.Info("Telegram Bot API initialized (@%s)", botAPI.Self.UserName)

	telegramSvc := telegram.NewService(botAPI)

	// Инициализируем Worker компоненты
	processor := worker.NewProcessor(exportRepo, userRepo, txManager, exportSvc, account, telegramSvc, log, worker.ProcessorConfig{
		Interval:         time.Duration(cfg.Worker.ProcessorInterval) * time.Second,
		BatchSize:        cfg.Worker.ProcessorBatchSize,
		ProgressInterval: time.Duration(cfg.Worker.ProgressInterval) * time.Second,
		ExportsDir:       cfg.Export.ExportsDir,
		StatesDir:        cfg.Export.StatesDir,
		MaxRows:          cfg.Export.MaxRows,
		RegionID:         cfg.Export.RegionID,
		RegionName:       cfg.Export.RegionName,
	})

	sessions := bot.NewSessions()
	janitor := worker.NewJanitor(exportRepo, hostCache, sessions, log, worker.JanitorConfig{
		RunAt:      cfg.Janitor.RunAt,
		Retention:  cfg.Janitor.Retention(),
		ExportsDir: cfg.Export.ExportsDir,
		StatesDir:  cfg.Export.StatesDir,
	})

	// Инициализируем use cases
	startMessageUC := start_message.New(telegramSvc, userRepo)
	requestExportUC := request_export.New(exportRepo, processor, request_export.Config{
		DefaultDays:  cfg.Export.DefaultDays,
		MaxRangeDays: cfg.Export.MaxRangeDays,
	})

	router := bot.NewRouter(bot.Deps{
		Messenger:     telegramSvc,
		API:           webmasterClient,
		Account:       account,
		Cache:         hostCache,
		Users:         userRepo,
		Exports:       exportRepo,
		StartMessage:  startMessageUC,
		RequestExport: requestExportUC,
		Canceller:     processor,
		DB:            wrappedDB,
		Sessions:      sessions,
	}, bot.Config{
		HostsPerPage: cfg.Bot.HostsPerPage,
		CacheTTL:     cfg.Janitor.CacheLifetime(),
		AdminUserIDs: cfg.Bot.AdminUserIDs,
	}, log)

	// КРИТИЧНО: задачи, прерванные прошлой остановкой, закрываем до старта processor
	if err := janitor.RecoverInterrupted(ctx); err != nil {
		log.Error("Failed to recover interrupted exports: %v", err)
	}
	if err := janitor.Start(); err != nil {
		log.Fatal("Failed to start janitor: %v", err)
	}
	processor.Start()

	// Определяем режим работы: Webhook или Long Polling
	if cfg.Telegram.WebhookURL != "" {
		log.Info("Using Webhook mode")

		if err := telegramSvc.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
			log.Fatal("Failed to set Telegram webhook: %v", err)
		}
		log.Info("Telegram webhook set to %s", cfg.Telegram.WebhookURL)
	} else {
		log.Info("Using Long Polling mode")

		if err := telegramSvc.DeleteWebhook(); err != nil {
			log.Warn("Failed to delete webhook (may not exist): %v", err)
		}

		pollingHandler := worker.NewPollingHandler(router, log)
		go pollingHandler.Start(ctx, telegramSvc.GetUpdatesChan(0))
		log.Info("Telegram long polling started")
	}

	// Инициализируем handlers
	healthHandler := health.NewHandler(wrappedDB)
	telegramWebhookHandler := telegram_webhook.NewHandler(router, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	r.HandleFunc("/health", healthHandler.Handle).Methods(http.MethodGet)
	r.HandleFunc("/webhook/telegram", telegramWebhookHandler.Handle).Methods(http.MethodPost)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	// КРИТИЧНО: Останавливаем приём обновлений и Worker ПЕРЕД сервером
	cancelCtx()
	processor.Stop()
	janitor.Stop()
	log.Info("Worker components stopped")

	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
