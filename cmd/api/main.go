package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/integration/crmapi"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/notify"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/infra/session"
	"github.com/xavierca1/leadflow/internal/infra/storage"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/logging"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func main() {
	cfg, err := config.Load(os.Getenv("LEADFLOW_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// 1. Storage and session
	store, err := storage.Open(ctx, cfg.DatabaseURL, cfg.StorePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := session.New(store)
	if err := sess.Init(ctx); err != nil {
		return err
	}
	if !sess.Authenticated() {
		logger.Warn("no stored session, backend calls will fail until `leadctl login` runs")
	}

	// 2. Gateways
	client := crmapi.NewClient(cfg.CRMAPIURL, sess, logger)

	stages := usecase.NewStageRegistry(store, logger)
	if err := stages.Load(ctx); err != nil {
		return err
	}

	feed := notify.NewFeed(cfg.NotificationCap)
	notifier := notify.Multi{feed, notify.Logger{L: logger}}

	// 3. Board
	board := usecase.NewBoard(client, stages, notifier, logger)
	board.SyncTimeout = cfg.SyncTimeout
	board.PageSize = cfg.LeadsPageSize
	board.Recorder = middleware.BoardMetrics{}
	stages.OnChange(func(s []entity.Stage) { board.Repartition(s) })

	// 4. Events and email alerts
	var rabbitHealthy func() bool
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		rabbitHealthy = rabbitMQ.Healthy
		board.Events = queue.NewProducer(rabbitMQ.Ch)

		if cfg.Mail.Enabled() {
			sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.Recipient)
			sender.Stages = stages
			w := queue.NewWorker(rabbitMQ.Ch, sender, logger)
			go func() {
				if err := w.Start(ctx, queue.QueueName); err != nil {
					logger.Error("stage change worker stopped", zap.Error(err))
				}
			}()
		}
	} else {
		logger.Info("RABBITMQ_URL not set, stage change events disabled")
	}

	if sess.Authenticated() {
		if err := board.Load(ctx); err != nil {
			logger.Warn("initial board load failed", zap.Error(err))
		}
	}
	go worker.NewBoardRefresher(board, cfg.ResyncInterval, cfg.SyncTimeout, logger).Start(ctx)

	// 5. Use cases
	filters := usecase.NewSavedFilterService(store, logger)
	editor := usecase.NewLeadEditor(client, stages, board, notifier, logger)
	listLeads := usecase.NewListLeadsUseCase(client, filters, cfg.LeadsPageSize)
	deleteLead := usecase.NewDeleteLeadUseCase(client, board, notifier, logger)

	// 6. Handlers and router
	var pinger handlers.Pinger
	if p, ok := store.(handlers.Pinger); ok {
		pinger = p
	}
	limiter := middleware.NewRateLimiter(cfg.WriteRateLimit, time.Minute)
	go sweep(ctx, limiter)

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:        logger,
		CORSOrigins:   cfg.CORSOrigins,
		RateLimiter:   limiter,
		Health:        handlers.NewHealthHandler(pinger, rabbitHealthy, board, cfg.CRMAPIURL),
		Board:         handlers.NewBoardHandler(board, editor),
		Leads:         handlers.NewLeadHandler(listLeads, deleteLead),
		Filters:       handlers.NewFilterHandler(filters),
		Stages:        handlers.NewStageHandler(stages),
		Notifications: handlers.NewNotificationHandler(feed),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      75 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("leadflow api listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		board.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pending syncs did not finish before shutdown")
	}
	return nil
}

func sweep(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
