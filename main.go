package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"greendrake/estates/internal/api"
	"greendrake/estates/internal/api/middleware"
	"greendrake/estates/internal/cache"
	"greendrake/estates/internal/config"
	"greendrake/estates/internal/db"
	"greendrake/estates/internal/email"
	"greendrake/estates/internal/logger"
	"greendrake/estates/internal/storage"
	"greendrake/estates/internal/store"
	"greendrake/estates/internal/tasks"
)

const shutdownTimeout = 15 * time.Second

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.RunMode != "api" && cfg.RunMode != "bg" && cfg.RunMode != "all" {
		log.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient, log); err != nil {
			log.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, mongoDb); err != nil {
		log.Fatal("failed to ensure indexes", zap.Error(err))
	}
	cancelIndex()

	redisClient, err := cache.ConnectRedis(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient, log); err != nil {
			log.Error("error disconnecting from Redis", zap.Error(err))
		}
	}()

	s3StorageService, err := storage.NewS3Storage(context.Background(), cfg)
	if err != nil {
		log.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	taskClient := tasks.NewClient(cfg)
	defer func() {
		if err := taskClient.Close(); err != nil {
			log.Error("error closing task client", zap.Error(err))
		}
	}()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// The service API runs in every mode.
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(cfg, log, redisClient, shutdownChan),
	}
	serve(&wg, log, "service API", serviceSrv)

	var mainApiSrv *http.Server
	var taskSrv *asynq.Server

	log.Info("starting application", zap.String("mode", cfg.RunMode))

	if cfg.RunMode == "api" || cfg.RunMode == "all" {
		deps := api.NewDependencies(cfg, log, mongoDb, taskClient, s3StorageService)
		rateLimiter := middleware.NewRateLimiterMiddleware(cfg, log)
		defer rateLimiter.Close()
		router, err := api.SetupRouter(cfg, log, deps, rateLimiter)
		if err != nil {
			log.Fatal("failed to set up router", zap.Error(err))
		}
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		serve(&wg, log, "main API", mainApiSrv)
	}

	if cfg.RunMode == "bg" || cfg.RunMode == "all" {
		processor := tasks.NewTaskProcessor(
			cfg,
			log,
			newEmailSender(cfg, log, redisClient),
			s3StorageService,
			store.NewUserStore(mongoDb),
			store.NewPropertyStore(mongoDb),
			store.NewEnquiryStore(mongoDb),
		)
		var mux *asynq.ServeMux
		taskSrv, mux = tasks.SetupServer(cfg, processor, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("task server starting")
			if err := taskSrv.Run(mux); err != nil {
				log.Fatal("task server error", zap.Error(err))
			}
			log.Info("task server stopped")
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-shutdownChan:
		log.Info("shutdown requested via service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Error("service API shutdown error", zap.Error(err))
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Error("main API shutdown error", zap.Error(err))
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	log.Info("server gracefully stopped")
}

func serve(wg *sync.WaitGroup, log *zap.Logger, name string, srv *http.Server) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("listening", zap.String("server", name), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe error", zap.String("server", name), zap.Error(err))
		}
		log.Info("server stopped", zap.String("server", name))
	}()
}

// newEmailSender picks the primary sender (Redis capture under MOCK_SERVICES, else SMTP or logging)
// and adds a file copy when LOG_EMAILS is set.
func newEmailSender(cfg *config.Config, log *zap.Logger, redisClient *redis.Client) email.Sender {
	var primary email.Sender
	if cfg.MockServices {
		log.Info("MOCK_SERVICES enabled: capturing emails in Redis")
		primary = email.NewRedisSender(redisClient, cfg.SmtpFromAddress, log)
	} else {
		primary = email.NewSMTPSender(cfg, log)
	}

	composite := email.NewCompositeEmailSender(primary)
	if cfg.LogEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(cfg.LogEmailsPath)
		if err != nil {
			log.Warn("file email logger disabled", zap.String("path", cfg.LogEmailsPath), zap.Error(err))
		} else {
			composite.AddSender(fileSender)
			log.Info("file email logger enabled", zap.String("path", cfg.LogEmailsPath))
		}
	}
	return composite
}
