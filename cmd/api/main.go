package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voca-platform/internal/audit"
	"voca-platform/internal/config"
	"voca-platform/internal/db"
	"voca-platform/internal/dialer"
	"voca-platform/internal/dispatcher"
	"voca-platform/internal/httpapi"
	"voca-platform/internal/pricing"
	"voca-platform/internal/reconciler"
	"voca-platform/internal/reporting"
	"voca-platform/internal/store"
	"voca-platform/internal/telephony"
	"voca-platform/internal/voiceai"
	"voca-platform/pkg/logger"
	"voca-platform/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sqlDB, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(rootCtx, sqlDB); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	st := store.NewPostgres(sqlDB)
	auditSvc := audit.NewService(audit.NewPostgresRepo(sqlDB))
	calc := pricing.NewCalculator(cfg.Campaign.PerMinuteRate)

	var limiter *dispatcher.RedisLimiter
	if cfg.Campaign.MaxConcurrentCalls > 0 {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = dispatcher.NewRedisLimiter(rdb, cfg.Campaign.MaxConcurrentCalls, cfg.Campaign.StuckCallTimeout, log)
	}

	dl := &dialer.CallDialer{
		VoiceAI:        voiceai.NewClient(cfg.Ultravox.BaseURL, cfg.Ultravox.APIKey, cfg.Ultravox.Timeout),
		Telephony:      telephony.NewExotelClient(cfg.Exotel.BaseURL, cfg.Exotel.SID, cfg.Exotel.APIKey, cfg.Exotel.APIToken, cfg.Exotel.CallerID, cfg.Exotel.Timeout),
		BaseURL:        cfg.App.BaseURL,
		PromptTemplate: cfg.Campaign.SystemPrompt,
	}

	recOpts := []reconciler.Option{
		reconciler.WithLogger(log),
		reconciler.WithAudit(auditSvc),
	}
	dispOpts := []dispatcher.Option{
		dispatcher.WithLogger(log),
		dispatcher.WithAudit(auditSvc),
	}
	if limiter != nil {
		recOpts = append(recOpts, reconciler.WithLimiter(limiter))
		dispOpts = append(dispOpts, dispatcher.WithLimiter(limiter))
	}

	rec := reconciler.New(st, calc, recOpts...)
	disp := dispatcher.New(st, dl, dispatcher.Config{
		MinBalance:       cfg.Campaign.MinBalance,
		PollInterval:     cfg.Campaign.PollInterval,
		IdleInterval:     cfg.Campaign.IdleInterval,
		ErrorInterval:    cfg.Campaign.ErrorInterval,
		StuckCallTimeout: cfg.Campaign.StuckCallTimeout,
	}, dispOpts...)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	corsCfg := cors.DefaultConfig()
	if len(cfg.App.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.App.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	registerRoutes(r, httpapi.Handlers{
		Store:      st,
		Reconciler: rec,
		Reporting:  reporting.NewService(st),
		Audit:      auditSvc,
	})

	// Campaign loop runs alongside the HTTP server for the whole process
	// lifetime; it exits only on shutdown.
	go func() {
		if err := disp.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("dispatcher stopped", "err", err)
			stop()
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
